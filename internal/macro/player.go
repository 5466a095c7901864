package macro

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/widgetmacro/internal/host"
)

// GraceDelay is added to every inter-event wait so the host can finish
// processing the previous event first.
const GraceDelay = 5 * time.Millisecond

// Status is the outcome of a playback run.
type Status int

// Playback statuses. StatusStopped is reserved for cancellation and is not
// produced yet.
const (
	StatusSuccess Status = iota
	StatusFailure
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Report describes how a playback run ended.
type Report struct {
	RunID  uuid.UUID
	Macro  string
	Status Status
	// Err is set for StatusFailure. It wraps the event's error in a
	// *PlaybackEndedError.
	Err          error
	Started      time.Time
	Duration     time.Duration
	EventsPlayed int
}

// PlayerState is the state of a Player.
type PlayerState int

// Player states.
const (
	PlayerIdle PlayerState = iota
	PlayerPlaying
	PlayerHalted
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "idle"
	case PlayerPlaying:
		return "playing"
	case PlayerHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithSpeed sets the initial player speed. Invalid values are ignored.
func WithSpeed(speed float64) PlayerOption {
	return func(p *Player) {
		if validSpeed(speed) {
			p.speed = speed
		}
	}
}

// WithLocator replaces the default widget locator.
func WithLocator(l Locator) PlayerOption {
	return func(p *Player) {
		p.locator = l
	}
}

// WithGraceDelay replaces GraceDelay.
func WithGraceDelay(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d >= 0 {
			p.grace = d
		}
	}
}

// WithPlayerLogger sets the player's logger.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Player replays macros on the host loop.
//
// Each event is performed from a loop timer that fires after the event's
// delay scaled by the player and macro speeds. Only one timer is pending at
// a time and the player never blocks the loop.
type Player struct {
	host    host.Host
	logger  *slog.Logger
	locator Locator
	speed   float64
	grace   time.Duration

	state PlayerState
	run   *run

	subscribers map[int]func(Report)
	order       []int
	nextID      int
}

// run is the bookkeeping of one Play call.
type run struct {
	id       uuid.UUID
	macro    Macro
	events   []Event
	index    int
	inFlight bool
	started  time.Time
}

// NewPlayer creates an idle player driving h.
func NewPlayer(h host.Host, opts ...PlayerOption) *Player {
	p := &Player{
		host:        h,
		logger:      slog.Default(),
		locator:     DefaultLocator(),
		speed:       1.0,
		grace:       GraceDelay,
		subscribers: make(map[int]func(Report)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "player")
	return p
}

// State returns the current state.
func (p *Player) State() PlayerState {
	return p.state
}

// IsPlaying reports whether a run is in progress.
func (p *Player) IsPlaying() bool {
	return p.state == PlayerPlaying
}

// Speed returns the player speed.
func (p *Player) Speed() float64 {
	return p.speed
}

// SetSpeed sets the player speed multiplier applied to every delay. A run
// in progress uses the new speed from its next event on.
func (p *Player) SetSpeed(speed float64) error {
	if !validSpeed(speed) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	p.speed = speed
	return nil
}

func validSpeed(s float64) bool {
	return s > 0 && !math.IsNaN(s) && !math.IsInf(s, 0)
}

// OnPlaybackEnded registers fn to receive the report of every run. The
// returned function unregisters it.
func (p *Player) OnPlaybackEnded(fn func(Report)) (unsubscribe func()) {
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	p.order = append(p.order, id)
	return func() {
		delete(p.subscribers, id)
		p.order = slices.DeleteFunc(p.order, func(x int) bool { return x == id })
	}
}

// Play starts replaying m and returns immediately; the outcome is
// delivered to OnPlaybackEnded subscribers. It returns ErrAlreadyPlaying
// while another run is in progress.
func (p *Player) Play(m Macro) error {
	if p.state == PlayerPlaying {
		return ErrAlreadyPlaying
	}
	r := &run{
		id:      uuid.New(),
		macro:   m,
		events:  slices.Clone(m.Events),
		started: p.host.Now(),
	}
	p.run = r
	p.state = PlayerPlaying
	p.logger.Info("playback started",
		"run", r.id.String(),
		"macro", m.Name,
		"events", len(r.events),
		"speed", p.speed*m.Speed)
	p.scheduleNext(r)
	return nil
}

// delay returns how long to wait before performing ev.
func (p *Player) delay(ev Event, macroSpeed float64) time.Duration {
	if !validSpeed(macroSpeed) {
		macroSpeed = 1.0
	}
	ms := float64(ev.Delay()) * p.speed * macroSpeed
	return time.Duration(ms*float64(time.Millisecond)) + p.grace
}

func (p *Player) scheduleNext(r *run) {
	if r.index >= len(r.events) {
		p.finish(r, StatusSuccess, nil)
		return
	}
	ev := r.events[r.index]
	p.host.AfterFunc(p.delay(ev, r.macro.Speed), func() { p.step(r) })
}

func (p *Player) step(r *run) {
	if p.run != r {
		return
	}
	ev := r.events[r.index]
	r.inFlight = true
	p.host.ProcessPendingEvents()

	env := Env{Host: p.host, Locator: p.locator, Logger: p.logger}
	err := safely(func() error {
		Perform(env, ev, func(err error) { p.completed(r, err) })
		return nil
	})
	if err != nil {
		p.completed(r, err)
	}
}

// completed receives the outcome of the in-flight event. Later calls for
// the same event are ignored.
func (p *Player) completed(r *run, err error) {
	if p.run != r || !r.inFlight {
		return
	}
	r.inFlight = false
	if err != nil {
		p.finish(r, StatusFailure, &PlaybackEndedError{
			Macro: r.macro.Name,
			Index: r.index,
			Err:   err,
		})
		return
	}
	r.index++
	p.scheduleNext(r)
}

func (p *Player) finish(r *run, status Status, err error) {
	p.run = nil
	if status == StatusFailure {
		p.state = PlayerHalted
	} else {
		p.state = PlayerIdle
	}

	report := Report{
		RunID:        r.id,
		Macro:        r.macro.Name,
		Status:       status,
		Err:          err,
		Started:      r.started,
		Duration:     p.host.Now().Sub(r.started),
		EventsPlayed: r.index,
	}
	if err != nil {
		p.logger.Warn("playback failed",
			"run", r.id.String(),
			"macro", r.macro.Name,
			"event", r.index,
			"error", err)
	} else {
		p.logger.Info("playback finished",
			"run", r.id.String(),
			"macro", r.macro.Name,
			"events", r.index,
			"duration", report.Duration)
	}
	p.notify(report)
}

func (p *Player) notify(report Report) {
	for _, id := range slices.Clone(p.order) {
		fn, ok := p.subscribers[id]
		if !ok {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					p.logger.Error("playback listener panicked", "panic", fmt.Sprint(rec))
				}
			}()
			fn(report)
		}()
	}
}
