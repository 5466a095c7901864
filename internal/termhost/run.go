package termhost

import (
	"context"
	"errors"
	"time"
)

// RedrawInterval is how often Run repaints while nothing else happens,
// so playback driven by timers stays visible.
const RedrawInterval = 50 * time.Millisecond

// Run initializes the screen, pumps terminal events onto the loop and
// drives the loop until ctx is cancelled. The screen is finalized before
// Run returns.
func (h *Host) Run(ctx context.Context) error {
	if h.screen == nil {
		return ErrNoScreen
	}
	if err := h.screen.Init(); err != nil {
		return err
	}
	h.screen.EnableMouse()
	h.screen.EnablePaste()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go h.pump(ctx)
	go h.repaint(ctx)

	h.Post(h.Draw)
	err := h.Loop.Run(ctx)

	// Fini makes PollEvent return nil, which ends the pump.
	h.screen.Fini()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pump moves terminal events onto the loop.
func (h *Host) pump(ctx context.Context) {
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		h.Post(func() {
			if h.HandleEvent(ev) {
				h.Draw()
			}
		})
	}
}

func (h *Host) repaint(ctx context.Context) {
	ticker := time.NewTicker(RedrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Post(h.Draw)
		}
	}
}
