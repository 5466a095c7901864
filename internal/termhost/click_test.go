package termhost

import (
	"testing"
	"time"

	"github.com/dshills/widgetmacro/internal/host"
)

func TestClickTracker(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	type press struct {
		pos    host.Point
		button host.Button
		after  time.Duration
	}
	tests := []struct {
		name    string
		presses []press
		want    []int
	}{
		{
			name:    "single",
			presses: []press{{host.Pt(1, 1), host.ButtonLeft, 0}},
			want:    []int{1},
		},
		{
			name: "double",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(1, 1), host.ButtonLeft, 100 * time.Millisecond},
			},
			want: []int{1, 2},
		},
		{
			name: "triple restarts",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(1, 1), host.ButtonLeft, 10 * time.Millisecond},
				{host.Pt(1, 1), host.ButtonLeft, 10 * time.Millisecond},
			},
			want: []int{1, 2, 1},
		},
		{
			name: "within distance",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(2, 1), host.ButtonLeft, 10 * time.Millisecond},
			},
			want: []int{1, 2},
		},
		{
			name: "too far",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(2, 2), host.ButtonLeft, 10 * time.Millisecond},
			},
			want: []int{1, 1},
		},
		{
			name: "too slow",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(1, 1), host.ButtonLeft, DefaultDoubleClickTime + time.Millisecond},
			},
			want: []int{1, 1},
		},
		{
			name: "other button",
			presses: []press{
				{host.Pt(1, 1), host.ButtonLeft, 0},
				{host.Pt(1, 1), host.ButtonRight, 10 * time.Millisecond},
			},
			want: []int{1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newClickTracker(DefaultDoubleClickTime, DefaultDoubleClickDistance)
			now := t0
			for i, p := range tt.presses {
				now = now.Add(p.after)
				if got := tr.recordPress(p.pos, p.button, now); got != tt.want[i] {
					t.Errorf("press %d count = %d, want %d", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestClickTrackerClockSkew(t *testing.T) {
	tr := newClickTracker(DefaultDoubleClickTime, DefaultDoubleClickDistance)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.recordPress(host.Pt(0, 0), host.ButtonLeft, t0)
	if got := tr.recordPress(host.Pt(0, 0), host.ButtonLeft, t0.Add(-time.Second)); got != 1 {
		t.Errorf("count after clock went back = %d, want 1", got)
	}
}

func TestWithDoubleClickDistance(t *testing.T) {
	h, _ := newTestHost(t, WithDoubleClick(DefaultDoubleClickTime, 0))
	f := NewForm(h)
	got := kinds(h)

	at := Center(f.Subscribe)
	h.UserClick(at, host.ModNone)
	h.UserClick(at.Add(host.Pt(1, 0)), host.ModNone)
	for _, k := range *got {
		if k == host.EventMouseDoubleClick {
			t.Fatal("double click reported for presses one cell apart")
		}
	}
	if f.Subscribe.Checked() {
		t.Error("two clicks should leave the box unchecked")
	}
}
