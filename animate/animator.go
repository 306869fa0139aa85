// Package animate interpolates node positions between two layouts, frame by
// frame, over a fixed duration.
package animate

import (
	"context"
	"time"

	"archboard/diagram"
)

// DefaultDuration is the tween length when none is configured.
const DefaultDuration = 400 * time.Millisecond

// State is the animator's lifecycle position.
type State int

const (
	Idle State = iota
	Running
	Settled
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// EaseOutCubic is the monotonic easing curve used for all position tweens.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// Animator tweens a position map from one layout to another. It is driven
// cooperatively: the host calls Tick once per frame and the animator reports
// when it has settled. It holds no timer of its own.
type Animator struct {
	duration time.Duration
	state    State
	from     map[string]diagram.Point
	to       map[string]diagram.Point
	started  time.Time
}

// New creates an animator. A non-positive duration selects the default.
func New(duration time.Duration) *Animator {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Animator{duration: duration}
}

// State returns the current lifecycle state.
func (a *Animator) State() State { return a.state }

// Start begins a tween from one position map to another. Node ids present in
// only one of the maps keep their known position throughout.
func (a *Animator) Start(from, to map[string]diagram.Point, now time.Time) {
	a.from = from
	a.to = to
	a.started = now
	a.state = Running
}

// Tick advances the tween to the given instant and returns the interpolated
// positions. The second return is true once the animation has settled; the
// final frame snaps exactly to the target positions so accumulated
// interpolation error never leaks into the committed layout.
func (a *Animator) Tick(now time.Time) (map[string]diagram.Point, bool) {
	if a.state != Running {
		return a.finalPositions(), a.state == Settled
	}

	t := float64(now.Sub(a.started)) / float64(a.duration)
	if t >= 1 {
		a.state = Settled
		return a.finalPositions(), true
	}
	if t < 0 {
		t = 0
	}

	eased := EaseOutCubic(t)
	frame := make(map[string]diagram.Point, len(a.to))
	for id, target := range a.to {
		start, ok := a.from[id]
		if !ok {
			frame[id] = target
			continue
		}
		frame[id] = diagram.Point{
			X: start.X + (target.X-start.X)*eased,
			Y: start.Y + (target.Y-start.Y)*eased,
		}
	}
	return frame, false
}

// finalPositions returns the exact target map.
func (a *Animator) finalPositions() map[string]diagram.Point {
	out := make(map[string]diagram.Point, len(a.to))
	for id, p := range a.to {
		out[id] = p
	}
	return out
}

// Run drives an animator to completion with a real ticker, calling frame on
// every interpolated step. It blocks until the animation settles; cancelling
// the context stops scheduling further frames and returns the context error.
func Run(ctx context.Context, a *Animator, from, to map[string]diagram.Point,
	interval time.Duration, frame func(map[string]diagram.Point)) (map[string]diagram.Point, error) {

	if a == nil {
		a = New(0)
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	a.Start(from, to, time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case now := <-ticker.C:
			positions, done := a.Tick(now)
			if frame != nil {
				frame(positions)
			}
			if done {
				return positions, nil
			}
		}
	}
}
