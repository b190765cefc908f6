// Package blend animates the switch from one palette to another.
//
// The engine holds no timers. Every query is a pure function of the time
// passed in and of the last SetPalette call, so callers drive rendering from
// their own loop and tests use a fake clock.
package blend

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/palette"
)

// TransitionTime is how long a palette change takes to blend in.
const TransitionTime = 400 * time.Millisecond

// Colours maps swatch keys to the colour they are currently drawn with.
type Colours map[string]colorful.Color

func (c Colours) clone() Colours {
	out := make(Colours, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Ease is 1 - (1 - x²)³: monotonic, slow at both ends, Ease(0) = 0 and
// Ease(1) = 1.
func Ease(x float64) float64 {
	y := 1 - x*x
	y *= y * y
	return 1 - y
}

// Engine blends from the previous palette to the next one over
// TransitionTime. The zero value is ready to use with the wall clock.
type Engine struct {
	// Now returns the current time; nil means time.Now.
	Now func() time.Time

	prev, next Colours
	start      time.Time
	timed      bool // false once a transition was made instant
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// SetPalette starts a transition to p. A non-empty override draws every swatch
// in the override swatch's colour (the "mono" style). The transition starts
// from whatever is on screen right now, so changing palettes mid-transition
// does not jump. With instant, p is applied immediately.
func (e *Engine) SetPalette(p palette.Palette, override string, instant bool) error {
	next := make(Colours, len(p.Colours))
	for key := range p.Colours {
		source := key
		if override != "" {
			source = override
		}
		c, err := p.Colour(source)
		if err != nil {
			return errors.Wrap(err, "setting palette")
		}
		next[key] = c
	}

	now := e.now()
	if e.next == nil {
		e.prev = next
	} else {
		e.prev = e.At(now)
	}
	e.next = next
	e.start = now
	e.timed = !instant
	return nil
}

// Ratio returns the uneased progress of the transition at now, in [0, 1].
func (e *Engine) Ratio(now time.Time) float64 {
	if !e.timed {
		return 1
	}
	r := float64(now.Sub(e.start)) / float64(TransitionTime)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Settled reports whether the transition has completed at now.
func (e *Engine) Settled(now time.Time) bool {
	return e.Ratio(now) >= 1
}

// Animating reports whether frames rendered at now may still differ from
// the final palette. It includes the instant the transition completes.
func (e *Engine) Animating(now time.Time) bool {
	if !e.timed {
		return false
	}
	return now.Sub(e.start) <= TransitionTime
}

// At returns the colours to draw with at now. Once the transition is
// complete this is exactly the target palette.
func (e *Engine) At(now time.Time) Colours {
	if e.next == nil {
		return Colours{}
	}
	ratio := e.Ratio(now)
	if ratio >= 1 {
		return e.next.clone()
	}

	t := Ease(ratio)
	out := make(Colours, len(e.next))
	for key, next := range e.next {
		prev, ok := e.prev[key]
		if !ok {
			out[key] = next
			continue
		}
		out[key] = prev.BlendRgb(next, t)
	}
	return out
}

// Current returns At(e.Now()).
func (e *Engine) Current() Colours {
	return e.At(e.now())
}

// Ticker decides, frame by frame, whether the preview needs redrawing:
// while the engine is animating, and once more on the first frame after it
// stops so the settled colours are drawn.
type Ticker struct {
	Engine *Engine

	wasAnimating bool
}

// NeedsRender is called once per frame.
func (t *Ticker) NeedsRender(now time.Time) bool {
	animating := t.Engine.Animating(now)
	need := animating || t.wasAnimating
	t.wasAnimating = animating
	return need
}
