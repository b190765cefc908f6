// Package session holds one customiser's state: the active palette, the
// colour style and the export resolution. It draws the live preview with the
// palette transition applied and runs exports with the current settings.
//
// A Session is safe for concurrent use.
package session

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/blend"
	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/exporter"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/layout"
	"badc0de.net/pkg/go-vanilla/palette"
)

const (
	// StyleColourful draws every icon in its own swatch.
	StyleColourful = "colourful"
	// StyleMono draws every icon in the neutral swatch.
	StyleMono = "mono"

	// DefaultResolution is the export resolution of a new session.
	DefaultResolution = 16
)

var (
	ErrUnknownStyle      = errors.New("unknown style")
	ErrInvalidResolution = errors.New("invalid resolution")
)

// StyleOverride maps a style name to the swatch override it implies.
func StyleOverride(style string) (string, error) {
	switch style {
	case StyleColourful, "":
		return "", nil
	case StyleMono:
		return palette.Neutral, nil
	}
	return "", errors.Wrapf(ErrUnknownStyle, "%q", style)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for palette transitions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLayout changes the preview grid geometry. The default is layout.V2.
func WithLayout(p layout.Params) Option {
	return func(s *Session) {
		s.layout = p
	}
}

// Session is the state of one customiser page: the palette on display,
// the chosen style and the export resolution.
type Session struct {
	mu sync.Mutex

	renderer *compositor.Renderer
	set      palette.Set
	records  []icons.Record
	layout   layout.Params
	now      func() time.Time

	active     palette.Palette
	override   string
	resolution int

	engine blend.Engine
	ticker blend.Ticker
}

// New starts a session showing the default palette for the page theme
// ("light" or "dark"), applied without a transition.
func New(r *compositor.Renderer, set palette.Set, records []icons.Record, theme string, opts ...Option) (*Session, error) {
	if len(set.Palettes) == 0 {
		return nil, errors.Wrap(palette.ErrUnknownPalette, "new session: empty palette set")
	}
	s := &Session{
		renderer:   r,
		set:        set,
		records:    append([]icons.Record(nil), records...),
		layout:     layout.V2,
		now:        time.Now,
		resolution: DefaultResolution,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Now = s.now
	s.ticker.Engine = &s.engine

	s.active = set.Default(theme)
	if err := s.engine.SetPalette(s.active, "", true); err != nil {
		return nil, errors.Wrap(err, "new session")
	}
	return s, nil
}

// SetActivePalette starts a transition to the palette with the given id.
func (s *Session) SetActivePalette(id string) error {
	return s.setPalette(id, false)
}

// JumpToPalette applies the palette with the given id without a transition.
func (s *Session) JumpToPalette(id string) error {
	return s.setPalette(id, true)
}

func (s *Session) setPalette(id string, instant bool) error {
	p, err := s.set.ByID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetPalette(p, s.override, instant); err != nil {
		return err
	}
	glog.V(2).Infof("palette %q -> %q", s.active.ID, p.ID)
	s.active = p
	return nil
}

// SetOverride draws every icon in the key swatch; "" restores each icon's
// own swatch. The change animates like a palette change.
func (s *Session) SetOverride(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetPalette(s.active, key, false); err != nil {
		return err
	}
	s.override = key
	return nil
}

// SetStyle is SetOverride by style name.
func (s *Session) SetStyle(style string) error {
	key, err := StyleOverride(style)
	if err != nil {
		return err
	}
	return s.SetOverride(key)
}

func (s *Session) SetResolution(px int) error {
	if px <= 0 {
		return errors.Wrapf(ErrInvalidResolution, "%d", px)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolution = px
	return nil
}

// ActivePalette returns the palette being transitioned to.
func (s *Session) ActivePalette() palette.Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) Override() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.override
}

func (s *Session) Resolution() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

func (s *Session) Records() []icons.Record {
	return append([]icons.Record(nil), s.records...)
}

// Settled reports whether the palette transition has finished at now.
func (s *Session) Settled(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Settled(now)
}

// NeedsRender is called once per frame and reports whether the preview
// should be redrawn for it.
func (s *Session) NeedsRender(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker.NeedsRender(now)
}

// Layout returns the preview grid for a viewport.
func (s *Session) Layout(width, height int) layout.Layout {
	return s.layout.Compute(len(s.records), width, height)
}

// Preview clears dst and draws the icon grid, centred, in the colours of the
// palette transition at now.
func (s *Session) Preview(dst draw.Image, now time.Time) error {
	s.mu.Lock()
	colours := s.engine.At(now)
	s.mu.Unlock()

	b := dst.Bounds()
	draw.Draw(dst, b, image.Transparent, image.Point{}, draw.Src)

	l := s.Layout(b.Dx(), b.Dy())
	origin := b.Min.Add(l.Origin(b.Dx(), b.Dy()))
	for i, rec := range s.records {
		c, ok := colours[rec.Colour]
		if !ok {
			return errors.Wrapf(palette.ErrUnknownSwatch, "icon %d wants %q", rec.Icon, rec.Colour)
		}
		cell := l.Cell(i).Add(origin)
		if err := s.renderer.RenderIcon(dst, rec.Icon, cell.Min.X, cell.Min.Y, l.IconSize, c, 1); err != nil {
			return errors.Wrap(err, "drawing preview")
		}
	}
	return nil
}

// PreviewImage draws the preview into a new width x height image.
func (s *Session) PreviewImage(width, height int, now time.Time) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := s.Preview(img, now); err != nil {
		return nil, err
	}
	return img, nil
}

// Request returns the export request for the current settings.
func (s *Session) Request() exporter.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exporter.Request{
		Icons:      s.Records(),
		Palette:    s.active,
		Override:   s.override,
		Resolution: s.resolution,
	}
}

// Export runs the export pipeline with the current settings. Exports use
// the target palette, not the colours mid-transition.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	return exporter.Export(ctx, s.renderer, s.Request())
}
