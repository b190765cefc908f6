// Package compositor draws recoloured icons.
//
// Icons on the sheet are monochrome shapes; only their alpha channel matters.
// Rendering scales the icon to the requested size, replaces the colour of
// every pixel with the requested colour, scales alpha by an opacity factor and
// draws the result over the destination.
//
// A Renderer only reads the atlas and allocates a fresh scratch image per
// call, so it is safe for concurrent use.
package compositor

import (
	"image"
	"image/draw"
	"sync"

	"github.com/golang/glog"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
)

var (
	// ErrNotInitialized is returned when rendering before the atlas is loaded.
	ErrNotInitialized = errors.New("icon renderer is not initialised")
	// ErrInvalidIconID is returned for icons outside the atlas.
	ErrInvalidIconID = atlas.ErrInvalidIconID
)

// Renderer draws recoloured icons from an atlas that may arrive late.
type Renderer struct {
	mu    sync.RWMutex
	atlas *atlas.Atlas

	// Interpolation used when scaling icons. The zero value is nearest
	// neighbour, which keeps pixel icons crisp.
	Interpolation resize.InterpolationFunction
}

// NewRenderer returns a renderer for a. a may be nil, in which case rendering
// fails with ErrNotInitialized until SetAtlas is called.
func NewRenderer(a *atlas.Atlas) *Renderer {
	return &Renderer{atlas: a, Interpolation: resize.NearestNeighbor}
}

// SetAtlas makes the renderer usable once the atlas has finished loading.
func (r *Renderer) SetAtlas(a *atlas.Atlas) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.atlas = a
}

// Atlas returns the atlas, or ErrNotInitialized.
func (r *Renderer) Atlas() (*atlas.Atlas, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.atlas == nil {
		return nil, ErrNotInitialized
	}
	return r.atlas, nil
}

// IconCount returns the number of icons, or 0 before initialisation.
func (r *Renderer) IconCount() int {
	a, err := r.Atlas()
	if err != nil {
		return 0
	}
	return a.IconCount()
}

// scaled returns the uncoloured icon at size x size.
func (r *Renderer) scaled(icon, size int) (image.Image, error) {
	a, err := r.Atlas()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, errors.Errorf("cannot render icon %d at size %d", icon, size)
	}
	src, err := a.Icon(icon)
	if err != nil {
		return nil, err
	}
	if size == a.IconSize() {
		return src, nil
	}
	glog.V(3).Infof("scaling icon %d from %d to %d", icon, a.IconSize(), size)
	return resize.Resize(uint(size), uint(size), src, r.Interpolation), nil
}

// Icon returns icon rendered standalone at size x size in colour c, with
// alpha scaled by alpha (0 to 1).
func (r *Renderer) Icon(icon, size int, c colorful.Color, alpha float64) (*image.NRGBA, error) {
	src, err := r.scaled(icon, size)
	if err != nil {
		return nil, err
	}
	return Colorize(src, c, alpha), nil
}

// RenderIcon draws icon onto dst with its top left corner at (x, y).
func (r *Renderer) RenderIcon(dst draw.Image, icon, x, y, size int, c colorful.Color, alpha float64) error {
	img, err := r.Icon(icon, size, c, alpha)
	if err != nil {
		return err
	}
	draw.Draw(dst, image.Rect(x, y, x+size, y+size), img, image.Point{}, draw.Over)
	return nil
}
