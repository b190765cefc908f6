// Package classify works out which palette swatch an icon was drawn in by
// looking at its pixels. This is the legacy alternative to the icondata.json
// metadata table.
//
// The sampled colour is matched against a reference palette (the palette the
// sheet was drawn with) by Manhattan distance over 8-bit RGB. Results are
// cached per icon for the lifetime of the Classifier.
//
// Cache invalidation: the cache is never invalidated implicitly. A caller
// that switches to a different reference palette must either construct a new
// Classifier or call Reset.
package classify

import (
	"image"
	"image/color"
	"sync"

	"github.com/cenkalti/dominantcolor"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
)

// Indeterminate is the classification of an icon with no sampleable pixel.
const Indeterminate = ""

// Sampler picks the colour that represents an icon. It reports false when
// the icon has no pixel with alpha of at least threshold.
type Sampler func(icon *image.NRGBA, threshold uint8) (color.NRGBA, bool)

// SampleFirstOpaque scans the icon row by row and returns the first pixel
// whose alpha is at least threshold.
func SampleFirstOpaque(icon *image.NRGBA, threshold uint8) (color.NRGBA, bool) {
	b := icon.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := icon.NRGBAAt(x, y); c.A >= threshold {
				return c, true
			}
		}
	}
	return color.NRGBA{}, false
}

// SampleDominant returns the icon's dominant colour, which is less sensitive
// to stray pixels than SampleFirstOpaque.
func SampleDominant(icon *image.NRGBA, threshold uint8) (color.NRGBA, bool) {
	if _, ok := SampleFirstOpaque(icon, threshold); !ok {
		return color.NRGBA{}, false
	}
	c := dominantcolor.Find(icon)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, true
}

// ReferencePalette is the palette the bundled icon sheet is drawn in.
// Classification must match against it whatever palette is on display.
const ReferencePalette = "platinum"

// Option configures a Classifier.
type Option func(*Classifier)

// WithSampler replaces SampleFirstOpaque.
func WithSampler(s Sampler) Option {
	return func(c *Classifier) {
		c.sampler = s
	}
}

// WithThreshold sets the minimal alpha of a sampled pixel. It must be above
// zero; the default is 1.
func WithThreshold(threshold uint8) Option {
	return func(c *Classifier) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// Classifier maps icons to reference swatches by sampling their pixels.
type Classifier struct {
	atlas     *atlas.Atlas
	reference palette.Palette
	sampler   Sampler
	threshold uint8

	mu    sync.RWMutex
	cache map[int]string
}

// New returns a classifier for the icons on a, matched against reference.
func New(a *atlas.Atlas, reference palette.Palette, opts ...Option) *Classifier {
	c := &Classifier{
		atlas:     a,
		reference: reference,
		sampler:   SampleFirstOpaque,
		threshold: 1,
		cache:     map[int]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the reference swatch closest to the icon's sampled colour,
// or Indeterminate. Each icon is classified once; later calls hit the cache.
func (c *Classifier) Classify(icon int) (string, error) {
	c.mu.RLock()
	key, ok := c.cache[icon]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	img, err := c.atlas.Icon(icon)
	if err != nil {
		return Indeterminate, err
	}

	key = Indeterminate
	if sample, ok := c.sampler(img, c.threshold); ok {
		key = Nearest(sample, c.reference)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache[icon]; ok {
		// Another goroutine got here first; its answer stands.
		return cached, nil
	}
	c.cache[icon] = key
	glog.V(2).Infof("classified icon %d as %q", icon, key)
	return key, nil
}

// Swatch implements icons.Resolver. Indeterminate icons, and icons that
// cannot be classified at all, get the neutral swatch.
func (c *Classifier) Swatch(icon int) string {
	key, err := c.Classify(icon)
	if err != nil {
		glog.Errorf("classifying icon %d: %v", icon, err)
		return palette.Neutral
	}
	if key == Indeterminate {
		return palette.Neutral
	}
	return key
}

// Reset forgets every cached classification.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = map[int]string{}
}

// Cached reports how many icons have been classified.
func (c *Classifier) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Nearest returns the key of the swatch in p closest to sample by Manhattan
// distance. Ties go to the swatch declared first. An empty palette gives
// Indeterminate.
func Nearest(sample color.NRGBA, p palette.Palette) string {
	best := Indeterminate
	bestDistance := -1
	for _, key := range p.Order {
		r, g, b := p.Colours[key].RGB255()
		d := abs(int(sample.R)-int(r)) + abs(int(sample.G)-int(g)) + abs(int(sample.B)-int(b))
		if bestDistance < 0 || d < bestDistance {
			best = key
			bestDistance = d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Table classifies every icon on the sheet, producing the same metadata table
// icondata.json would hold.
func (c *Classifier) Table() (*icons.Table, error) {
	records := make([]icons.Record, c.atlas.IconCount())
	for i := range records {
		key, err := c.Classify(i)
		if err != nil {
			return nil, errors.Wrapf(err, "classifying icon %d", i)
		}
		if key == Indeterminate {
			key = palette.Neutral
		}
		records[i] = icons.Record{Icon: i, Colour: key}
	}
	return icons.NewTable(records), nil
}
