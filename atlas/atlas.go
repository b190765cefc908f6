// Package atlas loads the icon sheet: a single image holding every icon side
// by side, each icon a square of a fixed size.
package atlas

import (
	"hash/crc32"
	"image"
	"image/draw"
	_ "image/png"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"badc0de.net/pkg/go-vanilla/paths"
)

// DefaultIconSize is the side of one icon on the sheet, in pixels.
const DefaultIconSize = 16

var (
	// ErrLoad is returned when the sheet cannot be read or has the wrong shape.
	ErrLoad = errors.New("atlas: could not load icon sheet")
	// ErrInvalidIconID is returned for icon indices outside [0, IconCount()).
	ErrInvalidIconID = errors.New("invalid icon id")
)

// Atlas is an immutable icon sheet.
type Atlas struct {
	img   *image.NRGBA
	size  int
	count int
	sig   uint32
}

// New validates the sheet's geometry and takes a non-premultiplied copy of
// it, so that colour and alpha can be inspected independently.
func New(img image.Image, iconSize int) (*Atlas, error) {
	if iconSize <= 0 {
		return nil, errors.Wrapf(ErrLoad, "icon size %d", iconSize)
	}
	b := img.Bounds()
	if b.Dy() != iconSize {
		return nil, errors.Wrapf(ErrLoad, "sheet is %d px high; want %d", b.Dy(), iconSize)
	}
	if b.Dx() == 0 || b.Dx()%iconSize != 0 {
		return nil, errors.Wrapf(ErrLoad, "sheet is %d px wide; want a multiple of %d", b.Dx(), iconSize)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	return &Atlas{
		img:   nrgba,
		size:  iconSize,
		count: b.Dx() / iconSize,
		sig:   crc32.ChecksumIEEE(nrgba.Pix),
	}, nil
}

// Decode reads a sheet in any registered image format (png, bmp, tiff, webp).
func Decode(r io.Reader, iconSize int) (*Atlas, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "decoding: %v", err)
	}
	a, err := New(img, iconSize)
	if err != nil {
		return nil, err
	}
	glog.Infof("decoded %s icon sheet: %d icons of %dx%d", format, a.count, a.size, a.size)
	return a, nil
}

// Open reads the sheet from a path or URL, as understood by paths.NoFindOpen.
func Open(path string, iconSize int) (*Atlas, error) {
	f, err := paths.NoFindOpen(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoad, "opening %q: %v", path, err)
	}
	defer f.Close()
	return Decode(f, iconSize)
}

func (a *Atlas) IconCount() int {
	return a.count
}

func (a *Atlas) IconSize() int {
	return a.size
}

// Signature identifies the sheet's pixels, for cache validation.
func (a *Atlas) Signature() uint32 {
	return a.sig
}

// Image returns the whole sheet. It must not be modified.
func (a *Atlas) Image() image.Image {
	return a.img
}

// Bounds returns the rectangle of the icon on the sheet.
func (a *Atlas) Bounds(icon int) (image.Rectangle, error) {
	if icon < 0 || icon >= a.count {
		return image.Rectangle{}, errors.Wrapf(ErrInvalidIconID, "icon %d not in [0,%d)", icon, a.count)
	}
	return image.Rect(icon*a.size, 0, (icon+1)*a.size, a.size), nil
}

// Icon returns a copy of the icon, positioned at the origin.
func (a *Atlas) Icon(icon int) (*image.NRGBA, error) {
	r, err := a.Bounds(icon)
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, a.size, a.size))
	draw.Draw(out, out.Bounds(), a.img, r.Min, draw.Src)
	return out, nil
}
