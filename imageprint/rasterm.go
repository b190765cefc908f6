//go:build !windows

package imageprint

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
)

// IsTermItermWez reports whether the terminal understands iTerm2 images.
func IsTermItermWez() bool {
	return rasterm.IsTermItermWez()
}

// PrintRasTerm draws an image using the RasTerm library.
//
// This should enable drawing in Kitty terminal, iTerm2, WezTerm and terminals
// speaking sixel.
func PrintRasTerm(w io.Writer, i image.Image) error {
	var err error
	switch {
	case rasterm.IsTermKitty():
		err = rasterm.Settings{}.KittyWriteImage(w, i)
	case rasterm.IsTermItermWez():
		err = rasterm.Settings{}.ItermWriteImage(w, i)
	default:
		if capable, cerr := rasterm.IsSixelCapable(); !capable || cerr != nil {
			return errors.New("terminal cannot display raster images")
		}
		err = rasterm.Settings{}.SixelWriteImage(w, Paletted(i, 64))
	}
	if err != nil {
		return errors.Wrap(err, "printing raster image")
	}
	fmt.Fprint(w, "\n")
	return nil
}

// Paletted reduces i to at most n colours.
func Paletted(i image.Image, n int) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make([]color.Color, 0, n), i)
	p := image.NewPaletted(i.Bounds(), pal)
	draw.Draw(p, i.Bounds(), i, i.Bounds().Min, draw.Src)
	return p
}
