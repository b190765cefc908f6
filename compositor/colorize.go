package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colorize returns a copy of src, at the origin, in which every pixel has the
// RGB of c and its original alpha multiplied by alpha. src is not modified.
func Colorize(src image.Image, c colorful.Color, alpha float64) *image.NRGBA {
	cr, cg, cb := c.Clamped().RGB255()
	alpha = math.Max(0, math.Min(1, alpha))

	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	nrgba, isNRGBA := src.(*image.NRGBA)

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			var a uint8
			if isNRGBA {
				a = nrgba.Pix[nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
			} else {
				a = color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA).A
			}

			i := out.PixOffset(x, y)
			out.Pix[i+0] = cr
			out.Pix[i+1] = cg
			out.Pix[i+2] = cb
			out.Pix[i+3] = uint8(math.Round(float64(a) * alpha))
		}
	}
	return out
}
