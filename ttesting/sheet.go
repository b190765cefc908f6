package ttesting

import (
	"image"
	"image/color"
)

// Sheet draws an n-icon sheet of size x size icons; px gives the colour of
// each pixel in icon-local coordinates.
func Sheet(n, size int, px func(icon, x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, n*size, size))
	for icon := 0; icon < n; icon++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.SetNRGBA(icon*size+x, y, px(icon, x, y))
			}
		}
	}
	return img
}

// Disc returns a pixel function drawing an opaque disc of colour c per icon,
// with a half-transparent rim, centred in a size x size icon. Icons listed in
// empty are left fully transparent.
func Disc(size int, c []color.NRGBA, empty ...int) func(icon, x, y int) color.NRGBA {
	skip := map[int]bool{}
	for _, e := range empty {
		skip[e] = true
	}
	centre := float64(size-1) / 2
	radius := float64(size) / 2.5
	return func(icon, x, y int) color.NRGBA {
		if skip[icon] {
			return color.NRGBA{}
		}
		dx, dy := float64(x)-centre, float64(y)-centre
		d := dx*dx + dy*dy
		col := c[icon%len(c)]
		switch {
		case d <= (radius-1)*(radius-1):
			col.A = 255
		case d <= radius*radius:
			col.A = 128
		default:
			return color.NRGBA{}
		}
		return col
	}
}
