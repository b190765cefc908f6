package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/ttesting"
)

var (
	black = color.NRGBA{A: 255}
	red   = colorful.Color{R: 1}
)

func testRenderer(t *testing.T, n int) *Renderer {
	t.Helper()
	a, err := atlas.New(ttesting.Sheet(n, 16, ttesting.Disc(16, []color.NRGBA{black})), 16)
	if err != nil {
		t.Fatalf("atlas.New: %v", err)
	}
	return NewRenderer(a)
}

func TestNotInitialized(t *testing.T) {
	r := NewRenderer(nil)
	dst := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	if err := r.RenderIcon(dst, 0, 0, 0, 16, red, 1); err != ErrNotInitialized {
		t.Errorf("RenderIcon before init = %v, want ErrNotInitialized", err)
	}
	var zero Renderer
	if _, err := zero.Icon(0, 16, red, 1); err != ErrNotInitialized {
		t.Errorf("zero Renderer Icon = %v, want ErrNotInitialized", err)
	}
	ttesting.AssertEqualInt(t, "icon count before init", r.IconCount(), 0)

	r.SetAtlas(testRenderer(t, 1).atlas)
	if err := r.RenderIcon(dst, 0, 0, 0, 16, red, 1); err != nil {
		t.Errorf("RenderIcon after SetAtlas: %v", err)
	}
}

func TestInvalidIconID(t *testing.T) {
	r := testRenderer(t, 3)
	dst := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for _, id := range []int{-1, 3} {
		if err := r.RenderIcon(dst, id, 0, 0, 16, red, 1); errors.Cause(err) != ErrInvalidIconID {
			t.Errorf("RenderIcon(%d) = %v, want ErrInvalidIconID", id, err)
		}
	}
	if _, err := r.Icon(0, 0, red, 1); err == nil {
		t.Errorf("Icon at size 0 succeeded")
	}
}

func TestAlphaIsPreserved(t *testing.T) {
	r := testRenderer(t, 2)
	full, err := r.Icon(1, 16, red, 1)
	if err != nil {
		t.Fatal(err)
	}
	half, err := r.Icon(1, 16, red, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	none, err := r.Icon(1, 16, colorful.Color{G: 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := r.atlas.Icon(1)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			f, h, n := full.NRGBAAt(x, y), half.NRGBAAt(x, y), none.NRGBAAt(x, y)
			if f.R != 255 || f.G != 0 || f.B != 0 || h.R != f.R || h.G != f.G || h.B != f.B {
				t.Fatalf("(%d,%d): rgb full=%+v half=%+v, want pure red in both", x, y, f, h)
			}
			if f.A != src.NRGBAAt(x, y).A {
				t.Fatalf("(%d,%d): alpha %d, want source alpha %d", x, y, f.A, src.NRGBAAt(x, y).A)
			}
			if want := uint8(math.Round(float64(f.A) * 0.5)); h.A != want {
				t.Fatalf("(%d,%d): half alpha %d, want %d", x, y, h.A, want)
			}
			if f.A == 0 && h.A != 0 {
				t.Fatalf("(%d,%d): transparent pixel became visible", x, y)
			}
			if n.A != 0 {
				t.Fatalf("(%d,%d): zero alpha render has alpha %d", x, y, n.A)
			}
		}
	}
	ttesting.AssertEqualNRGBA(t, "half alpha of an opaque pixel", half.NRGBAAt(8, 8), color.NRGBA{R: 255, A: 128})
}

func TestSourceUntouched(t *testing.T) {
	r := testRenderer(t, 1)
	before := append([]byte(nil), r.atlas.Image().(*image.NRGBA).Pix...)
	if _, err := r.Icon(0, 32, red, 0.3); err != nil {
		t.Fatal(err)
	}
	after := r.atlas.Image().(*image.NRGBA).Pix
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("atlas byte %d changed from %d to %d", i, before[i], after[i])
		}
	}
}

func TestScaling(t *testing.T) {
	r := testRenderer(t, 1)
	for _, interp := range []resize.InterpolationFunction{resize.NearestNeighbor, resize.Bilinear} {
		r.Interpolation = interp
		img, err := r.Icon(0, 64, red, 1)
		if err != nil {
			t.Fatal(err)
		}
		ttesting.AssertEqualInt(t, "scaled width", img.Bounds().Dx(), 64)
		ttesting.AssertEqualInt(t, "scaled height", img.Bounds().Dy(), 64)
		ttesting.AssertEqualNRGBA(t, "scaled centre", img.NRGBAAt(32, 32), color.NRGBA{R: 255, A: 255})
		ttesting.AssertEqualInt(t, "scaled corner alpha", int(img.NRGBAAt(0, 0).A), 0)
	}
}

func TestRenderIconBlitsOver(t *testing.T) {
	r := testRenderer(t, 1)
	dst := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	blue := color.NRGBA{B: 255, A: 255}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(blue), image.Point{}, draw.Src)

	if err := r.RenderIcon(dst, 0, 20, 2, 16, red, 1); err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualNRGBA(t, "icon centre lands at offset", dst.NRGBAAt(28, 10), color.NRGBA{R: 255, A: 255})
	ttesting.AssertEqualNRGBA(t, "outside icon untouched", dst.NRGBAAt(5, 10), blue)
	ttesting.AssertEqualNRGBA(t, "transparent icon corner keeps background", dst.NRGBAAt(20, 2), blue)
}

func TestColorizeGenericSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(6, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	out := Colorize(src, colorful.Color{R: 0, G: 1, B: 0}, 2)

	ttesting.AssertEqualInt(t, "origin", out.Bounds().Min.X, 0)
	ttesting.AssertEqualNRGBA(t, "opaque pixel, alpha clamped", out.NRGBAAt(0, 0), color.NRGBA{G: 255, A: 255})
	ttesting.AssertEqualInt(t, "transparent pixel", int(out.NRGBAAt(1, 0).A), 0)
}
