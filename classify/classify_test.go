package classify

import (
	"fmt"
	"image/color"
	"sync"
	"testing"

	"github.com/bradfitz/iter"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/ttesting"
)

func mustPalette(t *testing.T, id string, pairs ...string) palette.Palette {
	t.Helper()
	p, err := palette.New(id, pairs...)
	if err != nil {
		t.Fatalf("palette.New: %v", err)
	}
	return p
}

func TestNearest(t *testing.T) {
	ref := mustPalette(t, "ref", "red", "#FF0000", "grey", "#323232")
	ttesting.AssertEqualString(t, "reddish sample", Nearest(color.NRGBA{R: 200, G: 10, B: 10, A: 255}, ref), "red")
	ttesting.AssertEqualString(t, "dark sample", Nearest(color.NRGBA{R: 40, G: 60, B: 50, A: 255}, ref), "grey")
	ttesting.AssertEqualString(t, "empty palette", Nearest(color.NRGBA{A: 255}, palette.Palette{}), Indeterminate)
}

func TestNearestTieBreak(t *testing.T) {
	sample := color.NRGBA{R: 10, A: 255}
	ab := mustPalette(t, "ab", "a", "#000000", "b", "#140000")
	ba := mustPalette(t, "ba", "b", "#140000", "a", "#000000")
	ttesting.AssertEqualString(t, "a declared first", Nearest(sample, ab), "a")
	ttesting.AssertEqualString(t, "b declared first", Nearest(sample, ba), "b")
}

var (
	platinumRed  = color.NRGBA{R: 0xBF, G: 0x40, B: 0x40}
	platinumBlue = color.NRGBA{R: 0x00, G: 0x6F, B: 0xB2}
)

func platinum(t *testing.T) palette.Palette {
	return mustPalette(t, "platinum",
		"red", "BF4040",
		"yellow", "D68D1F",
		"green", "169C44",
		"blue", "006FB2",
		"purple", "AF38CD",
		"grey", "3F3F3F")
}

func TestClassify(t *testing.T) {
	a, err := atlas.New(ttesting.Sheet(3, 16, ttesting.Disc(16, []color.NRGBA{platinumRed, platinumBlue}, 2)), 16)
	if err != nil {
		t.Fatal(err)
	}
	c := New(a, platinum(t))

	for icon, want := range []string{"red", "blue", Indeterminate} {
		got, err := c.Classify(icon)
		if err != nil {
			t.Fatalf("Classify(%d): %v", icon, err)
		}
		ttesting.AssertEqualString(t, "classification", got, want)
	}
	ttesting.AssertEqualString(t, "indeterminate defaults to neutral", c.Swatch(2), palette.Neutral)
	ttesting.AssertEqualString(t, "swatch of icon 1", c.Swatch(1), "blue")
	ttesting.AssertEqualInt(t, "cached", c.Cached(), 3)

	if _, err := c.Classify(3); errors.Cause(err) != atlas.ErrInvalidIconID {
		t.Errorf("Classify(3) = %v, want ErrInvalidIconID", err)
	}
	ttesting.AssertEqualString(t, "swatch of invalid icon", c.Swatch(3), palette.Neutral)

	c.Reset()
	ttesting.AssertEqualInt(t, "cached after reset", c.Cached(), 0)
}

func TestCacheIsNotInvalidatedImplicitly(t *testing.T) {
	a, err := atlas.New(ttesting.Sheet(1, 16, ttesting.Disc(16, []color.NRGBA{platinumRed})), 16)
	if err != nil {
		t.Fatal(err)
	}
	c := New(a, platinum(t))
	ttesting.AssertEqualString(t, "first", c.Swatch(0), "red")

	// Swapping the reference palette underneath does not change cached answers...
	c.reference = mustPalette(t, "other", "pink", "#BF4141")
	ttesting.AssertEqualString(t, "stale", c.Swatch(0), "red")

	// ...until the cache is reset.
	c.Reset()
	ttesting.AssertEqualString(t, "after reset", c.Swatch(0), "pink")
}

func TestThreshold(t *testing.T) {
	faint := color.NRGBA{R: 0x00, G: 0x6F, B: 0xB2, A: 10}
	sheet := ttesting.Sheet(1, 16, func(_, x, y int) color.NRGBA {
		if y == 0 {
			return faint
		}
		return color.NRGBA{R: 0xBF, G: 0x40, B: 0x40, A: 255}
	})
	a, err := atlas.New(sheet, 16)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualString(t, "default threshold", New(a, platinum(t)).Swatch(0), "blue")
	ttesting.AssertEqualString(t, "raised threshold", New(a, platinum(t), WithThreshold(128)).Swatch(0), "red")
	ttesting.AssertEqualString(t, "zero threshold ignored", New(a, platinum(t), WithThreshold(0)).Swatch(0), "blue")
}

func TestSampleDominant(t *testing.T) {
	// A single blue pixel in the corner of a solid red icon.
	sheet := ttesting.Sheet(2, 16, func(icon, x, y int) color.NRGBA {
		if icon == 1 {
			return color.NRGBA{}
		}
		if x == 0 && y == 0 {
			return color.NRGBA{R: 0x00, G: 0x6F, B: 0xB2, A: 255}
		}
		return color.NRGBA{R: 0xBF, G: 0x40, B: 0x40, A: 255}
	})
	a, err := atlas.New(sheet, 16)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualString(t, "first opaque pixel", New(a, platinum(t)).Swatch(0), "blue")

	c := New(a, platinum(t), WithSampler(SampleDominant))
	ttesting.AssertEqualString(t, "dominant colour", c.Swatch(0), "red")
	got, _ := c.Classify(1)
	ttesting.AssertEqualString(t, "dominant of empty icon", got, Indeterminate)
}

func TestConcurrentClassify(t *testing.T) {
	a, err := atlas.New(ttesting.Sheet(8, 16, ttesting.Disc(16, []color.NRGBA{platinumRed, platinumBlue})), 16)
	if err != nil {
		t.Fatal(err)
	}
	c := New(a, platinum(t))

	var wg sync.WaitGroup
	for range iter.N(16) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range iter.N(8) {
				c.Swatch(i)
			}
		}()
	}
	wg.Wait()
	ttesting.AssertEqualInt(t, "cached", c.Cached(), 8)
	ttesting.AssertEqualString(t, "odd icon", c.Swatch(5), "blue")
}

func TestTable(t *testing.T) {
	a, err := atlas.New(ttesting.Sheet(3, 16, ttesting.Disc(16, []color.NRGBA{platinumBlue, platinumRed}, 0)), 16)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := New(a, platinum(t)).Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	records := tbl.Records()
	ttesting.AssertEqualInt(t, "records", len(records), 3)
	ttesting.AssertEqualString(t, "empty icon", records[0].Colour, palette.Neutral)
	ttesting.AssertEqualString(t, "icon 1", records[1].Colour, "red")
	ttesting.AssertEqualString(t, "icon 2", records[2].Colour, "blue")
}

func TestEmbeddedSheetMatchesIconData(t *testing.T) {
	a, err := atlas.Open("embedded:icons.png", atlas.DefaultIconSize)
	if err != nil {
		t.Fatalf("atlas.Open: %v", err)
	}
	set, err := palette.Open("embedded:palettes.json")
	if err != nil {
		t.Fatalf("palette.Open: %v", err)
	}
	want, err := icons.Open("embedded:icondata.json")
	if err != nil {
		t.Fatalf("icons.Open: %v", err)
	}
	ref, err := set.ByID(ReferencePalette)
	if err != nil {
		t.Fatalf("ByID(%q): %v", ReferencePalette, err)
	}

	got, err := New(a, ref).Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	for _, rec := range want.Records() {
		ttesting.AssertEqualString(t, fmt.Sprintf("icon %d", rec.Icon), got.Swatch(rec.Icon), rec.Colour)
	}
}
