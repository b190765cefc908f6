package exporter

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"testing"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/ttesting"
)

func testRenderer(t *testing.T, n int) *compositor.Renderer {
	t.Helper()
	a, err := atlas.New(ttesting.Sheet(n, 16, ttesting.Disc(16, []color.NRGBA{{A: 255}})), 16)
	if err != nil {
		t.Fatalf("atlas.New: %v", err)
	}
	return compositor.NewRenderer(a)
}

func testRequest(t *testing.T, resolution int) Request {
	t.Helper()
	p, err := palette.New("test", "red", "#FF0000", "green", "#00FF00", "grey", "#808080")
	if err != nil {
		t.Fatalf("palette.New: %v", err)
	}
	return Request{
		Icons:      []icons.Record{{Icon: 2, Colour: "red"}, {Icon: 0, Colour: "green"}, {Icon: 1, Colour: "grey"}},
		Palette:    p,
		Resolution: resolution,
	}
}

func readArchive(t *testing.T, b []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	return zr
}

func decodeEntry(t *testing.T, f *zip.File) image.Image {
	t.Helper()
	rc, err := f.Open()
	if err != nil {
		t.Fatalf("opening %s: %v", f.Name, err)
	}
	defer rc.Close()
	img, err := png.Decode(rc)
	if err != nil {
		t.Fatalf("decoding %s: %v", f.Name, err)
	}
	return img
}

func TestExportWithSheet(t *testing.T) {
	b, err := Export(context.Background(), testRenderer(t, 3), testRequest(t, 16))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr := readArchive(t, b)
	names := []string{
		"ModManagerIcons/explorer-icon-0.png",
		"ModManagerIcons/explorer-icon-1.png",
		"ModManagerIcons/explorer-icon-2.png",
		"ClassImages.png",
	}
	ttesting.AssertEqualInt(t, "entries", len(zr.File), len(names))
	for i, f := range zr.File {
		if i < len(names) {
			ttesting.AssertEqualString(t, "entry name", f.Name, names[i])
		}
	}

	// Entry 0 is icon 2 in red; the disc centre is opaque.
	first := decodeEntry(t, zr.File[0])
	ttesting.AssertEqualInt(t, "icon width", first.Bounds().Dx(), 16)
	ttesting.AssertEqualNRGBA(t, "icon 0 centre", color.NRGBAModel.Convert(first.At(8, 8)).(color.NRGBA), color.NRGBA{R: 255, A: 255})
	ttesting.AssertEqualNRGBA(t, "icon 0 corner", color.NRGBAModel.Convert(first.At(0, 0)).(color.NRGBA), color.NRGBA{R: 255})

	sheet := decodeEntry(t, zr.File[3])
	ttesting.AssertEqualInt(t, "sheet width", sheet.Bounds().Dx(), 48)
	ttesting.AssertEqualInt(t, "sheet height", sheet.Bounds().Dy(), 16)
	ttesting.AssertEqualNRGBA(t, "sheet second icon", color.NRGBAModel.Convert(sheet.At(24, 8)).(color.NRGBA), color.NRGBA{G: 255, A: 255})
}

func TestExportWithoutSheet(t *testing.T) {
	b, err := Export(context.Background(), testRenderer(t, 3), testRequest(t, 128))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr := readArchive(t, b)
	ttesting.AssertEqualInt(t, "entries", len(zr.File), 3)
	for _, f := range zr.File {
		if f.Name == SheetName {
			t.Errorf("sheet present at 128px")
		}
	}
	ttesting.AssertEqualInt(t, "icon size", decodeEntry(t, zr.File[2]).Bounds().Dx(), 128)
}

func TestSheetBoundary(t *testing.T) {
	for res, want := range map[int]int{SheetMaxResolution: 4, SheetMaxResolution + 1: 3} {
		b, err := Export(context.Background(), testRenderer(t, 3), testRequest(t, res))
		if err != nil {
			t.Fatalf("Export(%d): %v", res, err)
		}
		ttesting.AssertEqualInt(t, "entries", len(readArchive(t, b).File), want)
	}
}

func TestOverride(t *testing.T) {
	req := testRequest(t, 16)
	req.Override = palette.Neutral
	b, err := Export(context.Background(), testRenderer(t, 3), req)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	zr := readArchive(t, b)
	for i := 0; i < 3; i++ {
		got := color.NRGBAModel.Convert(decodeEntry(t, zr.File[i]).At(8, 8)).(color.NRGBA)
		ttesting.AssertEqualNRGBA(t, "mono icon", got, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	}
}

func TestDeterministic(t *testing.T) {
	r := testRenderer(t, 3)
	a, err := Export(context.Background(), r, testRequest(t, 16))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Export(context.Background(), r, testRequest(t, 16))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("identical requests produced different archives")
	}
}

func TestFailures(t *testing.T) {
	r := testRenderer(t, 3)
	for name, mutate := range map[string]func(*Request){
		"unknown swatch":   func(req *Request) { req.Icons[1].Colour = "purple" },
		"unknown override": func(req *Request) { req.Override = "purple" },
		"invalid icon":     func(req *Request) { req.Icons[0].Icon = 3 },
		"zero resolution":  func(req *Request) { req.Resolution = 0 },
		"no icons":         func(req *Request) { req.Icons = nil },
	} {
		t.Run(name, func(t *testing.T) {
			req := testRequest(t, 16)
			mutate(&req)
			var buf bytes.Buffer
			err := ExportTo(context.Background(), &buf, r, req)
			if errors.Cause(err) != ErrExportFailure {
				t.Errorf("error = %v, want export failure", err)
			}
			if buf.Len() != 0 {
				t.Errorf("%d bytes written despite failure", buf.Len())
			}
		})
	}

	_, err := Export(context.Background(), compositor.NewRenderer(nil), testRequest(t, 16))
	if !errors.Is(err, compositor.ErrNotInitialized) || !errors.Is(err, ErrExportFailure) {
		t.Errorf("uninitialised renderer: error = %v", err)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Export(ctx, testRenderer(t, 3), testRequest(t, 16)); errors.Cause(err) != ErrExportFailure {
		t.Errorf("error = %v, want export failure", err)
	}
}

func TestExportTo(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTo(context.Background(), &buf, testRenderer(t, 3), testRequest(t, 16)); err != nil {
		t.Fatalf("ExportTo: %v", err)
	}
	zr := readArchive(t, buf.Bytes())
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if b, err := ioutil.ReadAll(rc); err != nil || len(b) == 0 {
		t.Errorf("first entry: %d bytes, %v", len(b), err)
	}
}
