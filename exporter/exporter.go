// Package exporter renders a palette's icons and packages them in a zip
// archive: one PNG per icon under ModManagerIcons/, plus a ClassImages.png
// sheet for small resolutions.
package exporter

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"
	"time"

	"github.com/golang/glog"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/palette"
)

const (
	// SheetMaxResolution is the largest resolution for which ClassImages.png
	// is produced.
	SheetMaxResolution = 64
	// ArchiveName is the file name offered for download.
	ArchiveName = "VanillaIcons.zip"
	// IconDir holds the per-icon images inside the archive.
	IconDir = "ModManagerIcons"
	// SheetName is the composite sheet at the root of the archive.
	SheetName = "ClassImages.png"
)

// ErrExportFailure wraps every error that aborts an export.
var ErrExportFailure = errors.New("export failed")

// modified is stamped on every entry so that identical requests produce
// identical archives.
var modified = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Request describes one export.
type Request struct {
	// Icons in export order.
	Icons []icons.Record
	// Palette supplying the colour of each swatch.
	Palette palette.Palette
	// Override, when non-empty, replaces every icon's swatch.
	Override string
	// Resolution is the side of each exported icon in pixels.
	Resolution int
}

// IconName returns the archive path of the i-th exported icon.
func IconName(i int) string {
	return fmt.Sprintf("%s/explorer-icon-%d.png", IconDir, i)
}

type failure struct {
	err error
}

func (f failure) Error() string { return ErrExportFailure.Error() + ": " + f.err.Error() }
func (f failure) Cause() error  { return ErrExportFailure }
func (f failure) Unwrap() error { return f.err }

func (f failure) Is(target error) bool { return target == ErrExportFailure }

func fail(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(failure); ok {
		return err
	}
	return failure{err}
}

// colours resolves the colour of every requested icon, in order.
func colours(req Request) ([]colorful.Color, error) {
	out := make([]colorful.Color, len(req.Icons))
	for i, rec := range req.Icons {
		key := rec.Colour
		if req.Override != "" {
			key = req.Override
		}
		c, err := req.Palette.Colour(key)
		if err != nil {
			return nil, errors.Wrapf(err, "icon %d", rec.Icon)
		}
		out[i] = c
	}
	return out, nil
}

// Export renders req and returns the archive. Any error aborts the whole
// export; errors.Cause of the returned error is ErrExportFailure.
func Export(ctx context.Context, r *compositor.Renderer, req Request) ([]byte, error) {
	if len(req.Icons) == 0 {
		return nil, fail(errors.New("no icons to export"))
	}
	if req.Resolution <= 0 {
		return nil, fail(errors.Errorf("resolution %d is not positive", req.Resolution))
	}
	cols, err := colours(req)
	if err != nil {
		return nil, fail(err)
	}

	images := make([]*image.NRGBA, len(req.Icons))
	blobs := make([][]byte, len(req.Icons))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range req.Icons {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := r.Icon(rec.Icon, req.Resolution, cols[i], 1)
			if err != nil {
				return errors.Wrapf(err, "rendering icon %d", rec.Icon)
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return errors.Wrapf(err, "encoding icon %d", rec.Icon)
			}
			images[i] = img
			blobs[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fail(err)
	}

	var sheet []byte
	if req.Resolution <= SheetMaxResolution {
		sheet, err = encodeSheet(images, req.Resolution)
		if err != nil {
			return nil, fail(err)
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, blob := range blobs {
		if err := addEntry(zw, IconName(i), blob); err != nil {
			return nil, fail(err)
		}
	}
	if sheet != nil {
		if err := addEntry(zw, SheetName, sheet); err != nil {
			return nil, fail(err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fail(errors.Wrap(err, "closing archive"))
	}
	glog.V(2).Infof("exported %d icons at %dpx (%d bytes)", len(blobs), req.Resolution, buf.Len())
	return buf.Bytes(), nil
}

// ExportTo writes the archive to w. Nothing is written unless the export
// succeeded.
func ExportTo(ctx context.Context, w io.Writer, r *compositor.Renderer, req Request) error {
	b, err := Export(ctx, r, req)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fail(errors.Wrap(err, "writing archive"))
	}
	return nil
}

// Sheet joins icons left to right into one image. Each icon must be a
// resolution x resolution image at the origin; pixels are copied unchanged.
func Sheet(images []*image.NRGBA, resolution int) *image.NRGBA {
	sheet := image.NewNRGBA(image.Rect(0, 0, len(images)*resolution, resolution))
	for i, img := range images {
		for y := 0; y < resolution; y++ {
			row := img.Pix[img.PixOffset(0, y) : img.PixOffset(0, y)+resolution*4]
			copy(sheet.Pix[sheet.PixOffset(i*resolution, y):], row)
		}
	}
	return sheet
}

func encodeSheet(images []*image.NRGBA, resolution int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Sheet(images, resolution)); err != nil {
		return nil, errors.Wrap(err, "encoding sheet")
	}
	return buf.Bytes(), nil
}

func addEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return errors.Wrapf(err, "adding %s", name)
	}
	_, err = w.Write(data)
	return errors.Wrapf(err, "writing %s", name)
}
