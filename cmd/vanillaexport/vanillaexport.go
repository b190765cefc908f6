// Command vanillaexport writes the recoloured icon archive, and can preview
// the icon grid on the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"badc0de.net/pkg/flagutil/v1"

	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/atlas"
	"badc0de.net/pkg/go-vanilla/blend"
	"badc0de.net/pkg/go-vanilla/classify"
	"badc0de.net/pkg/go-vanilla/compositor"
	"badc0de.net/pkg/go-vanilla/datafiles"
	"badc0de.net/pkg/go-vanilla/exporter"
	"badc0de.net/pkg/go-vanilla/icons"
	"badc0de.net/pkg/go-vanilla/imageprint"
	"badc0de.net/pkg/go-vanilla/palette"
	"badc0de.net/pkg/go-vanilla/paths"
	"badc0de.net/pkg/go-vanilla/session"
)

var (
	paletteID    = flag.String("palette", "", "palette to use; empty means the theme's default")
	theme        = flag.String("theme", "light", "page theme picking the default palette: light or dark")
	style        = flag.String("style", session.StyleColourful, "colourful or mono")
	resolution   = flag.Int("resolution", session.DefaultResolution, "side of each exported icon, in pixels")
	outPath      = flag.String("out", exporter.ArchiveName, "where to write the archive; - for stdout, empty to skip")
	legacy       = flag.Bool("legacy", false, "classify icons by their pixels instead of reading icondata")
	reference    = flag.String("reference_palette", classify.ReferencePalette, "in legacy mode, the palette the icon sheet is drawn in")
	dominant     = flag.Bool("dominant", false, "in legacy mode, classify by dominant colour instead of the first opaque pixel")
	dumpIconData = flag.Bool("dump_icondata", false, "print the icon metadata in use as icondata.json and exit")
	banner       = flag.Bool("banner", true, "print a banner on stderr")
	iconSize     = flag.Int("icon_size", atlas.DefaultIconSize, "side of each icon on the sheet, in pixels")

	preview   = flag.Bool("preview", false, "print the preview grid on the terminal")
	printMode = flag.String("print_mode", imageprint.Mode24bit, "preview output: none, 256, 24bit, iterm or rasterm")
	blanks    = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize  = flag.Bool("downsize", true, "fit the preview to the terminal")
	width     = flag.Int("width", 160, "preview width in pixels")
	height    = flag.Int("height", 120, "preview height in pixels")

	atlasPath    string
	palettesPath string
	iconDataPath string
)

func setupFilePathFlags() {
	paths.SetupFilePathFlag(datafiles.Atlas, "atlas_path", &atlasPath)
	paths.SetupFilePathFlag(datafiles.Palettes, "palettes_path", &palettesPath)
	paths.SetupFilePathFlag(datafiles.IconData, "icondata_path", &iconDataPath)
}

func loadRecords(a *atlas.Atlas, set palette.Set) ([]icons.Record, error) {
	if !*legacy {
		table, err := icons.Open(iconDataPath)
		if err != nil {
			return nil, err
		}
		return table.Records(), nil
	}
	var opts []classify.Option
	if *dominant {
		opts = append(opts, classify.WithSampler(classify.SampleDominant))
	}
	ref, err := set.ByID(*reference)
	if err != nil {
		return nil, errors.Wrap(err, "reference palette")
	}
	table, err := classify.New(a, ref, opts...).Table()
	if err != nil {
		return nil, errors.Wrap(err, "classifying icons")
	}
	return table.Records(), nil
}

func run(ctx context.Context) error {
	a, err := atlas.Open(atlasPath, *iconSize)
	if err != nil {
		return err
	}
	set, err := palette.Open(palettesPath)
	if err != nil {
		return err
	}
	records, err := loadRecords(a, set)
	if err != nil {
		return err
	}
	if *dumpIconData {
		return icons.Encode(os.Stdout, records)
	}

	s, err := session.New(compositor.NewRenderer(a), set, records, *theme)
	if err != nil {
		return err
	}
	if err := s.SetStyle(*style); err != nil {
		return err
	}
	if *paletteID != "" {
		if err := s.JumpToPalette(*paletteID); err != nil {
			return err
		}
	}
	if err := s.SetResolution(*resolution); err != nil {
		return err
	}

	if *preview {
		img, err := s.PreviewImage(*width, *height, time.Now().Add(blend.TransitionTime))
		if err != nil {
			return err
		}
		if err := out(img); err != nil {
			return err
		}
	}

	if *outPath == "" {
		return nil
	}
	b, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if *outPath == "-" {
		_, err = os.Stdout.Write(b)
		return errors.Wrap(err, "writing archive")
	}
	if err := ioutil.WriteFile(*outPath, b, 0644); err != nil {
		return errors.Wrap(err, "writing archive")
	}
	glog.Infof("wrote %d icons in palette %q to %s", len(records), s.ActivePalette().ID, *outPath)
	return nil
}

func main() {
	setupFilePathFlags()
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if *banner && !*dumpIconData {
		fmt.Fprintln(os.Stderr, figure.NewFigure("vanilla", "", true).String())
	}
	if err := run(context.Background()); err != nil {
		glog.Exitf("vanillaexport: %v", err)
	}
}
