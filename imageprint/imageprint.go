// Package imageprint prints images on terminal. UNSUPPORTED debug package.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"

	"github.com/gookit/color"
	"github.com/pkg/errors"
)

// Modes accepted by Print.
const (
	ModeNoColor = "none"
	Mode256     = "256"
	Mode24bit   = "24bit"
	ModeITerm   = "iterm"
	ModeRasTerm = "rasterm"
)

var ErrUnknownMode = errors.New("unknown print mode")

type style int

const (
	style256 style = iota
	style24bit
	styleNoColor
)

func shade(w io.Writer, col ic.Color, s style, blanks bool) {
	c := ic.NRGBAModel.Convert(col).(ic.NRGBA)
	if c.A == 0 {
		fmt.Fprint(w, "\x1b[0m  ")
		return
	}

	text := "  "
	if !blanks {
		a := (int(c.R) + int(c.G) + int(c.B)) / 3
		switch {
		case a < 32:
			text = ".."
		case a < 64:
			text = "--"
		case a < 128:
			text = "=="
		default:
			text = "##"
		}
	}

	switch s {
	case styleNoColor:
		fmt.Fprint(w, text)
	case style24bit:
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", c.R, c.G, c.B, text)
	default:
		fmt.Fprint(w, color.RGB(c.R, c.G, c.B, true).Sprint(text))
	}
}

func printImage(w io.Writer, i image.Image, s style, blanks bool) {
	b := i.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			shade(w, i.At(x, y), s, blanks)
		}
		if s != styleNoColor {
			fmt.Fprint(w, "\x1b[0m")
		}
		fmt.Fprint(w, "\n")
	}
}

// Print256Color draws an image using 256color'd ascii art.
func Print256Color(w io.Writer, i image.Image, blanks bool) {
	printImage(w, i, style256, blanks)
}

// Print24bit draws an image using 24bit color escape sequences by changing background.
func Print24bit(w io.Writer, i image.Image, blanks bool) {
	printImage(w, i, style24bit, blanks)
}

// PrintNoColor draws an image without using color escape sequences. Only makes
// sense with blanks=false.
func PrintNoColor(w io.Writer, i image.Image, blanks bool) {
	printImage(w, i, styleNoColor, blanks)
}

// PrintITerm draws an image using iTerm2's escape sequences.
//
// https://www.iterm2.com/documentation-images.html
func PrintITerm(w io.Writer, i image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, i); err != nil {
		return errors.Wrap(err, "encoding png for iterm")
	}
	bEnc.Close()
	_, err := fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Size().X, i.Bounds().Size().Y, b.String())
	return err
}

// Print draws i in the named mode.
func Print(w io.Writer, i image.Image, mode string, blanks bool) error {
	switch mode {
	case ModeNoColor:
		PrintNoColor(w, i, blanks)
	case Mode256:
		Print256Color(w, i, blanks)
	case Mode24bit:
		Print24bit(w, i, blanks)
	case ModeITerm:
		return PrintITerm(w, i, "preview.png")
	case ModeRasTerm:
		return PrintRasTerm(w, i)
	default:
		return errors.Wrapf(ErrUnknownMode, "%q", mode)
	}
	return nil
}
