//go:build windows

package imageprint

import (
	"flag"
	"image"
	"io"

	"github.com/pkg/errors"
)

var (
	forceITerm = flag.Bool("force_iterm", false, "value to force iterm detection to take (implementation variant: no rasterm)")
)

func IsTermItermWez() bool {
	return *forceITerm
}

func PrintRasTerm(w io.Writer, i image.Image) error {
	return errors.New("rasterm not supported on windows")
}
