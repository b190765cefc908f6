// Package datafiles carries the default icon atlas, palette set and icon
// metadata so that binaries work without any data files next to them.
package datafiles

import (
	"embed"
	"io"
	"io/fs"

	"github.com/pkg/errors"
)

//go:embed icons.png palettes.json icondata.json
var files embed.FS

const (
	Atlas    = "icons.png"
	Palettes = "palettes.json"
	IconData = "icondata.json"
)

// Open opens one of the embedded data files.
func Open(fileName string) (interface {
	io.ReadCloser
	io.Seeker
}, error) {
	f, err := files.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "go-vanilla/datafiles: opening embedded %q", fileName)
	}
	rs, ok := f.(interface {
		io.ReadCloser
		io.Seeker
	})
	if !ok {
		f.Close()
		return nil, errors.Errorf("go-vanilla/datafiles: embedded %q is not seekable", fileName)
	}
	return rs, nil
}

// Has reports whether fileName is embedded.
func Has(fileName string) bool {
	_, err := fs.Stat(files, fileName)
	return err == nil
}
