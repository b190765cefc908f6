// Package paths locates the data files (icon atlas, palettes, icon metadata)
// needed by the customiser binaries.
//
// Files are looked up in a few well-known local directories, may be given as
// http(s) URLs, and fall back to the copies embedded in the datafiles package.
package paths

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/datafiles"
)

// embeddedPrefix marks a path returned by Find that refers to an embedded file.
const embeddedPrefix = "embedded:"

// ReadSeekCloser is what Open and NoFindOpen return.
type ReadSeekCloser interface {
	io.ReadCloser
	io.Seeker
}

func getPossiblePathDirs() []string {
	dirs := []string{}
	if d := os.Getenv("VANILLA_DATA_DIR"); d != "" {
		dirs = append(dirs, d)
	}
	dirs = append(dirs,
		"datafiles",
		filepath.Join(os.Getenv("GOPATH"), "src/badc0de.net/pkg/go-vanilla/datafiles"),
		os.Args[0]+".runfiles/go_vanilla/datafiles",
	)
	return dirs
}

func getPossiblePaths(fileName string) []string {
	dirs := getPossiblePathDirs()
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, fileName))
	}
	return paths
}

// Find locates the passed datafile shortname and returns a path to find the
// datafile at.
//
// For example, for "icons.png" it may return "datafiles/icons.png". If the
// file is not on disk but is embedded into the binary, "embedded:icons.png"
// is returned. Unknown files give an empty string.
func Find(fileName string) string {
	for _, path := range getPossiblePaths(fileName) {
		if f, err := os.Open(path); err == nil {
			f.Close()
			glog.Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	if datafiles.Has(fileName) {
		glog.Infof("paths.Find(%q)=%s (embedded)", fileName, embeddedPrefix+fileName)
		return embeddedPrefix + fileName
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look, and
// opens it. If Find returns an empty string, an error is returned.
func Open(fileName string) (ReadSeekCloser, error) {
	path := Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "go-vanilla/paths/Open(%q)", fileName)
	}
	return NoFindOpen(path)
}

// NoFindOpen opens the path as given: an http or https URL, a path previously
// returned by Find, or a plain local path.
func NoFindOpen(path string) (ReadSeekCloser, error) {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return noFindOpenHTTP(path)
	case strings.HasPrefix(path, embeddedPrefix):
		return datafiles.Open(strings.TrimPrefix(path, embeddedPrefix))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "go-vanilla/paths/NoFindOpen(%q)", path)
	}
	return f, nil
}
