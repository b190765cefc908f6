package paths

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	cache     map[string][]byte
	cacheLock sync.Mutex

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

// noFindOpenHTTP fetches the URL once and keeps it in memory; subsequent opens
// of the same URL are served from the cache.
func noFindOpenHTTP(url string) (ReadSeekCloser, error) {
	cacheLock.Lock()
	defer cacheLock.Unlock()

	if cache == nil {
		cache = make(map[string][]byte)
	}
	if buf, ok := cache[url]; ok {
		glog.V(2).Infof("paths/http.go: NoFindOpen(%q): returning reader for cached buffer", url)
		return &bytesReaderWithDummyClose{bytes.NewReader(buf)}, nil
	}

	glog.Infof("paths/http.go: getting http file %q", url)
	response, err := httpClient.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "go-vanilla/paths/NoFindOpen(%q): failed to open", url)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		e := os.ErrInvalid
		if response.StatusCode == http.StatusNotFound {
			e = os.ErrNotExist
		}
		return nil, errors.Wrapf(e, "go-vanilla/paths/NoFindOpen(%q): http response.StatusCode=%v, want 200", url, response.StatusCode)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, response.Body); err != nil {
		return nil, errors.Wrap(err, "copying response to seekable buffer")
	}
	cache[url] = buf.Bytes()

	return &bytesReaderWithDummyClose{bytes.NewReader(buf.Bytes())}, nil
}

type bytesReaderWithDummyClose struct {
	*bytes.Reader
}

func (bytesReaderWithDummyClose) Close() error {
	return nil
}
