package atlas

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Loader loads an atlas in the background and lets callers wait for it, or
// check whether loading is complete without blocking.
type Loader struct {
	once  sync.Once
	done  chan struct{}
	atlas *Atlas
	err   error
}

func NewLoader() *Loader {
	return &Loader{done: make(chan struct{})}
}

// Load starts loading using open. Only the first call has any effect.
func (l *Loader) Load(open func() (*Atlas, error)) {
	l.once.Do(func() {
		go func() {
			defer close(l.done)
			l.atlas, l.err = open()
			if l.err != nil {
				glog.Errorf("loading icon sheet: %v", l.err)
				return
			}
			glog.Infof("loaded icon sheet successfully; it contains %d icons", l.atlas.IconCount())
		}()
	})
}

// Wait blocks until loading finishes or ctx is done.
func (l *Loader) Wait(ctx context.Context) (*Atlas, error) {
	select {
	case <-l.done:
		return l.atlas, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports whether loading finished successfully, and the atlas if so.
func (l *Loader) Loaded() (*Atlas, bool) {
	select {
	case <-l.done:
		return l.atlas, l.err == nil
	default:
		return nil, false
	}
}
