package config

import (
	"sync"

	"github.com/dshills/quill/internal/config/loader"
	"github.com/dshills/quill/internal/config/watcher"
	"github.com/dshills/quill/internal/logging"
)

// Reloader watches a settings file and delivers the new Settings each time
// the file is written. Files that fail to load are logged and skipped, so
// the last good settings stay in effect.
type Reloader struct {
	path    string
	fs      loader.FileSystem
	w       *watcher.Watcher
	log     *logging.Logger
	updates chan Settings

	mu     sync.Mutex
	closed bool
}

// NewReloader creates a reloader for path. Call Start to begin watching.
func NewReloader(path string, log *logging.Logger, opts ...watcher.Option) (*Reloader, error) {
	w, err := watcher.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	r := &Reloader{
		path:    path,
		fs:      loader.DefaultFS(),
		w:       w,
		log:     log.WithComponent("config").WithField("path", path),
		updates: make(chan Settings, 1),
	}
	w.OnChange(r.handle)
	w.OnError(func(err error) {
		r.log.Warn("watch error: %v", err)
	})
	return r, nil
}

// Updates returns the channel new settings are delivered on. Only the most
// recent undelivered settings are kept.
func (r *Reloader) Updates() <-chan Settings {
	return r.updates
}

// Start begins watching.
func (r *Reloader) Start() {
	r.w.Start()
}

// Close stops watching and closes the updates channel.
func (r *Reloader) Close() error {
	err := r.w.Close()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.updates)
	}
	return err
}

func (r *Reloader) handle(ev watcher.Event) {
	switch ev.Op {
	case watcher.OpWrite, watcher.OpCreate:
		r.reload()
	default:
		r.log.Debug("ignoring %s event", ev.Op)
	}
}

// reload loads the file and publishes the result.
func (r *Reloader) reload() {
	s, err := LoadFS(r.fs, r.path)
	if err != nil {
		r.log.Error("reload failed: %v", err)
		return
	}
	r.log.Info("settings reloaded")
	r.publish(s)
}

func (r *Reloader) publish(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case <-r.updates:
	default:
	}
	r.updates <- s
}
