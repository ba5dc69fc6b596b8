// Package watcher reports changes to individual files through fsnotify.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by writing a new file and renaming it over the old one
// are still seen. Bursts of events for one file are coalesced and delivered
// once the file has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when watching through a closed watcher.
var ErrClosed = errors.New("watcher closed")

// DefaultDebounce is the quiet interval used when WithDebounce is not given.
const DefaultDebounce = 100 * time.Millisecond

// Event is a change to a watched file. Path is absolute.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Operation is the kind of change.
type Operation int

const (
	OpWrite Operation = iota
	OpCreate
	OpRemove
	OpRename
)

var opNames = [...]string{"write", "create", "remove", "rename"}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "unknown"
	}
	return opNames[op]
}

// convertOp maps an fsnotify operation. ok is false for operations that do
// not change content, such as chmod.
func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}

// merge folds a new operation into one still waiting for delivery.
// A file that disappears and comes back was replaced, which reads as a
// write; a create stays a create until the file goes away.
func merge(prev, next Operation) Operation {
	gone := prev == OpRemove || prev == OpRename
	switch next {
	case OpCreate:
		if gone {
			return OpWrite
		}
		return OpCreate
	case OpWrite:
		if gone {
			return OpWrite
		}
		return prev
	}
	return next
}

// Handler receives change events.
type Handler func(Event)

// ErrorHandler receives errors reported by fsnotify.
type ErrorHandler func(error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet interval. Zero delivers every event as it
// arrives.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// Watcher watches a set of files.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu       sync.RWMutex
	files    map[string]struct{}
	dirs     map[string]int // watched files per directory
	onChange []Handler
	onError  []ErrorHandler
	stop     chan struct{}
	done     chan struct{}
	closed   bool

	qmu    sync.Mutex
	queued map[string]Event
}

// New creates a watcher. It delivers nothing until Start.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: DefaultDebounce,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		queued:   make(map[string]Event),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds path. The file need not exist yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = struct{}{}
	return nil
}

// Unwatch removes path. Unknown paths are ignored.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; !ok {
		return nil
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	if w.dirs[dir]--; w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if w.closed {
		return nil
	}
	return w.fsw.Remove(dir)
}

// WatchedFiles returns the watched paths, sorted.
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// OnChange registers h for change events.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	w.onChange = append(w.onChange, h)
	w.mu.Unlock()
}

// OnError registers h for watch errors.
func (w *Watcher) OnError(h ErrorHandler) {
	w.mu.Lock()
	w.onError = append(w.onError, h)
	w.mu.Unlock()
}

// Start begins delivering events. It is a no-op when already running or
// closed.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil || w.closed {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)
}

// Stop halts delivery and waits for the loop to exit. Queued events are
// dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done

	w.qmu.Lock()
	clear(w.queued)
	w.qmu.Unlock()
}

// Close stops the watcher and releases the fsnotify handle.
func (w *Watcher) Close() error {
	w.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

// IsRunning reports whether events are being delivered.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stop != nil
}

func (w *Watcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if w.debounce > 0 {
		t := time.NewTicker(w.debounce)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.receive(ev, time.Now())
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		case now := <-tick:
			w.flush(now)
		}
	}
}

// receive filters a raw event down to watched files and queues or delivers
// it.
func (w *Watcher) receive(raw fsnotify.Event, now time.Time) {
	op, ok := convertOp(raw.Op)
	if !ok {
		return
	}
	path := filepath.Clean(raw.Name)
	w.mu.RLock()
	_, watched := w.files[path]
	w.mu.RUnlock()
	if !watched {
		return
	}
	ev := Event{Path: path, Op: op, Time: now}
	if w.debounce == 0 {
		w.deliver(ev)
		return
	}
	w.enqueue(ev)
}

func (w *Watcher) enqueue(ev Event) {
	w.qmu.Lock()
	defer w.qmu.Unlock()
	if prev, ok := w.queued[ev.Path]; ok {
		ev.Op = merge(prev.Op, ev.Op)
	}
	w.queued[ev.Path] = ev
}

// flush delivers queued events that have been quiet for the debounce
// interval as of now, in path order.
func (w *Watcher) flush(now time.Time) {
	cutoff := now.Add(-w.debounce)
	var ready []Event
	w.qmu.Lock()
	for path, ev := range w.queued {
		if ev.Time.Before(cutoff) {
			ready = append(ready, ev)
			delete(w.queued, path)
		}
	}
	w.qmu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].Path < ready[j].Path })
	for _, ev := range ready {
		w.deliver(ev)
	}
}

func (w *Watcher) deliver(ev Event) {
	w.mu.RLock()
	hs := append([]Handler(nil), w.onChange...)
	w.mu.RUnlock()
	for _, h := range hs {
		if err := protect(func() { h(ev) }); err != nil {
			w.reportError(fmt.Errorf("change handler for %s: %w", ev.Path, err))
		}
	}
}

func (w *Watcher) reportError(err error) {
	w.mu.RLock()
	hs := append([]ErrorHandler(nil), w.onError...)
	w.mu.RUnlock()
	for _, h := range hs {
		_ = protect(func() { h(err) })
	}
}

// ErrHandlerPanic wraps a panic recovered from a handler.
var ErrHandlerPanic = errors.New("handler panicked")

// protect runs f and turns a panic into an error so one handler cannot stop
// the loop.
func protect(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	f()
	return nil
}
