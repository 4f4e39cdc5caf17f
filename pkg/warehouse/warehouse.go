// Package warehouse owns the live search index and its lifecycle.
//
// The index moves through three states:
//
//	Absent --(first access or refresh)--> Building --(success)--> Ready
//	                                          \--(failure)--> Absent
//
// There is at most one open index handle. Searches hold a read lock on it;
// a refresh holds the write lock for the whole delete-rebuild-publish
// sequence, so no search runs against a half-replaced index and every
// search after Refresh returns sees the new one.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/log"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/realtime"
)

// ErrNotReady is returned by Search when no index could be made available.
var ErrNotReady = errors.New("index is not ready")

type State int32

const (
	Absent State = iota
	Building
	Ready
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Building:
		return "building"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Build reasons reported in events and logs.
const (
	ReasonStartup  = "startup"
	ReasonRefresh  = "refresh"
	ReasonSchedule = "schedule"
	ReasonWatch    = "watch"
)

// Status is a point-in-time view of the warehouse.
type Status struct {
	State     string     `json:"state"`
	Source    string     `json:"source"`
	IndexPath string     `json:"index_path"`
	Meta      index.Meta `json:"meta"`
	LastError string     `json:"last_error,omitempty"`
}

type Warehouse struct {
	store  *index.Store
	source core.Source
	hub    *realtime.Hub
	logger *log.Logger

	mu sync.RWMutex
	ix *index.Index

	// state and lastErr are readable without mu so that status queries
	// never wait for a build.
	state   atomic.Int32
	errMu   sync.Mutex
	lastErr error
}

// New creates a warehouse in the Absent state. Nothing is read or built
// until EnsureReady, Search or Refresh is called. hub may be nil.
func New(store *index.Store, source core.Source, hub *realtime.Hub) *Warehouse {
	if hub == nil {
		hub = realtime.NewHub(0)
	}
	return &Warehouse{
		store:  store,
		source: source,
		hub:    hub,
		logger: log.ForService("warehouse"),
	}
}

// Hub returns the hub lifecycle events are published on.
func (w *Warehouse) Hub() *realtime.Hub {
	return w.hub
}

// State returns the current lifecycle state.
func (w *Warehouse) State() State {
	return State(w.state.Load())
}

// EnsureReady opens the existing index or builds one if there is none. An
// index file that cannot be used is deleted and rebuilt.
func (w *Warehouse) EnsureReady(ctx context.Context) error {
	if w.State() == Ready {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ix != nil {
		return nil
	}

	if w.store.Exists() {
		ix, err := w.store.Open()
		if err == nil {
			w.publish(ix, "")
			w.logger.Infof("opened index %s (%d documents)", w.store.Path(), ix.Meta().Documents)
			return nil
		}

		var corrupt *index.CorruptError
		if !errors.As(err, &corrupt) {
			w.setErr(err)
			return err
		}
		w.logger.Warnf("%v, rebuilding", err)
		if err := w.store.Delete(); err != nil {
			w.setErr(err)
			return err
		}
	}

	return w.build(ctx, ReasonStartup)
}

// Refresh deletes the current index and builds a new one from the source.
// It waits for running searches, blocks new ones until it is done and runs
// to completion even if ctx is cancelled. On failure the warehouse is left
// Absent and the next access retries.
func (w *Warehouse) Refresh(ctx context.Context, reason string) error {
	if reason == "" {
		reason = ReasonRefresh
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Infof("refreshing index (%s)", reason)
	if w.ix != nil {
		if err := w.ix.Close(); err != nil {
			w.logger.Warnf("closing index: %v", err)
		}
		w.ix = nil
	}
	w.state.Store(int32(Absent))

	if err := w.store.Delete(); err != nil {
		w.setErr(err)
		return fmt.Errorf("refresh: %w", err)
	}
	w.hub.Broadcast(realtime.Event{Type: realtime.EventDeleted, Reason: reason})

	return w.build(ctx, reason)
}

// build must be called with mu held and no index open.
func (w *Warehouse) build(ctx context.Context, reason string) error {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	w.state.Store(int32(Building))
	w.hub.Broadcast(realtime.Event{Type: realtime.EventBuilding, Reason: reason})

	fail := func(err error) error {
		w.state.Store(int32(Absent))
		w.setErr(err)
		w.hub.Broadcast(realtime.Event{Type: realtime.EventFailed, Reason: reason, Error: err.Error()})
		w.logger.Errorf("index build failed: %v", err)
		return err
	}

	ds, err := w.source.Fetch(ctx)
	if err != nil {
		return fail(err)
	}

	ix, err := index.Build(ctx, w.store, ds)
	if err != nil {
		return fail(err)
	}

	w.publish(ix, reason)
	w.logger.Infof("index ready: %d documents from %d sheets in %v", ix.Meta().Documents, ix.Meta().Sheets, time.Since(start).Round(time.Millisecond))
	return nil
}

func (w *Warehouse) publish(ix *index.Index, reason string) {
	w.ix = ix
	w.setErr(nil)
	w.state.Store(int32(Ready))
	meta := ix.Meta()
	w.hub.Broadcast(realtime.Event{
		Type:      realtime.EventReady,
		Reason:    reason,
		Documents: meta.Documents,
		Sheets:    meta.Sheets,
	})
}

// Search runs q against the live index, building it first if needed.
func (w *Warehouse) Search(ctx context.Context, q query.Query, limit int) ([]index.Hit, error) {
	if err := w.EnsureReady(ctx); err != nil {
		return nil, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.ix == nil {
		return nil, ErrNotReady
	}
	return w.ix.Search(ctx, q, limit)
}

// Status reports the lifecycle state and, when ready, the index metadata.
// It does not wait for a running build.
func (w *Warehouse) Status() Status {
	st := Status{
		State:     w.State().String(),
		IndexPath: w.store.Path(),
	}
	if w.source != nil {
		st.Source = w.source.Type()
	}
	if err := w.getErr(); err != nil {
		st.LastError = err.Error()
	}

	if w.mu.TryRLock() {
		if w.ix != nil {
			st.Meta = w.ix.Meta()
		}
		w.mu.RUnlock()
	}
	return st
}

// Close releases the index handle. The index stays on disk.
func (w *Warehouse) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ix == nil {
		return nil
	}
	err := w.ix.Close()
	w.ix = nil
	w.state.Store(int32(Absent))
	return err
}

func (w *Warehouse) setErr(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	w.lastErr = err
}

func (w *Warehouse) getErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}
