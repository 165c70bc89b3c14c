package activity

import (
	"context"
	"sort"

	pack "github.com/goliatone/go-parampack"
)

// Recorder is a pack.Store middleware that emits an activity event per
// logical mutation of the wrapped store. Hook failures do not fail the
// store operation; the last notification error is retained for
// inspection.
type Recorder struct {
	inner pack.Store
	hooks Hooks

	batchDepth int
	pending    map[string]string

	lastErr error
}

var _ pack.Store = (*Recorder)(nil)

// NewRecorder wraps inner with activity recording.
func NewRecorder(inner pack.Store, hooks ...Hook) *Recorder {
	return &Recorder{inner: inner, hooks: Hooks(hooks)}
}

// LastNotifyErr returns the most recent hook-notification failure.
func (r *Recorder) LastNotifyErr() error { return r.lastErr }

// Has implements pack.Store.
func (r *Recorder) Has(key string) (bool, error) { return r.inner.Has(key) }

// Get implements pack.Store.
func (r *Recorder) Get(key string) (string, bool, error) { return r.inner.Get(key) }

// Keys implements pack.Store.
func (r *Recorder) Keys(prefix string) ([]string, error) { return r.inner.Keys(prefix) }

// Set implements pack.Store, recording the mutation.
func (r *Recorder) Set(key, value string) error {
	if err := r.inner.Set(key, value); err != nil {
		return err
	}
	r.record(VerbSet, key)
	return nil
}

// Delete implements pack.Store, recording the mutation.
func (r *Recorder) Delete(key string) error {
	if err := r.inner.Delete(key); err != nil {
		return err
	}
	r.record(VerbDelete, key)
	return nil
}

// BeginBatch implements pack.Store. Mutations inside the scope coalesce
// into a single batch event emitted when the outermost scope ends.
func (r *Recorder) BeginBatch() pack.EndBatch {
	innerEnd := r.inner.BeginBatch()
	r.batchDepth++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		r.batchDepth--
		innerEnd()
		if r.batchDepth == 0 {
			r.flush()
		}
	}
}

func (r *Recorder) record(verb, key string) {
	if r.batchDepth > 0 {
		if r.pending == nil {
			r.pending = make(map[string]string)
		}
		r.pending[key] = verb
		return
	}
	r.notify(Event{Verb: verb, Keys: []string{key}})
}

func (r *Recorder) flush() {
	if len(r.pending) == 0 {
		return
	}
	keys := make([]string, 0, len(r.pending))
	for key := range r.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	r.pending = nil
	r.notify(Event{
		Verb:     VerbBatch,
		Keys:     keys,
		Metadata: map[string]any{"writes": len(keys)},
	})
}

func (r *Recorder) notify(event Event) {
	if !r.hooks.Enabled() {
		return
	}
	if err := r.hooks.Notify(context.Background(), event); err != nil {
		r.lastErr = err
	}
}
