// Package activity fans out store-mutation events to registered hooks.
//
// Wrap any pack.Store in a Recorder to observe the logical operations a
// pack performs against it: one event per Set or Delete outside a batch
// scope, and a single coalesced event per outermost batch, which is the
// externally visible form of batch-notification suppression.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Verbs emitted by the Recorder.
const (
	VerbSet    = "store.set"
	VerbDelete = "store.delete"
	VerbBatch  = "store.batch"
)

// Event describes one logical store mutation.
type Event struct {
	ID         string
	Verb       string
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes the event and forwards it to every hook, returning a
// joined error if any fail.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || len(normalized.Keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent assigns an ID and timestamp when missing, trims the
// verb, and drops empty keys.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	if normalized.ID == "" {
		normalized.ID = uuid.NewString()
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	keys := make([]string, 0, len(event.Keys))
	for _, key := range event.Keys {
		if key != "" {
			keys = append(keys, key)
		}
	}
	normalized.Keys = keys
	return normalized
}
