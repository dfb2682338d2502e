// Package calendar talks to the externally-hosted calendar. The calendar is
// also editable out-of-band through its own UI, so nothing read from it may
// be assumed stable between calls.
package calendar

import (
	"context"
	"time"

	"bokari/pkg/model"
)

// Provider is the boundary to the external calendar. Implementations must be
// safe for concurrent use. DeleteEvent of an already-deleted event is not an
// error.
type Provider interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]model.RemoteEvent, error)
	CreateEvent(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
	EventExists(ctx context.Context, eventID string) (bool, error)
}
