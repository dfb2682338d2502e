package model

import "time"

// SyncSnapshot is the cached result of the last reconciliation pass. A read
// may reuse it only while its age is below the configured cache TTL, unless
// the caller forces a refresh.
type SyncSnapshot struct {
	ComputedAt time.Time `json:"computed_at"`
	Cancelled  int       `json:"cancelled"`
	FreedSlots int       `json:"freed_slots"`
	Errors     int       `json:"errors"`
}

// Fresh reports whether the snapshot may still be served from cache.
func (s SyncSnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return !s.ComputedAt.IsZero() && now.Sub(s.ComputedAt) < ttl
}
