package model

import "time"

const (
	EventAvailabilityMarker = "availability_marker"
	EventBookedAppointment  = "booked_appointment"
	EventOther              = "other"
)

// RemoteEvent is a projection of an entry in the external calendar. It is not
// owned by this system: events can appear, change, or vanish out-of-band.
// Availability markers declare openness; every other kind declares busyness.
type RemoteEvent struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  string    `json:"kind"`
}

// Busy reports whether the event excludes overlapping slots from availability.
func (e RemoteEvent) Busy() bool {
	return e.Kind != EventAvailabilityMarker
}
