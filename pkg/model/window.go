package model

// AvailabilityWindow is an administrator-declared span during which slots may
// be generated. Either Date (one-off, YYYY-MM-DD) or RRule (RFC 5545 string,
// simple frequency/by-day rules) must be set. Start and end of day are HH:MM.
type AvailabilityWindow struct {
	Date            string `json:"date,omitempty" bson:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RRule           string `json:"rrule,omitempty" bson:"rrule,omitempty"`
	StartTime       string `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	EndTime         string `json:"end_time" bson:"end_time" validate:"required,datetime=15:04"`
	SlotDurationMin int    `json:"slot_duration_min" bson:"slot_duration_min" validate:"required,min=5,max=480"`
}
