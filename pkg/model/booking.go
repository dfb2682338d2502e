package model

import (
	"time"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is the durable record of a reservation. At most one non-cancelled
// booking may exist for a given slot identity; the Bookings collection
// enforces that with a partial unique index.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SlotDate      string    `json:"slot_date" bson:"slot_date" validate:"required,datetime=2006-01-02"`
	SlotStart     time.Time `json:"slot_start" bson:"slot_start" validate:"required"`
	SlotEnd       time.Time `json:"slot_end" bson:"slot_end" validate:"required,gtfield=SlotStart"`
	CustomerName  string    `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail string    `json:"customer_email" bson:"customer_email" validate:"required,email"`
	CustomerPhone string    `json:"customer_phone,omitempty" bson:"customer_phone,omitempty" validate:"omitempty,e164"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	RemoteEventID string    `json:"remote_event_id,omitempty" bson:"remote_event_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Active reports whether the booking still occupies its slot.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// SlotKey returns the identity of the slot this booking occupies.
func (b *Booking) SlotKey() string {
	return Slot{
		Date:      b.SlotDate,
		StartTime: b.SlotStart,
		EndTime:   b.SlotEnd,
	}.Key()
}

// CustomerInfo is the booking-request payload supplied by the caller.
type CustomerInfo struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}
