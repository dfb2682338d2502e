package errors

import "errors"

var (
	ErrNotFound     = errors.New("booking not found")
	ErrInvalidID    = errors.New("invalid booking id")
	ErrSlotTaken    = errors.New("an active booking already exists for this slot")
	ErrSlotLocked   = errors.New("slot is being booked by another request")
	ErrRemoteOrphan = errors.New("remote event created but local persistence failed")
)
