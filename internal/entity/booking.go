package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking binds one candidate to one slot. InterviewerID is a copy of the
// slot's interviewer and is kept in lockstep with SlotID. Version counts
// committed updates and guards them the same way the slot version does.
type Booking struct {
	ID            int64         `json:"id" db:"id"`
	CandidateID   int64         `json:"candidate_id" db:"candidate_id"`
	SlotID        int64         `json:"slot_id" db:"time_slot_id"`
	InterviewerID int64         `json:"interviewer_id" db:"interviewer_id"`
	Status        BookingStatus `json:"status" db:"status"`
	Notes         string        `json:"notes,omitempty" db:"notes"`
	Version       int64         `json:"version" db:"version"`
	BookedAt      time.Time     `json:"booked_at" db:"booked_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}
