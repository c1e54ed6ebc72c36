package entity

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

const DefaultSlotDuration = 60

// TimeSlot is a bookable interviewer window. Version is incremented on every
// successful mutation and is the only guard against double booking.
type TimeSlot struct {
	ID              int64      `json:"id" db:"id"`
	InterviewerID   int64      `json:"interviewer_id" db:"interviewer_id"`
	StartAt         time.Time  `json:"start_at" db:"slot_date_time"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Status          SlotStatus `json:"status" db:"status"`
	Version         int64      `json:"version" db:"version"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (s *TimeSlot) EndAt() time.Time {
	return s.StartAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

func (s *TimeSlot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

// SlotUpdate carries the fields a conditional write may change.
type SlotUpdate struct {
	Status SlotStatus
}
