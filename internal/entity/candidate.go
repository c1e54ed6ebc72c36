package entity

import "time"

type Candidate struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Phone string `json:"phone,omitempty" db:"phone"`
	// Version is bumped every time a booking is created for the candidate.
	Version   int64     `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Interviewer struct {
	ID                  int64     `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Email               string    `json:"email" db:"email"`
	MaxWeeklyInterviews int       `json:"max_weekly_interviews" db:"max_weekly_interviews"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

const DefaultMaxWeeklyInterviews = 10
