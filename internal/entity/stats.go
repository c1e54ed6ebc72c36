package entity

// DatabaseStats holds row counts per table.
type DatabaseStats struct {
	TotalBookings     int64 `json:"total_bookings"`
	TotalTimeSlots    int64 `json:"total_time_slots"`
	TotalCandidates   int64 `json:"total_candidates"`
	TotalInterviewers int64 `json:"total_interviewers"`
}

func (s *DatabaseStats) TotalRecords() int64 {
	return s.TotalBookings + s.TotalTimeSlots + s.TotalCandidates + s.TotalInterviewers
}
