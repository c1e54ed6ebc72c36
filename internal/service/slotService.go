package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const defaultGenerationWeeks = 2

type slotService struct {
	slots        database.SlotRepository
	interviewers database.InterviewerRepository
	weeks        int
	now          func() time.Time
}

func NewSlotService(slots database.SlotRepository, interviewers database.InterviewerRepository, weeks int) SlotService {
	if weeks <= 0 {
		weeks = defaultGenerationWeeks
	}
	return &slotService{
		slots:        slots,
		interviewers: interviewers,
		weeks:        weeks,
		now:          time.Now,
	}
}

func (s *slotService) GenerateSlots(ctx context.Context, req *GenerateSlotsRequest) ([]*entity.TimeSlot, error) {
	pattern, err := parseWeeklyPattern(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.interviewers.GetByID(ctx, req.InterviewerID); err != nil {
		return nil, err
	}

	slots := GenerateWeeklySlots(req.InterviewerID, pattern, s.now(), s.weeks)
	if len(slots) == 0 {
		return slots, nil
	}
	if err := s.slots.CreateBatch(ctx, slots); err != nil {
		return nil, fmt.Errorf("failed to save slots: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"interviewer_id": req.InterviewerID,
		"count":          len(slots),
	}).Info("Slots generated")
	return slots, nil
}

func (s *slotService) ListAvailable(ctx context.Context) ([]*entity.TimeSlot, error) {
	return s.slots.ListAvailable(ctx, s.now())
}

// ListForInterviewer defaults to the generation horizon starting now.
func (s *slotService) ListForInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]*entity.TimeSlot, error) {
	if from.IsZero() {
		from = s.now()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 7*s.weeks)
	}
	if to.Before(from) {
		return nil, entity.NewValidation("range end is before its start")
	}
	if _, err := s.interviewers.GetByID(ctx, interviewerID); err != nil {
		return nil, err
	}
	return s.slots.ListByInterviewer(ctx, interviewerID, from, to)
}

func (s *slotService) RetirePastSlots(ctx context.Context, limit int) (int, error) {
	past, err := s.slots.ListPastAvailable(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list past slots: %w", err)
	}

	retired := 0
	for _, slot := range past {
		_, err := s.slots.ConditionalUpdate(ctx, slot.ID, slot.Version, entity.SlotUpdate{Status: entity.SlotStatusCancelled})
		if errors.Is(err, entity.ErrVersionMismatch) {
			// someone else moved it, leave it to them
			continue
		}
		if err != nil {
			return retired, fmt.Errorf("failed to retire slot %d: %w", slot.ID, err)
		}
		retired++
	}
	return retired, nil
}

// WeeklyPattern is one recurring window on a weekday, in the server location.
type WeeklyPattern struct {
	Day      time.Weekday
	Start    time.Duration // offset from midnight
	End      time.Duration
	Duration time.Duration
}

// GenerateWeeklySlots expands pattern into AVAILABLE slots for the next weeks
// weeks. Only slots starting after now are returned, and every slot ends no
// later than the window end.
func GenerateWeeklySlots(interviewerID int64, p WeeklyPattern, now time.Time, weeks int) []*entity.TimeSlot {
	if p.Duration <= 0 {
		return nil
	}

	var out []*entity.TimeSlot
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for week := 0; week < weeks; week++ {
		date := today.AddDate(0, 0, 7*week)
		for date.Weekday() != p.Day {
			date = date.AddDate(0, 0, 1)
		}

		for offset := p.Start; offset+p.Duration <= p.End; offset += p.Duration {
			start := date.Add(offset)
			if !start.After(now) {
				continue
			}
			out = append(out, &entity.TimeSlot{
				InterviewerID:   interviewerID,
				StartAt:         start,
				DurationMinutes: int(p.Duration / time.Minute),
				Status:          entity.SlotStatusAvailable,
			})
		}
	}
	return out
}

var weekdays = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

func parseWeeklyPattern(req *GenerateSlotsRequest) (WeeklyPattern, error) {
	day, ok := weekdays[strings.ToUpper(strings.TrimSpace(req.DayOfWeek))]
	if !ok {
		return WeeklyPattern{}, entity.NewValidation(fmt.Sprintf("unknown day of week %q", req.DayOfWeek))
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return WeeklyPattern{}, err
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return WeeklyPattern{}, err
	}
	if end <= start {
		return WeeklyPattern{}, entity.NewValidation("end time must be after start time")
	}

	minutes := req.DurationMinutes
	if minutes == 0 {
		minutes = entity.DefaultSlotDuration
	}
	if minutes < 0 {
		return WeeklyPattern{}, entity.NewValidation("duration must be positive")
	}
	if minutes > int((end-start)/time.Minute) {
		return WeeklyPattern{}, entity.NewValidation("duration must fit within the time window")
	}

	return WeeklyPattern{
		Day:      day,
		Start:    start,
		End:      end,
		Duration: time.Duration(minutes) * time.Minute,
	}, nil
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, entity.NewValidation(fmt.Sprintf("invalid time %q, expected HH:MM", value))
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
