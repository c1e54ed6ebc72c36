package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const (
	defaultTxTimeout = 5 * time.Second
	slotTimeLayout   = "2006-01-02 15:04"
	cancelAttempts   = 3
)

// BookingOptions tunes the engine. Zero values fall back to defaults.
type BookingOptions struct {
	TxTimeout time.Duration
	Now       func() time.Time
}

type bookingService struct {
	uow        database.UnitOfWork
	bookings   database.BookingRepository
	candidates database.CandidateRepository
	sink       NotificationSink
	txTimeout  time.Duration
	now        func() time.Time
}

func NewBookingService(storage *database.Storage, sink NotificationSink, opts BookingOptions) BookingService {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = defaultTxTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &bookingService{
		uow:        storage.UnitOfWork,
		bookings:   storage.Bookings,
		candidates: storage.Candidates,
		sink:       sink,
		txTimeout:  opts.TxTimeout,
		now:        opts.Now,
	}
}

func (s *bookingService) Book(ctx context.Context, req *BookRequest) (*entity.Booking, error) {
	var (
		booking   *entity.Booking
		slot      *entity.TimeSlot
		candidate *entity.Candidate
	)

	err := s.inTx(ctx, "book", func(ctx context.Context, tx database.Tx) error {
		now := s.now()

		// The candidate version is read before the active booking check so a
		// concurrent Book for the same candidate fails on ClaimBookingVersion.
		c, err := tx.Candidates().GetByID(ctx, req.CandidateID)
		if err != nil {
			return err
		}

		active, err := tx.Bookings().ListActiveForCandidate(ctx, c.ID, now)
		if err != nil {
			return fmt.Errorf("failed to check active bookings: %w", err)
		}
		if len(active) > 0 {
			return entity.NewConflict("candidate already has an active booking")
		}

		current, err := tx.Slots().GetWithVersion(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if !current.StartAt.After(now) {
			return entity.NewValidation("cannot book past slot")
		}
		if !current.IsAvailable() {
			return entity.NewConflict("slot no longer available")
		}

		booked, err := tx.Slots().ConditionalUpdate(ctx, current.ID, current.Version, entity.SlotUpdate{Status: entity.SlotStatusBooked})
		if errors.Is(err, entity.ErrVersionMismatch) {
			return entity.NewConflict("slot was just booked by another candidate")
		}
		if err != nil {
			return fmt.Errorf("failed to book slot: %w", err)
		}

		err = tx.Candidates().ClaimBookingVersion(ctx, c.ID, c.Version)
		if errors.Is(err, entity.ErrVersionMismatch) {
			return entity.NewConflict("candidate already has an active booking")
		}
		if err != nil {
			return fmt.Errorf("failed to claim candidate: %w", err)
		}

		b := &entity.Booking{
			CandidateID:   c.ID,
			SlotID:        booked.ID,
			InterviewerID: booked.InterviewerID,
			Status:        entity.BookingStatusConfirmed,
			Notes:         req.Notes,
			BookedAt:      now,
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		booking, slot, candidate = b, booked, c
		return nil
	})
	if err != nil {
		var stale *entity.StaleWriteError
		if errors.As(err, &stale) {
			if stale.Entity == "candidate" {
				return nil, entity.NewConflict("candidate already has an active booking")
			}
			return nil, entity.NewConflict("slot was just booked by another candidate")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"slot_id":      slot.ID,
		"candidate_id": candidate.ID,
	}).Info("Booking confirmed")

	s.notify(ctx, &entity.Notification{
		InterviewerID: slot.InterviewerID,
		BookingID:     &booking.ID,
		Type:          entity.NotificationNewBooking,
		Title:         "New interview booked",
		Message: fmt.Sprintf("%s booked an interview on %s.",
			candidate.Name, slot.StartAt.Format(slotTimeLayout)),
		CandidateName:  candidate.Name,
		CandidateEmail: candidate.Email,
	})

	return booking, nil
}

func (s *bookingService) Reschedule(ctx context.Context, bookingID, newSlotID int64) (*entity.Booking, error) {
	var (
		booking        *entity.Booking
		candidate      *entity.Candidate
		oldInterviewer int64
		oldStart       time.Time
		newStart       time.Time
	)

	err := s.inTx(ctx, "reschedule", func(ctx context.Context, tx database.Tx) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.IsConfirmed() {
			return entity.NewConflict("only confirmed bookings can be rescheduled")
		}

		oldSlot, err := tx.Slots().GetWithVersion(ctx, b.SlotID)
		if entity.IsNotFound(err) {
			return s.integrity(fmt.Sprintf("booking %d references missing slot %d", b.ID, b.SlotID), err)
		}
		if err != nil {
			return err
		}
		if oldSlot.Status != entity.SlotStatusBooked {
			return entity.NewConflict("reschedule failed, please retry")
		}

		newSlot, err := tx.Slots().GetWithVersion(ctx, newSlotID)
		if entity.IsNotFound(err) {
			return entity.NewNotFound("new slot")
		}
		if err != nil {
			return err
		}
		if !newSlot.IsAvailable() {
			return entity.NewConflict("new slot not available")
		}

		c, err := tx.Candidates().GetByID(ctx, b.CandidateID)
		if entity.IsNotFound(err) {
			return s.integrity(fmt.Sprintf("booking %d references missing candidate %d", b.ID, b.CandidateID), err)
		}
		if err != nil {
			return err
		}

		_, err = tx.Slots().ConditionalUpdate(ctx, oldSlot.ID, oldSlot.Version, entity.SlotUpdate{Status: entity.SlotStatusAvailable})
		if errors.Is(err, entity.ErrVersionMismatch) {
			return entity.NewConflict("reschedule failed, please retry")
		}
		if err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}

		claimed, err := tx.Slots().ConditionalUpdate(ctx, newSlot.ID, newSlot.Version, entity.SlotUpdate{Status: entity.SlotStatusBooked})
		if errors.Is(err, entity.ErrVersionMismatch) {
			return entity.NewConflict("reschedule failed, please retry")
		}
		if err != nil {
			return fmt.Errorf("failed to claim slot: %w", err)
		}

		oldInterviewer, oldStart = b.InterviewerID, oldSlot.StartAt
		b.SlotID = claimed.ID
		b.InterviewerID = claimed.InterviewerID
		if err := tx.Bookings().Update(ctx, b); err != nil {
			if errors.Is(err, entity.ErrVersionMismatch) {
				return entity.NewConflict("reschedule failed, please retry")
			}
			return fmt.Errorf("failed to update booking: %w", err)
		}

		booking, candidate, newStart = b, c, claimed.StartAt
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrVersionMismatch) {
			return nil, entity.NewConflict("reschedule failed, please retry")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"slot_id":      booking.SlotID,
		"candidate_id": candidate.ID,
	}).Info("Booking rescheduled")

	for _, n := range rescheduleNotifications(booking, candidate, oldInterviewer, oldStart, newStart) {
		s.notify(ctx, n)
	}

	return booking, nil
}

func rescheduleNotifications(b *entity.Booking, c *entity.Candidate, oldInterviewer int64, oldStart, newStart time.Time) []*entity.Notification {
	from, to := oldStart.Format(slotTimeLayout), newStart.Format(slotTimeLayout)
	base := func(interviewerID int64, typ entity.NotificationType, title, message string) *entity.Notification {
		bookingID := b.ID
		return &entity.Notification{
			InterviewerID:  interviewerID,
			BookingID:      &bookingID,
			Type:           typ,
			Title:          title,
			Message:        message,
			CandidateName:  c.Name,
			CandidateEmail: c.Email,
		}
	}

	if oldInterviewer == b.InterviewerID {
		return []*entity.Notification{
			base(b.InterviewerID, entity.NotificationBookingUpdated, "Interview rescheduled",
				fmt.Sprintf("%s moved their interview from %s to %s.", c.Name, from, to)),
		}
	}
	return []*entity.Notification{
		base(oldInterviewer, entity.NotificationRescheduledAway, "Interview moved to another interviewer",
			fmt.Sprintf("%s moved their interview from %s to %s with another interviewer.", c.Name, from, to)),
		base(b.InterviewerID, entity.NotificationRescheduledToYou, "Interview rescheduled to you",
			fmt.Sprintf("%s moved their interview from %s to %s with you.", c.Name, from, to)),
	}
}

// Cancel releases the booked slot and marks the booking CANCELLED. A lost
// race is retried from a fresh read, so a concurrent Cancel turns into a
// no-op and a concurrent Reschedule gets its new slot released instead.
func (s *bookingService) Cancel(ctx context.Context, bookingID int64) error {
	var (
		cancelled *entity.Booking
		err       error
	)
	for attempt := 1; attempt <= cancelAttempts; attempt++ {
		cancelled, err = s.cancelOnce(ctx, bookingID)
		if !errors.Is(err, entity.ErrVersionMismatch) {
			break
		}
		logrus.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"attempt":    attempt,
		}).Debug("Cancel lost a race, retrying")
	}
	if errors.Is(err, entity.ErrVersionMismatch) {
		return entity.NewConflict("cancel failed, please retry")
	}
	if err != nil {
		return err
	}

	if cancelled != nil {
		logrus.WithFields(logrus.Fields{
			"booking_id":   cancelled.ID,
			"slot_id":      cancelled.SlotID,
			"candidate_id": cancelled.CandidateID,
		}).Info("Booking cancelled")
	}
	return nil
}

func (s *bookingService) cancelOnce(ctx context.Context, bookingID int64) (*entity.Booking, error) {
	var cancelled *entity.Booking

	err := s.inTx(ctx, "cancel", func(ctx context.Context, tx database.Tx) error {
		b, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == entity.BookingStatusCancelled {
			return nil
		}

		slot, err := tx.Slots().GetWithVersion(ctx, b.SlotID)
		if entity.IsNotFound(err) {
			return s.integrity(fmt.Sprintf("booking %d references missing slot %d", b.ID, b.SlotID), err)
		}
		if err != nil {
			return err
		}
		if slot.Status != entity.SlotStatusBooked {
			return fmt.Errorf("slot %d is not booked: %w", slot.ID, entity.ErrVersionMismatch)
		}

		if _, err := tx.Slots().ConditionalUpdate(ctx, slot.ID, slot.Version, entity.SlotUpdate{Status: entity.SlotStatusAvailable}); err != nil {
			if errors.Is(err, entity.ErrVersionMismatch) {
				return err
			}
			return fmt.Errorf("failed to release slot: %w", err)
		}

		b.Status = entity.BookingStatusCancelled
		if err := tx.Bookings().Update(ctx, b); err != nil {
			if errors.Is(err, entity.ErrVersionMismatch) {
				return err
			}
			return fmt.Errorf("failed to update booking: %w", err)
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *bookingService) ListActiveBookingsForCandidate(ctx context.Context, candidateID int64, asOf time.Time) ([]*entity.Booking, error) {
	if _, err := s.candidates.GetByID(ctx, candidateID); err != nil {
		return nil, err
	}
	return s.bookings.ListActiveForCandidate(ctx, candidateID, asOf)
}

func (s *bookingService) ListBookingsForInterviewer(ctx context.Context, interviewerID int64) ([]*entity.Booking, error) {
	return s.bookings.ListByInterviewer(ctx, interviewerID, entity.BookingStatusConfirmed)
}

// inTx runs fn in one unit of work bounded by the engine timeout.
func (s *bookingService) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx database.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	err := s.uow.Do(ctx, func(tx database.Tx) error { return fn(ctx, tx) })
	if errors.Is(err, context.DeadlineExceeded) {
		return &entity.TimeoutError{Op: op, Err: err}
	}
	return err
}

func (s *bookingService) integrity(reason string, err error) error {
	logrus.WithError(err).Error(reason)
	return entity.NewIntegrity(reason, err)
}

// notify is best-effort: the booking change is already committed.
func (s *bookingService) notify(ctx context.Context, n *entity.Notification) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Enqueue(context.WithoutCancel(ctx), n); err != nil {
		logrus.WithFields(logrus.Fields{
			"interviewer_id": n.InterviewerID,
			"type":           n.Type,
		}).WithError(err).Warn("Failed to enqueue notification")
	}
}
