package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/WB_L3/interview/internal/database/memory"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

func TestCandidateService_Register(t *testing.T) {
	ctx := context.Background()
	storage, _ := memory.NewStorage()
	svc := NewCandidateService(storage.Candidates, storage.Bookings)

	reg, err := svc.Register(ctx, &RegisterCandidateRequest{Name: " Alice ", Email: "Alice@Example.com", Phone: "+100"})
	require.NoError(t, err)
	assert.False(t, reg.Existing)
	assert.Nil(t, reg.Booking)
	assert.Equal(t, "Alice", reg.Candidate.Name)
	assert.Equal(t, "alice@example.com", reg.Candidate.Email)

	again, err := svc.Register(ctx, &RegisterCandidateRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, reg.Candidate.ID, again.Candidate.ID)
	assert.Nil(t, again.Booking)

	base := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	older := &entity.Booking{CandidateID: reg.Candidate.ID, SlotID: 1, Status: entity.BookingStatusCancelled, BookedAt: base}
	newer := &entity.Booking{CandidateID: reg.Candidate.ID, SlotID: 2, Status: entity.BookingStatusConfirmed, BookedAt: base.Add(time.Hour)}
	require.NoError(t, storage.Bookings.Create(ctx, older))
	require.NoError(t, storage.Bookings.Create(ctx, newer))

	withBooking, err := svc.Register(ctx, &RegisterCandidateRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NotNil(t, withBooking.Booking)
	assert.Equal(t, newer.ID, withBooking.Booking.ID)
}

func TestCandidateService_RegisterValidation(t *testing.T) {
	svc := NewCandidateService(memory.NewStore().Candidates(), memory.NewStore().Bookings())

	for _, req := range []RegisterCandidateRequest{
		{Name: "", Email: "a@example.com"},
		{Name: "A", Email: "not-an-email"},
		{Name: "A", Email: "@example.com"},
		{Name: "A", Email: "a@"},
	} {
		req := req
		_, err := svc.Register(context.Background(), &req)
		assert.True(t, entity.IsValidation(err), "request %+v", req)
	}
}

func TestCandidateService_UpdateContact(t *testing.T) {
	ctx := context.Background()
	storage, _ := memory.NewStorage()
	svc := NewCandidateService(storage.Candidates, storage.Bookings)

	alice, err := svc.Register(ctx, &RegisterCandidateRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterCandidateRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	updated, err := svc.UpdateContact(ctx, alice.Candidate.ID, &UpdateContactRequest{Phone: "+200"})
	require.NoError(t, err)
	assert.Equal(t, "+200", updated.Phone)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.Equal(t, "Alice", updated.Name)

	_, err = svc.UpdateContact(ctx, alice.Candidate.ID, &UpdateContactRequest{Email: "bob@example.com"})
	assert.True(t, entity.IsConflict(err))

	_, err = svc.UpdateContact(ctx, alice.Candidate.ID, &UpdateContactRequest{Email: "broken"})
	assert.True(t, entity.IsValidation(err))

	_, err = svc.UpdateContact(ctx, 404, &UpdateContactRequest{Phone: "1"})
	assert.True(t, entity.IsNotFound(err))
}

func TestInterviewerService(t *testing.T) {
	ctx := context.Background()
	svc := NewInterviewerService(memory.NewStore().Interviewers())

	ivan, err := svc.CreateInterviewer(ctx, &CreateInterviewerRequest{Name: "Ivan", Email: "ivan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultMaxWeeklyInterviews, ivan.MaxWeeklyInterviews)

	olga, err := svc.CreateInterviewer(ctx, &CreateInterviewerRequest{Name: "Olga", Email: "olga@example.com", MaxWeeklyInterviews: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, olga.MaxWeeklyInterviews)

	_, err = svc.CreateInterviewer(ctx, &CreateInterviewerRequest{Name: "Ivan 2", Email: "IVAN@example.com"})
	assert.True(t, entity.IsConflict(err))

	_, err = svc.CreateInterviewer(ctx, &CreateInterviewerRequest{Name: "X", Email: "x@example.com", MaxWeeklyInterviews: -1})
	assert.True(t, entity.IsValidation(err))

	all, err := svc.ListInterviewers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ivan.ID, all[0].ID)

	got, err := svc.GetInterviewer(ctx, olga.ID)
	require.NoError(t, err)
	assert.Equal(t, "Olga", got.Name)

	_, err = svc.GetInterviewer(ctx, 404)
	assert.True(t, entity.IsNotFound(err))
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	storage, _ := memory.NewStorage()
	svc := NewAdminService(storage.Admin)

	require.NoError(t, storage.Interviewers.Create(ctx, &entity.Interviewer{Name: "Ivan", Email: "ivan@example.com"}))
	require.NoError(t, storage.Candidates.Create(ctx, &entity.Candidate{Name: "Alice", Email: "alice@example.com"}))
	require.NoError(t, storage.Slots.CreateBatch(ctx, []*entity.TimeSlot{{InterviewerID: 1, StartAt: time.Now().Add(time.Hour)}}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalInterviewers)
	assert.EqualValues(t, 1, stats.TotalCandidates)
	assert.EqualValues(t, 1, stats.TotalTimeSlots)
	assert.EqualValues(t, 3, stats.TotalRecords())

	deleted, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted.TotalRecords())

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords())
}
