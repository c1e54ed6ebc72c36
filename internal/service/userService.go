package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type candidateService struct {
	candidates database.CandidateRepository
	bookings   database.BookingRepository
}

func NewCandidateService(candidates database.CandidateRepository, bookings database.BookingRepository) CandidateService {
	return &candidateService{candidates: candidates, bookings: bookings}
}

// Register creates a candidate. An already registered email returns the
// stored candidate with its most recent booking instead of failing.
func (s *candidateService) Register(ctx context.Context, req *RegisterCandidateRequest) (*Registration, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, entity.NewValidation("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	candidate := &entity.Candidate{Name: name, Email: email, Phone: strings.TrimSpace(req.Phone)}
	err := s.candidates.Create(ctx, candidate)
	if err == nil {
		logrus.WithField("candidate_id", candidate.ID).Info("Candidate registered")
		return &Registration{Candidate: candidate}, nil
	}
	if !errors.Is(err, entity.ErrCandidateExists) {
		return nil, fmt.Errorf("failed to register candidate: %w", err)
	}

	existing, err := s.candidates.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing candidate: %w", err)
	}
	bookings, err := s.bookings.GetByCandidate(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate bookings: %w", err)
	}

	reg := &Registration{Candidate: existing, Existing: true}
	if len(bookings) > 0 {
		reg.Booking = bookings[0]
	}
	return reg, nil
}

func (s *candidateService) GetCandidate(ctx context.Context, id int64) (*entity.Candidate, error) {
	return s.candidates.GetByID(ctx, id)
}

func (s *candidateService) UpdateContact(ctx context.Context, id int64, req *UpdateContactRequest) (*entity.Candidate, error) {
	email := normalizeEmail(req.Email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	c, err := s.candidates.UpdateContact(ctx, id, email, strings.TrimSpace(req.Phone))
	if errors.Is(err, entity.ErrCandidateExists) {
		return nil, entity.NewConflict("email already registered")
	}
	return c, err
}

type interviewerService struct {
	interviewers database.InterviewerRepository
}

func NewInterviewerService(interviewers database.InterviewerRepository) InterviewerService {
	return &interviewerService{interviewers: interviewers}
}

func (s *interviewerService) CreateInterviewer(ctx context.Context, req *CreateInterviewerRequest) (*entity.Interviewer, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, entity.NewValidation("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if req.MaxWeeklyInterviews < 0 {
		return nil, entity.NewValidation("max weekly interviews must not be negative")
	}

	interviewer := &entity.Interviewer{
		Name:                name,
		Email:               email,
		MaxWeeklyInterviews: req.MaxWeeklyInterviews,
	}
	if interviewer.MaxWeeklyInterviews == 0 {
		interviewer.MaxWeeklyInterviews = entity.DefaultMaxWeeklyInterviews
	}

	err := s.interviewers.Create(ctx, interviewer)
	if errors.Is(err, entity.ErrInterviewerExists) {
		return nil, entity.NewConflict("interviewer already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create interviewer: %w", err)
	}
	return interviewer, nil
}

func (s *interviewerService) GetInterviewer(ctx context.Context, id int64) (*entity.Interviewer, error) {
	return s.interviewers.GetByID(ctx, id)
}

func (s *interviewerService) ListInterviewers(ctx context.Context) ([]*entity.Interviewer, error) {
	return s.interviewers.GetAll(ctx)
}

type adminService struct {
	admin database.AdminRepository
}

func NewAdminService(admin database.AdminRepository) AdminService {
	return &adminService{admin: admin}
}

func (s *adminService) Stats(ctx context.Context) (*entity.DatabaseStats, error) {
	return s.admin.Stats(ctx)
}

func (s *adminService) Reset(ctx context.Context) (*entity.DatabaseStats, error) {
	deleted, err := s.admin.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset database: %w", err)
	}
	logrus.WithField("records", deleted.TotalRecords()).Warn("Database reset")
	return deleted, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return entity.NewValidation("invalid email")
	}
	return nil
}
