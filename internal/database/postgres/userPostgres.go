package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const candidateColumns = `id, name, email, phone, version, created_at`

type candidateRepository struct {
	q querier
}

func NewCandidateRepository(db *sql.DB) database.CandidateRepository {
	return &candidateRepository{q: db}
}

func scanCandidate(row scanner) (*entity.Candidate, error) {
	var c entity.Candidate
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Version, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepository) Create(ctx context.Context, c *entity.Candidate) error {
	query := `
		INSERT INTO candidates (name, email, phone, version)
		VALUES ($1, $2, $3, 0)
		RETURNING id, version, created_at
	`

	err := r.q.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone).Scan(&c.ID, &c.Version, &c.CreatedAt)
	if isUniqueViolation(err) {
		return entity.ErrCandidateExists
	}
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id int64) (*entity.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *candidateRepository) GetByEmail(ctx context.Context, email string) (*entity.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE email = $1`
	return r.get(ctx, query, email)
}

func (r *candidateRepository) get(ctx context.Context, query string, arg interface{}) (*entity.Candidate, error) {
	c, err := scanCandidate(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("candidate")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// UpdateContact leaves a field untouched when its new value is empty.
func (r *candidateRepository) UpdateContact(ctx context.Context, id int64, email, phone string) (*entity.Candidate, error) {
	query := `
		UPDATE candidates
		SET email = COALESCE(NULLIF($2, ''), email),
		    phone = COALESCE(NULLIF($3, ''), phone)
		WHERE id = $1
		RETURNING ` + candidateColumns

	c, err := scanCandidate(r.q.QueryRowContext(ctx, query, id, email, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("candidate")
	}
	if isUniqueViolation(err) {
		return nil, entity.ErrCandidateExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}
	return c, nil
}

func (r *candidateRepository) ClaimBookingVersion(ctx context.Context, id, expected int64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE candidates SET version = version + 1 WHERE id = $1 AND version = $2`, id, expected)
	if err != nil {
		return fmt.Errorf("failed to claim candidate version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM candidates WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check candidate: %w", err)
	}
	if !exists {
		return entity.NewNotFound("candidate")
	}
	return entity.ErrVersionMismatch
}

type interviewerRepository struct {
	db *sql.DB
}

func NewInterviewerRepository(db *sql.DB) database.InterviewerRepository {
	return &interviewerRepository{db: db}
}

func (r *interviewerRepository) Create(ctx context.Context, i *entity.Interviewer) error {
	query := `
		INSERT INTO interviewers (name, email, max_weekly_interviews)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, i.Name, i.Email, i.MaxWeeklyInterviews).Scan(&i.ID, &i.CreatedAt)
	if isUniqueViolation(err) {
		return entity.ErrInterviewerExists
	}
	if err != nil {
		return fmt.Errorf("failed to create interviewer: %w", err)
	}
	return nil
}

func (r *interviewerRepository) GetByID(ctx context.Context, id int64) (*entity.Interviewer, error) {
	query := `SELECT id, name, email, max_weekly_interviews, created_at FROM interviewers WHERE id = $1`

	var i entity.Interviewer
	err := r.db.QueryRowContext(ctx, query, id).Scan(&i.ID, &i.Name, &i.Email, &i.MaxWeeklyInterviews, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("interviewer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interviewer: %w", err)
	}
	return &i, nil
}

func (r *interviewerRepository) GetAll(ctx context.Context) ([]*entity.Interviewer, error) {
	query := `SELECT id, name, email, max_weekly_interviews, created_at FROM interviewers ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviewers: %w", err)
	}
	defer rows.Close()

	var interviewers []*entity.Interviewer
	for rows.Next() {
		var i entity.Interviewer
		if err := rows.Scan(&i.ID, &i.Name, &i.Email, &i.MaxWeeklyInterviews, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interviewer: %w", err)
		}
		interviewers = append(interviewers, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interviewers: %w", err)
	}
	return interviewers, nil
}
