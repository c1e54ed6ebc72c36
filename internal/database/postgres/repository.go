package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
)

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// NewStorage wires the postgres repositories into the application storage bundle.
func NewStorage(db *sql.DB) *database.Storage {
	return &database.Storage{
		UnitOfWork:    NewUnitOfWork(db),
		Slots:         NewSlotRepository(db),
		Bookings:      NewBookingRepository(db),
		Candidates:    NewCandidateRepository(db),
		Interviewers:  NewInterviewerRepository(db),
		Notifications: NewNotificationRepository(db),
		Admin:         NewAdminRepository(db),
		Close:         db.Close,
	}
}

type unitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) database.UnitOfWork {
	return &unitOfWork{db: db}
}

// Do runs fn in a READ COMMITTED transaction. Conditional updates block on
// a concurrently locked row and then re-check its version, so a lost race
// shows up as entity.ErrVersionMismatch from the update itself.
func (u *unitOfWork) Do(ctx context.Context, fn func(tx database.Tx) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%v: %w", err, ctxErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to commit transaction: %w", ctxErr)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Slots() database.SlotRepository { return &slotRepository{q: t.tx} }

func (t *pgTx) Bookings() database.BookingRepository { return &bookingRepository{q: t.tx} }

func (t *pgTx) Candidates() database.CandidateRepository { return &candidateRepository{q: t.tx} }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
