package errors

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = stderrors.New("record not found")
	// ErrConflict indicates a uniqueness conflict on write.
	ErrConflict = stderrors.New("record conflict")
	// ErrRetryable indicates a transient storage failure.
	ErrRetryable = stderrors.New("retryable storage failure")
)

// MapError normalizes driver-level failures into the repo sentinels so
// callers never branch on postgres or sqlite specifics.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return stderrors.Join(ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return stderrors.Join(ErrConflict, err) // unique_violation
		case "40001", "40P01", "55P03":
			return stderrors.Join(ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return stderrors.Join(ErrConflict, err)
	case strings.Contains(msg, "deadlock"), strings.Contains(msg, "serialization"):
		return stderrors.Join(ErrRetryable, err)
	}
	return err
}
