package common

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// StoreError reports a failed durable-store operation. It is kept apart from
// downstream API failures: retrying will not help until the store is restored.
type StoreError struct {
	Operation   string
	Cause       error
	Unavailable bool
}

func (e *StoreError) Error() string {
	state := "failed"
	if e.Unavailable {
		state = "unavailable"
	}
	return fmt.Sprintf("store %s during %s: %v", state, e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// WrapStoreError wraps err as a StoreError for operation. Nil stays nil and
// errors that already carry domain meaning pass through untouched.
func WrapStoreError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	var notFound NotFoundError
	var validation ValidationError
	if errors.As(err, &storeErr) || errors.As(err, &notFound) || errors.As(err, &validation) {
		return err
	}

	return &StoreError{
		Operation:   operation,
		Cause:       err,
		Unavailable: isUnavailable(err),
	}
}

// IsStoreError reports whether err came from the durable store.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// IsStoreUnavailable reports whether err means the store could not be reached.
func IsStoreUnavailable(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Unavailable
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// SQLite reports lock contention only through its message text.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
