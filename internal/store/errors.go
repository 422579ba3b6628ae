package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when no contact has the requested id.
	ErrNotFound = errors.New("store: contact not found")

	// ErrConflict is returned when an update affected no row, i.e. the row was deleted or changed
	// concurrently, or when the database aborted the statement because of a deadlock.
	ErrConflict = errors.New("store: concurrent modification")

	// ErrConstraint is returned when a column constraint (length, NOT NULL, CHECK) rejected a row.
	ErrConstraint = errors.New("store: constraint violation")
)

// MySQL server error numbers that are mapped onto the sentinels above.
const (
	mysqlErrBadNull         = 1048
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
	mysqlErrDataTooLong     = 1406
	mysqlErrCheckViolated   = 3819
)

// mapError translates driver errors into the store's sentinel errors. The original error stays in
// the chain so callers can still inspect it.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrBadNull, mysqlErrDataTooLong, mysqlErrCheckViolated:
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}

	// modernc.org/sqlite reports constraint failures only through the message text.
	s := err.Error()
	if strings.Contains(s, "CHECK constraint failed") || strings.Contains(s, "NOT NULL constraint failed") {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}
