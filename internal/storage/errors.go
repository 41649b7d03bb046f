package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrRecordNotFound re-exports gorm's sentinel so callers outside the storage
// package don't import gorm for a comparison.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// MySQL server error numbers that indicate infrastructure pressure rather
// than a semantic failure.
const (
	mysqlErrTooManyConnections = 1040
	mysqlErrLockWaitTimeout    = 1205
	mysqlErrDeadlock           = 1213
	mysqlErrForeignKeyChild    = 1452
	mysqlErrDuplicateEntry     = 1062
)

// IsTransient reports whether err is an infrastructure failure worth
// retrying: connection resets, refused dials, pool exhaustion, timeouts.
// Semantic failures (constraint violations, record-not-found) are not
// transient and must propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrTooManyConnections, mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Driver and pool errors that surface without a typed wrapper.
	msg := err.Error()
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"invalid connection",
		"bad connection",
		"too many connections",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// IsForeignKeyViolation reports whether err is a child-row FK failure
// (MySQL error 1452).
func IsForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrForeignKeyChild
}

// IsDuplicateEntry reports whether err is a unique-key conflict
// (MySQL error 1062).
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}
