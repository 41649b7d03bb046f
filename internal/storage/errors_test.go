package storage

import (
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"bad conn", driver.ErrBadConn, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:3306: connection refused"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"pool exhaustion", &mysql.MySQLError{Number: 1040, Message: "Too many connections"}, true},
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{"fk violation", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, false},
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{"semantic error", errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1452}))
	assert.False(t, IsForeignKeyViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}

func TestIsDuplicateEntry(t *testing.T) {
	assert.True(t, IsDuplicateEntry(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateEntry(&mysql.MySQLError{Number: 1452}))
}
