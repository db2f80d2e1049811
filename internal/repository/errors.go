// Package repository implements MySQL persistence for users, auth
// methods and refresh tokens. Sentinel errors let the service layer
// map storage failures onto its own taxonomy without inspecting
// driver-specific detail.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert would violate a unique
// constraint, such as a duplicate email, username, or
// (user, type, identifier) auth-method triple.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for unique-key
// violations (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique-constraint violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
