// Package repository contains the MySQL data access layer. Sentinel errors
// defined here let the service layer distinguish missing rows and unique-key
// violations from other storage failures without inspecting driver types.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key. The unique
// constraints on users.email and users.username are the real guard against
// duplicate accounts; application-level checks only improve the message.
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
