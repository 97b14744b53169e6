// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios without inspecting driver errors themselves.
package repository

import (
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent records, such as deleting a room that still has
// open reservations. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when a unique key (room number, email,
// room type name) is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ErrConcurrentUpdate signals that a row changed underneath the caller:
// an optimistic version check matched no row, or MySQL aborted the
// transaction with a deadlock or lock wait timeout.
var ErrConcurrentUpdate = errors.New("concurrent update")

// MySQL server error numbers translated by TranslateError.
const (
    mysqlDuplicateEntry   = 1062
    mysqlLockWaitTimeout  = 1205
    mysqlDeadlock         = 1213
    mysqlRowIsReferenced  = 1451
    mysqlRowIsReferenced2 = 1217
)

// TranslateError maps driver errors onto the sentinels above.  Errors it
// does not recognise are returned unchanged.
func TranslateError(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlDeadlock, mysqlLockWaitTimeout:
            return ErrConcurrentUpdate
        case mysqlDuplicateEntry:
            return ErrDuplicate
        case mysqlRowIsReferenced, mysqlRowIsReferenced2:
            return ErrConflict
        }
    }
    return err
}
