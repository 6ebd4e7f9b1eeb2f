// Package sqlutil holds small helpers shared by the database/sql repositories.
package sqlutil

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// ToSqlTime converts an optional time to sql.NullTime
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// FromSqlTime converts sql.NullTime to an optional UTC time
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time.UTC()
	return &t
}

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a Postgres unique violation and, if
// so, which constraint fired.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
