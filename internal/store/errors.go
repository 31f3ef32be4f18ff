// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// errors.go defines the failure taxonomy shared by both taxonomy stores.
// Callers match with errors.Is; store methods wrap these sentinels with
// operation context.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrValidation marks malformed or colliding input: a duplicate slug,
	// a name empty in every locale, an unknown parent or category ID.
	// Not retryable.
	ErrValidation = errors.New("invalid input")

	// ErrCycle marks a reparent that would make a category its own
	// ancestor. The tree is left unchanged.
	ErrCycle = errors.New("reparent would create a cycle")

	// ErrConflict marks a unique-constraint violation detected at commit
	// time: a concurrent writer won the race. Callers may retry with
	// fresh data; the store does not retry on its own.
	ErrConflict = errors.New("concurrent write conflict")

	// ErrPrecondition marks a mutation against an owner that has no
	// persisted identity yet.
	ErrPrecondition = errors.New("owner has no persisted identity")
)

// PostgreSQL SQLSTATE codes surfaced through pgconn.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, i.e. a write that lost a race against a concurrent insert.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key
// violation, e.g. relating an owner to a category that does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
