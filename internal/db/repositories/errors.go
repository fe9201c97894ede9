// Package repositories implements the data access layer for MenuHub.
// Each repository type encapsulates all database queries for one entity;
// handlers and services never issue SQL directly.
package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// ErrSlugTaken is returned when an organization slug collides with an existing one.
var ErrSlugTaken = errors.New("organization slug already taken")

// ErrEmailTaken is returned when a user email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
