// Package storage defines the Storage interface, the gateway that every
// database backend must satisfy to hold student records.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer should not know or care which database it is talking
// to. By depending only on this interface:
//
//   - Switching databases = pick another driver in the config file.
//     Zero service or handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for unit tests.
//
// The gateway is the sole owner of record storage AND identity assignment:
// callers never choose an ID, they receive the one CreateStudent returns.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-management/internal/types"
)

// Sentinel errors shared by every backend. Callers compare with errors.Is.
var (
	// ErrNotFound is returned when a lookup by ID matches nothing.
	ErrNotFound = errors.New("student not found")

	// ErrEmailTaken is returned by CreateStudent when the store's own
	// uniqueness guard (UNIQUE index, SETNX key) rejects the insert.
	ErrEmailTaken = errors.New("email already taken")
)

// Storage is the database contract.
// Any concrete type that implements ALL of these methods automatically
// satisfies this interface; Go does this implicitly (no "implements"
// keyword required).
type Storage interface {
	// GetStudents returns every student ordered by ID.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns ErrNotFound when no row matches.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// StudentExists reports whether a student with the given ID is stored.
	StudentExists(ctx context.Context, id int64) (bool, error)

	// EmailExists reports whether any stored student has exactly this email.
	EmailExists(ctx context.Context, email string) (bool, error)

	// CreateStudent inserts a new student record and returns the
	// generated ID. Any ID already set on student is ignored.
	CreateStudent(ctx context.Context, student types.Student) (int64, error)

	// DeleteStudentByID removes a student record permanently.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
