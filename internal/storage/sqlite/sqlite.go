// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend for local development.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql
// from its init(); this package also uses it to inspect constraint errors.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/migrations"
	"github.com/aanand-mishra/student-management/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New applies the schema migrations to the database file at path, opens
// it, and returns a ready-to-use *SQLite.
//
// Running the migrations on every start is idempotent; they create the
// students table and the UNIQUE index on email.
func New(path string) (*SQLite, error) {
	if err := migrations.Up(migrations.SQLite, migrations.SQLiteURL(path)); err != nil {
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	// sql.Open does NOT open a real connection yet; it just validates
	// the driver name and data source name (DSN).
	// _busy_timeout makes concurrent writers wait for the file lock
	// instead of failing immediately with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// dsn appends the busy timeout to path, which may already carry its own
// query string (e.g. "file:students.db?cache=shared").
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// isUniqueViolation reports whether err came from the UNIQUE index on email.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts a new row into the students table.
//
// Prepared statements use placeholders (?). The database driver sends
// the query and the values separately, so user input is never parsed as
// SQL syntax.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (int64, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (name, email, gender) VALUES (?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, student.Name, student.Email, string(student.Gender))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrEmailTaken
		}
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	// LastInsertId returns the auto-generated primary key of the new row.
	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudentByID fetches exactly one student row matched by primary key.
//
// QueryRow returns a *Row, a single-row result. If the query finds no
// match the error surfaces only when Scan is called, as sql.ErrNoRows.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, email, gender FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRowContext(ctx, id).Scan(
		&student.ID,
		&student.Name,
		&student.Email,
		&student.Gender,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all student rows ordered by ID.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		// Explicitly list columns: SELECT * would break Scan's ordering
		// as soon as a column is added.
		"SELECT id, name, email, gender FROM students ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Email,
			&student.Gender,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}

		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// StudentExists reports whether a row with the given primary key exists.
func (s *SQLite) StudentExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.Db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM students WHERE id = ?)", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("StudentExists: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether a row with exactly this email exists.
// Comparison is byte-for-byte; no case folding is applied.
func (s *SQLite) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.Db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM students WHERE email = ?)", email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("EmailExists: %w", err)
	}
	return exists, nil
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}
