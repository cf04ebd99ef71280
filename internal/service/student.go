// Package service holds the student business rules that sit between the
// HTTP boundary and the storage gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
)

// Recorder receives domain events for metrics. A nil Recorder passed to
// NewStudentService disables recording.
type Recorder interface {
	StudentAdded()
	StudentDeleted()
	Rejected(kind string)
}

type nopRecorder struct{}

func (nopRecorder) StudentAdded()   {}
func (nopRecorder) StudentDeleted() {}
func (nopRecorder) Rejected(string) {}

// StudentService enforces two invariants around the gateway: an email is
// registered at most once, and only existing students can be deleted.
//
// It holds no mutable state and is safe for concurrent use. The checks
// and the mutations that follow them are separate gateway calls; the SQL
// and Redis gateways additionally guard email uniqueness themselves, and
// a loser of that race gets the same DuplicateEmail error.
type StudentService struct {
	store storage.Storage
	rec   Recorder
}

// NewStudentService wires the service to its gateway.
func NewStudentService(store storage.Storage, rec Recorder) *StudentService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &StudentService{store: store, rec: rec}
}

// List returns every stored student exactly as the gateway returns them.
func (s *StudentService) List(ctx context.Context) ([]types.Student, error) {
	students, err := s.store.GetStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Get returns one student or a KindNotFound error.
func (s *StudentService) Get(ctx context.Context, id int64) (types.Student, error) {
	student, err := s.store.GetStudentByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Student{}, NewNotFoundError(id)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("get student %d: %w", id, err)
	}
	return student, nil
}

// Add registers student unless its email is already taken. The gateway
// assigns the id; any id on student is ignored.
func (s *StudentService) Add(ctx context.Context, student types.Student) error {
	taken, err := s.store.EmailExists(ctx, student.Email)
	if err != nil {
		return fmt.Errorf("add student: check email: %w", err)
	}
	if taken {
		s.rec.Rejected(string(KindDuplicateEmail))
		return NewDuplicateEmailError(student.Email)
	}

	id, err := s.store.CreateStudent(ctx, student)
	if errors.Is(err, storage.ErrEmailTaken) {
		s.rec.Rejected(string(KindDuplicateEmail))
		return NewDuplicateEmailError(student.Email)
	}
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}

	s.rec.StudentAdded()
	slog.Info("student added", slog.Int64("id", id))
	return nil
}

// Delete removes the student with id, or returns a KindNotFound error
// without touching storage.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	exists, err := s.store.StudentExists(ctx, id)
	if err != nil {
		return fmt.Errorf("delete student %d: check existence: %w", id, err)
	}
	if !exists {
		s.rec.Rejected(string(KindNotFound))
		return NewNotFoundError(id)
	}

	if err := s.store.DeleteStudentByID(ctx, id); err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}

	s.rec.StudentDeleted()
	slog.Info("student deleted", slog.Int64("id", id))
	return nil
}
