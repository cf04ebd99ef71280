// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────────────────
// The router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like the student
// service. To inject dependencies we use a factory function that:
//  1. Accepts dependencies (the Service)
//  2. Returns a function with the exact signature the router needs
//
//	r.Post("/", student.New(svc))
//	//          ^^^^^^^^^^^^^^^^
//	//   New(svc) is called ONCE at startup; the returned func runs on
//	//   EVERY incoming request.
//
// Handlers never talk to storage directly. Business rules (unique email,
// delete only what exists) live in the service; this layer decodes,
// validates and maps service error kinds to HTTP status codes.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/aanand-mishra/student-management/internal/importer"
	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
)

// Service is what the handlers need from the student service.
type Service interface {
	List(ctx context.Context) ([]types.Student, error)
	Get(ctx context.Context, id int64) (types.Student, error)
	Add(ctx context.Context, student types.Student) error
	Delete(ctx context.Context, id int64) error
}

// maxUploadBytes caps the size of an imported workbook.
const maxUploadBytes = 10 << 20

// validate and namePolicy are immutable after init and safe for
// concurrent use.
var (
	validate   = validator.New()
	namePolicy = bluemonday.StrictPolicy()
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/v1/students
// Registers a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "name": "Jamila", "email": "jamila@gmail.com", "gender": "FEMALE" }
//
// Success response (200 OK):
//
//	{ "status": "ok" }
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, failed validation, email taken
//	500 Internal     storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("creating a student")

		var student types.Student
		err := json.NewDecoder(r.Body).Decode(&student)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		student, verr := prepare(student)
		if verr != nil {
			response.WriteJSON(w, http.StatusBadRequest, *verr)
			return
		}

		if err := svc.Add(r.Context(), student); err != nil {
			response.WriteServiceError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.OK())
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/v1/students
// Returns a JSON array of every student, ordered by id.
// An empty store yields [] (not null).
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("getting all students")

		students, err := svc.List(r.Context())
		if err != nil {
			response.WriteServiceError(w, r, err)
			return
		}
		if students == nil {
			students = []types.Student{}
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetByID handles GET /api/v1/students/{id}.
//
//	200 { "id": 1, "name": "Jamila", "email": "jamila@gmail.com", "gender": "FEMALE" }
//	400 id is not an integer
//	404 no such student
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Debug("getting a student", slog.Int64("id", id))

		student, err := svc.Get(r.Context(), id)
		if err != nil {
			response.WriteServiceError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/v1/students/{id}
// Permanently removes a student record.
//
// Success response (200 OK):
//
//	{ "status": "deleted" }
//
// Error responses:
//
//	400 Bad Request  invalid id
//	404 Not Found    "Student with id <id> does not exist."
//	500 Internal     storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Debug("deleting a student", slog.Int64("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			response.WriteServiceError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusDeleted})
	}
}

// SkippedRow explains why one spreadsheet row was not imported.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult is the body returned by Import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Import handles POST /api/v1/students/import
// Bulk-registers students from an .xlsx upload (multipart field "file").
//
// Every row goes through the same validation and the same service call as
// a single POST, so a duplicate email inside the file is rejected too.
// Rows that fail are reported, not fatal:
//
//	{ "imported": 2, "skipped": [ { "row": 4, "reason": "Email a@b.c is already taken" } ] }
//
// A storage failure aborts the import with 500; rows before it stay saved.
// ─────────────────────────────────────────────────────────────────────────────
func Import(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, _, err := r.FormFile("file")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(fmt.Errorf("missing workbook in form field \"file\": %w", err)))
			return
		}
		defer file.Close()

		rows, err := importer.ParseWorkbook(file)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		result := ImportResult{Skipped: []SkippedRow{}}
		for _, row := range rows {
			student, verr := prepare(row.Student)
			if verr != nil {
				result.Skipped = append(result.Skipped, SkippedRow{Row: row.Number, Reason: verr.Error})
				continue
			}

			if err := svc.Add(r.Context(), student); err != nil {
				if _, ok := service.KindOf(err); ok {
					result.Skipped = append(result.Skipped, SkippedRow{Row: row.Number, Reason: err.Error()})
					continue
				}
				response.WriteServiceError(w, r, err)
				return
			}
			result.Imported++
		}

		slog.Info("students imported",
			slog.Int("imported", result.Imported),
			slog.Int("skipped", len(result.Skipped)),
		)
		response.WriteJSON(w, http.StatusOK, result)
	}
}

// parseID reads the {id} path segment. On failure it has already written
// a 400 response.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return id, true
}

// errNameMarkup is reported for names that contain HTML.
var errNameMarkup = errors.New("field Name must not contain markup")

// prepare trims the input, drops any client-supplied id (ids are
// assigned by storage) and validates the result. A nil *response.Response
// means the student may be passed to the service.
func prepare(s types.Student) (types.Student, *response.Response) {
	s.ID = 0
	s.Email = strings.TrimSpace(s.Email)

	name, ok := plainName(s.Name)
	if !ok {
		resp := response.GeneralError(errNameMarkup)
		return s, &resp
	}
	s.Name = name

	if verr := validateStudent(s); verr != nil {
		return s, verr
	}
	return s, nil
}

// plainName decodes HTML entities and reports whether the decoded name is
// free of markup. Entities are decoded first so "&lt;b&gt;" cannot slip
// past the policy as text. A name counts as plain when the strict policy
// leaves it untouched apart from its own escaping, which keeps names like
// "Tom & Jerry" and "O'Brien" readable.
func plainName(raw string) (string, bool) {
	decoded := strings.TrimSpace(html.UnescapeString(raw))
	if html.UnescapeString(namePolicy.Sanitize(decoded)) != decoded {
		return "", false
	}
	return decoded, true
}

func validateStudent(s types.Student) *response.Response {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp := response.ValidationError(verrs)
		return &resp
	}
	resp := response.GeneralError(err)
	return &resp
}
