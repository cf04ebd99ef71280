package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/student-management/internal/http/middleware"
	"github.com/aanand-mishra/student-management/internal/metrics"
	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/storage/sqlite"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
)

type testApp struct {
	server *httptest.Server
	store  *sqlite.SQLite
}

func newTestApp(t *testing.T, rps float64, burst int) *testApp {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "students.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	limiter := middleware.NewRateLimiter(rps, burst)
	t.Cleanup(limiter.Close)

	srv := httptest.NewServer(New(Deps{
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		Students:          service.NewStudentService(store, collector),
		Storage:           store,
		Metrics:           collector,
		Gatherer:          reg,
		RateLimiter:       limiter,
		CORSAllowedOrigin: "http://localhost:3000",
	}))
	t.Cleanup(srv.Close)

	return &testApp{server: srv, store: store}
}

func (a *testApp) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func listStudents(t *testing.T, a *testApp) []types.Student {
	t.Helper()

	resp := a.do(t, http.MethodGet, "/api/v1/students", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET list status = %d", resp.StatusCode)
	}
	var students []types.Student
	if err := json.NewDecoder(resp.Body).Decode(&students); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return students
}

func TestStudentLifecycle(t *testing.T) {
	app := newTestApp(t, 0, 0)

	resp := app.do(t, http.MethodPost, "/api/v1/students",
		`{"name":"Jamila","email":"jamila@gmail.com","gender":"FEMALE"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}

	students := listStudents(t, app)
	if len(students) != 1 {
		t.Fatalf("list = %+v, want one student", students)
	}
	jamila := students[0]
	if jamila.ID == 0 || jamila.Email != "jamila@gmail.com" || jamila.Gender != types.GenderFemale {
		t.Fatalf("unexpected student %+v", jamila)
	}
	idPath := "/api/v1/students/" + strconv.FormatInt(jamila.ID, 10)

	resp = app.do(t, http.MethodGet, idPath, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET by id status = %d", resp.StatusCode)
	}

	resp = app.do(t, http.MethodPost, "/api/v1/students",
		`{"name":"Other","email":"jamila@gmail.com","gender":"MALE"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate POST status = %d, want 400", resp.StatusCode)
	}
	var dup response.Response
	json.NewDecoder(resp.Body).Decode(&dup)
	if dup.Error != "Email jamila@gmail.com is already taken" {
		t.Errorf("duplicate error = %q", dup.Error)
	}

	resp = app.do(t, http.MethodDelete, idPath, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}

	if students := listStudents(t, app); len(students) != 0 {
		t.Errorf("list after delete = %+v, want empty", students)
	}

	exists, err := app.store.StudentExists(context.Background(), jamila.ID)
	if err != nil {
		t.Fatalf("StudentExists: %v", err)
	}
	if exists {
		t.Error("student still exists after delete")
	}

	resp = app.do(t, http.MethodDelete, idPath, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", resp.StatusCode)
	}
	var missing response.Response
	json.NewDecoder(resp.Body).Decode(&missing)
	want := "Student with id " + strconv.FormatInt(jamila.ID, 10) + " does not exist."
	if missing.Error != want {
		t.Errorf("missing error = %q, want %q", missing.Error, want)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	app := newTestApp(t, 0, 0)

	resp := app.do(t, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	app.do(t, http.MethodGet, "/api/v1/students/999", "")

	resp = app.do(t, http.MethodGet, "/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`route="/api/v1/students/{id}"`)) {
		t.Errorf("metrics missing route pattern label:\n%s", body)
	}
}

func TestResponsesCarryRequestIDAndCORS(t *testing.T) {
	app := newTestApp(t, 0, 0)

	resp := app.do(t, http.MethodGet, "/api/v1/students", "")
	if resp.Header.Get(middleware.HeaderRequestID) == "" {
		t.Error("missing X-Request-ID header")
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRateLimitAppliesToAPIOnly(t *testing.T) {
	app := newTestApp(t, 1, 1)

	if resp := app.do(t, http.MethodGet, "/api/v1/students", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", resp.StatusCode)
	}
	if resp := app.do(t, http.MethodGet, "/api/v1/students", ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", resp.StatusCode)
	}
	if resp := app.do(t, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 regardless of limit", resp.StatusCode)
	}
}

// panickingService blows up on every call.
type panickingService struct{}

func (panickingService) List(context.Context) ([]types.Student, error) { panic("list exploded") }
func (panickingService) Get(context.Context, int64) (types.Student, error) {
	panic("get exploded")
}
func (panickingService) Add(context.Context, types.Student) error { panic("add exploded") }
func (panickingService) Delete(context.Context, int64) error      { panic("delete exploded") }

func TestPanicIsLoggedAndCounted(t *testing.T) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store, err := sqlite.New(filepath.Join(t.TempDir(), "students.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	limiter := middleware.NewRateLimiter(0, 0)
	t.Cleanup(limiter.Close)

	var logs bytes.Buffer
	h := New(Deps{
		Logger:            slog.New(slog.NewJSONHandler(&logs, nil)),
		Students:          panickingService{},
		Storage:           store,
		Metrics:           metrics.NewCollector(reg),
		Gatherer:          reg,
		RateLimiter:       limiter,
		CORSAllowedOrigin: "http://localhost:3000",
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/students", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v\nraw: %s", err, logs.String())
	}
	if entry["msg"] != "http_request" || entry["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("log entry = %v, want http_request with status 500", entry)
	}

	mw := httptest.NewRecorder()
	h.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `students_api_http_requests_total{method="GET",route="/api/v1/students",status_code="500"} 1`
	if !strings.Contains(mw.Body.String(), want) {
		t.Errorf("metrics missing %q:\n%s", want, mw.Body.String())
	}
}
