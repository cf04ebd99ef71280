package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_DomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.StudentAdded()
	c.StudentAdded()
	c.StudentDeleted()
	c.Rejected("DUPLICATE_EMAIL")

	if got := testutil.ToFloat64(c.studentsAdded); got != 2 {
		t.Errorf("students added = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.studentsDeleted); got != 1 {
		t.Errorf("students deleted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.rejections.WithLabelValues("DUPLICATE_EMAIL")); got != 1 {
		t.Errorf("rejections{DUPLICATE_EMAIL} = %v, want 1", got)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(http.MethodPost, "/api/v1/students", http.StatusBadRequest, 20*time.Millisecond)
	c.RecordHTTPRequest(http.MethodPost, "/api/v1/students", http.StatusBadRequest, 10*time.Millisecond)

	got := testutil.ToFloat64(c.requests.WithLabelValues(http.MethodPost, "/api/v1/students", "400"))
	if got != 2 {
		t.Errorf("requests{POST,/api/v1/students,400} = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(c.requestDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.StudentAdded()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "students_api_students_added_total 1") {
		t.Errorf("response should contain students_api_students_added_total 1, got:\n%s", body)
	}
}
