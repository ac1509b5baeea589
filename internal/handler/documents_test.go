package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doc-registry/internal/metrics"
	"doc-registry/internal/repository"
	"doc-registry/internal/service"
)

// Prometheus collectors register globally, so one registry serves the whole
// test binary.
var testMetrics = metrics.NewRegistry()

const validPayload = `{
	"doc_status": "DRAFT",
	"doc_type": "LP_INTRODUCE_GOODS",
	"importRequest": true,
	"owner_inn": "1234567890",
	"participant_inn": "1234567890",
	"producer_inn": "1234567890",
	"production_type": "OWN_PRODUCTION",
	"description": {"participantInn": "1234567890"},
	"products": [{"tnved_code": "6403999800"}]
}`

func newTestHandler(t *testing.T, capacity int64) *DocumentsHandler {
	t.Helper()
	gate, err := service.NewRateGate(capacity, time.Second)
	if err != nil {
		t.Fatalf("new rate gate: %v", err)
	}
	retry, err := service.NewRetryPolicy(1, 0, service.IsRateLimited)
	if err != nil {
		t.Fatalf("new retry policy: %v", err)
	}
	svc := service.NewDocumentService(gate, retry, repository.NewMemoryStore(), nil)
	return NewDocumentsHandler(svc, testMetrics, time.Second)
}

func TestCreateDocument(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(validPayload))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}

	var doc repository.Document
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != 1 {
		t.Fatalf("expected assigned doc_id 1, got %d", doc.ID)
	}
	if doc.RegNumber == "" || doc.RegDate.IsZero() {
		t.Fatalf("expected registration fields assigned, got %+v", doc)
	}
}

func TestCreateMalformedPayload(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(`{"doc_status":`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateUnknownDocType(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create",
		strings.NewReader(`{"doc_type": "LP_SHIP_GOODS"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateRateLimited(t *testing.T) {
	h := newTestHandler(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(validPayload))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "rate_limited" {
		t.Fatalf("expected rate_limited error code, got %q", body["error"])
	}
}

func TestGetDocument(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(validPayload))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v3/lk/documents/1", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var doc repository.Document
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != 1 || doc.Status != "DRAFT" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestGetDocumentMissing(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/lk/documents/999", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestGetDocumentBadID(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/lk/documents/not-a-number", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

// The registry is optional everywhere: a handler wired without one must
// serve both the success and the rejection path.
func TestHandlerWithoutMetrics(t *testing.T) {
	gate, err := service.NewRateGate(1, time.Hour)
	if err != nil {
		t.Fatalf("new rate gate: %v", err)
	}
	retry, err := service.NewRetryPolicy(1, 0, service.IsRateLimited)
	if err != nil {
		t.Fatalf("new retry policy: %v", err)
	}
	svc := service.NewDocumentService(gate, retry, repository.NewMemoryStore(), nil)
	h := NewDocumentsHandler(svc, nil, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(validPayload))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}

	// second submission exhausts the single permit
	req = httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", strings.NewReader(validPayload))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateWrongMethod(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v3/lk/documents/create", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}
