package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/echonote/internal/onboarding"
	"github.com/kalambet/echonote/internal/storage"
)

const testToken = "test-token"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	adapter := onboarding.NewStoreAdapter(t.TempDir())
	svc := onboarding.NewService(adapter, onboarding.NewSettingsBridge(store))

	return NewAppHandler(AppDeps{Onboarding: svc, Token: testToken})
}

func doRequest(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/onboarding/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestGetStatusNeverInitialized(t *testing.T) {
	h := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/onboarding/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Initialized bool            `json:"initialized"`
		Status      json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Initialized {
		t.Error("initialized = true on empty store")
	}
	if string(resp.Status) != "null" {
		t.Errorf("status = %s, want null", resp.Status)
	}
}

func TestSaveThenGetStatus(t *testing.T) {
	h := newTestHandler(t)

	body := `{"version":"1.0","completed":false,"current_step":2,"model_status":{"transcription":"downloading","summary":"not_downloaded"},"last_updated":"2026-08-27T09:00:00Z"}`
	rr := doRequest(t, h, http.MethodPut, "/onboarding/status", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodGet, "/onboarding/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}

	var resp struct {
		Initialized bool               `json:"initialized"`
		Status      *onboarding.Status `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Initialized || resp.Status == nil {
		t.Fatalf("response = %+v, want initialized with status", resp)
	}
	if resp.Status.CurrentStep != 2 {
		t.Errorf("CurrentStep = %d, want 2", resp.Status.CurrentStep)
	}
	if resp.Status.Completed {
		t.Error("Completed = true, want false")
	}
}

func TestSaveStatusRejectsInvalidDocument(t *testing.T) {
	h := newTestHandler(t)

	body := `{"version":"2.0","completed":false,"current_step":99,"model_status":{},"last_updated":"2026-08-27T09:00:00Z"}`
	rr := doRequest(t, h, http.MethodPut, "/onboarding/status", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCompleteRequiresSummaryModel(t *testing.T) {
	h := newTestHandler(t)

	rr := doRequest(t, h, http.MethodPost, "/onboarding/complete", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCompleteThenStatusIsTerminal(t *testing.T) {
	h := newTestHandler(t)

	rr := doRequest(t, h, http.MethodPost, "/onboarding/complete", `{"summary_model":"gemma3:1b"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST complete = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodGet, "/onboarding/status", "")
	var resp struct {
		Initialized bool               `json:"initialized"`
		Status      *onboarding.Status `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status == nil || !resp.Status.Completed {
		t.Fatalf("status = %+v, want completed", resp.Status)
	}
	if resp.Status.CurrentStep != onboarding.TerminalStep {
		t.Errorf("CurrentStep = %d, want %d", resp.Status.CurrentStep, onboarding.TerminalStep)
	}
}

func TestResetAfterComplete(t *testing.T) {
	h := newTestHandler(t)

	doRequest(t, h, http.MethodPost, "/onboarding/complete", `{"summary_model":"gemma3:1b"}`)

	rr := doRequest(t, h, http.MethodDelete, "/onboarding/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodGet, "/onboarding/status", "")
	var resp struct {
		Initialized bool `json:"initialized"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Initialized {
		t.Error("initialized = true after reset")
	}
}
