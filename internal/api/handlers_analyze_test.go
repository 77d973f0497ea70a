// handlers_analyze_test.go - Tests for the analyze endpoint
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/reportlens/backend/internal/analyzer"
	"github.com/reportlens/backend/internal/models"
	"github.com/reportlens/backend/internal/session"
	"github.com/reportlens/backend/internal/testutil"
)

// stubAnalyzer scripts the analysis outcome for handler tests.
type stubAnalyzer struct {
	result *models.AnalysisResult
	err    error
	calls  int
	got    []byte
}

func (s *stubAnalyzer) Analyze(ctx context.Context, name, mediaType string, r io.Reader) (*models.AnalysisResult, error) {
	s.calls++
	s.got, _ = io.ReadAll(r)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// newAnalyzeRequest builds a multipart POST with one "file" part carrying
// the given declared media type.
func newAnalyzeRequest(t *testing.T, name, mediaType string, content []byte) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", mediaType)
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func newTestHandler(t *testing.T, stub *stubAnalyzer) (*Handler, *testutil.MockStorage, *session.Manager) {
	t.Helper()
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	sessions := session.NewManager()
	return NewHandler(store, sessions, stub), store, sessions
}

func TestHandleAnalyze_Success(t *testing.T) {
	stub := &stubAnalyzer{result: &models.AnalysisResult{
		Success:     true,
		Explanation: "E",
		Highlights:  []string{"A", "B"},
		RawText:     "T",
	}}
	h, store, sessions := newTestHandler(t, stub)

	e := echo.New()
	req := newAnalyzeRequest(t, "report.png", "image/png", []byte("fakeimg"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleAnalyze(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if !result.Success || result.Explanation != "E" || len(result.Highlights) != 2 || result.RawText != "T" {
		t.Errorf("unexpected result: %+v", result)
	}

	if string(stub.got) != "fakeimg" {
		t.Errorf("analyzer received %q, want the uploaded bytes", stub.got)
	}

	// Spooled file is cleaned up after the round trip.
	if store.GetFileCount() != 0 {
		t.Errorf("expected spool to be empty, have %d files", store.GetFileCount())
	}

	// Session recorded as complete.
	recent := sessions.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("expected 1 session, got %d", len(recent))
	}
	if recent[0].Status != models.SessionStatusComplete {
		t.Errorf("expected complete session, got %s", recent[0].Status)
	}
}

func TestHandleAnalyze_Validation(t *testing.T) {
	tests := []struct {
		name       string
		mediaType  string
		content    []byte
		wantDetail string
	}{
		{
			name:       "invalid type",
			mediaType:  "application/pdf",
			content:    []byte("x"),
			wantDetail: "Invalid file type. Allowed types: image/jpeg, image/jpg, image/png, image/bmp, image/tiff",
		},
		{
			name:       "file at size limit",
			mediaType:  "image/png",
			content:    make([]byte, 10*1024*1024),
			wantDetail: "File too large. Maximum size is 10MB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalyzer{}
			h, store, _ := newTestHandler(t, stub)

			e := echo.New()
			req := newAnalyzeRequest(t, "report.bin", tt.mediaType, tt.content)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.HandleAnalyze(c)
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T (%v)", err, err)
			}
			if apiErr.Status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", apiErr.Status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
			if stub.calls != 0 {
				t.Error("validation failures must never reach the analyzer")
			}
			if store.GetFileCount() != 0 {
				t.Error("rejected uploads must not be spooled")
			}
		})
	}
}

func TestHandleAnalyze_NoFile(t *testing.T) {
	h, _, _ := newTestHandler(t, &stubAnalyzer{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleAnalyze(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.Status)
	}
}

func TestHandleAnalyze_ServiceFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "non-2xx passes through",
			err:        &analyzer.RequestFailedError{Status: http.StatusBadRequest, Detail: "bad image"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "bad image",
		},
		{
			name:       "unsuccessful analysis",
			err:        analyzer.ErrUnsuccessful,
			wantStatus: http.StatusBadGateway,
			wantDetail: "Analysis failed",
		},
		{
			name:       "transport error",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Failed to process medical report: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalyzer{err: tt.err}
			h, store, sessions := newTestHandler(t, stub)

			e := echo.New()
			req := newAnalyzeRequest(t, "report.png", "image/png", []byte("x"))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := h.HandleAnalyze(c)
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T (%v)", err, err)
			}
			if apiErr.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.wantStatus)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}

			if store.GetFileCount() != 0 {
				t.Error("spooled file must be cleaned up after a failure")
			}

			recent := sessions.Recent(1)
			if len(recent) != 1 || recent[0].Status != models.SessionStatusError {
				t.Error("expected an errored session record")
			}
		})
	}
}

func TestErrorHandler_DetailEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(NewBadRequestError("bad image"), c)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}
	if body["detail"] != "bad image" {
		t.Errorf("detail = %q, want %q", body["detail"], "bad image")
	}
}
