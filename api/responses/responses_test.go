package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
)

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOK(w, map[string]any{"orderId": 42, "status": "ignored"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" || body["orderId"].(float64) != 42 {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestWriteJSONPassesDataThrough(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]int{"Maggi": 24})
	if w.Body.String() != "{\"Maggi\":24}\n" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), logger.New(logger.Options{Output: io.Discard}), w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Status != string(pkgerrors.CodeValidation) || body.Message != "bad input" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorLogsFlattenedError(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{Output: buf})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeUnauthorized, "wrong admin password"))
	rejected := buf.String()
	if !strings.Contains(rejected, `"msg":"request.rejected"`) || !strings.Contains(rejected, `"error_code":"`+string(pkgerrors.CodeUnauthorized)+`"`) {
		t.Fatalf("expected rejected entry with error code, got %s", rejected)
	}
	if strings.Contains(rejected, `"stack"`) {
		t.Fatalf("rejections should not carry a stack, got %s", rejected)
	}

	buf.Reset()
	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("snapshot write failed"))
	failed := buf.String()
	if !strings.Contains(failed, `"msg":"request.error"`) || !strings.Contains(failed, `"error_code":"`+string(pkgerrors.CodeInternal)+`"`) {
		t.Fatalf("expected error entry with internal code, got %s", failed)
	}
	if !strings.Contains(failed, `"stack"`) {
		t.Fatalf("server errors should carry a stack, got %s", failed)
	}
}

func TestWriteErrorConflictCodes(t *testing.T) {
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeAlreadyCancelled: http.StatusConflict,
		pkgerrors.CodeCancelExpired:    http.StatusConflict,
		pkgerrors.CodeOrderIDMismatch:  http.StatusConflict,
		pkgerrors.CodeNotFound:         http.StatusNotFound,
		pkgerrors.CodeUnauthorized:     http.StatusUnauthorized,
	}
	for code, status := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, pkgerrors.New(code, "x"))
		if w.Code != status {
			t.Fatalf("%s: expected %d got %d", code, status, w.Code)
		}
		var body ErrorBody
		_ = json.NewDecoder(w.Body).Decode(&body)
		if body.Status != string(code) {
			t.Fatalf("%s: unexpected status string %q", code, body.Status)
		}
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Status != string(pkgerrors.CodeInternal) || body.Message != "internal server error" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteFile(t *testing.T) {
	w := httptest.NewRecorder()
	WriteFile(w, "report.xlsx", "application/octet-stream", []byte("abc"))
	if w.Header().Get("Content-Disposition") != `attachment; filename="report.xlsx"` {
		t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	if w.Body.String() != "abc" || w.Header().Get("Content-Length") != "3" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
