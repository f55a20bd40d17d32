package handlers

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

func TestRespondJSON_SetsContentType(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, map[string]string{"status": "ok"})

	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got '%s'", contentType)
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusAccepted, nil)

	if recorder.Code != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, recorder.Code)
	}
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
	}{
		{"BadRequest", http.StatusBadRequest, "invalid request body"},
		{"NotFound", http.StatusNotFound, "job not found"},
		{"Empty", http.StatusInternalServerError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondError(recorder, tc.statusCode, tc.message)

			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			var result map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if result["error"] != tc.message {
				t.Errorf("expected error '%s', got '%s'", tc.message, result["error"])
			}
		})
	}
}

func TestRespondPNG(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondPNG(recorder, image.NewRGBA(image.Rect(0, 0, 4, 3)), []string{"first\nline", "second"})

	if recorder.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected Content-Type 'image/png', got '%s'", recorder.Header().Get("Content-Type"))
	}
	if got := recorder.Header().Get(warningsHeader); got != "firstline; second" {
		t.Errorf("expected sanitized warnings, got '%s'", got)
	}
	img, err := png.Decode(recorder.Body)
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("expected 4x3 image, got %v", img.Bounds())
	}
}

func TestRespondPNG_NoWarnings(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondPNG(recorder, image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)

	if _, ok := recorder.Header()[warningsHeader]; ok {
		t.Error("expected no warnings header")
	}
}

func TestDecodePhoto(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty", "  ", "", false},
		{"bare base64", "aGVsbG8=", "hello", false},
		{"data url", "data:image/png;base64,aGVsbG8=", "hello", false},
		{"data url without payload", "data:image/png;base64", "", true},
		{"invalid", "%%%", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodePhoto(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if string(got) != tc.want {
				t.Errorf("expected '%s', got '%s'", tc.want, got)
			}
		})
	}
}

func TestTemplateStatus(t *testing.T) {
	if got := templateStatus(&design.TemplateDecodeError{Node: -1, Err: errors.New("bad")}); got != http.StatusBadRequest {
		t.Errorf("expected 400 for decode errors, got %d", got)
	}
	if got := templateStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for other errors, got %d", got)
	}
}

func TestHealthCheck_ReturnsStatusOk(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}
