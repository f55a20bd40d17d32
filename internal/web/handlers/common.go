package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// warningsHeader carries render warnings next to image responses.
const warningsHeader = "X-Render-Warnings"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondPNG encodes img and sends it with any render warnings in a header.
func respondPNG(w http.ResponseWriter, img image.Image, warnings []string) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode image: %v", err))
		return
	}
	if len(warnings) > 0 {
		w.Header().Set(warningsHeader, sanitizeForLog(strings.Join(warnings, "; ")))
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// decodeJSON reads a size-limited JSON body. Numbers are kept as json.Number
// so record values print exactly as sent.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

// decodePhoto accepts a data URL or bare base64. An empty string is no photo.
func decodePhoto(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid photo encoding: %w", err)
	}
	return data, nil
}

// templateStatus maps template decode failures to 400 and everything else to 500.
func templateStatus(err error) int {
	var decodeErr *design.TemplateDecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
