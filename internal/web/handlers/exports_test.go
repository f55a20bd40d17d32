package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mburuwhiz/idmaker-sub000/internal/batch"
	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

func newExportsHandler() *ExportsHandler {
	cfg := &config.Config{PDFQuality: 80, Author: "Test School"}
	return NewExportsHandler(cfg, batch.NewRunner(nil), NewProfileStore(nil, ""), NewJobManager())
}

func waitForJob(t *testing.T, job *ExportJob) ExportJobView {
	t.Helper()
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if v := job.View(); isJobTerminal(v.Status) {
			return v
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for export")
	return ExportJobView{}
}

func TestExportsHandler_StartAndDownload(t *testing.T) {
	h := newExportsHandler()
	req := jsonRequest(t, "POST", "/api/v1/exports", map[string]any{
		"title":    "Form 1",
		"template": json.RawMessage(testTemplateJSON),
		"entries": []map[string]any{
			{"photo": photoBase64(t), "data": map[string]any{"ADM_NO": "A1", "NAME": "Amina"}},
			{"admNo": "A2", "data": map[string]any{"NAME": "Brian"}},
			{"admNo": "A3", "data": map[string]any{"NAME": "Chao"}},
		},
	})
	recorder := httptest.NewRecorder()

	h.Start(recorder, req)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, recorder.Code, recorder.Body.String())
	}
	var started struct {
		JobID       string        `json:"job_id"`
		TotalSheets int           `json:"total_sheets"`
		Issues      []batch.Issue `json:"issues"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &started); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if started.TotalSheets != 2 {
		t.Errorf("expected 2 sheets, got %d", started.TotalSheets)
	}
	if len(started.Issues) != 2 {
		t.Errorf("expected 2 missing photo issues, got %+v", started.Issues)
	}

	job := h.jobManager.GetJob(started.JobID)
	if job == nil {
		t.Fatal("expected job to be registered")
	}
	view := waitForJob(t, job)
	if view.Status != JobStatusCompleted {
		t.Fatalf("expected completed job, got %s (%s)", view.Status, view.Error)
	}
	if view.Progress != 100 || view.Report == nil || view.Report.CardCount != 3 {
		t.Errorf("unexpected final view %+v", view)
	}
	if len(view.Report.Exceptions) != 2 || view.Report.Exceptions[0].AdmNo != "A2" {
		t.Errorf("unexpected exceptions %+v", view.Report.Exceptions)
	}

	download := httptest.NewRecorder()
	h.Download(download, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"jobId": job.ID}))
	if download.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, download.Code)
	}
	if !bytes.HasPrefix(download.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected a PDF body")
	}
	if cd := download.Header().Get("Content-Disposition"); !strings.Contains(cd, "Form_1_") {
		t.Errorf("expected file name from title, got '%s'", cd)
	}

	cancel := httptest.NewRecorder()
	h.Cancel(cancel, requestWithChiParams(httptest.NewRequest("DELETE", "/", nil), map[string]string{"jobId": job.ID}))
	if cancel.Code != http.StatusConflict {
		t.Errorf("expected conflict when cancelling a finished job, got %d", cancel.Code)
	}
}

func TestExportsHandler_StartBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", "[", http.StatusBadRequest},
		{"no entries", `{"template":{"nodes":[]}}`, http.StatusBadRequest},
		{"no template", `{"entries":[{"admNo":"A1"}]}`, http.StatusBadRequest},
		{"unknown profile", `{"template":{"nodes":[]},"profile":"x","entries":[{"admNo":"A1"}]}`, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newExportsHandler()
			recorder := httptest.NewRecorder()

			h.Start(recorder, httptest.NewRequest("POST", "/api/v1/exports", strings.NewReader(tc.body)))

			if recorder.Code != tc.code {
				t.Errorf("expected status %d, got %d: %s", tc.code, recorder.Code, recorder.Body.String())
			}
			if len(h.jobManager.ListJobs()) != 0 {
				t.Error("expected no job to be created")
			}
		})
	}
}

func TestExportsHandler_CancelBeforeRun(t *testing.T) {
	h := newExportsHandler()
	job := h.jobManager.CreateJob("job-1", "Form 2", "Form_2.pdf", 1)

	recorder := httptest.NewRecorder()
	h.Cancel(recorder, requestWithChiParams(httptest.NewRequest("DELETE", "/", nil), map[string]string{"jobId": job.ID}))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	tmpl, err := design.DecodeString(testTemplateJSON)
	if err != nil {
		t.Fatalf("failed to decode template: %v", err)
	}
	h.runExportJob(job, batch.Job{Template: tmpl, Entries: []batch.Entry{{AdmNo: "A1"}}})

	view := job.View()
	if view.Status != JobStatusCancelled || view.CompletedAt == nil {
		t.Errorf("expected cancelled job with completion time, got %+v", view)
	}
	if job.PDF() != nil {
		t.Error("expected no PDF for a cancelled job")
	}

	download := httptest.NewRecorder()
	h.Download(download, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"jobId": job.ID}))
	if download.Code != http.StatusConflict {
		t.Errorf("expected conflict, got %d", download.Code)
	}
}

func TestExportsHandler_UnknownJob(t *testing.T) {
	h := newExportsHandler()
	handlers := map[string]http.HandlerFunc{
		"status":   h.Status,
		"download": h.Download,
		"cancel":   h.Cancel,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler(recorder, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"jobId": "missing"}))
			if recorder.Code != http.StatusNotFound {
				t.Errorf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
			}
		})
	}
}

func TestExportsHandler_EventsForFinishedJob(t *testing.T) {
	h := newExportsHandler()
	job := h.jobManager.CreateJob("job-2", "Form 3", "Form_3.pdf", 1)
	job.Cancel()

	recorder := httptest.NewRecorder()
	h.Events(recorder, requestWithChiParams(httptest.NewRequest("GET", "/", nil), map[string]string{"jobId": job.ID}))

	body := recorder.Body.String()
	if !strings.HasPrefix(body, "event: status\n") {
		t.Errorf("expected initial status event, got %q", body)
	}
	if !strings.Contains(body, `"status":"cancelled"`) {
		t.Errorf("expected cancelled status in stream, got %q", body)
	}
	if recorder.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("expected event stream content type, got '%s'", recorder.Header().Get("Content-Type"))
	}
}
