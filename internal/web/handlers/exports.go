package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mburuwhiz/idmaker-sub000/internal/batch"
	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/pdf"
)

// ExportsHandler runs batch exports in the background.
type ExportsHandler struct {
	config     *config.Config
	runner     *batch.Runner
	profiles   *ProfileStore
	jobManager *JobManager
}

// NewExportsHandler creates a new exports handler
func NewExportsHandler(cfg *config.Config, runner *batch.Runner, profiles *ProfileStore, jm *JobManager) *ExportsHandler {
	return &ExportsHandler{
		config:     cfg,
		runner:     runner,
		profiles:   profiles,
		jobManager: jm,
	}
}

// ExportRequest represents an export start request
type ExportRequest struct {
	Title    string          `json:"title"`
	Template json.RawMessage `json:"template"`
	Profile  string          `json:"profile,omitempty"`
	Entries  []batch.Entry   `json:"entries"`

	// CheckPhotos adds a duplicate photo scan to the returned issues.
	CheckPhotos bool `json:"checkPhotos,omitempty"`
}

// Start validates the request and starts an export job.
func (h *ExportsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Entries) == 0 {
		respondError(w, http.StatusBadRequest, "entries are required")
		return
	}
	tmpl, ok := decodeTemplate(w, req.Template)
	if !ok {
		return
	}
	profile, err := h.profiles.Find(req.Profile)
	if err != nil {
		respondError(w, profileStatus(err), err.Error())
		return
	}
	batch.FillAdmissionNumbers(req.Entries)

	title := req.Title
	if title == "" {
		title = pdf.DefaultTitle
	}
	meta := pdf.DefaultMetadata(title)
	meta.Author = h.config.Author

	job := h.jobManager.CreateJob(uuid.New().String(), title, pdf.FileName(title, time.Now()), batch.SheetCount(len(req.Entries)))
	issues := batch.Validate(req.Entries)
	if req.CheckPhotos {
		issues = append(issues, batch.DuplicatePhotos(req.Entries, h.config.PhotoDir, 0)...)
	}

	go h.runExportJob(job, batch.Job{
		Title:    title,
		Template: tmpl,
		Profile:  profile,
		Entries:  req.Entries,
		PhotoDir: h.config.PhotoDir,
		Quality:  h.config.PDFQuality,
		Metadata: &meta,
	})

	respondJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"title":        title,
		"status":       string(JobStatusPending),
		"total_sheets": job.TotalSheets,
		"issues":       issues,
	})
}

// Status returns the status of an export job
func (h *ExportsHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, job.View())
}

// Events streams job events via SSE
func (h *ExportsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*ExportJob).View()
		},
	)
}

// Download sends the finished PDF.
func (h *ExportsHandler) Download(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	data := job.PDF()
	if data == nil {
		respondError(w, http.StatusConflict, fmt.Sprintf("export is %s", job.GetStatus()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Cancel cancels an export job. The sheet being rendered is finished first.
func (h *ExportsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !job.Cancel() {
		respondError(w, http.StatusConflict, fmt.Sprintf("export already %s", job.GetStatus()))
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (h *ExportsHandler) lookup(w http.ResponseWriter, r *http.Request) (*ExportJob, bool) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil, false
	}
	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	return job, true
}

// runExportJob runs the export in the background
func (h *ExportsHandler) runExportJob(job *ExportJob, bj batch.Job) {
	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)
	defer cancel()

	job.mu.Lock()
	if job.Status == JobStatusCancelled {
		job.mu.Unlock()
		h.finishCancelled(job, nil)
		return
	}
	job.Status = JobStatusRunning
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "started", Message: "Export started"})

	var buf bytes.Buffer
	report, err := h.runner.Run(ctx, bj, &buf, func(done, total int) {
		job.mu.Lock()
		job.DoneSheets = done
		job.TotalSheets = total
		job.mu.Unlock()
		job.SendEvent(JobEvent{
			Type: "progress",
			Data: map[string]int{"done_sheets": done, "total_sheets": total},
		})
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.finishCancelled(job, report)
			return
		}
		log.Printf("WARNING: export %s failed: %s", job.ID, sanitizeForLog(err.Error()))
		h.failJob(job, report, err.Error())
		return
	}

	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	job.Report = report
	job.pdf = buf.Bytes()
	job.mu.Unlock()

	job.SendEvent(JobEvent{Type: "completed", Data: report})
}

func (h *ExportsHandler) finishCancelled(job *ExportJob, report *batch.Report) {
	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusCancelled
	job.CompletedAt = &now
	job.Report = report
	job.mu.Unlock()
}

func (h *ExportsHandler) failJob(job *ExportJob, report *batch.Report, message string) {
	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = message
	job.CompletedAt = &now
	job.Report = report
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "job_error", Message: message})
}
