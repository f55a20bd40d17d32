package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/mburuwhiz/idmaker-sub000/internal/batch"
	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ExportJob represents an async batch export.
type ExportJob struct {
	EventBroadcaster

	ID          string
	Title       string
	FileName    string
	Status      JobStatus
	TotalSheets int
	DoneSheets  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
	Report      *batch.Report

	pdf []byte
}

// ExportJobView is a consistent copy of an export job for responses.
type ExportJobView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	FileName    string        `json:"file_name"`
	Status      JobStatus     `json:"status"`
	Progress    int           `json:"progress"`
	TotalSheets int           `json:"total_sheets"`
	DoneSheets  int           `json:"done_sheets"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Report      *batch.Report `json:"report,omitempty"`
}

// GetStatus returns the current job status (implements SSEJob).
func (j *ExportJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// View returns a snapshot of the job.
func (j *ExportJob) View() ExportJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := ExportJobView{
		ID:          j.ID,
		Title:       j.Title,
		FileName:    j.FileName,
		Status:      j.Status,
		TotalSheets: j.TotalSheets,
		DoneSheets:  j.DoneSheets,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Report:      j.Report,
	}
	if j.TotalSheets > 0 {
		v.Progress = j.DoneSheets * 100 / j.TotalSheets
	}
	return v
}

// PDF returns the finished document, or nil until the job completes.
func (j *ExportJob) PDF() []byte {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.pdf
}

// Cancel stops the export after the sheet in progress. Finished jobs are
// left untouched.
func (j *ExportJob) Cancel() bool {
	j.mu.Lock()
	if isJobTerminal(j.Status) {
		j.mu.Unlock()
		return false
	}
	j.Status = JobStatusCancelled
	j.mu.Unlock()
	j.EventBroadcaster.Cancel()
	return true
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the job via context and sends a cancelled event.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	b.SendEvent(JobEvent{Type: "cancelled", Message: "Export cancelled by user"})
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async export jobs. Finished jobs are dropped once they
// are older than the retention period.
type JobManager struct {
	jobs      map[string]*ExportJob
	retention time.Duration
	mu        sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:      make(map[string]*ExportJob),
		retention: constants.JobRetention,
	}
}

// CreateJob creates a new pending export job.
func (m *JobManager) CreateJob(id, title, fileName string, totalSheets int) *ExportJob {
	now := time.Now()
	job := &ExportJob{
		ID:          id,
		Title:       title,
		FileName:    fileName,
		Status:      JobStatusPending,
		TotalSheets: totalSheets,
		StartedAt:   now,
	}

	m.mu.Lock()
	m.pruneLocked(now)
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *ExportJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*ExportJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*ExportJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Prune drops finished jobs completed before now minus the retention period.
func (m *JobManager) Prune(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(now)
}

func (m *JobManager) pruneLocked(now time.Time) {
	for id, job := range m.jobs {
		job.mu.RLock()
		expired := job.CompletedAt != nil && now.Sub(*job.CompletedAt) > m.retention
		job.mu.RUnlock()
		if expired {
			delete(m.jobs, id)
		}
	}
}
