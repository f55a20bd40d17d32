package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/pdf"
	"github.com/mburuwhiz/idmaker-sub000/internal/sheet"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
)

// ErrNoEntries is returned when a job has nothing to print.
var ErrNoEntries = errors.New("batch has no entries")

// Job describes one export.
type Job struct {
	Title    string
	Template *design.Template
	Profile  calibration.Profile
	Entries  []Entry
	// PhotoDir resolves relative photo paths.
	PhotoDir string
	// Quality is the page JPEG quality; 0 selects pdf.DefaultQuality.
	Quality int
	// Metadata overrides pdf.DefaultMetadata(Title) when set.
	Metadata *pdf.Metadata
}

// Report summarizes a finished or aborted export.
type Report struct {
	Title      string      `json:"title"`
	SheetCount int         `json:"sheetCount"`
	CardCount  int         `json:"cardCount"`
	Exceptions []Exception `json:"exceptions"`
	Warnings   []string    `json:"warnings"`
	Duration   string      `json:"duration"`
}

// Progress is called after each sheet with the number of sheets done.
type Progress func(done, total int)

// SheetCount returns the number of sheets needed for n cards.
func SheetCount(n int) int {
	return (n + 1) / 2
}

// Runner renders and exports batches. Sheets are rendered one after another
// and each is encoded into the document before the next one starts.
type Runner struct {
	compositor *sheet.Compositor
}

// NewRunner returns a Runner using c.
func NewRunner(c *sheet.Compositor) *Runner {
	if c == nil {
		c = sheet.New(nil)
	}
	return &Runner{compositor: c}
}

// Run prints the job into w. Cancellation is honoured between sheets; a sheet
// that has started is always finished. Nothing is written to w unless every
// sheet succeeds. The report is returned even when the run fails.
func (r *Runner) Run(ctx context.Context, job Job, w io.Writer, progress Progress) (*Report, error) {
	start := time.Now()
	report := &Report{Title: job.Title, Exceptions: []Exception{}, Warnings: []string{}}
	defer func() { report.Duration = time.Since(start).Round(time.Millisecond).String() }()

	if job.Template == nil {
		return report, errors.New("batch has no template")
	}
	if len(job.Entries) == 0 {
		return report, ErrNoEntries
	}
	if err := job.Profile.Validate(); err != nil {
		return report, err
	}

	meta := pdf.DefaultMetadata(job.Title)
	if job.Metadata != nil {
		meta = *job.Metadata
	}
	doc := pdf.NewDocument(meta, job.Quality)
	total := SheetCount(len(job.Entries))

	for i := range total {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("export cancelled after %d of %d sheets: %w", i, total, err)
		}

		sh, err := r.renderSheet(ctx, job, i, report)
		if err != nil {
			return report, err
		}
		if err := doc.AddSheet(sh.Image); err != nil {
			return report, err
		}

		report.SheetCount++
		report.CardCount += min(2, len(job.Entries)-i*2)
		if progress != nil {
			progress(i+1, total)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return report, fmt.Errorf("failed to write PDF: %w", err)
	}
	return report, nil
}

// renderSheet renders sheet i of the job, appending exceptions and warnings
// to report. The render itself is not cancellable.
func (r *Runner) renderSheet(ctx context.Context, job Job, i int, report *Report) (*sheet.Sheet, error) {
	first := r.side(job, job.Entries[i*2], report)
	var second *sheet.Side
	if i*2+1 < len(job.Entries) {
		s := r.side(job, job.Entries[i*2+1], report)
		second = &s
	}

	sh, err := r.compositor.RenderSheet(context.WithoutCancel(ctx), job.Template, job.Profile, first, second)
	if err != nil {
		return nil, &pdf.SheetExportError{Index: i, Err: err}
	}
	for _, msg := range sh.Warnings {
		report.Warnings = append(report.Warnings, fmt.Sprintf("sheet %d: %s", i+1, msg))
	}
	return sh, nil
}

// Sheet renders a single sheet of the job without exporting it. index is
// zero-based.
func (r *Runner) Sheet(ctx context.Context, job Job, index int) (*sheet.Sheet, *Report, error) {
	report := &Report{Title: job.Title, Exceptions: []Exception{}, Warnings: []string{}}
	if job.Template == nil {
		return nil, report, errors.New("batch has no template")
	}
	if len(job.Entries) == 0 {
		return nil, report, ErrNoEntries
	}
	if total := SheetCount(len(job.Entries)); index < 0 || index >= total {
		return nil, report, fmt.Errorf("sheet %d out of range (batch has %d sheets)", index+1, total)
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	sh, err := r.renderSheet(ctx, job, index, report)
	if err != nil {
		return nil, report, err
	}
	report.SheetCount = 1
	report.CardCount = min(2, len(job.Entries)-index*2)
	return sh, report, nil
}

// side loads an entry's photo and records an exception when it is missing
// or unreadable. The card is still printed with an empty frame.
func (r *Runner) side(job Job, e Entry, report *Report) sheet.Side {
	s := sheet.Side{Record: e.Data}
	photo, reason := loadPhoto(job.PhotoDir, e)
	if reason != "" {
		report.Exceptions = append(report.Exceptions, Exception{Name: e.Name(), AdmNo: e.AdmNo, Reason: reason})
		return s
	}
	s.Photo = photo
	return s
}

func loadPhoto(dir string, e Entry) ([]byte, string) {
	data := e.Photo
	if len(data) == 0 {
		path := e.Data.ManualPhoto()
		if path == "" {
			path = e.PhotoPath
		}
		if path == "" {
			return nil, ReasonMissingPhoto
		}
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, ReasonMissingPhoto
		}
	}
	// A full decode catches truncated files whose header still parses.
	if _, err := smartcrop.Decode(data); err != nil {
		return nil, ReasonUnreadablePhoto
	}
	return data, ""
}

// DefaultFileName returns the standard output name for a title.
func DefaultFileName(title string) string {
	return pdf.FileName(title, time.Now())
}
