// Package pdf assembles rendered sheets into an A4 print document, one
// full-bleed JPEG page per sheet.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"regexp"
	"strconv"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/disintegration/imaging"

	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
	"github.com/mburuwhiz/idmaker-sub000/internal/units"
)

// DefaultQuality embeds pages at maximum JPEG quality to avoid banding on
// flat colour fields.
const DefaultQuality = constants.PDFJPEGQuality

// DefaultTitle is used when no title is given.
const DefaultTitle = "Student IDs"

// ErrNoSheets is returned when exporting an empty sheet list.
var ErrNoSheets = errors.New("no sheets to export")

// Metadata is the document information dictionary.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Keywords string
}

// DefaultMetadata returns the standard metadata for a batch title.
func DefaultMetadata(title string) Metadata {
	if title == "" {
		title = DefaultTitle
	}
	return Metadata{
		Title:    title,
		Author:   constants.DefaultAuthor,
		Subject:  "student id",
		Creator:  "Whizpoint ID",
		Keywords: "id cards, printing",
	}
}

// SheetExportError reports the sheet whose page could not be produced.
// Index is zero-based.
type SheetExportError struct {
	Index int
	Err   error
}

func (e *SheetExportError) Error() string {
	return fmt.Sprintf("failed to export sheet %d: %v", e.Index+1, e.Err)
}

func (e *SheetExportError) Unwrap() error { return e.Err }

// Document accumulates pages. Sheets are encoded as they are added so the
// caller can release each raster right away. After the first failure every
// further call returns that failure.
type Document struct {
	pdf     *fpdf.Fpdf
	quality int
	pages   int
	err     error
}

// NewDocument starts an empty A4 portrait document.
func NewDocument(meta Metadata, quality int) *Document {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(meta.Creator, true)
	pdf.SetKeywords(meta.Keywords, true)
	return &Document{pdf: pdf, quality: quality}
}

// Pages returns the number of pages added so far.
func (d *Document) Pages() int { return d.pages }

// AddSheet appends img as a full-page image.
func (d *Document) AddSheet(img image.Image) error {
	if d.err != nil {
		return d.err
	}
	index := d.pages
	fail := func(err error) error {
		d.err = &SheetExportError{Index: index, Err: err}
		return d.err
	}

	if img == nil || img.Bounds().Empty() {
		return fail(errors.New("sheet has no pixels"))
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
		return fail(fmt.Errorf("failed to encode page: %w", err))
	}

	name := "sheet" + strconv.Itoa(index)
	opts := fpdf.ImageOptions{ImageType: "JPEG"}
	d.pdf.AddPage()
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, 0, 0, units.SheetWidthMM, units.SheetHeightMM, false, opts, 0, "")
	if d.pdf.Err() {
		return fail(d.pdf.Error())
	}
	d.pages++
	return nil
}

// Bytes finishes the document. Nothing is returned unless every page
// succeeded.
func (d *Document) Bytes() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.pages == 0 {
		return nil, ErrNoSheets
	}
	var out bytes.Buffer
	if err := d.pdf.Output(&out); err != nil {
		d.err = fmt.Errorf("failed to generate PDF: %w", err)
		return nil, d.err
	}
	return out.Bytes(), nil
}

// WriteTo writes the finished document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Export writes one page per sheet to w. On any page failure nothing is
// written and the error is a *SheetExportError.
func Export(w io.Writer, sheets []image.Image, meta Metadata, quality int) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}
	doc := NewDocument(meta, quality)
	for _, s := range sheets {
		if err := doc.AddSheet(s); err != nil {
			return err
		}
	}
	_, err := doc.WriteTo(w)
	return err
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FileName builds "<title>_<unix millis>.pdf" with whitespace runs in the
// title replaced by underscores.
func FileName(title string, now time.Time) string {
	if title == "" {
		title = DefaultTitle
	}
	return fmt.Sprintf("%s_%d.pdf", whitespaceRe.ReplaceAllString(title, "_"), now.UnixMilli())
}
