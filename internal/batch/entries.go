// Package batch prints a list of records two cards per sheet into a single
// PDF and reports the cards that could not be printed correctly.
package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

// Entry is one card to print.
type Entry struct {
	AdmNo     string        `json:"admNo"`
	PhotoPath string        `json:"photoPath,omitempty"`
	Data      design.Record `json:"data"`
	// Photo holds preloaded photo bytes and takes precedence over paths.
	Photo []byte `json:"photo,omitempty"`
}

// Name returns the NAME field of the record, if any.
func (e Entry) Name() string {
	name, _ := e.Data.Lookup("NAME")
	return name
}

// DecodeEntries reads a JSON array of entries. Numbers in record data are
// kept as json.Number so they print exactly as written.
func DecodeEntries(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	FillAdmissionNumbers(entries)
	return entries, nil
}

// FillAdmissionNumbers copies the ADM_NO record field into entries that
// have no admission number.
func FillAdmissionNumbers(entries []Entry) {
	for i := range entries {
		if entries[i].AdmNo == "" {
			entries[i].AdmNo, _ = entries[i].Data.Lookup("ADM_NO")
		}
	}
}

// LoadEntries reads entries from a JSON file.
func LoadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entries: %w", err)
	}
	defer f.Close()
	return DecodeEntries(f)
}

// Issue is a pre-print problem found by Validate.
type Issue struct {
	AdmNo   string `json:"admNo"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Message }

// Validate reports entries without a photo and duplicate admission numbers.
// Issues are advisory; the batch can still be printed.
func Validate(entries []Entry) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	for _, e := range entries {
		if len(e.Photo) == 0 && e.PhotoPath == "" && e.Data.ManualPhoto() == "" {
			issues = append(issues, Issue{AdmNo: e.AdmNo, Message: "Missing photo for " + e.AdmNo})
		}
		key := strings.TrimSpace(e.AdmNo)
		if key == "" {
			continue
		}
		if seen[key] {
			issues = append(issues, Issue{AdmNo: e.AdmNo, Message: "Duplicate ADM_NO: " + e.AdmNo})
		}
		seen[key] = true
	}
	return issues
}

// Exception reasons.
const (
	ReasonMissingPhoto    = "Missing Photo"
	ReasonUnreadablePhoto = "Unreadable Photo"
)

// Exception is a card that printed without its photo.
type Exception struct {
	Name   string `json:"name"`
	AdmNo  string `json:"admNo"`
	Reason string `json:"reason"`
}

// WriteExceptionsCSV writes the exception report with a Name, ADM_NO, Reason
// header.
func WriteExceptionsCSV(w io.Writer, exceptions []Exception) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "ADM_NO", "Reason"}); err != nil {
		return fmt.Errorf("failed to write exception report: %w", err)
	}
	for _, e := range exceptions {
		if err := cw.Write([]string{e.Name, e.AdmNo, e.Reason}); err != nil {
			return fmt.Errorf("failed to write exception report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write exception report: %w", err)
	}
	return nil
}
