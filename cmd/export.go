package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/batch"
	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/pdf"
	"github.com/mburuwhiz/idmaker-sub000/internal/sheet"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a batch of cards to a print-ready PDF",
	Long: `Render every entry of a batch two cards per A4 sheet and write one PDF.

Entries without a usable photo are still printed with an empty photo frame
and listed in the exception report. Ctrl+C stops after the sheet in progress
and nothing is written.

Examples:
  # Export with the default calibration profile
  idmaker export --template front.json --batch form1.json --title "Form 1 West"

  # Use a specific printer profile and save the exception report
  idmaker export --template front.json --batch form1.json --profile "Canon Tray" \
    --exceptions form1_exceptions.csv --report form1_report.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("template", "", "Card design template (JSON)")
	exportCmd.Flags().String("batch", "", "Batch entries (JSON array)")
	exportCmd.Flags().String("photo-dir", "", "Directory for relative photo paths (default: the batch file's directory)")
	exportCmd.Flags().String("profile", "", "Calibration profile ID or name (default profile if empty)")
	exportCmd.Flags().String("title", pdf.DefaultTitle, "Document title")
	exportCmd.Flags().StringP("output", "o", "", "Output PDF (default: <title>_<timestamp>.pdf)")
	exportCmd.Flags().String("exceptions", "", "Write the exception report as CSV")
	exportCmd.Flags().String("report", "", "Write the full export report as JSON")
	exportCmd.Flags().Bool("strict", false, "Refuse to export when validation finds issues")
	exportCmd.Flags().Bool("check-photos", false, "Also look for the same photo used on more than one card")
	exportCmd.Flags().Int("duplicate-threshold", 0, "Hash distance treated as the same photo (0 = default)")
}

// loadJob builds a batch job from the shared --template, --batch,
// --photo-dir and --profile flags.
func loadJob(cmd *cobra.Command, cfg *config.Config) (batch.Job, error) {
	tmpl, err := readTemplate(cmd)
	if err != nil {
		return batch.Job{}, err
	}
	batchPath, err := requireString(cmd, "batch")
	if err != nil {
		return batch.Job{}, err
	}
	entries, err := batch.LoadEntries(batchPath)
	if err != nil {
		return batch.Job{}, err
	}
	profile, err := loadProfile(cfg, mustGetString(cmd, "profile"))
	if err != nil {
		return batch.Job{}, err
	}

	photoDir := mustGetString(cmd, "photo-dir")
	if photoDir == "" {
		photoDir = cfg.PhotoDir
	}
	if photoDir == "" {
		photoDir = filepath.Dir(batchPath)
	}

	return batch.Job{
		Template: tmpl,
		Profile:  profile,
		Entries:  entries,
		PhotoDir: photoDir,
		Quality:  cfg.PDFQuality,
	}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	job, err := loadJob(cmd, cfg)
	if err != nil {
		return err
	}
	job.Title = mustGetString(cmd, "title")
	meta := pdf.DefaultMetadata(job.Title)
	meta.Author = cfg.Author
	job.Metadata = &meta

	issues := batch.Validate(job.Entries)
	if mustGetBool(cmd, "check-photos") {
		issues = append(issues, batch.DuplicatePhotos(job.Entries, job.PhotoDir, mustGetInt(cmd, "duplicate-threshold"))...)
	}
	if len(issues) > 0 {
		fmt.Printf("Validation found %d issue(s):\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		if mustGetBool(cmd, "strict") {
			return errors.New("validation failed, not exporting")
		}
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = batch.DefaultFileName(job.Title)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total := batch.SheetCount(len(job.Entries))
	fmt.Printf("Exporting %d card(s) on %d sheet(s) using profile %q\n", len(job.Entries), total, job.Profile.Name)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Rendering sheets"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("sheets"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var buf bytes.Buffer
	runner := batch.NewRunner(sheet.New(newRenderer(cfg)))
	report, runErr := runner.Run(ctx, job, &buf, func(done, _ int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	fmt.Println()

	if err := writeReports(cmd, report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	printWarnings(report.Warnings)
	fmt.Printf("Exported %d card(s) on %d sheet(s) to %s in %s\n", report.CardCount, report.SheetCount, output, report.Duration)
	if n := len(report.Exceptions); n > 0 {
		fmt.Printf("%d card(s) printed without a photo:\n", n)
		for _, e := range report.Exceptions {
			fmt.Printf("  %s (%s): %s\n", e.Name, e.AdmNo, e.Reason)
		}
	}
	return nil
}

// writeReports saves the exception CSV and the JSON report when requested.
func writeReports(cmd *cobra.Command, report *batch.Report) error {
	if report == nil {
		return nil
	}
	if path := mustGetString(cmd, "exceptions"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create exception report: %w", err)
		}
		if err := batch.WriteExceptionsCSV(f, report.Exceptions); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close exception report: %w", err)
		}
	}
	if path := mustGetString(cmd, "report"); path != "" {
		if err := writeJSONFile(path, report); err != nil {
			return err
		}
	}
	return nil
}
