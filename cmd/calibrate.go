package cmd

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
	"github.com/mburuwhiz/idmaker-sub000/internal/pdf"
	"github.com/mburuwhiz/idmaker-sub000/internal/sheet"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Export a calibration test sheet",
	Long: `Export a one-page PDF with the outlines of both card slots placed with
a calibration profile. Print it on plain paper, lay it over the card tray
and adjust the profile until the outlines match the slots.

Examples:
  idmaker calibrate
  idmaker calibrate --profile "Canon Tray" -o canon_test.pdf`,
	Args: cobra.NoArgs,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().String("profile", "", "Calibration profile ID or name (default profile if empty)")
	calibrateCmd.Flags().StringP("output", "o", "", "Output PDF (default: Calibration_Test_Sheet_<timestamp>.pdf)")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	profile, err := loadProfile(cfg, mustGetString(cmd, "profile"))
	if err != nil {
		return err
	}
	img, err := sheet.RenderTestSheet(profile)
	if err != nil {
		return fmt.Errorf("failed to render test sheet: %w", err)
	}

	meta := pdf.DefaultMetadata(constants.CalibrationTitle)
	meta.Author = cfg.Author
	var buf bytes.Buffer
	if err := pdf.Export(&buf, []image.Image{img}, meta, cfg.PDFQuality); err != nil {
		return err
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		output = pdf.FileName(constants.CalibrationTitle, time.Now())
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	fmt.Printf("Calibration sheet for %q written to %s\n", profile.Name, output)
	fmt.Printf("  offset: %.2f, %.2f mm  slot 2 offset: %.2f mm  scale: %.3f x %.3f\n",
		profile.OffsetX, profile.OffsetY, profile.Slot2YOffset, profile.ScaleX, profile.ScaleY)
	return nil
}
