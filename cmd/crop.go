package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
)

var cropCmd = &cobra.Command{
	Use:   "crop <photo>",
	Short: "Show or apply the smart crop for a frame size",
	Long: `Pick the best region of a photo for a frame of the given size, the same
way photo frames are filled when cards are rendered.

Examples:
  # Show the chosen region
  idmaker crop amina.jpg --width 200 --height 250

  # Write the cropped and resized photo
  idmaker crop amina.jpg --width 200 --height 250 -o amina_frame.jpg

  # Machine readable output
  idmaker crop amina.jpg --width 200 --height 250 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().Int("width", 0, "Frame width in pixels")
	cropCmd.Flags().Int("height", 0, "Frame height in pixels")
	cropCmd.Flags().Bool("center", false, "Use a plain center crop")
	cropCmd.Flags().Bool("json", false, "Output as JSON")
	cropCmd.Flags().StringP("output", "o", "", "Write the cropped photo as JPEG")
}

// cropResult is the JSON output of the crop command.
type cropResult struct {
	Source string         `json:"source"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Crop   smartcrop.Rect `json:"crop"`
	Output string         `json:"output,omitempty"`
}

func runCrop(cmd *cobra.Command, args []string) error {
	width := mustGetInt(cmd, "width")
	height := mustGetInt(cmd, "height")
	if width <= 0 || height <= 0 {
		return errors.New("--width and --height must be positive")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}

	cropper := smartcrop.NewDefault()
	if mustGetBool(cmd, "center") {
		// Without a primary the fallback is a plain center crop.
		cropper = &smartcrop.Fallback{}
	}

	cfg := config.Load()
	processed, err := smartcrop.Process(data, width, height, cropper, cfg.PhotoQuality)
	if err != nil {
		return err
	}

	result := cropResult{Source: args[0], Width: width, Height: height, Crop: processed.Crop}
	if output := mustGetString(cmd, "output"); output != "" {
		if err := os.WriteFile(output, processed.JPEG, 0o644); err != nil {
			return fmt.Errorf("failed to write cropped photo: %w", err)
		}
		result.Output = output
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(result)
	}
	fmt.Printf("Crop for %dx%d frame: x=%d y=%d width=%d height=%d\n",
		width, height, result.Crop.X, result.Crop.Y, result.Crop.Width, result.Crop.Height)
	if result.Output != "" {
		fmt.Printf("Cropped photo written to %s\n", result.Output)
	}
	return nil
}
