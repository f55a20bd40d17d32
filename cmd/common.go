package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/render"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
)

// newRenderer builds a renderer with fonts from cfg.FontDir registered.
func newRenderer(cfg *config.Config) *render.Renderer {
	fonts := render.NewFontRegistry()
	if cfg.FontDir != "" {
		n, err := fonts.LoadDir(cfg.FontDir)
		if err != nil {
			log.Printf("WARNING: failed to load fonts from %s: %v", cfg.FontDir, err)
		} else {
			fmt.Fprintf(os.Stderr, "Loaded %d fonts from %s\n", n, cfg.FontDir)
		}
	}
	return render.New(
		render.WithFonts(fonts),
		render.WithCropper(smartcrop.NewDefault()),
		render.WithPhotoQuality(cfg.PhotoQuality),
	)
}

// profilesPath returns the profile file from --profiles or the environment.
func profilesPath(cfg *config.Config) string {
	if profilesFile != "" {
		return profilesFile
	}
	return cfg.ProfilesFile
}

// loadProfiles reads the configured profile set, or the built-in one.
func loadProfiles(cfg *config.Config) (*calibration.ProfileSet, error) {
	set, err := calibration.LoadFile(profilesPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load calibration profiles: %w", err)
	}
	return set, nil
}

// loadProfile looks up a profile by ID or name; empty selects the default.
func loadProfile(cfg *config.Config, key string) (calibration.Profile, error) {
	set, err := loadProfiles(cfg)
	if err != nil {
		return calibration.Profile{}, err
	}
	return set.Find(key)
}

// readTemplate reads the template named by the --template flag.
func readTemplate(cmd *cobra.Command) (*design.Template, error) {
	path, err := requireString(cmd, "template")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return design.Decode(data)
}

// readRecord reads a JSON object of field values.
func readRecord(path string) (design.Record, error) {
	rec := design.Record{}
	if path == "" {
		return rec, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if rec == nil {
		rec = design.Record{}
	}
	return rec, nil
}

// writeImage saves img, choosing the format from the file extension.
func writeImage(path string, img image.Image) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(100)); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSONFile writes data as indented JSON.
func writeJSONFile(path string, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		log.Printf("WARNING: %s", w)
	}
}
