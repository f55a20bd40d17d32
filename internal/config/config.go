package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
)

type Config struct {
	FontDir      string // extra .ttf files registered by family name
	ProfilesFile string // calibration profile YAML; empty uses the built-in set
	PhotoDir     string // resolves relative photo paths in batch entries
	PhotoQuality int
	PDFQuality   int
	Author       string
	Web          WebConfig
}

type WebConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envQuality reads a JPEG quality in the range 1..100.
func envQuality(key string, defaultVal int) int {
	if q := envInt(key, defaultVal); q <= 100 {
		return q
	}
	return defaultVal
}

// envString returns the trimmed value of key, or defaultVal when it is empty.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		FontDir:      os.Getenv("IDMAKER_FONT_DIR"),
		ProfilesFile: os.Getenv("IDMAKER_PROFILES_FILE"),
		PhotoDir:     os.Getenv("IDMAKER_PHOTO_DIR"),
		PhotoQuality: envQuality("IDMAKER_PHOTO_QUALITY", constants.PhotoJPEGQuality),
		PDFQuality:   envQuality("IDMAKER_PDF_QUALITY", constants.PDFJPEGQuality),
		Author:       envString("IDMAKER_AUTHOR", constants.DefaultAuthor),
		Web: WebConfig{
			Port:           envInt("WEB_PORT", constants.DefaultPort),
			Host:           envString("WEB_HOST", constants.DefaultHost),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
	}
}
