// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Image quality constants
const (
	// PhotoJPEGQuality is the JPEG quality for cropped photos placed into frames
	PhotoJPEGQuality = 95

	// PDFJPEGQuality is the JPEG quality for sheet pages embedded into the PDF
	PDFJPEGQuality = 100
)

// Document metadata constants
const (
	// DefaultAuthor is written into the author field of exported PDFs
	DefaultAuthor = "whizpoint Solutions"

	// CalibrationTitle is the title of the calibration test sheet document
	CalibrationTitle = "Calibration_Test_Sheet"
)

// Web server constants
const (
	// DefaultPort is the default port of the preview server
	DefaultPort = 8080

	// DefaultHost is the default bind address of the preview server
	DefaultHost = "0.0.0.0"

	// MaxRequestBytes limits preview and export request bodies (photos are inlined as base64)
	MaxRequestBytes = 64 << 20

	// RequestTimeout bounds a single preview request
	RequestTimeout = 2 * time.Minute

	// ShutdownTimeout is how long in-flight requests get on shutdown
	ShutdownTimeout = 30 * time.Second
)

// Job constants
const (
	// EventChannelBuffer is the buffer size of each SSE listener channel
	EventChannelBuffer = 100

	// JobRetention is how long finished export jobs and their PDFs are kept
	JobRetention = time.Hour
)

// Photo check constants
const (
	// DuplicatePhotoThreshold is the Hamming distance, on both perceptual hashes,
	// at or below which two photos are reported as the same picture
	DuplicatePhotoThreshold = 8
)
