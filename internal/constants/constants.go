// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Catalog loading constants
const (
	// DefaultManifestLocation is where the manifest is read from when MANIFEST_URL is unset
	DefaultManifestLocation = "photos.json"

	// MaxManifestBytes is the largest manifest body accepted
	MaxManifestBytes = 16 << 20

	// DefaultExtractConcurrency is the default number of parallel EXIF extractions
	DefaultExtractConcurrency = 8

	// DefaultExifTimeout bounds a single image fetch + EXIF decode
	DefaultExifTimeout = 30 * time.Second
)

// Image constants
const (
	// MaxImageBytes is the largest image the EXIF service will read (64MB)
	MaxImageBytes = 64 << 20
)

// Web constants
const (
	// EventQueueLimit is how many undelivered commands an SSE stream may hold
	// before it is dropped and the browser has to reconnect
	EventQueueLimit = 1000

	// SessionDuration is how long an idle gallery session is kept
	SessionDuration = 24 * time.Hour

	// MaxSessions caps live gallery sessions, the least recently used one is
	// evicted to make room
	MaxSessions = 1000

	// SessionCleanupInterval is how often expired sessions are swept
	SessionCleanupInterval = 10 * time.Minute

	// RequestTimeout is the chi timeout for non-streaming requests
	RequestTimeout = time.Minute
)
