// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Media fields
	FieldDigest   = "digest"
	FieldEffect   = "effect"
	FieldBPM      = "bpm"
	FieldDuration = "duration_s"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
