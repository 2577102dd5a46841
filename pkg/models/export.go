package models

import "time"

// ExportVersion is the only envelope version this engine reads or writes.
const ExportVersion = "1.0"

// ExportEnvelope wraps a project for export. ArtifactKeys reference large
// rendered artifacts (plots, reports) held in the object store; the artifacts
// themselves are not inlined.
type ExportEnvelope struct {
	Version      string    `json:"version"`
	ExportedAt   time.Time `json:"exported_at"`
	Project      *Project  `json:"project"`
	ArtifactKeys []string  `json:"artifact_keys,omitempty"`
}
