package domain

import "time"

// GeneratedArtifact is a placeholder image produced by the generation
// simulator. Artifacts are immutable once created.
type GeneratedArtifact struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Style     Style     `json:"style"`
	CreatedAt time.Time `json:"createdAt"`
}
