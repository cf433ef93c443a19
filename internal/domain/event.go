package domain

import "time"

// Artifact names written for each completed run.
const (
	ArtifactDNBR       = "dnbr"
	ArtifactSeverity   = "severity"
	ArtifactOverlay    = "overlay"
	ArtifactClassMap   = "severity_overlay"
	ArtifactStatistics = "statistics"
	ArtifactSearchPre  = "search_pre"
	ArtifactSearchPost = "search_post"
)

// AnalysisEvent is the serialized summary of a completed run, published to the
// analysis sink topic.
type AnalysisEvent struct {
	RunID      string `json:"run_id"`
	PreItemID  string `json:"pre_item_id"`
	PostItemID string `json:"post_item_id"`
	PreWindow  string `json:"pre_window"`
	PostWindow string `json:"post_window"`

	// Bounds is [minLon, minLat, maxLon, maxLat] of the AOI.
	Bounds          [4]float64        `json:"bounds"`
	SeverityClasses []string          `json:"severity_classes"`
	Statistics      Statistics        `json:"statistics"`
	Artifacts       map[string]string `json:"artifacts,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
