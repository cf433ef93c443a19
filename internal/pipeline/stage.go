package pipeline

import "github.com/couchcryptid/dragonfly/internal/domain"

// Stage is one step of an analysis run. Stages execute in declaration order.
type Stage int

const (
	StageInit Stage = iota
	StageSearchPre
	StageSearchPost
	StageDownloadPre
	StageDownloadPost
	StageLoadBands
	StageMask
	StageResample
	StageComputeNBRPre
	StageComputeNBRPost
	StageComputeDNBR
	StageClassify
	StageStatistics
	StageDone
)

var stageNames = [...]string{
	StageInit:           "init",
	StageSearchPre:      "search_pre",
	StageSearchPost:     "search_post",
	StageDownloadPre:    "download_pre",
	StageDownloadPost:   "download_post",
	StageLoadBands:      "load_bands",
	StageMask:           "mask",
	StageResample:       "resample",
	StageComputeNBRPre:  "compute_nbr_pre",
	StageComputeNBRPost: "compute_nbr_post",
	StageComputeDNBR:    "compute_dnbr",
	StageClassify:       "classify",
	StageStatistics:     "statistics",
	StageDone:           "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Next returns the stage that follows s. Done is terminal.
func (s Stage) Next() Stage {
	if s >= StageDone {
		return StageDone
	}
	return s + 1
}

// Stages lists every stage from Init to Done.
func Stages() []Stage {
	out := make([]Stage, 0, len(stageNames))
	for s := StageInit; ; s = s.Next() {
		out = append(out, s)
		if s == StageDone {
			return out
		}
	}
}

// maskEnabled reports whether the Mask stage runs: masking must be switched
// on and both epochs must carry a quality layer.
func maskEnabled(enabled, preHasQuality, postHasQuality bool) bool {
	return enabled && preHasQuality && postHasQuality
}

// needsResample reports whether an epoch's SWIR band must be brought onto the
// NIR grid.
func needsResample(nir, swir domain.Shape) bool {
	return nir != swir
}
