package model

// DepthSource records which path produced a depth estimate
type DepthSource string

const (
	DepthSourceExplicit DepthSource = "explicit" // parsed from sentence text
	DepthSourceUnknown  DepthSource = "unknown"  // neither path produced a bound
)

// BucketSource builds the provenance tag for a habitat-bucket inference,
// e.g. "bucket:deep".
func BucketSource(name string) DepthSource {
	return DepthSource("bucket:" + name)
}

// DepthEstimate is the outcome of depth extraction for one narrative.
// Invariant: when both bounds are present, *MinDepthM <= *MaxDepthM;
// bounds are never negative.
type DepthEstimate struct {
	MinDepthM *int        `json:"min_depth_m"`
	MaxDepthM *int        `json:"max_depth_m"`
	Source    DepthSource `json:"depth_source"`
}

// HasBounds reports whether either bound is set
func (d DepthEstimate) HasBounds() bool {
	return d.MinDepthM != nil || d.MaxDepthM != nil
}
