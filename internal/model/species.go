package model

import "strings"

// SourceNOAA labels records scraped from the NOAA Fisheries species directory.
const SourceNOAA = "noaa"

// Status is the conservation status shown on a species profile
type Status string

const (
	StatusThreatened Status = "Threatened"
	StatusEndangered Status = "Endangered"
	StatusOther      Status = "Other"
)

// StatusFromLabel maps a raw status banner text to a Status
func StatusFromLabel(label string) Status {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "threatened"):
		return StatusThreatened
	case strings.Contains(lower, "endangered"):
		return StatusEndangered
	default:
		return StatusOther
	}
}

// ListEntry is one row of the species-directory listing
type ListEntry struct {
	Source         string `json:"source"`
	SourceRecordID string `json:"source_record_id"` // slug from the detail URL
	CommonName     string `json:"common_name"`
	DetailURL      string `json:"detail_url"`
}

// Species is a fully scraped and analyzed species record
type Species struct {
	Source         string `json:"source"`
	SourceRecordID string `json:"source_record_id"`
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	Status         Status `json:"status"`
	DetailURL      string `json:"detail_url"`
	ImageURL       string `json:"image_url"`

	// DepthNotes is the "Where They Live" narrative; depth fields are
	// derived from it and carried forward unchanged through persistence.
	DepthNotes  string      `json:"depth_notes"`
	MinDepthM   *int        `json:"min_depth_m"`
	MaxDepthM   *int        `json:"max_depth_m"`
	DepthSource DepthSource `json:"depth_source"`

	RawThreats []string `json:"raw_threats"`
	Threats    []string `json:"threats"` // canonical categories, sorted

	Blurb string `json:"blurb,omitempty"` // optional LLM text, display only
}
