package model

import "time"

// ScrapeRun summarizes one pipeline run for logging and artifacts
type ScrapeRun struct {
	ID         string    `json:"id"` // UUID, carried through logs
	ListURL    string    `json:"list_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Listed  int `json:"listed"`  // directory rows discovered
	Scraped int `json:"scraped"` // profiles parsed successfully

	Failures []ScrapeFailure `json:"failures,omitempty"`
}

// ScrapeFailure records a profile that could not be fetched or parsed
type ScrapeFailure struct {
	SourceRecordID string `json:"source_record_id"`
	DetailURL      string `json:"detail_url"`
	Error          string `json:"error"`
}
