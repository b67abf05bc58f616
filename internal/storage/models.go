package storage

import "time"

// JobPosting is one internship listing extracted from a source document.
// Fields the model omits default to empty values; a posting is only dropped
// upstream when it lacks an identifying payload entirely.
type JobPosting struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	City        string    `json:"city"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// CityJobCollection aggregates the postings for one normalized city.
// NormalizedCity is the unique grouping key; City keeps the first-seen
// display casing.
type CityJobCollection struct {
	City           string       `json:"city"`
	NormalizedCity string       `json:"normalizedCity"`
	Jobs           []JobPosting `json:"jobs"`
	LastRefreshed  time.Time    `json:"lastRefreshed"`
}
