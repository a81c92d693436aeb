package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun is the bookkeeping row for one pass over a site's listing page.
type ScrapeRun struct {
	ID               int64      `json:"id" db:"id"`
	SiteID           string     `json:"site_id" db:"site_id"`
	ListingURL       string     `json:"listing_url" db:"listing_url"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at" db:"finished_at"`
	Status           RunStatus  `json:"status" db:"status"`
	CardsFound       int        `json:"cards_found" db:"cards_found"`
	PropertiesParsed int        `json:"properties_parsed" db:"properties_parsed"`
	CardsFailed      int        `json:"cards_failed" db:"cards_failed"`
	PropertiesSaved  int        `json:"properties_saved" db:"properties_saved"`
	SaveErrors       int        `json:"save_errors" db:"save_errors"`
	UnitsFound       int        `json:"units_found" db:"units_found"`
}

// SuccessRate is the share of cards that produced a parsed property.
func (r *ScrapeRun) SuccessRate() float64 {
	if r.CardsFound == 0 {
		return 0
	}
	return float64(r.PropertiesParsed) / float64(r.CardsFound)
}
