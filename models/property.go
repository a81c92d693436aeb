package models

import (
	"strings"
	"time"
)

// DateLayout is the format parsing_time is persisted with.
const DateLayout = "2006-01-02"

// Unit is a sellable sub-unit of a Property. Fields missing from the
// source text stay at zero.
type Unit struct {
	Name      string  `json:"name" db:"name"`
	Price     float64 `json:"price" db:"price"`
	Rooms     float64 `json:"rooms" db:"rooms"`
	Bathrooms float64 `json:"bathrooms" db:"bathrooms"`
	AreaM2    float64 `json:"area_m2" db:"area_m2"`
	AreaV2    float64 `json:"area_v2" db:"area_v2"`
}

// Property is a single construction project listing.
type Property struct {
	PID                     string    `json:"pid" db:"id"`
	Title                   string    `json:"title" db:"title"`
	Location                string    `json:"location" db:"location"`
	URL                     string    `json:"url" db:"url"`
	EstimatedCompletionDate string    `json:"estimated_completion_date" db:"estimated_completion_date"`
	ConstructionCompany     string    `json:"construction_company" db:"construction_company"`
	ConstructionStatus      string    `json:"construction_status" db:"construction_status"`
	Amenities               []string  `json:"amenities" db:"amenities"`
	NearbyPlaces            []string  `json:"nearby_places" db:"nearby_places"`
	Units                   []Unit    `json:"units"`
	ParsingTime             time.Time `json:"parsing_time" db:"parsing_time"`
}

// PIDFromURL returns the substring after the final '/' of a detail URL.
func PIDFromURL(detailURL string) string {
	return detailURL[strings.LastIndex(detailURL, "/")+1:]
}

// ParsingDate is parsing_time in DateLayout.
func (p *Property) ParsingDate() string {
	return p.ParsingTime.Format(DateLayout)
}

func (p *Property) AmenitiesText() string {
	return strings.Join(p.Amenities, ", ")
}

func (p *Property) NearbyPlacesText() string {
	return strings.Join(p.NearbyPlaces, ", ")
}

// SplitJoined reverses AmenitiesText/NearbyPlacesText.
func SplitJoined(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ", ")
}
