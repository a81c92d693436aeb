package scraper

import (
	"fmt"
	"strings"
	"time"

	"planos_scrooper/browser"
	"planos_scrooper/models"
)

// Waits bounds every ready-wait the scraper performs.
type Waits struct {
	Listing time.Duration
	Click   time.Duration
	Window  time.Duration
	Detail  time.Duration
	Units   time.Duration
}

func DefaultWaits() Waits {
	return Waits{
		Listing: 10 * time.Second,
		Click:   10 * time.Second,
		Window:  10 * time.Second,
		Detail:  10 * time.Second,
		Units:   10 * time.Second,
	}
}

// Parser reads property detail pages from the session's current window.
type Parser struct {
	session browser.Session
	waits   Waits
	now     func() time.Time
}

func NewParser(session browser.Session, waits Waits) *Parser {
	return &Parser{session: session, waits: waits, now: time.Now}
}

// ParseProperty builds a complete Property from detailURL. Any missing
// scalar field fails the whole property with a *ParseError.
func (p *Parser) ParseProperty(detailURL string) (*models.Property, error) {
	if err := p.ensurePage(detailURL); err != nil {
		return nil, &ParseError{URL: detailURL, Field: "page", Err: err}
	}

	prop := &models.Property{
		PID: models.PIDFromURL(detailURL),
		URL: detailURL,
	}

	scalars := []struct {
		field    string
		selector string
		dst      *string
	}{
		{"title", TitleSelector, &prop.Title},
		{"location", LocationSelector, &prop.Location},
		{"estimated_completion_date", CompletionDateSelector, &prop.EstimatedCompletionDate},
		{"construction_company", ConstructionCompanySelector, &prop.ConstructionCompany},
		{"construction_status", ConstructionStatusSelector, &prop.ConstructionStatus},
	}
	for _, f := range scalars {
		value, err := ExtractText(p.session, f.selector)
		if err != nil {
			return nil, &ParseError{URL: detailURL, Field: f.field, Err: err}
		}
		*f.dst = value
	}

	location, err := stripLocationLabel(prop.Location)
	if err != nil {
		return nil, &ParseError{URL: detailURL, Field: "location", Err: err}
	}
	prop.Location = location

	if prop.Amenities, err = ExtractAll(p.session, AmenitiesSelector); err != nil {
		return nil, &ParseError{URL: detailURL, Field: "amenities", Err: err}
	}
	if prop.NearbyPlaces, err = ExtractAll(p.session, NearbyPlacesSelector); err != nil {
		return nil, &ParseError{URL: detailURL, Field: "nearby_places", Err: err}
	}

	if prop.Units, err = p.ExtractUnits(detailURL); err != nil {
		return nil, &ParseError{URL: detailURL, Field: "units", Err: err}
	}

	prop.ParsingTime = p.now()
	return prop, nil
}

// ensurePage makes detailURL the page of the only open window.
func (p *Parser) ensurePage(detailURL string) error {
	if p.session.CurrentURL() == detailURL {
		return nil
	}
	if err := browser.ConvergeWindows(p.session); err != nil {
		return err
	}
	_, err := browser.Load(p.session, detailURL, TitleSelector, p.waits.Detail)
	return err
}

// stripLocationLabel drops the icon label word the site renders before
// the location text.
func stripLocationLabel(text string) (string, error) {
	_, rest, ok := strings.Cut(text, " ")
	if !ok {
		return "", fmt.Errorf("no label prefix in %q", text)
	}
	return strings.TrimSpace(rest), nil
}
