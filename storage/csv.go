package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"planos_scrooper/models"
)

var (
	propertyHeader = []string{
		"Property ID", "Title", "Location", "URL", "Estimated Completion Date",
		"Construction Company", "Construction Status", "Amenities", "Nearby Places", "Parsing Time",
	}
	unitHeader = []string{
		"Property ID", "Unit Name", "Price", "Rooms", "Bathrooms", "Area (m²)", "Area (v²)",
	}
)

// CSVStore appends properties to <base>_properties.csv and their units to
// <base>_units.csv.
type CSVStore struct {
	base string
}

func NewCSVStore(basePath string) (*CSVStore, error) {
	if dir := filepath.Dir(basePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return &CSVStore{base: basePath}, nil
}

func (s *CSVStore) PropertiesPath() string { return s.base + "_properties.csv" }
func (s *CSVStore) UnitsPath() string      { return s.base + "_units.csv" }

// Files lists the CSV files the store writes to.
func (s *CSVStore) Files() []string {
	return []string{s.PropertiesPath(), s.UnitsPath()}
}

func (s *CSVStore) SaveProperty(_ context.Context, p *models.Property) error {
	if err := appendRows(s.PropertiesPath(), propertyHeader, [][]string{propertyRow(p)}); err != nil {
		return fmt.Errorf("write property %s: %w", p.PID, err)
	}

	rows := make([][]string, 0, len(p.Units))
	for _, u := range p.Units {
		rows = append(rows, unitRow(p.PID, u))
	}
	if err := appendRows(s.UnitsPath(), unitHeader, rows); err != nil {
		return fmt.Errorf("write units of %s: %w", p.PID, err)
	}
	return nil
}

// appendRows writes header first when path is missing or empty, then rows.
func appendRows(path string, header []string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func propertyRow(p *models.Property) []string {
	return []string{
		p.PID,
		p.Title,
		p.Location,
		p.URL,
		p.EstimatedCompletionDate,
		p.ConstructionCompany,
		p.ConstructionStatus,
		p.AmenitiesText(),
		p.NearbyPlacesText(),
		p.ParsingDate(),
	}
}

func unitRow(pid string, u models.Unit) []string {
	return []string{
		pid,
		u.Name,
		formatFloat(u.Price),
		formatFloat(u.Rooms),
		formatFloat(u.Bathrooms),
		formatFloat(u.AreaM2),
		formatFloat(u.AreaV2),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
