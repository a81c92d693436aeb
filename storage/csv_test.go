package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"planos_scrooper/models"
)

func testProperty(pid string) *models.Property {
	return &models.Property{
		PID:                     pid,
		Title:                   "Torre " + pid,
		Location:                "San Salvador, El Salvador",
		URL:                     "https://example.com/sv/proyecto/" + pid,
		EstimatedCompletionDate: "Diciembre 2026",
		ConstructionCompany:     "Constructora Uno",
		ConstructionStatus:      "En construcción",
		Amenities:               []string{"Piscina", "Gimnasio"},
		NearbyPlaces:            []string{"Centro comercial"},
		Units: []models.Unit{
			{Name: "Tipo A", Price: 1234.56, Rooms: 2, Bathrooms: 1, AreaM2: 85, AreaV2: 120},
			{Name: "Tipo B", Rooms: 3},
		},
		ParsingTime: time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestCSVStore_HeaderWrittenOnce(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "out", "planos"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	if err := store.SaveProperty(ctx, testProperty("p1")); err != nil {
		t.Fatalf("save p1: %v", err)
	}
	if err := store.SaveProperty(ctx, testProperty("p2")); err != nil {
		t.Fatalf("save p2: %v", err)
	}

	props := readCSV(t, store.PropertiesPath())
	if len(props) != 3 {
		t.Fatalf("expected header + 2 rows, got %d rows", len(props))
	}
	if props[0][0] != "Property ID" || props[0][9] != "Parsing Time" {
		t.Fatalf("unexpected header %v", props[0])
	}
	if props[1][0] != "p1" || props[2][0] != "p2" {
		t.Fatalf("unexpected row order %s, %s", props[1][0], props[2][0])
	}
	if props[1][7] != "Piscina, Gimnasio" {
		t.Fatalf("expected joined amenities, got %q", props[1][7])
	}
	if props[1][9] != "2026-03-01" {
		t.Fatalf("expected date-only parsing time, got %q", props[1][9])
	}

	units := readCSV(t, store.UnitsPath())
	if len(units) != 5 {
		t.Fatalf("expected header + 4 unit rows, got %d rows", len(units))
	}
	if units[0][5] != "Area (m²)" {
		t.Fatalf("unexpected unit header %v", units[0])
	}
	if units[1][0] != "p1" || units[1][2] != "1234.56" || units[1][6] != "120" {
		t.Fatalf("unexpected unit row %v", units[1])
	}
	if units[4][0] != "p2" || units[4][1] != "Tipo B" || units[4][2] != "0" {
		t.Fatalf("unexpected last unit row %v", units[4])
	}
}

func TestCSVStore_AppendsToExistingFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "planos")
	ctx := context.Background()

	first, _ := NewCSVStore(base)
	if err := first.SaveProperty(ctx, testProperty("p1")); err != nil {
		t.Fatalf("save p1: %v", err)
	}
	second, _ := NewCSVStore(base)
	if err := second.SaveProperty(ctx, testProperty("p2")); err != nil {
		t.Fatalf("save p2: %v", err)
	}

	if rows := readCSV(t, second.PropertiesPath()); len(rows) != 3 {
		t.Fatalf("expected one header across stores, got %d rows", len(rows))
	}
}
