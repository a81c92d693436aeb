package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"planos_scrooper/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS property (
		id TEXT PRIMARY KEY,
		title TEXT,
		location TEXT,
		url TEXT,
		estimated_completion_date TEXT,
		construction_company TEXT,
		construction_status TEXT,
		amenities TEXT,
		nearby_places TEXT,
		parsing_time TEXT
	);

	CREATE TABLE IF NOT EXISTS unit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		property_id TEXT NOT NULL,
		name TEXT,
		price REAL,
		rooms REAL,
		bathrooms REAL,
		area_m2 REAL,
		area_v2 REAL,
		FOREIGN KEY (property_id) REFERENCES property(id)
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		site_id TEXT,
		listing_url TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		cards_found INTEGER,
		properties_parsed INTEGER,
		cards_failed INTEGER,
		properties_saved INTEGER,
		save_errors INTEGER,
		units_found INTEGER
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_unit_property ON unit(property_id);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveProperty replaces the property row keyed on pid and inserts every
// unit as a new row. Re-saving a property therefore duplicates its units.
func (s *SQLiteStore) SaveProperty(ctx context.Context, p *models.Property) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO property (id, title, location, url, estimated_completion_date,
			construction_company, construction_status, amenities, nearby_places, parsing_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PID, p.Title, p.Location, p.URL, p.EstimatedCompletionDate,
		p.ConstructionCompany, p.ConstructionStatus, p.AmenitiesText(), p.NearbyPlacesText(), p.ParsingDate())
	if err != nil {
		return fmt.Errorf("insert property %s: %w", p.PID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unit (property_id, name, price, rooms, bathrooms, area_m2, area_v2)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range p.Units {
		if _, err := stmt.ExecContext(ctx, p.PID, u.Name, u.Price, u.Rooms, u.Bathrooms, u.AreaM2, u.AreaV2); err != nil {
			return fmt.Errorf("insert unit %q of %s: %w", u.Name, p.PID, err)
		}
	}

	return tx.Commit()
}

// GetProperty returns the property with its units in insertion order, or
// nil when pid is unknown.
func (s *SQLiteStore) GetProperty(pid string) (*models.Property, error) {
	row := s.db.QueryRow(`
		SELECT id, title, location, url, estimated_completion_date, construction_company,
			construction_status, amenities, nearby_places, parsing_time
		FROM property WHERE id = ?`, pid)

	var p models.Property
	var amenities, nearby, parsed string
	err := row.Scan(&p.PID, &p.Title, &p.Location, &p.URL, &p.EstimatedCompletionDate,
		&p.ConstructionCompany, &p.ConstructionStatus, &amenities, &nearby, &parsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Amenities = models.SplitJoined(amenities)
	p.NearbyPlaces = models.SplitJoined(nearby)
	if p.ParsingTime, err = parseDate(parsed); err != nil {
		return nil, fmt.Errorf("parsing_time of %s: %w", pid, err)
	}

	units, err := s.GetUnits(pid)
	if err != nil {
		return nil, err
	}
	p.Units = units
	return &p, nil
}

func (s *SQLiteStore) GetUnits(pid string) ([]models.Unit, error) {
	rows, err := s.db.Query(`
		SELECT name, price, rooms, bathrooms, area_m2, area_v2
		FROM unit WHERE property_id = ? ORDER BY id`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.Name, &u.Price, &u.Rooms, &u.Bathrooms, &u.AreaM2, &u.AreaV2); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (s *SQLiteStore) GetPropertyCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM property`).Scan(&count)
	return count, err
}

// parseDate accepts parsing_time as written by this store or by older rows
// stored with a full timestamp.
func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{models.DateLayout, time.RFC3339, "2006-01-02 15:04:05-07:00"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (site_id, listing_url, started_at, status, cards_found,
			properties_parsed, cards_failed, properties_saved, save_errors, units_found)
		VALUES (?, ?, ?, ?, 0, 0, 0, 0, 0, 0)`,
		run.SiteID, run.ListingURL, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, cards_found = ?, properties_parsed = ?,
			cards_failed = ?, properties_saved = ?, save_errors = ?, units_found = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.CardsFound, run.PropertiesParsed,
		run.CardsFailed, run.PropertiesSaved, run.SaveErrors, run.UnitsFound, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id int64) (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	var finished sql.NullTime
	err := s.db.QueryRow(`
		SELECT id, site_id, listing_url, started_at, finished_at, status, cards_found,
			properties_parsed, cards_failed, properties_saved, save_errors, units_found
		FROM scrape_runs WHERE id = ?`, id).Scan(
		&run.ID, &run.SiteID, &run.ListingURL, &run.StartedAt, &finished, &run.Status,
		&run.CardsFound, &run.PropertiesParsed, &run.CardsFailed, &run.PropertiesSaved,
		&run.SaveErrors, &run.UnitsFound)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

func (s *SQLiteStore) GetLogs(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, site_id
		FROM scrape_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.SiteID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
