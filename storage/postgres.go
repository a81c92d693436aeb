package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"planos_scrooper/models"
)

const postgresSchema = `
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
		parsing_time DATE
	);

	CREATE TABLE IF NOT EXISTS unit (
		id BIGSERIAL PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES property(id),
		name TEXT,
		price DOUBLE PRECISION,
		rooms DOUBLE PRECISION,
		bathrooms DOUBLE PRECISION,
		area_m2 DOUBLE PRECISION,
		area_v2 DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id BIGSERIAL PRIMARY KEY,
		site_id TEXT,
		listing_url TEXT,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		cards_found INTEGER DEFAULT 0,
		properties_parsed INTEGER DEFAULT 0,
		cards_failed INTEGER DEFAULT 0,
		properties_saved INTEGER DEFAULT 0,
		save_errors INTEGER DEFAULT 0,
		units_found INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_unit_property ON unit(property_id);
`

// PostgresStore mirrors the SQLite property and unit tables on a server
// database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// =============================================================================
// Properties
// =============================================================================

// SaveProperty upserts the property on its pid and appends its units.
func (s *PostgresStore) SaveProperty(ctx context.Context, p *models.Property) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO property (
				id, title, location, url, estimated_completion_date, construction_company,
				construction_status, amenities, nearby_places, parsing_time
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				location = EXCLUDED.location,
				url = EXCLUDED.url,
				estimated_completion_date = EXCLUDED.estimated_completion_date,
				construction_company = EXCLUDED.construction_company,
				construction_status = EXCLUDED.construction_status,
				amenities = EXCLUDED.amenities,
				nearby_places = EXCLUDED.nearby_places,
				parsing_time = EXCLUDED.parsing_time`

		_, err := tx.Exec(ctx, query,
			p.PID, p.Title, p.Location, p.URL, p.EstimatedCompletionDate, p.ConstructionCompany,
			p.ConstructionStatus, p.AmenitiesText(), p.NearbyPlacesText(), p.ParsingTime,
		)
		if err != nil {
			return fmt.Errorf("upsert property %s: %w", p.PID, err)
		}

		if len(p.Units) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, u := range p.Units {
			batch.Queue(`
				INSERT INTO unit (property_id, name, price, rooms, bathrooms, area_m2, area_v2)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.PID, u.Name, u.Price, u.Rooms, u.Bathrooms, u.AreaM2, u.AreaV2)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert units of %s: %w", p.PID, err)
		}
		return nil
	})
}

// =============================================================================
// Scrape Runs
// =============================================================================

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.ScrapeRun) (int64, error) {
	query := `
		INSERT INTO scrape_runs (site_id, listing_url, started_at, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query, run.SiteID, run.ListingURL, run.StartedAt, string(run.Status)).Scan(&id)
	return id, err
}

func (s *PostgresStore) UpdateRun(ctx context.Context, id int64, run *models.ScrapeRun) error {
	query := `
		UPDATE scrape_runs SET
			finished_at = $2, status = $3, cards_found = $4, properties_parsed = $5,
			cards_failed = $6, properties_saved = $7, save_errors = $8, units_found = $9
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		id, run.FinishedAt, string(run.Status), run.CardsFound, run.PropertiesParsed,
		run.CardsFailed, run.PropertiesSaved, run.SaveErrors, run.UnitsFound,
	)
	return err
}
