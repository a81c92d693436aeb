package storage

import (
	"context"

	"planos_scrooper/models"
)

// Sink persists parsed properties. Every call appends; a sink never
// rewrites what an earlier call wrote except where its own key says so.
type Sink interface {
	SaveProperty(ctx context.Context, p *models.Property) error
}

var (
	_ Sink = (*CSVStore)(nil)
	_ Sink = (*SQLiteStore)(nil)
	_ Sink = (*PostgresStore)(nil)
)
