package ports

import (
	"context"

	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/jurisdiction"
)

// LeadRepository persists enriched leads, keyed by the original address
// string. Upsert is idempotent per key.
type LeadRepository interface {
	Upsert(ctx context.Context, lead domain.EnrichedLead) error
}

// StateStore owns the per-jurisdiction ingestion checkpoints. Load returns
// (nil, nil) when no state exists yet.
type StateStore interface {
	Load(ctx context.Context, jurisdictionID string) (*domain.IngestionState, error)
	Save(ctx context.Context, state domain.IngestionState) error
}

// PropertyLookup resolves a partial address against a jurisdiction's
// read-only property-record service. A well-formed "no result" answer is
// (nil, nil), never an error.
type PropertyLookup interface {
	Lookup(ctx context.Context, partialAddress string, cfg jurisdiction.Config) (*domain.CanonicalRecord, error)
}
