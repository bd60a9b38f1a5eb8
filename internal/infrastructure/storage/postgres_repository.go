package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/ports"
)

// PostgresLeadRepository persists enriched leads into Postgres, upserting on
// the original address string.
type PostgresLeadRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.LeadRepository = (*PostgresLeadRepository)(nil)

// NewPostgresLeadRepository wires a sql.DB implementation. A nil db makes the
// repository a no-op, which keeps dry runs possible without a database.
func NewPostgresLeadRepository(db *sql.DB) *PostgresLeadRepository {
	return &PostgresLeadRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgres connects and verifies the lead store.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lead store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping lead store: %w", err)
	}
	return db, nil
}

// Upsert inserts or merges a lead keyed by original_address. On conflict,
// incoming nulls never clobber existing values; everything else overwrites.
func (r *PostgresLeadRepository) Upsert(ctx context.Context, lead domain.EnrichedLead) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("leads").
		Columns(
			"original_address", "jurisdiction_id", "account_number",
			"owner_name", "situs_address", "land_value", "improvement_value",
			"year_built", "new_construction", "match_rule", "permit_number",
			"permit_source", "applicant_name", "owner_builder", "match_reason",
		).
		Values(
			lead.OriginalAddress,
			nullString(lead.JurisdictionID),
			nullString(lead.AccountNumber),
			nullString(lead.OwnerName),
			nullString(lead.SitusAddress),
			nullFloat(lead.LandValue),
			nullFloat(lead.ImprovementValue),
			nullInt(lead.YearBuilt),
			lead.NewConstruction,
			nullString(lead.MatchRule),
			nullString(lead.PermitNumber),
			nullString(lead.PermitSource),
			nullString(lead.ApplicantName),
			lead.OwnerBuilder,
			nullString(lead.MatchReason),
		).
		Suffix(`ON CONFLICT (original_address) DO UPDATE SET
			jurisdiction_id = COALESCE(EXCLUDED.jurisdiction_id, leads.jurisdiction_id),
			account_number = COALESCE(EXCLUDED.account_number, leads.account_number),
			owner_name = COALESCE(EXCLUDED.owner_name, leads.owner_name),
			situs_address = COALESCE(EXCLUDED.situs_address, leads.situs_address),
			land_value = COALESCE(EXCLUDED.land_value, leads.land_value),
			improvement_value = COALESCE(EXCLUDED.improvement_value, leads.improvement_value),
			year_built = COALESCE(EXCLUDED.year_built, leads.year_built),
			new_construction = EXCLUDED.new_construction,
			match_rule = COALESCE(EXCLUDED.match_rule, leads.match_rule),
			permit_number = COALESCE(EXCLUDED.permit_number, leads.permit_number),
			permit_source = COALESCE(EXCLUDED.permit_source, leads.permit_source),
			applicant_name = COALESCE(EXCLUDED.applicant_name, leads.applicant_name),
			owner_builder = EXCLUDED.owner_builder,
			match_reason = COALESCE(EXCLUDED.match_reason, leads.match_reason),
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lead upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert lead %s: %w", lead.OriginalAddress, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
