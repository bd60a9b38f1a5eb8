package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ParcelScanner/internal/address"
	"ParcelScanner/internal/classify"
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/ingest"
	"ParcelScanner/internal/jurisdiction"
	"ParcelScanner/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Resolver *jurisdiction.Resolver
	Lookup   ports.PropertyLookup
	Leads    ports.LeadRepository
	States   ports.StateStore
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline implements the extract-ingestion and permit-enrichment workflows.
type Pipeline struct {
	resolver *jurisdiction.Resolver
	lookup   ports.PropertyLookup
	leads    ports.LeadRepository
	detector *ingest.Detector
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		resolver: deps.Resolver,
		lookup:   deps.Lookup,
		leads:    deps.Leads,
		detector: ingest.NewDetector(deps.States),
		logger:   logger,
		now:      now,
	}
}

// ProcessExtract streams one jurisdiction extract, classifies each record and
// emits new-construction leads. The ingestion checkpoint is committed only
// after the whole file was consumed; any earlier failure leaves the stored
// digest untouched, so the next run reprocesses from scratch.
func (p *Pipeline) ProcessExtract(ctx context.Context, jurisdictionID, path string) (domain.RunSummary, error) {
	var summary domain.RunSummary

	cfg, ok := p.resolver.Get(jurisdictionID)
	if !ok {
		return summary, fmt.Errorf("no schema config for jurisdiction %q", jurisdictionID)
	}

	digest, err := ingest.DigestFile(path)
	if err != nil {
		return summary, err
	}
	unchanged, err := p.detector.Unchanged(ctx, cfg.ID, digest)
	if err != nil {
		return summary, err
	}
	if unchanged {
		p.logger.Info("extract unchanged since last pass, skipping",
			"jurisdiction", cfg.ID, "digest", digest)
		return summary, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return summary, fmt.Errorf("open extract %s: %w", path, err)
	}
	defer f.Close()

	currentYear := p.now().Year()
	var emitted int
	stats, err := ingest.Stream(ctx, f, cfg, func(rec domain.CanonicalRecord) error {
		result := classify.Classify(rec, cfg, currentYear)
		if !result.NewConstruction {
			return nil
		}
		if err := p.leads.Upsert(ctx, leadFromRecord(rec, result)); err != nil {
			return err
		}
		emitted++
		return nil
	})

	summary.Processed = stats.Processed
	summary.Skipped = stats.Skipped
	summary.Emitted = emitted
	if err != nil {
		return summary, fmt.Errorf("ingest %s extract: %w", cfg.ID, err)
	}

	// Last step of a successful pass; never reached on a partial one.
	if err := p.detector.Commit(ctx, domain.IngestionState{
		JurisdictionID:   cfg.ID,
		LastDigest:       digest,
		RecordsProcessed: int64(stats.Processed),
		RecordsEmitted:   int64(emitted),
	}); err != nil {
		return summary, err
	}

	p.logger.Info("extract pass complete",
		"jurisdiction", cfg.ID,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"filtered", stats.Filtered,
		"emitted", summary.Emitted)
	return summary, nil
}

// EnrichPermits cross-references permit records against their jurisdictions'
// record services. A permit with no jurisdiction or no candidate is
// unmatched, not an error; a lookup whose retries are exhausted fails that
// permit alone and the batch continues.
func (p *Pipeline) EnrichPermits(ctx context.Context, permits []domain.Permit) (domain.RunSummary, error) {
	var summary domain.RunSummary

	for _, permit := range permits {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		cfg, ok := p.resolver.Resolve(permit.Zip)
		if !ok {
			cfg, ok = p.resolver.Resolve(permit.City)
		}
		if !ok {
			summary.Unmatched++
			p.logger.Debug("no jurisdiction for permit",
				"permit", permit.PermitNumber, "city", permit.City, "zip", permit.Zip)
			continue
		}

		rec, err := p.lookup.Lookup(ctx, permit.Address, cfg)
		if err != nil {
			summary.Failed++
			p.logger.Warn("permit lookup failed",
				"permit", permit.PermitNumber, "jurisdiction", cfg.ID, "error", err)
			continue
		}
		if rec == nil {
			summary.Unmatched++
			continue
		}
		summary.Matched++

		lead := leadFromPermit(permit, *rec)
		if err := p.leads.Upsert(ctx, lead); err != nil {
			summary.Failed++
			p.logger.Warn("lead upsert failed",
				"permit", permit.PermitNumber, "error", err)
			continue
		}
		summary.Emitted++
	}

	p.logger.Info("permit enrichment complete",
		"processed", summary.Processed,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"failed", summary.Failed,
		"emitted", summary.Emitted)
	return summary, nil
}

// leadFromRecord keys the lead by the situs address exactly as the extract
// recorded it.
func leadFromRecord(rec domain.CanonicalRecord, result domain.ClassificationResult) domain.EnrichedLead {
	return domain.EnrichedLead{
		OriginalAddress:  rec.SitusAddress,
		JurisdictionID:   rec.JurisdictionID,
		AccountNumber:    rec.AccountNumber,
		OwnerName:        rec.OwnerName,
		SitusAddress:     rec.SitusAddress,
		LandValue:        rec.LandValue,
		ImprovementValue: rec.ImprovementValue,
		YearBuilt:        rec.YearBuilt,
		NewConstruction:  result.NewConstruction,
		MatchRule:        result.Rule,
	}
}

// leadFromPermit keys the lead by the permit's original address string, never
// the jurisdiction's canonical form; downstream joins depend on it.
func leadFromPermit(permit domain.Permit, rec domain.CanonicalRecord) domain.EnrichedLead {
	lead := domain.EnrichedLead{
		OriginalAddress:  permit.Address,
		JurisdictionID:   rec.JurisdictionID,
		AccountNumber:    rec.AccountNumber,
		OwnerName:        rec.OwnerName,
		SitusAddress:     rec.SitusAddress,
		LandValue:        rec.LandValue,
		ImprovementValue: rec.ImprovementValue,
		YearBuilt:        rec.YearBuilt,
		PermitNumber:     permit.PermitNumber,
		PermitSource:     permit.Source,
		ApplicantName:    permit.ApplicantName,
	}
	if m := address.MatchNames(permit.ApplicantName, rec.OwnerName); m.Matched {
		lead.OwnerBuilder = true
		lead.MatchReason = m.Reason
	}
	return lead
}
