package domain

import "time"

// CanonicalRecord is the common shape every jurisdiction-specific property
// record is mapped into, whether it came from a bulk extract or a remote
// lookup. Read-only downstream of the ingestor.
type CanonicalRecord struct {
	JurisdictionID string
	AccountNumber  string
	OwnerName      string

	// SitusAddress keeps the address exactly as the source recorded it; the
	// parsed parts below are derived for matching and remote queries.
	SitusAddress string
	SitusNumber  string
	SitusStreet  string
	SitusSuffix  string
	SitusCity    string
	SitusZip     string

	LandValue        float64
	ImprovementValue float64
	// PriorImprovementValue is nil when the jurisdiction provides no prior-year
	// value or it could not be parsed.
	PriorImprovementValue *float64

	YearBuilt int // 0 = unknown

	// NewConstructionFlag holds the raw flag value for jurisdictions that
	// publish one; empty otherwise.
	NewConstructionFlag string

	PropertyClass string
}

// ClassificationResult is derived from a CanonicalRecord and never persisted
// on its own.
type ClassificationResult struct {
	NewConstruction bool
	Rule            string // "flag", "recency" or "value-delta"
}

// Permit is an inbound permit-style record produced by an external collector.
type Permit struct {
	Source        string
	PermitNumber  string
	Address       string
	City          string
	Zip           string
	ApplicantName string
	Description   string
	IssuedDate    string
}

// EnrichedLead joins a permit (or a classified extract record) with the
// matched property record. OriginalAddress is the key the durable store
// upserts on: it is the input address string as received, never the
// jurisdiction's canonical form, so downstream joins on the original string
// keep working.
type EnrichedLead struct {
	OriginalAddress string

	JurisdictionID   string
	AccountNumber    string
	OwnerName        string
	SitusAddress     string
	LandValue        float64
	ImprovementValue float64
	YearBuilt        int

	NewConstruction bool
	MatchRule       string

	PermitNumber  string
	PermitSource  string
	ApplicantName string
	OwnerBuilder  bool
	MatchReason   string
}

// IngestionState is the per-jurisdiction checkpoint owned by the change
// detector. It is written only after a fully successful pass.
type IngestionState struct {
	JurisdictionID   string
	LastDigest       string
	LastRun          time.Time
	RecordsProcessed int64
	RecordsEmitted   int64
}

// RunSummary carries the per-run counters surfaced at the end of every pass.
type RunSummary struct {
	Processed int
	Skipped   int
	Emitted   int
	Matched   int
	Unmatched int
	Failed    int
}
