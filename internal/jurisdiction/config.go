// Package jurisdiction holds the validated per-jurisdiction schema configs
// and the resolver that maps cities and postal codes onto them.
package jurisdiction

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"ParcelScanner/internal/address"
	"ParcelScanner/internal/config"
	"ParcelScanner/internal/domain"
)

// Canonical field names, the targets of every jurisdiction's field mapping.
const (
	FieldAccountNumber         = "account_number"
	FieldOwnerName             = "owner_name"
	FieldSitusAddress          = "situs_address"
	FieldSitusCity             = "situs_city"
	FieldSitusZip              = "situs_zip"
	FieldLandValue             = "land_value"
	FieldImprovementValue      = "improvement_value"
	FieldPriorImprovementValue = "prior_improvement_value"
	FieldYearBuilt             = "year_built"
	FieldNewConstruction       = "new_construction"
	FieldPropertyClass         = "property_class"
)

const (
	defaultChunkSize = 100000
	defaultRecency   = 2
	defaultDialect   = "json"
)

var defaultAffirmatives = []string{"Y", "YES", "TRUE", "1", "NEW"}

var supportedEncodings = map[string]bool{
	"":             true,
	"utf-8":        true,
	"utf8":         true,
	"windows-1252": true,
	"cp1252":       true,
	"latin-1":      true,
	"iso-8859-1":   true,
}

var supportedDialects = map[string]bool{"json": true, "html": true}

// Filters are the declarative row predicates applied during streaming.
type Filters struct {
	AllowedClasses      []string
	MinImprovementValue float64
	RecencyYears        int
}

// QueryFields names the wire fields used against the jurisdiction's remote
// record service.
type QueryFields struct {
	Address string
	Returns []string
}

// Config is one jurisdiction's validated, immutable schema config. Loaded at
// startup and never mutated afterwards.
type Config struct {
	ID               string
	Name             string
	Endpoint         string
	Dialect          string
	Delimiter        rune
	Encoding         string
	ChunkSize        int
	Cities           []string
	PostalCodes      []string
	FieldMap         map[string]string // source column -> canonical field
	Filters          Filters
	AffirmativeFlags []string
	QueryFields      QueryFields

	allowedClasses map[string]bool
	affirmatives   map[string]bool
}

// FromConfig validates a declarative jurisdiction entry and fills defaults.
// Invalid entries are configuration errors and fail fast.
func FromConfig(jc config.JurisdictionConfig) (Config, error) {
	if strings.TrimSpace(jc.ID) == "" {
		return Config{}, fmt.Errorf("jurisdiction entry missing id")
	}
	if len(jc.FieldMap) == 0 {
		return Config{}, fmt.Errorf("jurisdiction %s: empty field map", jc.ID)
	}

	mapped := map[string]bool{}
	for _, canonical := range jc.FieldMap {
		mapped[canonical] = true
	}
	for _, required := range []string{FieldAccountNumber, FieldSitusAddress} {
		if !mapped[required] {
			return Config{}, fmt.Errorf("jurisdiction %s: field map does not produce %s", jc.ID, required)
		}
	}

	if !supportedEncodings[strings.ToLower(jc.Encoding)] {
		return Config{}, fmt.Errorf("jurisdiction %s: unsupported encoding %q", jc.ID, jc.Encoding)
	}

	dialect := jc.Dialect
	if dialect == "" {
		dialect = defaultDialect
	}
	if !supportedDialects[dialect] {
		return Config{}, fmt.Errorf("jurisdiction %s: unsupported dialect %q", jc.ID, jc.Dialect)
	}
	if jc.Endpoint != "" && jc.QueryFields.Address == "" {
		return Config{}, fmt.Errorf("jurisdiction %s: endpoint set but queryFields.address missing", jc.ID)
	}

	delimiter := '|'
	if jc.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(jc.Delimiter)
		if size != len(jc.Delimiter) {
			return Config{}, fmt.Errorf("jurisdiction %s: delimiter must be a single character", jc.ID)
		}
		delimiter = r
	}

	chunkSize := jc.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	recency := jc.Filters.RecencyYears
	if recency <= 0 {
		recency = defaultRecency
	}
	affirmatives := jc.AffirmativeFlags
	if len(affirmatives) == 0 {
		affirmatives = defaultAffirmatives
	}

	c := Config{
		ID:          jc.ID,
		Name:        jc.Name,
		Endpoint:    jc.Endpoint,
		Dialect:     dialect,
		Delimiter:   delimiter,
		Encoding:    strings.ToLower(jc.Encoding),
		ChunkSize:   chunkSize,
		Cities:      jc.Cities,
		PostalCodes: jc.PostalCodes,
		FieldMap:    jc.FieldMap,
		Filters: Filters{
			AllowedClasses:      jc.Filters.AllowedClasses,
			MinImprovementValue: jc.Filters.MinImprovementValue,
			RecencyYears:        recency,
		},
		AffirmativeFlags: affirmatives,
		QueryFields: QueryFields{
			Address: jc.QueryFields.Address,
			Returns: jc.QueryFields.Returns,
		},
		allowedClasses: map[string]bool{},
		affirmatives:   map[string]bool{},
	}
	for _, class := range jc.Filters.AllowedClasses {
		c.allowedClasses[strings.ToUpper(strings.TrimSpace(class))] = true
	}
	for _, flag := range affirmatives {
		c.affirmatives[strings.ToUpper(strings.TrimSpace(flag))] = true
	}
	return c, nil
}

// Canonicalize maps a raw source-named record onto the canonical shape. Both
// the stream ingestor and the remote adapter funnel through here, so the two
// ingestion paths converge on one record shape.
func (c Config) Canonicalize(raw map[string]string) domain.CanonicalRecord {
	vals := map[string]string{}
	for source, canonical := range c.FieldMap {
		if v, ok := raw[source]; ok {
			if v = strings.TrimSpace(v); v != "" {
				vals[canonical] = v
			}
		}
	}

	rec := domain.CanonicalRecord{
		JurisdictionID:      c.ID,
		AccountNumber:       vals[FieldAccountNumber],
		OwnerName:           vals[FieldOwnerName],
		SitusAddress:        vals[FieldSitusAddress],
		SitusCity:           vals[FieldSitusCity],
		SitusZip:            vals[FieldSitusZip],
		NewConstructionFlag: vals[FieldNewConstruction],
		PropertyClass:       vals[FieldPropertyClass],
	}

	parts := address.Parse(rec.SitusAddress)
	rec.SitusNumber = parts.Number
	rec.SitusStreet = parts.Street
	rec.SitusSuffix = parts.Suffix

	rec.LandValue, _ = parseMoney(vals[FieldLandValue])
	rec.ImprovementValue, _ = parseMoney(vals[FieldImprovementValue])
	if prior, ok := parseMoney(vals[FieldPriorImprovementValue]); ok {
		rec.PriorImprovementValue = &prior
	}
	rec.YearBuilt = parseYear(vals[FieldYearBuilt])

	return rec
}

// Accept applies the jurisdiction's filter predicates. An empty allow list
// accepts every class.
func (c Config) Accept(rec domain.CanonicalRecord) bool {
	if len(c.allowedClasses) == 0 {
		return true
	}
	return c.allowedClasses[strings.ToUpper(strings.TrimSpace(rec.PropertyClass))]
}

// Affirmative reports whether a raw new-construction flag value counts as set.
func (c Config) Affirmative(flag string) bool {
	return c.affirmatives[strings.ToUpper(strings.TrimSpace(flag))]
}

// parseMoney tolerates currency punctuation; failures mean "value absent".
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseYear(s string) int {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y <= 0 {
		return 0
	}
	return y
}
