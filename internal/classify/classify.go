// Package classify flags canonical property records as new construction.
package classify

import (
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/jurisdiction"
)

// Rule names reported on a positive classification.
const (
	RuleFlag       = "flag"
	RuleRecency    = "recency"
	RuleValueDelta = "value-delta"
)

// Classify applies the priority-ordered heuristic: an authoritative
// jurisdiction flag always beats inference, recency beats the value signal.
// Unparsable numbers were already reduced to "value absent" upstream.
func Classify(rec domain.CanonicalRecord, cfg jurisdiction.Config, currentYear int) domain.ClassificationResult {
	if rec.NewConstructionFlag != "" && cfg.Affirmative(rec.NewConstructionFlag) {
		return domain.ClassificationResult{NewConstruction: true, Rule: RuleFlag}
	}

	if rec.YearBuilt > 0 && rec.YearBuilt >= currentYear-cfg.Filters.RecencyYears {
		return domain.ClassificationResult{NewConstruction: true, Rule: RuleRecency}
	}

	priorAbsent := rec.PriorImprovementValue == nil || *rec.PriorImprovementValue == 0
	if priorAbsent && rec.ImprovementValue > cfg.Filters.MinImprovementValue {
		return domain.ClassificationResult{NewConstruction: true, Rule: RuleValueDelta}
	}

	return domain.ClassificationResult{}
}
