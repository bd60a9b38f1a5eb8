package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"ParcelScanner/internal/app"
	"ParcelScanner/internal/config"
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/logging"
)

func main() {
	extract := flag.String("extract", "", "path to a jurisdiction extract file")
	jurisdictionID := flag.String("jurisdiction", "", "jurisdiction id the extract belongs to")
	permits := flag.String("permits", "", "path to a permit CSV to cross-reference")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	var summary domain.RunSummary
	switch {
	case *extract != "":
		if *jurisdictionID == "" {
			fmt.Fprintln(os.Stderr, "-extract requires -jurisdiction")
			os.Exit(2)
		}
		summary, err = application.ProcessExtract(ctx, *jurisdictionID, *extract)
	case *permits != "":
		var batch []domain.Permit
		batch, err = readPermits(*permits)
		if err == nil {
			summary, err = application.EnrichPermits(ctx, batch)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("processed=%d skipped=%d matched=%d unmatched=%d failed=%d emitted=%d\n",
		summary.Processed, summary.Skipped, summary.Matched,
		summary.Unmatched, summary.Failed, summary.Emitted)
}

// readPermits loads a permit CSV with a header row. Permit acquisition itself
// belongs to the per-city collectors; this loader only bridges their output
// into the enrichment pipeline.
func readPermits(path string) ([]domain.Permit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open permits %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read permit header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var permits []domain.Permit
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read permit row: %w", err)
		}
		permits = append(permits, domain.Permit{
			Source:        field(row, "source"),
			PermitNumber:  field(row, "permit_number"),
			Address:       field(row, "address"),
			City:          field(row, "city"),
			Zip:           field(row, "zip"),
			ApplicantName: field(row, "applicant"),
			Description:   field(row, "description"),
			IssuedDate:    field(row, "issued"),
		})
	}
	return permits, nil
}
