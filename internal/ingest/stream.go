package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/jurisdiction"
)

// Stats summarizes one streaming pass.
type Stats struct {
	Processed int // rows mapped and offered to the caller
	Skipped   int // malformed rows dropped, never fatal
	Filtered  int // rows rejected by the jurisdiction's predicates
	Chunks    int // chunks consumed; at most one is resident at a time
}

// Stream reads a delimited extract in chunks of cfg.ChunkSize rows, renames
// columns per the jurisdiction's field map, applies its filter predicates and
// hands each accepted canonical record to fn. The pass is finite and not
// restartable; re-invoke to start over. An error returned by fn aborts the
// stream.
func Stream(ctx context.Context, r io.Reader, cfg jurisdiction.Config, fn func(domain.CanonicalRecord) error) (Stats, error) {
	var stats Stats

	decoded, err := decodeReader(r, cfg.Encoding)
	if err != nil {
		return stats, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = cfg.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	chunk := make([][]string, 0, cfg.ChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		stats.Chunks++
		for _, row := range chunk {
			rec, ok := canonicalRow(header, row, cfg)
			if !ok {
				stats.Skipped++
				continue
			}
			if !cfg.Accept(rec) {
				stats.Filtered++
				continue
			}
			stats.Processed++
			if err := fn(rec); err != nil {
				return err
			}
		}
		chunk = chunk[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("read extract row: %w", err)
		}

		chunk = append(chunk, row)
		if len(chunk) >= cfg.ChunkSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// canonicalRow maps one raw row onto the canonical shape. Rows that cannot
// carry an identity (no account, no address) are malformed.
func canonicalRow(header, row []string, cfg jurisdiction.Config) (domain.CanonicalRecord, bool) {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			raw[name] = row[i]
		}
	}
	rec := cfg.Canonicalize(raw)
	if rec.AccountNumber == "" || rec.SitusAddress == "" {
		return domain.CanonicalRecord{}, false
	}
	return rec, true
}

// decodeReader wraps r with the jurisdiction's declared text encoding.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "latin-1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported extract encoding %q", encoding)
	}
}
