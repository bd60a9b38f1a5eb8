package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ParcelScanner/internal/config"
	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/jurisdiction"
)

func streamConfig(t *testing.T, chunkSize int, encoding string) jurisdiction.Config {
	t.Helper()
	cfg, err := jurisdiction.FromConfig(config.JurisdictionConfig{
		ID:        "tarrant",
		Delimiter: "|",
		Encoding:  encoding,
		ChunkSize: chunkSize,
		FieldMap: map[string]string{
			"Account_Num":       jurisdiction.FieldAccountNumber,
			"Owner_Name":        jurisdiction.FieldOwnerName,
			"Situs_Address":     jurisdiction.FieldSitusAddress,
			"Improvement_Value": jurisdiction.FieldImprovementValue,
			"Property_Class":    jurisdiction.FieldPropertyClass,
		},
		Filters: config.FilterConfig{AllowedClasses: []string{"R"}},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return cfg
}

func TestStreamMapsAndFilters(t *testing.T) {
	t.Parallel()

	extract := strings.Join([]string{
		"Account_Num|Owner_Name|Situs_Address|Improvement_Value|Property_Class",
		"1|DOE JANE|100 ELM ST|250000|R",
		"2|ROE RICHARD|200 OAK AVE|150000|C", // filtered class
		"3||300 PINE DR|90000|R",
		"", // blank line, skipped by the csv reader
	}, "\n")

	cfg := streamConfig(t, 100, "")
	var records []domain.CanonicalRecord
	stats, err := Stream(context.Background(), strings.NewReader(extract), cfg, func(rec domain.CanonicalRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if stats.Processed != 2 || stats.Filtered != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if records[0].AccountNumber != "1" || records[0].ImprovementValue != 250000 {
		t.Fatalf("first record = %+v", records[0])
	}
	if records[1].OwnerName != "" || records[1].AccountNumber != "3" {
		t.Fatalf("second record = %+v", records[1])
	}
}

func TestStreamSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	extract := strings.Join([]string{
		"Account_Num|Situs_Address|Property_Class",
		"1|100 ELM ST|R",
		"|MISSING ACCOUNT|R",
		"2||R",
		"3|300 PINE DR|R",
	}, "\n")

	cfg := streamConfig(t, 100, "")
	var count int
	stats, err := Stream(context.Background(), strings.NewReader(extract), cfg, func(domain.CanonicalRecord) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d records, want 2", count)
	}
	if stats.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", stats.Skipped)
	}
}

func TestStreamChunking(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("Account_Num|Situs_Address|Property_Class\n")
	for i := 0; i < 7; i++ {
		sb.WriteString("10")
		sb.WriteByte(byte('0' + i))
		sb.WriteString("|100 ELM ST|R\n")
	}

	cfg := streamConfig(t, 2, "")
	stats, err := Stream(context.Background(), strings.NewReader(sb.String()), cfg, func(domain.CanonicalRecord) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	// 7 rows at chunk size 2: three full chunks plus the remainder.
	if stats.Chunks != 4 {
		t.Fatalf("chunks = %d, want 4", stats.Chunks)
	}
	if stats.Processed != 7 {
		t.Fatalf("processed = %d, want 7", stats.Processed)
	}
}

func TestStreamDecodesDeclaredEncoding(t *testing.T) {
	t.Parallel()

	// 0xE9 is "é" in windows-1252 and invalid UTF-8 on its own.
	raw := []byte("Account_Num|Owner_Name|Situs_Address|Property_Class\n1|JOS\xE9 GARCIA|100 ELM ST|R\n")

	cfg := streamConfig(t, 100, "windows-1252")
	var owner string
	_, err := Stream(context.Background(), bytes.NewReader(raw), cfg, func(rec domain.CanonicalRecord) error {
		owner = rec.OwnerName
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if owner != "JOSé GARCIA" {
		t.Fatalf("owner = %q", owner)
	}
}

func TestStreamCallbackErrorAborts(t *testing.T) {
	t.Parallel()

	extract := strings.Join([]string{
		"Account_Num|Situs_Address|Property_Class",
		"1|100 ELM ST|R",
		"2|200 OAK AVE|R",
	}, "\n")

	cfg := streamConfig(t, 100, "")
	wantErr := context.DeadlineExceeded
	_, err := Stream(context.Background(), strings.NewReader(extract), cfg, func(domain.CanonicalRecord) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestStreamEmptyFile(t *testing.T) {
	t.Parallel()

	cfg := streamConfig(t, 100, "")
	if _, err := Stream(context.Background(), strings.NewReader(""), cfg, nil); err == nil {
		t.Fatal("empty extract must fail on the header read")
	}
}
