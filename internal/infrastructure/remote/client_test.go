package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ParcelScanner/internal/config"
	"ParcelScanner/internal/jurisdiction"
)

func lookupConfig(t *testing.T, endpoint, dialect string) jurisdiction.Config {
	t.Helper()
	cfg, err := jurisdiction.FromConfig(config.JurisdictionConfig{
		ID:       "tarrant",
		Endpoint: endpoint,
		Dialect:  dialect,
		FieldMap: map[string]string{
			"Account_Num":       jurisdiction.FieldAccountNumber,
			"Owner_Name":        jurisdiction.FieldOwnerName,
			"Situs_Address":     jurisdiction.FieldSitusAddress,
			"Improvement_Value": jurisdiction.FieldImprovementValue,
		},
		QueryFields: config.QueryFieldsConfig{
			Address: "Situs_Address",
			Returns: []string{"Account_Num", "Owner_Name", "Situs_Address", "Improvement_Value"},
		},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return cfg
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestLookupMatchesCandidate(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"records":[
			{"Account_Num":"9","Owner_Name":"OTHER","Situs_Address":"9999 LIPSCOMB ST"},
			{"Account_Num":"04211517","Owner_Name":"HIGGINTOWER ROBERT","Situs_Address":"2412 LIPSCOMB ST","Improvement_Value":251300}
		]}`))
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "json")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	rec, err := client.Lookup(context.Background(), "2412 Lipscomb Street", cfg)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a match")
	}
	if rec.AccountNumber != "04211517" {
		t.Fatalf("matched wrong candidate: %+v", rec)
	}
	if rec.ImprovementValue != 251300 {
		t.Fatalf("improvement value = %v", rec.ImprovementValue)
	}

	query, _ := gotQuery.Load().(string)
	if !strings.Contains(query, "where=") || !strings.Contains(query, "fields=") {
		t.Fatalf("endpoint template not rendered: %q", query)
	}
	// The predicate searches the street core with the suffix stripped.
	if !strings.Contains(query, "2412+LIPSCOMB") {
		t.Fatalf("predicate missing street core: %q", query)
	}
	if strings.Contains(query, "LIPSCOMB+ST") {
		t.Fatalf("predicate must drop the street-type suffix: %q", query)
	}
}

func TestLookupNoResultIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "json")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	rec, err := client.Lookup(context.Background(), "1 Nowhere Ln", cfg)
	if err != nil {
		t.Fatalf("no-result lookup must not error: %v", err)
	}
	if rec != nil {
		t.Fatalf("rec = %+v, want nil", rec)
	}
}

func TestLookupRetriesThenFails(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "json")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	rec, err := client.Lookup(context.Background(), "2412 Lipscomb St", cfg)
	if err == nil {
		t.Fatal("exhausted retries must surface an error")
	}
	if rec != nil {
		t.Fatalf("rec = %+v, want nil", rec)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("server saw %d calls, want 3", got)
	}
}

func TestLookupRecoversWithinRetryBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try again", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"Account_Num":"1","Situs_Address":"2412 LIPSCOMB ST"}]`))
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "json")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	rec, err := client.Lookup(context.Background(), "2412 Lipscomb St", cfg)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec == nil || rec.AccountNumber != "1" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestLookupClientErrorIsFinal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad predicate", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "json")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	if _, err := client.Lookup(context.Background(), "2412 Lipscomb St", cfg); err == nil {
		t.Fatal("4xx must surface an error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx must not be retried, server saw %d calls", got)
	}
}

func TestLookupHTMLDialect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<table>
		  <tr><th>Account_Num</th><th>Situs_Address</th></tr>
		  <tr><td>77</td><td>500 MAGNOLIA AVE</td></tr>
		</table>`))
	}))
	defer server.Close()

	cfg := lookupConfig(t, server.URL+"/search?where={where}&fields={fields}", "html")
	client := NewClient(server.Client(), nil, fastPolicy(), nil, nil)

	rec, err := client.Lookup(context.Background(), "500 Magnolia Avenue", cfg)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec == nil || rec.AccountNumber != "77" {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestLookupWithoutEndpoint(t *testing.T) {
	t.Parallel()

	cfg := lookupConfig(t, "", "json")
	client := NewClient(nil, nil, fastPolicy(), nil, nil)
	if _, err := client.Lookup(context.Background(), "1 Elm St", cfg); err == nil {
		t.Fatal("missing endpoint is a configuration error")
	}
}
