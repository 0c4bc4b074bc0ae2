package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"carteira/internal/core"
	ports "carteira/internal/sheets"
)

// fakeSheets is a minimal stand-in for the Sheets v4 REST API.
type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	appended [][]any
	headers  int
	calls    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		sheets := make([]map[string]any, 0, len(f.tabs))
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct{ Title string } `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
		}
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.headers++
		io.Copy(io.Discard, r.Body)
		json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{
			"updatedRange": "'2025 Transações'!A2:H2",
		}})
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newTestExporter(t *testing.T, f *fakeSheets) *Exporter {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	exp, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return exp
}

func TestExporter_AppendCreatesYearTabOnce(t *testing.T) {
	f := &fakeSheets{}
	exp := newTestExporter(t, f)
	ctx := context.Background()

	row := ports.Row{
		TransactionID: 42,
		Date:          core.NewDate(2025, 6, 9),
		Owner:         "Ana",
		Name:          "Mercado",
		Type:          core.Expense,
		Category:      core.CategoryFood,
		Amount:        core.Money{Cents: 12345},
	}
	ref, err := exp.AppendTransaction(ctx, row)
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if ref != "'2025 Transações'!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := exp.AppendTransaction(ctx, row); err != nil {
		t.Fatalf("second AppendTransaction: %v", err)
	}

	if len(f.tabs) != 1 || f.tabs[0] != "2025 Transações" {
		t.Errorf("tabs = %v", f.tabs)
	}
	if f.headers != 1 {
		t.Errorf("header written %d times, want 1", f.headers)
	}
	if len(f.appended) != 2 {
		t.Fatalf("appended %d rows, want 2", len(f.appended))
	}
	if got := f.appended[0][6]; got != "-123.45" {
		t.Errorf("amount cell = %#v", got)
	}
}

func TestExporter_ExistingTabIsReused(t *testing.T) {
	f := &fakeSheets{tabs: []string{"2024 Transações"}}
	exp := newTestExporter(t, f)

	_, err := exp.AppendTransaction(context.Background(), ports.Row{TransactionID: 1, Date: core.NewDate(2024, 12, 31), Type: core.Deposit, Amount: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	if len(f.tabs) != 1 || f.headers != 0 {
		t.Errorf("existing tab should not be recreated: tabs=%v headers=%d", f.tabs, f.headers)
	}
}

func TestExporter_RejectsUndatedRow(t *testing.T) {
	exp := newTestExporter(t, &fakeSheets{})
	if _, err := exp.AppendTransaction(context.Background(), ports.Row{TransactionID: 1}); err == nil {
		t.Error("expected error for a row without date")
	}
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{}); err == nil || !strings.Contains(err.Error(), "spreadsheet") {
		t.Errorf("missing spreadsheet id error = %v", err)
	}
	if _, err := New(ctx, Config{SpreadsheetID: "x"}); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("missing credentials error = %v", err)
	}
	if _, err := New(ctx, Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}); err == nil {
		t.Error("unreadable credentials file should fail")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transações", 2025, "2025 Transações"},
		{"  Gastos ", 2024, "2024 Gastos"},
		{"", 2023, "2023"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
	if got := quoteSheet("Ana's"); got != "'Ana''s'" {
		t.Errorf("quoteSheet = %q", got)
	}
}
