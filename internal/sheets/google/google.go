package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "carteira/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string // base name; the year is prefixed per row date
	CredentialsJSON string
	CredentialsFile string
}

// Exporter appends transaction rows to yearly tabs of a Google spreadsheet,
// e.g. "2025 Transações".
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu       sync.Mutex
	prepared map[string]bool // tabs known to exist with a header
}

var _ ports.TransactionExporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)

	return newExporter(svc, cfg), nil
}

func newExporter(svc *gsheet.Service, cfg Config) *Exporter {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transações"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		prepared:      make(map[string]bool),
	}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// AppendTransaction appends r to the tab of the row's year, creating the tab
// and its header on first use.
func (e *Exporter) AppendTransaction(ctx context.Context, r ports.Row) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if r.Date.IsZero() {
		return "", errors.New("row has no date")
	}
	tab := yearPrefixedName(e.sheetBase, r.Date.Year())
	if err := e.prepareTab(ctx, tab); err != nil {
		return "", err
	}

	vr := &gsheet.ValueRange{Values: [][]any{r.Values()}}
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, quoteSheet(tab)+"!A:H", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", tab, err)
	}

	ref := tab
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transaction exported to Google Sheets",
		"transaction_id", r.TransactionID,
		"range", ref)
	return ref, nil
}

// prepareTab makes sure the yearly tab exists and starts with the header row.
func (e *Exporter) prepareTab(ctx context.Context, tab string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prepared[tab] {
		return nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}}}
		if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("create tab %s: %w", tab, err)
		}
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		vr := &gsheet.ValueRange{Values: [][]any{header}}
		if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, quoteSheet(tab)+"!A1:H1", vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header in %s: %w", tab, err)
		}
		slog.InfoContext(ctx, "Created yearly export tab", "tab", tab)
	}

	e.prepared[tab] = true
	return nil
}

func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
