package memory

import (
	"context"
	"fmt"
	"sync"

	"carteira/internal/sheets"
)

// Store keeps exported rows in memory. The worker uses it when no
// spreadsheet is configured, and tests use it as a fake exporter.
type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
	fail error
}

var _ sheets.TransactionExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, r sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.rows = append(s.rows, r)
	// +1 for the header row
	return fmt.Sprintf("memory!A%d", len(s.rows)+1), nil
}

// FailWith makes subsequent appends return err; nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
