package finance

import (
	"sort"

	"carteira/internal/core"
)

const (
	// HistoryMonths is the trailing window scanned for recurrence.
	HistoryMonths = 3
	// RecurrenceMinMatches is how many earlier look-alikes make a transaction recurring.
	RecurrenceMinMatches = 2
	// AmountTolerancePercent bounds the amount drift between look-alikes.
	AmountTolerancePercent = 20
)

type indexedTx struct {
	tx     core.Transaction
	name   string
	tokens []string
}

// History indexes a recurrence window by category so a candidate is only
// compared with transactions that can possibly match.
type History struct {
	byCategory map[core.Category][]indexedTx
}

// NewHistory builds the index. Entries are ordered by date then ID so the scan
// is deterministic regardless of input order.
func NewHistory(window []core.Transaction) *History {
	h := &History{byCategory: make(map[core.Category][]indexedTx)}
	for _, tx := range window {
		name := fold(tx.Name)
		h.byCategory[tx.Category] = append(h.byCategory[tx.Category], indexedTx{tx: tx, name: name, tokens: tokens(name)})
	}
	for _, list := range h.byCategory {
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].tx.Date.Equal(list[j].tx.Date.Time) {
				return list[i].tx.Date.Time.Before(list[j].tx.Date.Time)
			}
			return list[i].tx.ID < list[j].tx.ID
		})
	}
	return h
}

// IsRecurring reports whether at least RecurrenceMinMatches transactions dated
// strictly before the candidate look like it: same folded name and category, or
// same category with a close amount and a shared name token.
func (h *History) IsRecurring(candidate core.Transaction) bool {
	if h == nil {
		return false
	}
	name := fold(candidate.Name)
	toks := tokens(name)
	matches := 0
	for _, prev := range h.byCategory[candidate.Category] {
		if !prev.tx.Date.Time.Before(candidate.Date.Time) {
			// sorted by date: nothing later can qualify
			break
		}
		if candidate.ID != 0 && prev.tx.ID == candidate.ID {
			continue
		}
		if prev.name == name || (withinTolerance(prev.tx.Amount, candidate.Amount) && shareToken(prev.tokens, toks)) {
			matches++
			if matches >= RecurrenceMinMatches {
				return true
			}
		}
	}
	return false
}

// IsRecurring is the one-shot form of History.IsRecurring.
func IsRecurring(candidate core.Transaction, window []core.Transaction) bool {
	return NewHistory(window).IsRecurring(candidate)
}

// withinTolerance reports |prev - cand| <= 20% of cand using integer cents.
func withinTolerance(prev, cand core.Money) bool {
	diff := prev.Cents - cand.Cents
	if diff < 0 {
		diff = -diff
	}
	base := cand.Cents
	if base < 0 {
		base = -base
	}
	return diff*100 <= base*AmountTolerancePercent
}

// HistoryStart returns the first day of the recurrence window for a month.
func HistoryStart(monthStart core.Date) core.Date {
	return core.AddMonthsClamped(core.MonthStart(monthStart), -HistoryMonths)
}
