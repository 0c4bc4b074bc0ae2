// This file implements the Strategy Pattern for advancing recurring due dates.
// Each frequency has its own strategy that knows how to step a due date
// forward by one period.

package core

import "fmt"

// DueDateAdvancer steps a due date forward by one period of its frequency.
type DueDateAdvancer interface {
	Next(due Date) Date
}

// MonthlyAdvancer keeps the day of month, clamped to shorter months.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(due Date) Date { return AddMonthsClamped(due, 1) }

// YearlyAdvancer keeps month and day; Feb 29 falls back to Feb 28.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(due Date) Date { return AddMonthsClamped(due, 12) }

// WeeklyAdvancer adds seven days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(due Date) Date { return DateOf(due.AddDate(0, 0, 7)) }

var advancers = map[Frequency]DueDateAdvancer{
	Monthly: MonthlyAdvancer{},
	Yearly:  YearlyAdvancer{},
	Weekly:  WeeklyAdvancer{},
}

// GetAdvancer returns the strategy for a frequency.
func GetAdvancer(f Frequency) (DueDateAdvancer, error) {
	a, ok := advancers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return a, nil
}

// NextOccurrence returns the first due date of s on or after from. Non
// recurring subscriptions simply return their effective due date.
func (s Subscription) NextOccurrence(from Date) (Date, error) {
	due := s.EffectiveDueDate()
	if !s.Recurring || !due.Time.Before(from.Time) {
		return due, nil
	}
	every := s.Every
	if every == "" {
		every = Monthly
	}
	a, err := GetAdvancer(every)
	if err != nil {
		return due, err
	}
	// Step from the anchor day so a Jan 31 subscription stays on the 31st where possible.
	anchor := s.DueDate
	if anchor.IsZero() {
		anchor = due
	}
	n := 0
	for due.Time.Before(from.Time) {
		n++
		switch every {
		case Monthly:
			due = AddMonthsClamped(anchor, n)
		case Yearly:
			due = AddMonthsClamped(anchor, 12*n)
		default:
			due = a.Next(due)
		}
	}
	return due, nil
}

// BilledIn reports whether s owes a bill in the month [monthStart, monthEnd]:
// either its effective due date is not after monthEnd, or its schedule,
// stepped from the original due date, has an occurrence inside the month.
// The second case keeps a month's bill after the due date has been rolled.
func (s Subscription) BilledIn(monthStart, monthEnd Date) bool {
	if !s.EffectiveDueDate().After(monthEnd.Time) {
		return true
	}
	if !s.Recurring || s.DueDate.IsZero() || s.DueDate.After(monthEnd.Time) {
		return false
	}
	anchored := s
	anchored.NextDueDate = Date{}
	occ, err := anchored.NextOccurrence(monthStart)
	return err == nil && !occ.After(monthEnd.Time)
}
