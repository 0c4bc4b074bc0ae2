package finance

import (
	"sort"

	"carteira/internal/core"
)

// SalaryMatchToleranceCents is how far a salary deposit may drift from the
// scheduled value and still count as that payment.
const SalaryMatchToleranceCents = 1

// Point is one day of the running-balance series.
type Point struct {
	Date    core.Date  `json:"date"`
	Balance core.Money `json:"balance"`
}

// BuildSparkline walks days 1..currentDay of the month starting at monthStart
// and accumulates deposits, unreceived scheduled salary, expenses and
// investments into a running balance seeded at zero. Days after currentDay
// are never emitted.
func BuildSparkline(txs []core.Transaction, schedule []ScheduledSalary, monthStart core.Date, currentDay int) []Point {
	monthStart = core.MonthStart(monthStart)
	days := core.DaysIn(monthStart.Year(), monthStart.Month())
	if currentDay > days {
		currentDay = days
	}
	if currentDay <= 0 {
		return []Point{}
	}

	deltas := make([]int64, days+1)
	for _, tx := range txs {
		if !core.SameMonth(tx.Date, monthStart) {
			continue
		}
		switch tx.Type {
		case core.Deposit:
			deltas[tx.Date.Day()] += tx.Amount.Cents
		case core.Expense, core.Investment:
			deltas[tx.Date.Day()] -= tx.Amount.Cents
		}
	}
	for _, s := range UnreceivedSalaries(txs, schedule, monthStart) {
		if s.Day < 1 || s.Day > days {
			continue
		}
		deltas[s.Day] += s.Amount.Cents
	}

	points := make([]Point, 0, currentDay)
	var running int64
	for d := 1; d <= currentDay; d++ {
		running += deltas[d]
		points = append(points, Point{
			Date:    core.NewDate(monthStart.Year(), int(monthStart.Month()), d),
			Balance: core.Money{Cents: running},
		})
	}
	return points
}

// UnreceivedSalaries returns the scheduled payments with no matching salary
// deposit in the month. Each deposit settles at most one scheduled payment.
func UnreceivedSalaries(txs []core.Transaction, schedule []ScheduledSalary, monthStart core.Date) []ScheduledSalary {
	var deposits []core.Transaction
	for _, tx := range txs {
		if tx.Type == core.Deposit && tx.Category == core.CategorySalary && core.SameMonth(tx.Date, monthStart) {
			deposits = append(deposits, tx)
		}
	}
	sort.SliceStable(deposits, func(i, j int) bool {
		if !deposits[i].Date.Equal(deposits[j].Date.Time) {
			return deposits[i].Date.Time.Before(deposits[j].Date.Time)
		}
		return deposits[i].ID < deposits[j].ID
	})

	used := make([]bool, len(deposits))
	var out []ScheduledSalary
	for _, s := range schedule {
		received := false
		for i, dep := range deposits {
			if used[i] {
				continue
			}
			diff := dep.Amount.Cents - s.Amount.Cents
			if diff < 0 {
				diff = -diff
			}
			if diff <= SalaryMatchToleranceCents {
				used[i] = true
				received = true
				break
			}
		}
		if !received {
			out = append(out, s)
		}
	}
	return out
}
