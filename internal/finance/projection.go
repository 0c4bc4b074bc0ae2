package finance

import (
	"carteira/internal/core"
)

// Projection is the linear month-end forecast.
type Projection struct {
	CurrentDay                 int        `json:"currentDay"`
	DaysInMonth                int        `json:"daysInMonth"`
	DailyAverageExpense        core.Money `json:"dailyAverageExpense"`
	ProjectedExpenses          core.Money `json:"projectedExpenses"`
	ExpectedSalaryRemaining    core.Money `json:"expectedSalaryRemaining"`
	ProjectedIncome            core.Money `json:"projectedIncome"`
	NextMonthProjectedExpenses core.Money `json:"nextMonthProjectedExpenses"`
	ProjectedBalance           core.Money `json:"projectedBalance"`
}

// Project extrapolates the remaining days of the month from the daily average
// expense, adds salary still expected and nets out next month's obligations.
func Project(t Totals, currentDay, daysInMonth int, nextMonthObligations core.Money) Projection {
	if currentDay > daysInMonth {
		currentDay = daysInMonth
	}
	if currentDay < 0 {
		currentDay = 0
	}
	p := Projection{CurrentDay: currentDay, DaysInMonth: daysInMonth}

	p.ProjectedExpenses = t.ExpensesTotal
	if currentDay > 0 {
		p.DailyAverageExpense = core.Money{Cents: divRound(t.ExpensesTotal.Cents, int64(currentDay))}
		remaining := int64(daysInMonth - currentDay)
		// Rounded once, from the unrounded daily average.
		p.ProjectedExpenses = t.ExpensesTotal.Add(core.Money{Cents: divRound(t.ExpensesTotal.Cents*remaining, int64(currentDay))})
	}

	p.ExpectedSalaryRemaining = t.ExpectedSalaryFromProfiles.Sub(t.Salary)
	if p.ExpectedSalaryRemaining.Cents < 0 {
		p.ExpectedSalaryRemaining = core.Money{}
	}
	p.ProjectedIncome = t.IncomeTotal.Add(p.ExpectedSalaryRemaining)
	p.NextMonthProjectedExpenses = nextMonthObligations
	p.ProjectedBalance = p.ProjectedIncome.
		Sub(p.ProjectedExpenses).
		Sub(t.Investments).
		Sub(nextMonthObligations)
	return p
}

// NextMonthObligations sums what is already known to fall due in the calendar
// month after monthStart: active subscriptions (by next due date, or the due
// date's day clamped into next month when unset) and installment expenses
// already dated next month.
func NextMonthObligations(subs []core.Subscription, txs []core.Transaction, monthStart core.Date) core.Money {
	next := core.AddMonthsClamped(core.MonthStart(monthStart), 1)
	var total core.Money
	for _, s := range subs {
		if !s.Active {
			continue
		}
		due := s.NextDueDate
		if due.IsZero() {
			day := s.DueDate.Day()
			if last := core.DaysIn(next.Year(), next.Month()); day > last {
				day = last
			}
			due = core.NewDate(next.Year(), int(next.Month()), day)
		}
		if core.SameMonth(due, next) {
			total = total.Add(s.Amount)
		}
	}
	for _, tx := range txs {
		if tx.Type == core.Expense && tx.Installments != nil && core.SameMonth(tx.Date, next) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// divRound divides rounding half away from zero.
func divRound(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	neg := (num < 0) != (den < 0)
	if num < 0 {
		num = -num
	}
	if den < 0 {
		den = -den
	}
	q := (num + den/2) / den
	if neg {
		return -q
	}
	return q
}
