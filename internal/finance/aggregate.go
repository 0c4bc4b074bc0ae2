package finance

import (
	"carteira/internal/core"
)

// Options tunes policy decisions of the engine.
type Options struct {
	// DedupeSubscriptions skips the due-bill of a subscription whose name
	// matches an expense already classified as fixed this month.
	DedupeSubscriptions bool
	// UpcomingWindowDays bounds the upcoming payments list.
	UpcomingWindowDays int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{DedupeSubscriptions: true, UpcomingWindowDays: 7}
}

// Totals are the month's aggregated sums.
type Totals struct {
	Salary                     core.Money `json:"salary"`
	Benefits                   core.Money `json:"benefits"`
	VariableIncome             core.Money `json:"variableIncome"`
	FixedExpenses              core.Money `json:"fixedExpenses"`
	VariableExpenses           core.Money `json:"variableExpenses"`
	Investments                core.Money `json:"investmentsTotal"`
	SubscriptionsDue           core.Money `json:"subscriptionsDue"`
	ExpectedSalaryFromProfiles core.Money `json:"expectedSalaryFromProfiles"`
	EffectiveSalaryTotal       core.Money `json:"effectiveSalaryTotal"`
	IncomeTotal                core.Money `json:"incomeTotal"`
	ExpensesTotal              core.Money `json:"expensesTotal"`
	NetBalance                 core.Money `json:"netBalance"`
}

// ClassifiedTransaction pairs a transaction with its derived classification.
type ClassifiedTransaction struct {
	core.Transaction
	Recurring      bool           `json:"recurring"`
	Classification Classification `json:"classification"`
}

// Aggregate classifies the current month's transactions against the
// recurrence history and folds them into Totals. Active recurring
// subscriptions billed in the month (see core.Subscription.BilledIn) are
// added to fixed expenses in a separate pass.
func Aggregate(current []core.Transaction, history *History, expectedSalary core.Money, subs []core.Subscription, monthEnd core.Date, opts Options) (Totals, []ClassifiedTransaction) {
	subNames := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		if s.Active {
			subNames[fold(s.Name)] = struct{}{}
		}
	}

	var t Totals
	fixedNames := make(map[string]struct{})
	classified := make([]ClassifiedTransaction, 0, len(current))
	for _, tx := range current {
		name := fold(tx.Name)
		_, isSub := subNames[name]
		sig := Signals{
			IsRecurring:    history.IsRecurring(tx),
			IsSubscription: isSub || tx.Category == core.CategorySubscriptions,
		}
		c := Classify(tx.Type, tx.Category, tx.Name, sig)
		switch c.Bucket() {
		case BucketSalary:
			t.Salary = t.Salary.Add(tx.Amount)
		case BucketBenefit:
			t.Benefits = t.Benefits.Add(tx.Amount)
		case BucketVariableIncome:
			t.VariableIncome = t.VariableIncome.Add(tx.Amount)
		case BucketFixedExpense:
			t.FixedExpenses = t.FixedExpenses.Add(tx.Amount)
			fixedNames[name] = struct{}{}
		case BucketVariableExpense:
			t.VariableExpenses = t.VariableExpenses.Add(tx.Amount)
		case BucketInvestment:
			t.Investments = t.Investments.Add(tx.Amount)
		}
		classified = append(classified, ClassifiedTransaction{Transaction: tx, Recurring: sig.IsRecurring, Classification: c})
	}

	monthStart := core.MonthStart(monthEnd)
	for _, s := range subs {
		if !s.Active || !s.Recurring || !s.BilledIn(monthStart, monthEnd) {
			continue
		}
		if opts.DedupeSubscriptions {
			if _, paid := fixedNames[fold(s.Name)]; paid {
				continue
			}
		}
		t.SubscriptionsDue = t.SubscriptionsDue.Add(s.Amount)
	}
	t.FixedExpenses = t.FixedExpenses.Add(t.SubscriptionsDue)

	t.ExpectedSalaryFromProfiles = expectedSalary
	t.EffectiveSalaryTotal = core.Max(t.Salary, expectedSalary)
	t.IncomeTotal = t.Salary.Add(t.Benefits).Add(t.VariableIncome)
	t.ExpensesTotal = t.FixedExpenses.Add(t.VariableExpenses)
	t.NetBalance = t.IncomeTotal.Sub(t.ExpensesTotal).Sub(t.Investments)
	return t, classified
}
