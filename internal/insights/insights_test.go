package insights

import (
	"testing"

	"carteira/internal/core"
	"carteira/internal/finance"
)

func money(c int64) core.Money { return core.Money{Cents: c} }

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		summary   finance.Summary
		wantCodes []string
	}{
		{
			name:      "empty summary",
			summary:   finance.Summary{},
			wantCodes: []string{},
		},
		{
			name: "healthy month",
			summary: finance.Summary{
				Period:     finance.Period{CurrentDay: 10, DaysInMonth: 30},
				Totals:     finance.Totals{IncomeTotal: money(500000), ExpensesTotal: money(100000), VariableExpenses: money(100000)},
				Projection: finance.Projection{ProjectedBalance: money(200000)},
				Categories: []finance.CategoryStat{{Category: core.CategoryFood, Total: money(100000), Count: 4, ShareBasisPoints: 10000}},
			},
			wantCodes: []string{"savings-rate", "top-category"},
		},
		{
			name: "struggling month",
			summary: finance.Summary{
				Period:     finance.Period{CurrentDay: 20, DaysInMonth: 30},
				Totals:     finance.Totals{IncomeTotal: money(100000), ExpensesTotal: money(150000), FixedExpenses: money(120000), VariableExpenses: money(30000)},
				Projection: finance.Projection{ProjectedBalance: money(-80000)},
				Trend: []finance.MonthTotal{
					{Expenses: money(100000)},
					{Expenses: money(150000)},
				},
			},
			wantCodes: []string{"projected-balance-negative", "savings-rate", "expense-trend", "fixed-cost-share"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.summary)
			if got == nil {
				t.Fatal("Generate returned nil")
			}
			if len(got) != len(tt.wantCodes) {
				t.Fatalf("got %d insights %+v, want codes %v", len(got), got, tt.wantCodes)
			}
			for i, code := range tt.wantCodes {
				if got[i].Code != code {
					t.Errorf("insight %d code = %q, want %q", i, got[i].Code, code)
				}
			}
		})
	}
}

func TestSavingsRateLevels(t *testing.T) {
	in, ok := SavingsRate(finance.Summary{Totals: finance.Totals{IncomeTotal: money(100000), ExpensesTotal: money(150000)}})
	if !ok || in.Level != LevelWarning || in.Value != "-50,0%" {
		t.Errorf("overspending insight = %+v", in)
	}
	if _, ok := SavingsRate(finance.Summary{Totals: finance.Totals{IncomeTotal: money(100000), ExpensesTotal: money(90000)}}); ok {
		t.Error("10% savings should not produce an insight")
	}
}

func TestExpenseTrendWaitsForMonthEndOnDecrease(t *testing.T) {
	s := finance.Summary{
		Period: finance.Period{CurrentDay: 12, DaysInMonth: 30},
		Trend:  []finance.MonthTotal{{Expenses: money(100000)}, {Expenses: money(40000)}},
	}
	if _, ok := ExpenseTrend(s); ok {
		t.Error("partial month should not be reported as a decrease")
	}
	s.Period.CurrentDay = 30
	in, ok := ExpenseTrend(s)
	if !ok || in.Level != LevelSuccess {
		t.Errorf("closed month decrease = %+v, %v", in, ok)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatBRL(money(-123456)); got != "-R$ 1234,56" {
		t.Errorf("formatBRL = %q", got)
	}
	if got := formatPercent(1234); got != "12,3%" {
		t.Errorf("formatPercent = %q", got)
	}
	if got := categoryLabel(core.CategoryFood); got != "Food" {
		t.Errorf("categoryLabel = %q", got)
	}
}
