package finance

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"carteira/internal/core"
)

func brl(cents int64) core.Money { return core.Money{Cents: cents} }

func tx(id int64, date core.Date, typ core.TransactionType, cat core.Category, name string, cents int64) core.Transaction {
	return core.Transaction{ID: id, UserID: 1, CreatedByID: 1, Name: name, Type: typ, Category: cat, Amount: brl(cents), Date: date}
}

// June 2025 has 30 days.
func juneInput(now time.Time, txs []core.Transaction) Input {
	return Input{
		Now:          now,
		Year:         2025,
		Month:        time.June,
		Members:      []core.User{{ID: 1, Name: "Ana", FamilyID: 1}},
		Transactions: txs,
	}
}

func day(d int) time.Time { return time.Date(2025, time.June, d, 12, 0, 0, 0, time.UTC) }

func TestSummarize_SingleSalaryDeposit(t *testing.T) {
	in := juneInput(day(20), []core.Transaction{
		tx(1, core.NewDate(2025, 6, 5), core.Deposit, core.CategorySalary, "Salário", 500000),
	})
	s := NewEngine(DefaultOptions()).Summarize(in)

	if s.Totals.Salary != brl(500000) {
		t.Errorf("salary = %v, want 5000.00", s.Totals.Salary)
	}
	if s.Totals.ExpectedSalaryFromProfiles != brl(0) {
		t.Errorf("expected salary = %v, want 0", s.Totals.ExpectedSalaryFromProfiles)
	}
	if s.Totals.EffectiveSalaryTotal != brl(500000) {
		t.Errorf("effective salary = %v, want 5000.00", s.Totals.EffectiveSalaryTotal)
	}
	if s.Totals.NetBalance != brl(500000) {
		t.Errorf("net balance = %v, want 5000.00", s.Totals.NetBalance)
	}
	if s.Period.DaysInMonth != 30 || s.Period.CurrentDay != 20 {
		t.Errorf("period = %+v", s.Period)
	}
}

func TestSummarize_MalformedProfileAddsNoSalary(t *testing.T) {
	in := juneInput(day(15), nil)
	in.Profiles = []core.FinancialProfile{
		{UserID: 1, RendaFixa: brl(250000), DiaPagamento: 5, PaymentsMalformed: true},
	}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if s.Totals.ExpectedSalaryFromProfiles != brl(0) || s.Totals.EffectiveSalaryTotal != brl(0) {
		t.Errorf("totals = %+v, want no salary", s.Totals)
	}
	if s.Projection.ExpectedSalaryRemaining != brl(0) {
		t.Errorf("projection = %+v", s.Projection)
	}
	if got := s.Sparkline[len(s.Sparkline)-1].Balance; got != brl(0) {
		t.Errorf("final sparkline balance = %v, want 0", got)
	}
}

func TestSummarize_ExpectedSalaryWithoutTransaction(t *testing.T) {
	in := juneInput(day(15), nil)
	in.Profiles = []core.FinancialProfile{{UserID: 1, RendaFixa: brl(300000), DiaPagamento: 10}}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if s.Totals.ExpectedSalaryFromProfiles != brl(300000) {
		t.Errorf("expected salary = %v, want 3000.00", s.Totals.ExpectedSalaryFromProfiles)
	}
	if s.Totals.EffectiveSalaryTotal != brl(300000) {
		t.Errorf("effective salary = %v, want 3000.00", s.Totals.EffectiveSalaryTotal)
	}
	if s.Totals.IncomeTotal != brl(0) {
		t.Errorf("observed income = %v, want 0", s.Totals.IncomeTotal)
	}
	if s.Projection.ExpectedSalaryRemaining != brl(300000) || s.Projection.ProjectedBalance != brl(300000) {
		t.Errorf("projection = %+v", s.Projection)
	}
	// Unreceived salary shows on its scheduled day.
	if got := s.Sparkline[9].Balance; got != brl(300000) {
		t.Errorf("sparkline day 10 = %v, want 3000.00", got)
	}
	if got := s.Sparkline[8].Balance; got != brl(0) {
		t.Errorf("sparkline day 9 = %v, want 0", got)
	}
}

func TestSummarize_RecurringNetflixIsFixed(t *testing.T) {
	in := juneInput(day(20), []core.Transaction{
		tx(1, core.NewDate(2025, 4, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		tx(2, core.NewDate(2025, 5, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		tx(3, core.NewDate(2025, 6, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
	})
	s := NewEngine(DefaultOptions()).Summarize(in)

	if len(s.Transactions) != 1 {
		t.Fatalf("expected 1 current-month transaction, got %d", len(s.Transactions))
	}
	ct := s.Transactions[0]
	if !ct.Recurring || !ct.Classification.IsFixedExpense {
		t.Errorf("netflix classified %+v recurring=%v, want fixed expense", ct.Classification, ct.Recurring)
	}
	if s.Totals.FixedExpenses != brl(3990) || s.Totals.VariableExpenses != brl(0) {
		t.Errorf("totals = %+v", s.Totals)
	}
}

func TestSummarize_NextMonthSubscriptionWithoutNextDueDate(t *testing.T) {
	in := juneInput(day(10), nil)
	in.Subscriptions = []core.Subscription{{
		ID: 1, UserID: 1, Name: "Academia", Amount: brl(9990),
		DueDate: core.NewDate(2025, 5, 20), Every: core.Monthly, Recurring: true, Active: true,
	}}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if s.Projection.NextMonthProjectedExpenses != brl(9990) {
		t.Errorf("next month obligations = %v, want 99.90", s.Projection.NextMonthProjectedExpenses)
	}
	if s.Totals.SubscriptionsDue != brl(9990) {
		t.Errorf("subscriptions due this month = %v, want 99.90", s.Totals.SubscriptionsDue)
	}
}

func TestSummarize_NetBalanceIdentity(t *testing.T) {
	inputs := []Input{
		juneInput(day(30), nil),
		juneInput(day(18), []core.Transaction{
			tx(1, core.NewDate(2025, 6, 1), core.Deposit, core.CategorySalary, "Salário", 420000),
			tx(2, core.NewDate(2025, 6, 2), core.Deposit, core.CategoryBenefits, "VA", 80000),
			tx(3, core.NewDate(2025, 6, 3), core.Deposit, core.CategoryFreelance, "Logo", 50000),
			tx(4, core.NewDate(2025, 6, 4), core.Expense, core.CategoryFood, "Mercado", 65432),
			tx(5, core.NewDate(2025, 6, 5), core.Investment, core.CategoryInvestments, "CDB", 100000),
		}),
	}
	for i, in := range inputs {
		s := NewEngine(DefaultOptions()).Summarize(in)
		tt := s.Totals
		if tt.NetBalance != tt.IncomeTotal.Sub(tt.ExpensesTotal).Sub(tt.Investments) {
			t.Errorf("case %d: net balance identity broken: %+v", i, tt)
		}
		if tt.IncomeTotal != tt.Salary.Add(tt.Benefits).Add(tt.VariableIncome) {
			t.Errorf("case %d: income identity broken: %+v", i, tt)
		}
		if tt.ExpensesTotal != tt.FixedExpenses.Add(tt.VariableExpenses) {
			t.Errorf("case %d: expense identity broken: %+v", i, tt)
		}
		if tt.EffectiveSalaryTotal.Cents < tt.Salary.Cents || tt.EffectiveSalaryTotal.Cents < tt.ExpectedSalaryFromProfiles.Cents {
			t.Errorf("case %d: effective salary below an operand: %+v", i, tt)
		}
	}

	empty := NewEngine(DefaultOptions()).Summarize(inputs[0])
	if empty.Totals != (Totals{}) {
		t.Errorf("empty input should give zero totals, got %+v", empty.Totals)
	}
}

func TestSummarize_SparklineEndsAtNetWhenSalaryReceived(t *testing.T) {
	in := juneInput(day(12), []core.Transaction{
		tx(1, core.NewDate(2025, 6, 5), core.Deposit, core.CategorySalary, "Salário", 300000),
		tx(2, core.NewDate(2025, 6, 6), core.Expense, core.CategoryFood, "Mercado", 45000),
		tx(3, core.NewDate(2025, 6, 7), core.Investment, core.CategoryInvestments, "Tesouro", 50000),
	})
	in.Profiles = []core.FinancialProfile{{UserID: 1, RendaFixa: brl(300000), DiaPagamento: 5}}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if len(s.Sparkline) != 12 {
		t.Fatalf("sparkline length = %d, want 12", len(s.Sparkline))
	}
	last := s.Sparkline[len(s.Sparkline)-1]
	want := s.Totals.IncomeTotal.Sub(s.Totals.ExpensesTotal).Sub(s.Totals.Investments)
	if last.Balance != want {
		t.Errorf("last balance = %v, want %v", last.Balance, want)
	}
	if last.Date.String() != "2025-06-12" {
		t.Errorf("last date = %s", last.Date)
	}
	if s.Sparkline[4].Balance != brl(300000) {
		t.Errorf("salary should be counted once on day 5, got %v", s.Sparkline[4].Balance)
	}
}

func TestSummarize_SparklineExcludesSubscriptionBills(t *testing.T) {
	in := juneInput(day(20), []core.Transaction{
		tx(1, core.NewDate(2025, 6, 5), core.Deposit, core.CategorySalary, "Salário", 300000),
		tx(2, core.NewDate(2025, 6, 6), core.Expense, core.CategoryFood, "Mercado", 45000),
	})
	in.Subscriptions = []core.Subscription{{
		ID: 1, UserID: 1, Name: "Seguro", Amount: brl(12000),
		DueDate: core.NewDate(2025, 6, 10), Every: core.Monthly, Recurring: true, Active: true,
	}}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if s.Totals.SubscriptionsDue != brl(12000) {
		t.Fatalf("subscriptions due = %v, want 120.00", s.Totals.SubscriptionsDue)
	}
	// The series follows cash movements; an unpaid bill only shows in the totals.
	last := s.Sparkline[len(s.Sparkline)-1].Balance
	if last != brl(255000) {
		t.Errorf("last balance = %v, want 2550.00", last)
	}
	if want := s.Totals.NetBalance.Add(s.Totals.SubscriptionsDue); last != want {
		t.Errorf("last balance = %v, want net balance plus subscription bills %v", last, want)
	}
}

func TestSummarize_CurrentDayByPeriod(t *testing.T) {
	past := juneInput(time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC), nil)
	future := juneInput(time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC), nil)

	if s := NewEngine(DefaultOptions()).Summarize(past); s.Period.CurrentDay != 30 || len(s.Sparkline) != 30 {
		t.Errorf("past month: currentDay=%d sparkline=%d", s.Period.CurrentDay, len(s.Sparkline))
	}
	if s := NewEngine(DefaultOptions()).Summarize(future); s.Period.CurrentDay != 0 || len(s.Sparkline) != 0 {
		t.Errorf("future month: currentDay=%d sparkline=%d", s.Period.CurrentDay, len(s.Sparkline))
	}
}

func TestSummarize_SubscriptionDedupe(t *testing.T) {
	build := func(dedupe bool) Summary {
		in := juneInput(day(20), []core.Transaction{
			tx(1, core.NewDate(2025, 6, 8), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		})
		in.Subscriptions = []core.Subscription{{
			ID: 1, UserID: 1, Name: "NETFLIX", Amount: brl(3990),
			DueDate: core.NewDate(2025, 1, 8), NextDueDate: core.NewDate(2025, 6, 8),
			Every: core.Monthly, Recurring: true, Active: true,
		}}
		return NewEngine(Options{DedupeSubscriptions: dedupe}).Summarize(in)
	}

	if s := build(true); s.Totals.FixedExpenses != brl(3990) || s.Totals.SubscriptionsDue != brl(0) {
		t.Errorf("dedupe: totals = %+v", s.Totals)
	}
	if s := build(false); s.Totals.FixedExpenses != brl(7980) || s.Totals.SubscriptionsDue != brl(3990) {
		t.Errorf("additive: totals = %+v", s.Totals)
	}
}

func TestSummarize_Deterministic(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.NewDate(2025, 4, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		tx(2, core.NewDate(2025, 5, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		tx(3, core.NewDate(2025, 6, 12), core.Expense, core.CategoryEntertainment, "Netflix", 3990),
		tx(4, core.NewDate(2025, 6, 5), core.Deposit, core.CategorySalary, "Salário", 500000),
		tx(5, core.NewDate(2025, 6, 9), core.Expense, core.CategoryFood, "Mercado Bom Preço", 32150),
		tx(6, core.NewDate(2025, 6, 9), core.Expense, core.CategoryHousing, "Aluguel", 180000),
		tx(7, core.NewDate(2025, 7, 3), core.Expense, core.CategoryShopping, "Geladeira 3/10", 35000),
	}
	installments := 10
	txs[6].Installments = &installments

	in := juneInput(day(14), txs)
	in.Subscriptions = []core.Subscription{{ID: 1, UserID: 1, Name: "Spotify", Amount: brl(2190), DueDate: core.NewDate(2025, 2, 15), Every: core.Monthly, Recurring: true, Active: true}}
	in.Profiles = []core.FinancialProfile{{UserID: 1, MultiplePayments: []core.ScheduledPayment{
		{Label: "Salário", Day: 5, Value: brl(500000)},
		{Label: "Adiantamento salarial", Day: 20, Value: brl(100000)},
	}}}
	in.Goals = []core.Goal{{ID: 1, UserID: 1, Name: "Viagem", Target: brl(1000000), Saved: brl(250000)}}

	engine := NewEngine(DefaultOptions())
	first, err := json.Marshal(engine.Summarize(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]core.Transaction(nil), txs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		in.Transactions = shuffled
		again, err := json.Marshal(engine.Summarize(in))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("summary is not deterministic:\n%s\n%s", first, again)
		}
	}
}

func TestSummarize_Breakdowns(t *testing.T) {
	in := juneInput(day(20), []core.Transaction{
		tx(1, core.NewDate(2025, 6, 2), core.Expense, core.CategoryFood, "Mercado", 30000),
		tx(2, core.NewDate(2025, 6, 3), core.Expense, core.CategoryFood, "Feira", 10000),
		tx(3, core.NewDate(2025, 6, 4), core.Expense, core.CategoryHousing, "Luz", 60000),
		tx(4, core.NewDate(2025, 5, 4), core.Expense, core.CategoryHousing, "Luz", 55000),
	})
	in.Transactions[2].UserID = 2
	in.Members = append(in.Members, core.User{ID: 2, Name: "Bruno", FamilyID: 1})
	in.Goals = []core.Goal{{ID: 3, Name: "Reserva", Target: brl(100000), Saved: brl(150000)}}
	in.Subscriptions = []core.Subscription{{ID: 9, Name: "Seguro", Amount: brl(12000), DueDate: core.NewDate(2025, 6, 24), Every: core.Monthly, Recurring: true, Active: true}}
	s := NewEngine(DefaultOptions()).Summarize(in)

	if len(s.Categories) != 2 || s.Categories[0].Category != core.CategoryHousing || s.Categories[0].ShareBasisPoints != 6000 {
		t.Errorf("categories = %+v", s.Categories)
	}
	if len(s.Users) != 2 || s.Users[0].Expenses != brl(40000) || s.Users[1].Expenses != brl(60000) {
		t.Errorf("users = %+v", s.Users)
	}
	if len(s.Goals) != 1 || s.Goals[0].ProgressBasisPoints != 10000 || s.Goals[0].Remaining != brl(0) {
		t.Errorf("goals = %+v", s.Goals)
	}
	if len(s.Upcoming) != 1 || s.Upcoming[0].Name != "Seguro" || s.Upcoming[0].DueDate.String() != "2025-06-24" {
		t.Errorf("upcoming = %+v", s.Upcoming)
	}
	if len(s.Trend) != HistoryMonths+1 || s.Trend[2].Expenses != brl(55000) || s.Trend[3].Expenses != brl(100000) {
		t.Errorf("trend = %+v", s.Trend)
	}
}
