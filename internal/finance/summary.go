package finance

import (
	"sort"
	"time"

	"carteira/internal/core"
)

// Input is everything the engine needs for one family and one month. The
// transaction slice may span from HistoryStart to the end of the following
// month; the engine partitions it itself.
type Input struct {
	Now           time.Time
	Year          int
	Month         time.Month
	Members       []core.User
	Transactions  []core.Transaction
	Subscriptions []core.Subscription
	Profiles      []core.FinancialProfile
	Goals         []core.Goal
}

type Period struct {
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Start       core.Date `json:"start"`
	End         core.Date `json:"end"`
	AsOf        core.Date `json:"asOf"`
	CurrentDay  int       `json:"currentDay"`
	DaysInMonth int       `json:"daysInMonth"`
}

type CategoryStat struct {
	Category         core.Category `json:"category"`
	Total            core.Money    `json:"total"`
	Count            int           `json:"count"`
	ShareBasisPoints int64         `json:"shareBasisPoints"`
}

type UserStat struct {
	UserID           int64      `json:"userId"`
	Name             string     `json:"name"`
	Income           core.Money `json:"income"`
	Expenses         core.Money `json:"expenses"`
	Investments      core.Money `json:"investments"`
	TransactionCount int        `json:"transactionCount"`
}

type UpcomingPayment struct {
	Kind    string     `json:"kind"` // subscription, salary
	Name    string     `json:"name"`
	UserID  int64      `json:"userId"`
	Amount  core.Money `json:"amount"`
	DueDate core.Date  `json:"dueDate"`
}

type GoalProgress struct {
	ID                  int64      `json:"id"`
	UserID              int64      `json:"userId"`
	Name                string     `json:"name"`
	Target              core.Money `json:"target"`
	Saved               core.Money `json:"saved"`
	Remaining           core.Money `json:"remaining"`
	ProgressBasisPoints int64      `json:"progressBasisPoints"`
	Deadline            core.Date  `json:"deadline"`
}

// MonthTotal is a compact income/expense figure for one month of the trend.
type MonthTotal struct {
	Year        int        `json:"year"`
	Month       int        `json:"month"`
	Income      core.Money `json:"income"`
	Expenses    core.Money `json:"expenses"`
	Investments core.Money `json:"investments"`
}

// Summary is the dashboard view of a month. It is built fresh for every
// request and never mutated afterwards.
type Summary struct {
	Period       Period                  `json:"period"`
	Totals       Totals                  `json:"totals"`
	Projection   Projection              `json:"projection"`
	Sparkline    []Point                 `json:"sparkline"`
	Categories   []CategoryStat          `json:"categories"`
	Users        []UserStat              `json:"users"`
	Upcoming     []UpcomingPayment       `json:"upcomingPayments"`
	Goals        []GoalProgress          `json:"goals"`
	Trend        []MonthTotal            `json:"trend"`
	Schedule     []ScheduledSalary       `json:"expectedSalaries"`
	Transactions []ClassifiedTransaction `json:"transactions"`
	Insights     []core.Insight          `json:"insights"`
}

// Engine assembles summaries under a fixed set of options.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.UpcomingWindowDays <= 0 {
		opts.UpcomingWindowDays = DefaultOptions().UpcomingWindowDays
	}
	return &Engine{opts: opts}
}

// Window returns the transaction date range Summarize expects for a month:
// from the start of the recurrence history to the end of the following month.
func Window(year int, month time.Month) (from, to core.Date) {
	start := core.NewDate(year, int(month), 1)
	return HistoryStart(start), core.MonthEnd(core.AddMonthsClamped(start, 1))
}

// CurrentDay is the number of elapsed days of the month as seen from today:
// today's day in the month itself, all days for past months, zero for future ones.
func CurrentDay(monthStart, today core.Date) int {
	switch {
	case core.SameMonth(monthStart, today):
		return today.Day()
	case today.Time.Before(monthStart.Time):
		return 0
	default:
		return core.DaysIn(monthStart.Year(), monthStart.Month())
	}
}

// Summarize runs the whole pipeline: classification and aggregation,
// projection, daily trajectory and the derived breakdowns.
func (e *Engine) Summarize(in Input) Summary {
	monthStart := core.NewDate(in.Year, int(in.Month), 1)
	monthEnd := core.MonthEnd(monthStart)
	historyStart := HistoryStart(monthStart)
	today := core.DateOf(in.Now)
	days := core.DaysIn(monthStart.Year(), monthStart.Month())
	currentDay := CurrentDay(monthStart, today)

	var current, window, nextMonth []core.Transaction
	for _, tx := range in.Transactions {
		d := tx.Date
		if d.Time.Before(historyStart.Time) {
			continue
		}
		if !d.After(monthEnd.Time) {
			window = append(window, tx)
			if !d.Time.Before(monthStart.Time) {
				current = append(current, tx)
			}
			continue
		}
		nextMonth = append(nextMonth, tx)
	}
	sortTransactions(current)

	expected := ResolveExpectedSalary(in.Profiles, monthEnd)
	totals, classified := Aggregate(current, NewHistory(window), expected, in.Subscriptions, monthEnd, e.opts)
	projection := Project(totals, currentDay, days, NextMonthObligations(in.Subscriptions, nextMonth, monthStart))
	schedule := ScheduledSalaries(in.Profiles, monthEnd)

	return Summary{
		Period: Period{
			Year:        in.Year,
			Month:       int(in.Month),
			Start:       monthStart,
			End:         monthEnd,
			AsOf:        today,
			CurrentDay:  projection.CurrentDay,
			DaysInMonth: days,
		},
		Totals:       totals,
		Projection:   projection,
		Sparkline:    BuildSparkline(current, schedule, monthStart, currentDay),
		Categories:   categoryStats(current),
		Users:        userStats(in.Members, current),
		Upcoming:     e.upcoming(in, today, current, schedule, monthStart),
		Goals:        goalProgress(in.Goals),
		Trend:        trend(window, monthStart),
		Schedule:     orEmpty(schedule),
		Transactions: classified,
		Insights:     []core.Insight{},
	}
}

func sortTransactions(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.Time.Before(txs[j].Date.Time)
		}
		return txs[i].ID < txs[j].ID
	})
}

func categoryStats(current []core.Transaction) []CategoryStat {
	byCat := make(map[core.Category]*CategoryStat)
	var total int64
	for _, tx := range current {
		if tx.Type != core.Expense {
			continue
		}
		st, ok := byCat[tx.Category]
		if !ok {
			st = &CategoryStat{Category: tx.Category}
			byCat[tx.Category] = st
		}
		st.Total = st.Total.Add(tx.Amount)
		st.Count++
		total += tx.Amount.Cents
	}
	out := make([]CategoryStat, 0, len(byCat))
	for _, st := range byCat {
		if total > 0 {
			st.ShareBasisPoints = divRound(st.Total.Cents*10000, total)
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func userStats(members []core.User, current []core.Transaction) []UserStat {
	byUser := make(map[int64]*UserStat, len(members))
	for _, m := range members {
		byUser[m.ID] = &UserStat{UserID: m.ID, Name: m.Name}
	}
	for _, tx := range current {
		st, ok := byUser[tx.UserID]
		if !ok {
			st = &UserStat{UserID: tx.UserID}
			byUser[tx.UserID] = st
		}
		st.TransactionCount++
		switch tx.Type {
		case core.Deposit:
			st.Income = st.Income.Add(tx.Amount)
		case core.Expense:
			st.Expenses = st.Expenses.Add(tx.Amount)
		case core.Investment:
			st.Investments = st.Investments.Add(tx.Amount)
		}
	}
	out := make([]UserStat, 0, len(byUser))
	for _, st := range byUser {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (e *Engine) upcoming(in Input, today core.Date, current []core.Transaction, schedule []ScheduledSalary, monthStart core.Date) []UpcomingPayment {
	horizon := core.DateOf(today.AddDate(0, 0, e.opts.UpcomingWindowDays))
	out := []UpcomingPayment{}
	for _, s := range in.Subscriptions {
		if !s.Active {
			continue
		}
		due, err := s.NextOccurrence(today)
		if err != nil || due.Time.Before(today.Time) || due.After(horizon.Time) {
			continue
		}
		out = append(out, UpcomingPayment{Kind: "subscription", Name: s.Name, UserID: s.UserID, Amount: s.Amount, DueDate: due})
	}
	if core.SameMonth(monthStart, today) {
		for _, s := range UnreceivedSalaries(current, schedule, monthStart) {
			due := core.NewDate(monthStart.Year(), int(monthStart.Month()), s.Day)
			if due.Time.Before(today.Time) || due.After(horizon.Time) {
				continue
			}
			out = append(out, UpcomingPayment{Kind: "salary", Name: s.Label, UserID: s.UserID, Amount: s.Amount, DueDate: due})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Time.Before(out[j].DueDate.Time)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func goalProgress(goals []core.Goal) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		gp := GoalProgress{ID: g.ID, UserID: g.UserID, Name: g.Name, Target: g.Target, Saved: g.Saved, Deadline: g.Deadline}
		gp.Remaining = g.Target.Sub(g.Saved)
		if gp.Remaining.Cents < 0 {
			gp.Remaining = core.Money{}
		}
		if g.Target.Cents > 0 {
			gp.ProgressBasisPoints = divRound(g.Saved.Cents*10000, g.Target.Cents)
			if gp.ProgressBasisPoints > 10000 {
				gp.ProgressBasisPoints = 10000
			}
		}
		out = append(out, gp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// trend totals each month of the recurrence window, oldest first.
func trend(window []core.Transaction, monthStart core.Date) []MonthTotal {
	out := make([]MonthTotal, 0, HistoryMonths+1)
	for i := HistoryMonths; i >= 0; i-- {
		m := core.AddMonthsClamped(monthStart, -i)
		mt := MonthTotal{Year: m.Year(), Month: int(m.Month())}
		for _, tx := range window {
			if !core.SameMonth(tx.Date, m) {
				continue
			}
			switch tx.Type {
			case core.Deposit:
				mt.Income = mt.Income.Add(tx.Amount)
			case core.Expense:
				mt.Expenses = mt.Expenses.Add(tx.Amount)
			case core.Investment:
				mt.Investments = mt.Investments.Add(tx.Amount)
			}
		}
		out = append(out, mt)
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
