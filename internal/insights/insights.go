// Package insights derives short advisory messages from a monthly summary.
// Every rule is a pure function of the summary so insights are as
// deterministic as the summary itself.
package insights

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/finance"
)

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
)

// Thresholds in basis points.
const (
	GoodSavingsRate   = 2000
	TrendChangeAlert  = 2000
	HighFixedCostRate = 6000
)

// Rule inspects a summary and returns at most one insight.
type Rule func(s finance.Summary) (core.Insight, bool)

// DefaultRules is the ordered rule set used by Generate.
var DefaultRules = []Rule{
	NegativeProjection,
	SavingsRate,
	TopCategory,
	ExpenseTrend,
	FixedCostShare,
}

// Generate runs the default rules in order.
func Generate(s finance.Summary) []core.Insight {
	return Apply(s, DefaultRules...)
}

// Apply runs the given rules in order and collects their insights.
func Apply(s finance.Summary, rules ...Rule) []core.Insight {
	out := []core.Insight{}
	for _, r := range rules {
		if in, ok := r(s); ok {
			out = append(out, in)
		}
	}
	return out
}

// NegativeProjection warns when the month is projected to close in the red.
func NegativeProjection(s finance.Summary) (core.Insight, bool) {
	p := s.Projection
	if p.ProjectedBalance.Cents >= 0 {
		return core.Insight{}, false
	}
	return core.Insight{
		Level:   LevelWarning,
		Code:    "projected-balance-negative",
		Title:   "Saldo projetado negativo",
		Message: fmt.Sprintf("No ritmo atual o mês deve fechar com %s, já contando %s de compromissos do próximo mês.", formatBRL(p.ProjectedBalance), formatBRL(p.NextMonthProjectedExpenses)),
		Value:   formatBRL(p.ProjectedBalance),
	}, true
}

// SavingsRate reports the share of income left after expenses and investments.
func SavingsRate(s finance.Summary) (core.Insight, bool) {
	t := s.Totals
	if t.IncomeTotal.Cents <= 0 {
		return core.Insight{}, false
	}
	saved := t.IncomeTotal.Sub(t.ExpensesTotal)
	rate := basisPoints(saved.Cents, t.IncomeTotal.Cents)
	switch {
	case rate >= GoodSavingsRate:
		return core.Insight{
			Level:   LevelSuccess,
			Code:    "savings-rate",
			Title:   "Boa taxa de poupança",
			Message: fmt.Sprintf("Você está guardando %s da renda do mês.", formatPercent(rate)),
			Value:   formatPercent(rate),
		}, true
	case rate < 0:
		return core.Insight{
			Level:   LevelWarning,
			Code:    "savings-rate",
			Title:   "Gastos acima da renda",
			Message: fmt.Sprintf("As despesas do mês superam a renda recebida em %s.", formatBRL(core.Money{Cents: -saved.Cents})),
			Value:   formatPercent(rate),
		}, true
	}
	return core.Insight{}, false
}

// TopCategory names the category with the largest share of expenses.
func TopCategory(s finance.Summary) (core.Insight, bool) {
	if len(s.Categories) == 0 {
		return core.Insight{}, false
	}
	top := s.Categories[0]
	return core.Insight{
		Level:   LevelInfo,
		Code:    "top-category",
		Title:   "Maior categoria de gasto",
		Message: fmt.Sprintf("%s concentra %s das despesas (%s em %d lançamentos).", categoryLabel(top.Category), formatPercent(top.ShareBasisPoints), formatBRL(top.Total), top.Count),
		Value:   formatPercent(top.ShareBasisPoints),
	}, true
}

// ExpenseTrend compares this month's expenses with the previous month.
// Only complete months are comparable, so it stays quiet until the month is over
// unless expenses already exceed last month's.
func ExpenseTrend(s finance.Summary) (core.Insight, bool) {
	if len(s.Trend) < 2 {
		return core.Insight{}, false
	}
	cur := s.Trend[len(s.Trend)-1].Expenses
	prev := s.Trend[len(s.Trend)-2].Expenses
	if prev.Cents <= 0 {
		return core.Insight{}, false
	}
	change := basisPoints(cur.Cents-prev.Cents, prev.Cents)
	monthOver := s.Period.CurrentDay >= s.Period.DaysInMonth
	switch {
	case change >= TrendChangeAlert:
		return core.Insight{
			Level:   LevelWarning,
			Code:    "expense-trend",
			Title:   "Despesas em alta",
			Message: fmt.Sprintf("As despesas já estão %s acima do mês anterior (%s contra %s).", formatPercent(change), formatBRL(cur), formatBRL(prev)),
			Value:   "+" + formatPercent(change),
		}, true
	case monthOver && change <= -TrendChangeAlert:
		return core.Insight{
			Level:   LevelSuccess,
			Code:    "expense-trend",
			Title:   "Despesas em queda",
			Message: fmt.Sprintf("Você gastou %s menos que no mês anterior.", formatPercent(-change)),
			Value:   formatPercent(change),
		}, true
	}
	return core.Insight{}, false
}

// FixedCostShare flags a budget dominated by fixed commitments.
func FixedCostShare(s finance.Summary) (core.Insight, bool) {
	t := s.Totals
	if t.ExpensesTotal.Cents <= 0 {
		return core.Insight{}, false
	}
	share := basisPoints(t.FixedExpenses.Cents, t.ExpensesTotal.Cents)
	if share < HighFixedCostRate {
		return core.Insight{}, false
	}
	return core.Insight{
		Level:   LevelInfo,
		Code:    "fixed-cost-share",
		Title:   "Custos fixos elevados",
		Message: fmt.Sprintf("Despesas fixas e assinaturas somam %s dos gastos do mês. Revise o que pode ser cancelado.", formatPercent(share)),
		Value:   formatPercent(share),
	}, true
}

func basisPoints(num, den int64) int64 {
	return decimal.NewFromInt(num).Mul(decimal.NewFromInt(10000)).DivRound(decimal.NewFromInt(den), 0).IntPart()
}

func formatPercent(bp int64) string {
	return strings.Replace(decimal.New(bp, -2).StringFixed(1), ".", ",", 1) + "%"
}

func formatBRL(m core.Money) string {
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		m.Cents = -m.Cents
	}
	return sign + "R$ " + strings.Replace(m.String(), ".", ",", 1)
}

func categoryLabel(c core.Category) string {
	if c == "" {
		return "Sem categoria"
	}
	s := strings.ToLower(string(c))
	return strings.ToUpper(s[:1]) + s[1:]
}
