package finance

import (
	"sort"
	"strings"

	"carteira/internal/core"
)

// ScheduledSalary is an expected salary payment pinned to a day of the month.
type ScheduledSalary struct {
	UserID int64      `json:"userId"`
	Label  string     `json:"label"`
	Day    int        `json:"day"`
	Amount core.Money `json:"amount"`
}

func isSalaryLabel(label string) bool {
	return strings.Contains(fold(label), "salario")
}

// ResolveExpectedSalary sums the salary the family declared for the month
// ending at monthEnd, whether or not it has been transacted yet. Profiles
// with a malformed payment schedule count as zero.
func ResolveExpectedSalary(profiles []core.FinancialProfile, monthEnd core.Date) core.Money {
	var total core.Money
	lastDay := monthEnd.Day()
	for _, p := range profiles {
		if p.PaymentsMalformed {
			continue
		}
		switch {
		case len(p.MultiplePayments) > 0:
			for _, sp := range p.MultiplePayments {
				if isSalaryLabel(sp.Label) && sp.Day >= 1 && sp.Day <= lastDay && sp.Value.Cents > 0 {
					total = total.Add(sp.Value)
				}
			}
		case p.DiaPagamento != 0 && p.RendaFixa.Cents > 0:
			if p.DiaPagamento >= 1 && p.DiaPagamento <= lastDay {
				total = total.Add(p.RendaFixa)
			}
		case p.RendaFixa.Cents > 0:
			total = total.Add(p.RendaFixa)
		}
	}
	return total
}

// ScheduledSalaries lists the day-pinned salary payments of the month, ordered
// by day, user and label. A rendaFixa without a payment day has no place on
// the calendar and is left out.
func ScheduledSalaries(profiles []core.FinancialProfile, monthEnd core.Date) []ScheduledSalary {
	var out []ScheduledSalary
	lastDay := monthEnd.Day()
	for _, p := range profiles {
		if p.PaymentsMalformed {
			continue
		}
		switch {
		case len(p.MultiplePayments) > 0:
			for _, sp := range p.MultiplePayments {
				if isSalaryLabel(sp.Label) && sp.Day >= 1 && sp.Day <= lastDay && sp.Value.Cents > 0 {
					out = append(out, ScheduledSalary{UserID: p.UserID, Label: sp.Label, Day: sp.Day, Amount: sp.Value})
				}
			}
		case p.DiaPagamento >= 1 && p.DiaPagamento <= lastDay && p.RendaFixa.Cents > 0:
			out = append(out, ScheduledSalary{UserID: p.UserID, Label: "rendaFixa", Day: p.DiaPagamento, Amount: p.RendaFixa})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Label < out[j].Label
	})
	return out
}
