// Package finance implements the monthly financial summary engine: it
// classifies a family's transactions, resolves expected salary from declared
// profiles, aggregates totals, projects the month-end balance and builds the
// daily running-balance series.
//
// Everything here is a pure function of its inputs; "now" is always passed in.
package finance

import (
	"strings"

	"carteira/internal/core"
)

// Bucket is the single category a transaction contributes to.
type Bucket string

const (
	BucketSalary          Bucket = "salary"
	BucketBenefit         Bucket = "benefit"
	BucketVariableIncome  Bucket = "variable_income"
	BucketFixedExpense    Bucket = "fixed_expense"
	BucketVariableExpense Bucket = "variable_expense"
	BucketInvestment      Bucket = "investment"
)

// Classification flags; exactly one is set for every classified transaction.
type Classification struct {
	IsSalary          bool `json:"isSalary"`
	IsBenefit         bool `json:"isBenefit"`
	IsVariableIncome  bool `json:"isVariableIncome"`
	IsFixedExpense    bool `json:"isFixedExpense"`
	IsVariableExpense bool `json:"isVariableExpense"`
	IsInvestment      bool `json:"isInvestment"`
}

// Signals carries the context-dependent inputs of the classifier.
type Signals struct {
	IsRecurring    bool
	IsSubscription bool
}

var benefitPhrases = []string{
	"vale alimentacao", "vale-alimentacao", "vale refeicao", "vale-refeicao",
	"vale transporte", "vale-transporte", "beneficio", "auxilio",
	"alelo", "sodexo", "pluxee", "ticket", "flash", "caju",
}

var benefitTokens = map[string]struct{}{"va": {}, "vr": {}, "vt": {}}

// Classify assigns a transaction to a bucket. Rules are evaluated in priority
// order and the first match wins; unknown types fall back to variable expense.
func Classify(t core.TransactionType, category core.Category, name string, sig Signals) Classification {
	switch t {
	case core.Deposit:
		switch {
		case category == core.CategorySalary:
			return Classification{IsSalary: true}
		case isBenefit(category, name):
			return Classification{IsBenefit: true}
		default:
			return Classification{IsVariableIncome: true}
		}
	case core.Expense:
		if sig.IsSubscription || sig.IsRecurring {
			return Classification{IsFixedExpense: true}
		}
		return Classification{IsVariableExpense: true}
	case core.Investment:
		return Classification{IsInvestment: true}
	default:
		return Classification{IsVariableExpense: true}
	}
}

func isBenefit(category core.Category, name string) bool {
	if category == core.CategoryBenefits {
		return true
	}
	folded := fold(name)
	for _, p := range benefitPhrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	for _, tok := range tokens(folded) {
		if _, ok := benefitTokens[tok]; ok {
			return true
		}
	}
	return false
}

// Bucket returns the bucket selected by the classification.
func (c Classification) Bucket() Bucket {
	switch {
	case c.IsSalary:
		return BucketSalary
	case c.IsBenefit:
		return BucketBenefit
	case c.IsVariableIncome:
		return BucketVariableIncome
	case c.IsFixedExpense:
		return BucketFixedExpense
	case c.IsInvestment:
		return BucketInvestment
	default:
		return BucketVariableExpense
	}
}
