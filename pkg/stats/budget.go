package stats

import (
	"github.com/shopspring/decimal"
	"github.com/yurifrl/spendstat/pkg/models"
)

// BudgetStatus grades how much of an allowance is left.
type BudgetStatus string

const (
	BudgetOK   BudgetStatus = "ok"
	BudgetWarn BudgetStatus = "warn"
	BudgetOver BudgetStatus = "over"
)

// warnBelow is the share of the allowance under which a budget is flagged.
var warnBelow = decimal.NewFromFloat(0.25)

// BudgetResult compares one budget against what was actually spent.
type BudgetResult struct {
	Budget    models.Budget
	Days      int
	Allowed   models.Money
	Spent     models.Money
	Remaining models.Money
	Status    BudgetStatus
	// Derived marks a total made up from the category budgets because none
	// was declared.
	Derived bool
}

// CompareBudgets scales each budget to a span of days and checks it against
// the summary. Category budgets are compared with that category's subtotal,
// the rest with the overall total. When only category budgets are given, a
// derived total allowing the sum of their allowances is appended.
func CompareBudgets(s Summary, budgets []models.Budget, days int) []BudgetResult {
	out := make([]BudgetResult, 0, len(budgets)+1)
	hasTotal := false
	derived := models.Zero
	for _, b := range budgets {
		if b.Days <= 0 {
			continue
		}
		allowed := b.Amount.Mul(int64(days)).Div(int64(b.Days))
		spent := s.Total
		if b.Category != nil {
			spent = s.ByCategory[*b.Category].Total
			derived = derived.Add(allowed)
		} else {
			hasTotal = true
		}
		out = append(out, newBudgetResult(b, days, allowed, spent))
	}

	if !hasTotal && len(out) > 0 {
		r := newBudgetResult(models.Budget{Amount: derived, Days: days}, days, derived, s.Total)
		r.Derived = true
		out = append(out, r)
	}
	return out
}

func newBudgetResult(b models.Budget, days int, allowed, spent models.Money) BudgetResult {
	remaining := allowed.Sub(spent)
	return BudgetResult{
		Budget:    b,
		Days:      days,
		Allowed:   allowed,
		Spent:     spent,
		Remaining: remaining,
		Status:    budgetStatus(allowed, remaining),
	}
}

func budgetStatus(allowed, remaining models.Money) BudgetStatus {
	switch {
	case remaining.IsNegative():
		return BudgetOver
	case allowed.IsZero():
		return BudgetOK
	case remaining.Ratio(allowed).LessThan(warnBelow):
		return BudgetWarn
	default:
		return BudgetOK
	}
}
