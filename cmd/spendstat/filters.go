package main

import (
	"fmt"
	"strings"

	"github.com/yurifrl/spendstat/pkg/csv"
	"github.com/yurifrl/spendstat/pkg/models"
)

type filters struct {
	startDate   string
	endDate     string
	minAmount   string
	maxAmount   string
	category    string
	description string
}

type matcher func(models.Expense) bool

// compile validates the filter flags once so a typo fails the run instead of
// silently matching nothing.
func (f *filters) compile(aliases models.Aliases) (matcher, error) {
	var checks []matcher

	if f.startDate != "" {
		start, err := models.ParseDate(f.startDate, models.DefaultDateLayout)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		checks = append(checks, func(e models.Expense) bool { return !e.Date.Before(start) })
	}
	if f.endDate != "" {
		end, err := models.ParseDate(f.endDate, models.DefaultDateLayout)
		if err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
		checks = append(checks, func(e models.Expense) bool { return !e.Date.After(end) })
	}
	if f.minAmount != "" {
		min, err := models.ParseMoney(f.minAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid --min: %w", err)
		}
		checks = append(checks, func(e models.Expense) bool { return e.Amount.Cmp(min) >= 0 })
	}
	if f.maxAmount != "" {
		max, err := models.ParseMoney(f.maxAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid --max: %w", err)
		}
		checks = append(checks, func(e models.Expense) bool { return e.Amount.Cmp(max) <= 0 })
	}
	if f.category != "" {
		want, ok := aliases.Resolve(f.category)
		if !ok {
			return nil, fmt.Errorf("invalid --category: %q is not a known category", f.category)
		}
		checks = append(checks, func(e models.Expense) bool { return e.Category == want })
	}
	if f.description != "" {
		needle := strings.ToLower(f.description)
		checks = append(checks, func(e models.Expense) bool {
			return strings.Contains(strings.ToLower(e.Description), needle)
		})
	}

	return func(e models.Expense) bool {
		for _, check := range checks {
			if !check(e) {
				return false
			}
		}
		return true
	}, nil
}

func (m matcher) toFilterFunc() csv.FilterFunc[csv.Expense] {
	return func(e csv.Expense) bool {
		return m(models.Expense(e))
	}
}

// apply returns a copy of ledger whose expenses all match. Rows and Errors
// still describe the whole input.
func (m matcher) apply(ledger *models.Ledger) *models.Ledger {
	out := *ledger
	out.Expenses = make([]models.Expense, 0, len(ledger.Expenses))
	for _, e := range ledger.Expenses {
		if m(e) {
			out.Expenses = append(out.Expenses, e)
		}
	}
	return &out
}
