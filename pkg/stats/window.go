package stats

import (
	"github.com/yurifrl/spendstat/pkg/models"
)

// DefaultWindows are the trailing windows reported when none are configured.
var DefaultWindows = []int{7, 14, 30, 365}

// Window returns the expenses dated within the days-long window ending on
// asOf, inclusive of asOf itself. Expenses after asOf are left out.
func Window(expenses []models.Expense, asOf models.Date, days int) []models.Expense {
	if days <= 0 {
		return nil
	}
	var out []models.Expense
	for _, e := range expenses {
		if e.Date.After(asOf) {
			continue
		}
		if e.Date.DaysUntil(asOf) < days {
			out = append(out, e)
		}
	}
	return out
}

// WindowSummary is the aggregate of one trailing window.
type WindowSummary struct {
	Days    int
	Summary Summary
}

// DailyAverage spreads the window total over its full length.
func (w WindowSummary) DailyAverage() models.Money {
	return w.Summary.Total.Div(int64(w.Days))
}

// Windows summarizes each trailing window in the order given.
func Windows(expenses []models.Expense, asOf models.Date, days []int, g Granularity) []WindowSummary {
	out := make([]WindowSummary, 0, len(days))
	for _, n := range days {
		if n <= 0 {
			continue
		}
		out = append(out, WindowSummary{
			Days:    n,
			Summary: SummarizeExpenses(Window(expenses, asOf, n), g),
		})
	}
	return out
}

// LatestDate returns the newest expense date, which is the natural asOf for
// a ledger that has no explicit one.
func LatestDate(expenses []models.Expense) (models.Date, bool) {
	if len(expenses) == 0 {
		return models.Date{}, false
	}
	latest := expenses[0].Date
	for _, e := range expenses[1:] {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest, true
}
