package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/stats"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func section(w io.Writer, title string, t *table.Table) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w)
}

func optional[T any](v T, ok bool, format func(T) string) string {
	if !ok {
		return "n/a"
	}
	return format(v)
}

// Text renders in as a set of tables. Empty sections are skipped.
func Text(w io.Writer, in Input) error {
	s := in.Summary

	mean, meanOK := s.Mean()
	min, minOK := s.Min()
	max, maxOK := s.Max()
	span := "n/a"
	if first, last, ok := s.Span(); ok {
		span = first.String() + " .. " + last.String()
	}

	overview := newTable().
		Row("Source", in.Source).
		Row("Rows", strconv.Itoa(in.Rows)).
		Row("Expenses", strconv.Itoa(s.Count)).
		Row("Rejected", strconv.Itoa(in.Rejected)).
		Row("Total", s.Total.String()).
		Row("Mean", optional(mean, meanOK, models.Money.String)).
		Row("Min", optional(min, minOK, describeExpense)).
		Row("Max", optional(max, maxOK, describeExpense)).
		Row("Span", span)
	section(w, "Overview", overview)

	if len(s.ByCategory) > 0 {
		t := newTable("Category", "Count", "Total", "Share")
		for _, c := range s.Categories() {
			t.Row(c.Category.String(), strconv.Itoa(c.Count), c.Total.String(), share(c.Total, s.Total))
		}
		section(w, "By category", t)
	}

	if len(in.Periods) > 0 {
		t := newTable("Period", "Count", "Total", "Days", "Daily")
		for _, p := range in.Periods {
			t.Row(p.Key, strconv.Itoa(p.Summary.Count), p.Summary.Total.String(), strconv.Itoa(p.Days), p.DailyAverage().String())
		}
		section(w, "By "+string(s.Granularity), t)
	}

	if len(in.Windows) > 0 {
		t := newTable("Window", "Count", "Total", "Daily")
		for _, win := range in.Windows {
			t.Row(fmt.Sprintf("last %d days", win.Days), strconv.Itoa(win.Summary.Count), win.Summary.Total.String(), win.DailyAverage().String())
		}
		section(w, "Trailing windows to "+in.AsOf.String(), t)
	}

	if methods := s.PaymentMethods(); len(methods) > 0 {
		t := newTable("Payment method", "Count", "Total")
		for _, m := range methods {
			t.Row(m.Key, strconv.Itoa(m.Count), m.Total.String())
		}
		section(w, "By payment method", t)
	}

	if len(in.Top) > 0 {
		t := newTable("Description", "Count", "Total")
		for _, d := range in.Top {
			t.Row(d.Key, strconv.Itoa(d.Count), d.Total.String())
		}
		section(w, "Top descriptions", t)
	}

	if len(in.Budgets) > 0 {
		t := newTable("Budget", "Days", "Allowed", "Spent", "Remaining", "Status")
		for _, b := range in.Budgets {
			label := b.Budget.Label()
			if b.Derived {
				label += " (derived)"
			}
			t.Row(label, strconv.Itoa(b.Days), b.Allowed.String(), b.Spent.String(), b.Remaining.String(), statusStyle(b.Status).Render(string(b.Status)))
		}
		section(w, "Budgets", t)
	}

	return nil
}

func describeExpense(e models.Expense) string {
	return fmt.Sprintf("%s on %s (row %d)", e.Amount, e.Date, e.Row)
}

func share(part, total models.Money) string {
	if total.IsZero() {
		return "n/a"
	}
	return part.Ratio(total).Shift(2).StringFixed(1) + "%"
}

func statusStyle(s stats.BudgetStatus) lipgloss.Style {
	switch s {
	case stats.BudgetOver:
		return overStyle
	case stats.BudgetWarn:
		return warnStyle
	default:
		return okStyle
	}
}

// Errors lists rejected rows, one per line, in row order.
func Errors(w io.Writer, errs []models.ParseError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d row(s) rejected:", len(errs))))
	for i := range errs {
		line := errs[i].Error()
		if raw := errs[i].RawLine(); raw != "" {
			line += mutedStyle.Render(" [" + raw + "]")
		}
		fmt.Fprintln(w, "  "+line)
	}
}
