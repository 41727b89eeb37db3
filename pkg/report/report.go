// Package report renders ledger statistics for people (lipgloss tables) and
// for other programs (YAML, JSON).
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/stats"
)

type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts text, yaml or json. An empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}

// Options selects what Build computes.
type Options struct {
	Granularity stats.Granularity
	AsOf        models.Date
	Windows     []int
	Budgets     []models.Budget
	// TopDescriptions caps the description table; 0 leaves it out.
	TopDescriptions int
}

// Input is everything a renderer needs for one ledger.
type Input struct {
	Source   string
	Rows     int
	Rejected int
	AsOf     models.Date

	Summary stats.Summary
	Periods []stats.PeriodSummary
	Windows []stats.WindowSummary
	Budgets []stats.BudgetResult
	Top     []stats.KeyTotal
}

// Build computes the report for a ledger. Budgets declared by the ledger
// come after the ones in opts. Every budget is checked against every
// trailing window in opts.Windows; with no windows configured, each distinct
// budget length is used as a window instead.
func Build(ledger *models.Ledger, opts Options) Input {
	in := Input{
		Source:   ledger.Source,
		Rows:     ledger.Rows,
		Rejected: len(ledger.Errors),
		AsOf:     opts.AsOf,
		Summary:  stats.Summarize(ledger, opts.Granularity),
		Periods:  stats.PeriodStats(ledger.Expenses, opts.Granularity, opts.AsOf),
		Windows:  stats.Windows(ledger.Expenses, opts.AsOf, opts.Windows, opts.Granularity),
	}

	budgets := append(append([]models.Budget(nil), opts.Budgets...), ledger.Budgets...)
	if len(budgets) > 0 {
		for _, days := range budgetWindows(opts.Windows, budgets) {
			window := stats.SummarizeExpenses(stats.Window(ledger.Expenses, opts.AsOf, days), opts.Granularity)
			in.Budgets = append(in.Budgets, stats.CompareBudgets(window, budgets, days)...)
		}
	}

	if opts.TopDescriptions > 0 {
		in.Top = in.Summary.TopDescriptions(opts.TopDescriptions, models.Zero)
	}
	return in
}

func budgetWindows(windows []int, budgets []models.Budget) []int {
	if len(windows) > 0 {
		return windows
	}
	seen := make(map[int]bool)
	var out []int
	for _, b := range budgets {
		if b.Days > 0 && !seen[b.Days] {
			seen[b.Days] = true
			out = append(out, b.Days)
		}
	}
	return out
}

// Write renders in using format.
func Write(w io.Writer, in Input, format Format) error {
	switch format {
	case FormatText, "":
		return Text(w, in)
	case FormatYAML:
		return YAML(w, in)
	case FormatJSON:
		return JSON(w, in)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
