package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yurifrl/spendstat/pkg/models"
)

// Granularity is the size of the periods expenses are grouped into.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity accepts day, week, month or year in any case. An empty
// string means month.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Month, nil
	case Day, Week, Month, Year:
		return g, nil
	default:
		return "", fmt.Errorf("unknown period %q (want day, week, month or year)", s)
	}
}

// PeriodKey truncates d to its period. Keys sort chronologically as strings:
// 2024-01-05, 2024-W01, 2024-01, 2024.
func PeriodKey(d models.Date, g Granularity) string {
	switch g {
	case Day:
		return d.String()
	case Week:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Year:
		return fmt.Sprintf("%04d", d.Year())
	default:
		return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
	}
}

// PeriodBounds returns the first and last calendar day of the period that
// contains d.
func PeriodBounds(d models.Date, g Granularity) (start, end models.Date) {
	switch g {
	case Day:
		return d, d
	case Week:
		offset := (int(d.Weekday()) + 6) % 7 // Monday is 0
		start = d.AddDays(-offset)
		return start, start.AddDays(6)
	case Year:
		start = models.NewDate(d.Year(), time.January, 1)
		return start, models.NewDate(d.Year(), time.December, 31)
	default:
		start = models.NewDate(d.Year(), d.Month(), 1)
		return start, models.Date{Time: start.AddDate(0, 1, -1)}
	}
}

// PeriodSummary is the aggregate for one period together with the number of
// days it actually covers.
type PeriodSummary struct {
	Key     string
	Start   models.Date
	End     models.Date
	Days    int
	Summary Summary
}

// DailyAverage spreads the period total over the days covered.
func (p PeriodSummary) DailyAverage() models.Money {
	return p.Summary.Total.Div(int64(p.Days))
}

// PeriodStats splits expenses into periods and summarizes each. A period's
// day count is clipped to the first expense date and to asOf, so a month
// that is still running is averaged over the days elapsed so far. Periods
// come back in chronological order.
func PeriodStats(expenses []models.Expense, g Granularity, asOf models.Date) []PeriodSummary {
	if len(expenses) == 0 {
		return nil
	}

	accs := make(map[string]*Accumulator)
	bounds := make(map[string][2]models.Date)
	first := expenses[0].Date
	for _, e := range expenses {
		if e.Date.Before(first) {
			first = e.Date
		}
		key := PeriodKey(e.Date, g)
		acc, ok := accs[key]
		if !ok {
			acc = NewAccumulator(g)
			accs[key] = acc
			start, end := PeriodBounds(e.Date, g)
			bounds[key] = [2]models.Date{start, end}
		}
		acc.Add(e)
	}

	out := make([]PeriodSummary, 0, len(accs))
	for key, acc := range accs {
		b := bounds[key]
		from, to := b[0], b[1]
		if from.Before(first) {
			from = first
		}
		if to.After(asOf) && !from.After(asOf) {
			to = asOf
		}
		days := from.DaysUntil(to) + 1
		if days < 1 {
			days = 1
		}
		out = append(out, PeriodSummary{
			Key:     key,
			Start:   b[0],
			End:     b[1],
			Days:    days,
			Summary: acc.Summary(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
