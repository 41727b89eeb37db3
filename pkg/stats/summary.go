// Package stats computes aggregate views over a ledger's expenses. Every
// function here is pure: the same expenses always give the same result, and
// amounts are summed exactly.
package stats

import (
	"sort"
	"strings"

	"github.com/yurifrl/spendstat/pkg/models"
)

// Bucket is a count and subtotal for one group of expenses.
type Bucket struct {
	Count int          `yaml:"count" json:"count"`
	Total models.Money `yaml:"total" json:"total"`
}

func (b Bucket) add(e models.Expense) Bucket {
	return Bucket{Count: b.Count + 1, Total: b.Total.Add(e.Amount)}
}

// Summary is the aggregate view of a set of expenses. Groups only contain
// keys that were observed; nothing is zero-filled.
type Summary struct {
	Count int
	Total models.Money

	ByCategory      map[models.Category]Bucket
	ByPeriod        map[string]Bucket
	ByPaymentMethod map[string]Bucket
	ByDescription   map[string]Bucket

	Granularity Granularity

	min, max    *models.Expense
	first, last *models.Date
}

// Mean returns the average expense rounded to cents. ok is false for an
// empty summary.
func (s Summary) Mean() (mean models.Money, ok bool) {
	if s.Count == 0 {
		return models.Zero, false
	}
	return s.Total.Div(int64(s.Count)), true
}

// Min returns the smallest expense, the earliest row on ties. ok is false
// for an empty summary.
func (s Summary) Min() (models.Expense, bool) {
	if s.min == nil {
		return models.Expense{}, false
	}
	return *s.min, true
}

// Max returns the largest expense, the earliest row on ties.
func (s Summary) Max() (models.Expense, bool) {
	if s.max == nil {
		return models.Expense{}, false
	}
	return *s.max, true
}

// Span returns the first and last expense dates.
func (s Summary) Span() (first, last models.Date, ok bool) {
	if s.first == nil {
		return models.Date{}, models.Date{}, false
	}
	return *s.first, *s.last, true
}

// CategoryTotal pairs a category with its bucket for ordered output.
type CategoryTotal struct {
	Category models.Category
	Bucket
}

// Categories lists the observed categories, largest total first, ties by
// enumeration order.
func (s Summary) Categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.ByCategory))
	for c, b := range s.ByCategory {
		out = append(out, CategoryTotal{Category: c, Bucket: b})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// KeyTotal pairs a string key (period, payment method, description) with
// its bucket.
type KeyTotal struct {
	Key string
	Bucket
}

// Periods lists the observed periods in chronological order.
func (s Summary) Periods() []KeyTotal {
	out := keyTotals(s.ByPeriod)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PaymentMethods lists the observed payment methods, largest total first.
func (s Summary) PaymentMethods() []KeyTotal {
	return byTotalDesc(keyTotals(s.ByPaymentMethod))
}

// TopDescriptions returns up to n descriptions whose total exceeds min,
// largest first. n <= 0 means no limit.
func (s Summary) TopDescriptions(n int, min models.Money) []KeyTotal {
	all := byTotalDesc(keyTotals(s.ByDescription))
	out := all[:0]
	for _, kt := range all {
		if kt.Total.Cmp(min) <= 0 {
			continue
		}
		out = append(out, kt)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

func keyTotals(m map[string]Bucket) []KeyTotal {
	out := make([]KeyTotal, 0, len(m))
	for k, b := range m {
		out = append(out, KeyTotal{Key: k, Bucket: b})
	}
	return out
}

func byTotalDesc(kts []KeyTotal) []KeyTotal {
	sort.Slice(kts, func(i, j int) bool {
		if cmp := kts[i].Total.Cmp(kts[j].Total); cmp != 0 {
			return cmp > 0
		}
		return kts[i].Key < kts[j].Key
	})
	return kts
}

// Accumulator folds expenses one at a time into a Summary, so callers that
// stream rows never need the whole ledger in memory.
type Accumulator struct {
	s Summary
}

// NewAccumulator returns an empty accumulator grouping periods by g.
func NewAccumulator(g Granularity) *Accumulator {
	return &Accumulator{s: Summary{
		Granularity:     g,
		ByCategory:      make(map[models.Category]Bucket),
		ByPeriod:        make(map[string]Bucket),
		ByPaymentMethod: make(map[string]Bucket),
		ByDescription:   make(map[string]Bucket),
	}}
}

// Add folds one expense in. Expenses must be added in row order for the
// min/max tie-break to pick the earliest row.
func (a *Accumulator) Add(e models.Expense) {
	s := &a.s
	s.Count++
	s.Total = s.Total.Add(e.Amount)

	s.ByCategory[e.Category] = s.ByCategory[e.Category].add(e)
	key := PeriodKey(e.Date, s.Granularity)
	s.ByPeriod[key] = s.ByPeriod[key].add(e)
	if e.PaymentMethod != "" {
		s.ByPaymentMethod[e.PaymentMethod] = s.ByPaymentMethod[e.PaymentMethod].add(e)
	}
	desc := strings.TrimSpace(e.Description)
	s.ByDescription[desc] = s.ByDescription[desc].add(e)

	if s.min == nil || e.Amount.Cmp(s.min.Amount) < 0 {
		ex := e
		s.min = &ex
	}
	if s.max == nil || e.Amount.Cmp(s.max.Amount) > 0 {
		ex := e
		s.max = &ex
	}
	if s.first == nil || e.Date.Before(*s.first) {
		d := e.Date
		s.first = &d
	}
	if s.last == nil || e.Date.After(*s.last) {
		d := e.Date
		s.last = &d
	}
}

// Summary returns the aggregate of everything added so far. The accumulator
// may keep being used; the returned maps are copies.
func (a *Accumulator) Summary() Summary {
	out := a.s
	out.ByCategory = make(map[models.Category]Bucket, len(a.s.ByCategory))
	for k, v := range a.s.ByCategory {
		out.ByCategory[k] = v
	}
	out.ByPeriod = copyBuckets(a.s.ByPeriod)
	out.ByPaymentMethod = copyBuckets(a.s.ByPaymentMethod)
	out.ByDescription = copyBuckets(a.s.ByDescription)
	return out
}

func copyBuckets(m map[string]Bucket) map[string]Bucket {
	out := make(map[string]Bucket, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SummarizeExpenses aggregates expenses in the order given.
func SummarizeExpenses(expenses []models.Expense, g Granularity) Summary {
	acc := NewAccumulator(g)
	for _, e := range expenses {
		acc.Add(e)
	}
	return acc.Summary()
}

// Summarize aggregates a ledger's valid expenses. Rejected rows are ignored.
func Summarize(ledger *models.Ledger, g Granularity) Summary {
	if ledger == nil {
		return SummarizeExpenses(nil, g)
	}
	return SummarizeExpenses(ledger.Expenses, g)
}
