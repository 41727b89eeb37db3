package stats

import (
	"testing"
	"time"

	"github.com/yurifrl/spendstat/pkg/models"
)

func expense(row int, date string, amount string, category models.Category, desc string) models.Expense {
	d, err := models.ParseDate(date, models.DefaultDateLayout)
	if err != nil {
		panic(err)
	}
	return models.Expense{
		Row:         row,
		Date:        d,
		Amount:      models.MustParseMoney(amount),
		Category:    category,
		Description: desc,
	}
}

func scenario() []models.Expense {
	return []models.Expense{
		expense(1, "2024-01-05", "12.50", models.Grocery, "milk"),
		expense(2, "2024-01-10", "-5.00", models.Grocery, "refund"),
		expense(3, "2024-02-01", "100.00", models.Rent, "rent"),
		expense(4, "2024-02-03", "7.00", models.Unknown, "typo"),
	}
}

func TestSummarizeScenario(t *testing.T) {
	s := SummarizeExpenses(scenario(), Month)

	if s.Count != 4 {
		t.Errorf("Count = %d, want 4", s.Count)
	}
	if !s.Total.Equal(models.MustParseMoney("114.50")) {
		t.Errorf("Total = %s, want 114.50", s.Total)
	}

	want := map[models.Category]Bucket{
		models.Grocery: {Count: 2, Total: models.MustParseMoney("7.50")},
		models.Rent:    {Count: 1, Total: models.MustParseMoney("100.00")},
		models.Unknown: {Count: 1, Total: models.MustParseMoney("7.00")},
	}
	if len(s.ByCategory) != len(want) {
		t.Fatalf("ByCategory has %d entries, want %d: %v", len(s.ByCategory), len(want), s.ByCategory)
	}
	for c, w := range want {
		got, ok := s.ByCategory[c]
		if !ok {
			t.Errorf("missing category %s", c)
			continue
		}
		if got.Count != w.Count || !got.Total.Equal(w.Total) {
			t.Errorf("%s = %d/%s, want %d/%s", c, got.Count, got.Total, w.Count, w.Total)
		}
	}
	if _, ok := s.ByCategory[models.Books]; ok {
		t.Error("unobserved category should be omitted")
	}

	periods := s.Periods()
	if len(periods) != 2 || periods[0].Key != "2024-01" || periods[1].Key != "2024-02" {
		t.Fatalf("Periods = %+v", periods)
	}
	if !periods[0].Total.Equal(models.MustParseMoney("7.50")) || !periods[1].Total.Equal(models.MustParseMoney("107.00")) {
		t.Errorf("period totals = %s, %s", periods[0].Total, periods[1].Total)
	}

	mean, ok := s.Mean()
	if !ok || mean.String() != "28.63" {
		t.Errorf("Mean = %s (ok=%v), want 28.63", mean, ok)
	}

	min, ok := s.Min()
	if !ok || min.Row != 2 {
		t.Errorf("Min = %+v, want row 2", min)
	}
	max, ok := s.Max()
	if !ok || max.Row != 3 {
		t.Errorf("Max = %+v, want row 3", max)
	}

	first, last, ok := s.Span()
	if !ok || first != models.NewDate(2024, time.January, 5) || last != models.NewDate(2024, time.February, 3) {
		t.Errorf("Span = %s..%s (ok=%v)", first, last, ok)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(models.NewLedger("empty.csv"), Month)

	if s.Count != 0 || !s.Total.IsZero() {
		t.Errorf("got count %d total %s, want 0 and 0", s.Count, s.Total)
	}
	if _, ok := s.Mean(); ok {
		t.Error("Mean should report no data")
	}
	if _, ok := s.Min(); ok {
		t.Error("Min should report no data")
	}
	if _, ok := s.Max(); ok {
		t.Error("Max should report no data")
	}
	if _, _, ok := s.Span(); ok {
		t.Error("Span should report no data")
	}
	if len(s.Categories()) != 0 {
		t.Error("expected no categories")
	}

	if got := Summarize(nil, Month); got.Count != 0 {
		t.Errorf("nil ledger count = %d", got.Count)
	}
}

func TestSumIsExact(t *testing.T) {
	expenses := []models.Expense{
		expense(1, "2024-03-01", "10.10", models.Grocery, ""),
		expense(2, "2024-03-02", "10.10", models.Grocery, ""),
		expense(3, "2024-03-03", "10.05", models.Grocery, ""),
	}
	s := SummarizeExpenses(expenses, Month)
	if !s.Total.Equal(models.MustParseMoney("30.25")) {
		t.Errorf("Total = %s, want 30.25", s.Total)
	}

	// Reversed order must give the identical total.
	reversed := []models.Expense{expenses[2], expenses[1], expenses[0]}
	if r := SummarizeExpenses(reversed, Month); r.Total.String() != s.Total.String() {
		t.Errorf("order dependent total: %s vs %s", r.Total, s.Total)
	}
}

func TestMinMaxTieBreak(t *testing.T) {
	expenses := []models.Expense{
		expense(1, "2024-01-01", "5.00", models.Books, "a"),
		expense(2, "2024-01-02", "9.00", models.Books, "b"),
		expense(3, "2024-01-03", "5.00", models.Books, "c"),
		expense(4, "2024-01-04", "9.00", models.Books, "d"),
	}
	s := SummarizeExpenses(expenses, Month)

	if min, _ := s.Min(); min.Row != 1 {
		t.Errorf("Min row = %d, want 1", min.Row)
	}
	if max, _ := s.Max(); max.Row != 2 {
		t.Errorf("Max row = %d, want 2", max.Row)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	a := SummarizeExpenses(scenario(), Week)
	b := SummarizeExpenses(scenario(), Week)

	if a.Total.String() != b.Total.String() || a.Count != b.Count {
		t.Fatal("totals differ between runs")
	}
	ac, bc := a.Categories(), b.Categories()
	if len(ac) != len(bc) {
		t.Fatal("category count differs between runs")
	}
	for i := range ac {
		if ac[i].Category != bc[i].Category || !ac[i].Total.Equal(bc[i].Total) {
			t.Errorf("category %d differs: %+v vs %+v", i, ac[i], bc[i])
		}
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := SummarizeExpenses(scenario(), Month).Categories()
	want := []models.Category{models.Rent, models.Grocery, models.Unknown}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories", len(cats))
	}
	for i, c := range want {
		if cats[i].Category != c {
			t.Errorf("position %d = %s, want %s", i, cats[i].Category, c)
		}
	}
}

func TestBreakdowns(t *testing.T) {
	expenses := scenario()
	expenses[0].PaymentMethod = "card"
	expenses[2].PaymentMethod = "transfer"
	expenses[3].PaymentMethod = "card"
	expenses = append(expenses, expense(5, "2024-02-10", "3.00", models.Grocery, " milk "))

	s := SummarizeExpenses(expenses, Month)

	methods := s.PaymentMethods()
	if len(methods) != 2 || methods[0].Key != "transfer" || methods[1].Key != "card" {
		t.Fatalf("PaymentMethods = %+v", methods)
	}
	if !methods[1].Total.Equal(models.MustParseMoney("19.50")) {
		t.Errorf("card total = %s", methods[1].Total)
	}

	top := s.TopDescriptions(2, models.MustParseMoney("10"))
	if len(top) != 2 || top[0].Key != "rent" || top[1].Key != "milk" {
		t.Fatalf("TopDescriptions = %+v", top)
	}
	if top[1].Count != 2 || !top[1].Total.Equal(models.MustParseMoney("15.50")) {
		t.Errorf("milk = %+v", top[1])
	}
}

func TestAccumulatorSnapshot(t *testing.T) {
	acc := NewAccumulator(Month)
	acc.Add(expense(1, "2024-01-01", "1.00", models.Books, ""))
	snap := acc.Summary()
	acc.Add(expense(2, "2024-01-02", "2.00", models.Books, ""))

	if snap.Count != 1 || snap.ByCategory[models.Books].Count != 1 {
		t.Errorf("snapshot changed after Add: %+v", snap)
	}
	if got := acc.Summary(); got.Count != 2 || !got.Total.Equal(models.MustParseMoney("3.00")) {
		t.Errorf("accumulator = %d/%s", got.Count, got.Total)
	}
}
