package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/stats"
)

func scenarioLedger() *models.Ledger {
	l := models.NewLedger("ledger.csv")
	add := func(row int, d time.Time, amount string, c models.Category, desc string) {
		l.AddExpense(models.Expense{Row: row, Date: models.DateOf(d), Amount: models.MustParseMoney(amount), Category: c, Description: desc})
	}
	add(1, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "12.50", models.Grocery, "milk")
	add(2, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "-5.00", models.Grocery, "refund")
	add(3, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "100.00", models.Rent, "rent")
	add(4, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "7.00", models.Unknown, "typo")
	l.AddError(models.ParseError{Row: 5, Raw: []string{"x"}, Reason: models.ReasonFieldCount, Detail: "expected 4 fields, got 1"})
	return l
}

func scenarioOptions() Options {
	rent := models.Rent
	return Options{
		Granularity:     stats.Month,
		AsOf:            models.NewDate(2024, time.February, 3),
		Windows:         []int{7, 30},
		Budgets:         []models.Budget{{Category: &rent, Amount: models.MustParseMoney("90.00"), Days: 30}},
		TopDescriptions: 2,
	}
}

func TestBuild(t *testing.T) {
	l := scenarioLedger()
	l.Budgets = []models.Budget{{Amount: models.MustParseMoney("700.00"), Days: 7}}

	in := Build(l, scenarioOptions())

	if in.Rows != 5 || in.Rejected != 1 || in.Summary.Count != 4 {
		t.Fatalf("rows %d rejected %d count %d", in.Rows, in.Rejected, in.Summary.Count)
	}
	if len(in.Periods) != 2 || len(in.Windows) != 2 {
		t.Fatalf("periods %d windows %d", len(in.Periods), len(in.Windows))
	}
	// Each budget is checked against the 7 and 30 day windows.
	want := []struct {
		label  string
		days   int
		spent  string
		status stats.BudgetStatus
	}{
		{"Rent", 7, "100.00", stats.BudgetOver},
		{"Total", 7, "107.00", stats.BudgetOK},
		{"Rent", 30, "100.00", stats.BudgetOver},
		{"Total", 30, "114.50", stats.BudgetOK},
	}
	if len(in.Budgets) != len(want) {
		t.Fatalf("got %d budgets, want %d", len(in.Budgets), len(want))
	}
	for i, w := range want {
		b := in.Budgets[i]
		if b.Budget.Label() != w.label || b.Days != w.days || b.Spent.String() != w.spent || b.Status != w.status || b.Derived {
			t.Errorf("budget %d = %s/%d spent %s %s, want %s/%d spent %s %s",
				i, b.Budget.Label(), b.Days, b.Spent, b.Status, w.label, w.days, w.spent, w.status)
		}
	}
	if len(in.Top) != 2 || in.Top[0].Key != "rent" {
		t.Errorf("Top = %+v", in.Top)
	}
}

func TestBuildDerivedTotal(t *testing.T) {
	grocery, rent := models.Grocery, models.Rent
	opts := scenarioOptions()
	opts.Windows = []int{30}
	opts.Budgets = []models.Budget{
		{Category: &rent, Amount: models.MustParseMoney("90.00"), Days: 30},
		{Category: &grocery, Amount: models.MustParseMoney("15.00"), Days: 15},
	}

	in := Build(scenarioLedger(), opts)
	if len(in.Budgets) != 3 {
		t.Fatalf("got %d budgets, want 3", len(in.Budgets))
	}
	total := in.Budgets[2]
	if !total.Derived || total.Budget.Label() != "Total" {
		t.Fatalf("expected a derived total last, got %+v", total)
	}
	if total.Allowed.String() != "120.00" || total.Spent.String() != "114.50" || total.Status != stats.BudgetWarn {
		t.Errorf("derived total allowed %s spent %s status %s", total.Allowed, total.Spent, total.Status)
	}

	var buf bytes.Buffer
	if err := Text(&buf, in); err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total (derived)") {
		t.Errorf("derived total not labelled:\n%s", buf.String())
	}
}

func TestBuildBudgetWindowsFallBackToBudgetLength(t *testing.T) {
	opts := scenarioOptions()
	opts.Windows = nil

	in := Build(scenarioLedger(), opts)
	// Rent 90/30 plus its derived total, both over 30 days.
	if len(in.Budgets) != 2 || in.Budgets[0].Days != 30 || in.Budgets[1].Days != 30 {
		t.Fatalf("unexpected budgets %+v", in.Budgets)
	}
	if !in.Budgets[1].Derived || in.Budgets[1].Allowed.String() != "90.00" {
		t.Errorf("derived total = %+v", in.Budgets[1])
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, Build(scenarioLedger(), scenarioOptions())); err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Overview", "114.50", "28.63",
		"By category", "Grocery", "7.50", "Rent", "100.00", "Unknown", "7.00",
		"By month", "2024-01", "2024-02",
		"last 7 days", "Budgets", "over",
		"Top descriptions", "rent",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Books") {
		t.Error("unobserved category rendered")
	}
	if strings.Contains(out, "By payment method") {
		t.Error("empty payment method section rendered")
	}
}

func TestTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	in := Build(models.NewLedger("empty.csv"), Options{Granularity: stats.Month})
	if err := Text(&buf, in); err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "n/a") {
		t.Errorf("expected no-data markers:\n%s", out)
	}
	if strings.Contains(out, "By category") {
		t.Error("empty category section rendered")
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, Build(scenarioLedger(), scenarioOptions())); err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var got struct {
		Total      string `json:"total"`
		Mean       string `json:"mean"`
		AsOf       string `json:"as_of"`
		Categories []struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
			Total string `json:"total"`
		} `json:"categories"`
		Min struct {
			Row int `json:"row"`
		} `json:"min"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if got.Total != "114.50" || got.Mean != "28.63" || got.AsOf != "2024-02-03" {
		t.Errorf("got total %s mean %s as_of %s", got.Total, got.Mean, got.AsOf)
	}
	if len(got.Categories) != 3 || got.Categories[0].Key != "Rent" || got.Categories[1].Total != "7.50" {
		t.Errorf("categories = %+v", got.Categories)
	}
	if got.Min.Row != 2 {
		t.Errorf("min row = %d", got.Min.Row)
	}
}

func TestYAMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := YAML(&buf, Build(models.NewLedger("empty.csv"), Options{Granularity: stats.Month})); err != nil {
		t.Fatalf("YAML failed: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, buf.String())
	}
	if got["mean"] != nil || got["min"] != nil {
		t.Errorf("expected null mean and min, got %v and %v", got["mean"], got["min"])
	}
	if got["total"] != "0.00" {
		t.Errorf("total = %v", got["total"])
	}
}

func TestErrors(t *testing.T) {
	var buf bytes.Buffer
	Errors(&buf, scenarioLedger().Errors)
	out := buf.String()
	if !strings.Contains(out, "1 row(s) rejected") || !strings.Contains(out, "row 5: field count") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	Errors(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("empty = %q, %v", f, err)
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("JSON = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}
