package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/stats"
)

type expenseView struct {
	Row         int             `yaml:"row" json:"row"`
	Date        models.Date     `yaml:"date" json:"date"`
	Amount      models.Money    `yaml:"amount" json:"amount"`
	Category    models.Category `yaml:"category" json:"category"`
	Description string          `yaml:"description" json:"description"`
}

type groupView struct {
	Key   string       `yaml:"key" json:"key"`
	Count int          `yaml:"count" json:"count"`
	Total models.Money `yaml:"total" json:"total"`
}

type periodView struct {
	groupView `yaml:",inline"`
	Days      int          `yaml:"days" json:"days"`
	Daily     models.Money `yaml:"daily" json:"daily"`
}

type windowView struct {
	Days  int          `yaml:"days" json:"days"`
	Count int          `yaml:"count" json:"count"`
	Total models.Money `yaml:"total" json:"total"`
	Daily models.Money `yaml:"daily" json:"daily"`
}

type budgetView struct {
	Budget    string             `yaml:"budget" json:"budget"`
	Days      int                `yaml:"days" json:"days"`
	Allowed   models.Money       `yaml:"allowed" json:"allowed"`
	Spent     models.Money       `yaml:"spent" json:"spent"`
	Remaining models.Money       `yaml:"remaining" json:"remaining"`
	Status    stats.BudgetStatus `yaml:"status" json:"status"`
	Derived   bool               `yaml:"derived,omitempty" json:"derived,omitempty"`
}

// view is the machine readable shape of Input. Slices keep the same order
// as the text tables so output is stable.
type view struct {
	Source   string        `yaml:"source" json:"source"`
	Rows     int           `yaml:"rows" json:"rows"`
	Expenses int           `yaml:"expenses" json:"expenses"`
	Rejected int           `yaml:"rejected" json:"rejected"`
	AsOf     models.Date   `yaml:"as_of" json:"as_of"`
	Total    models.Money  `yaml:"total" json:"total"`
	Mean     *models.Money `yaml:"mean" json:"mean"`
	Min      *expenseView  `yaml:"min" json:"min"`
	Max      *expenseView  `yaml:"max" json:"max"`

	Categories     []groupView  `yaml:"categories" json:"categories"`
	Periods        []periodView `yaml:"periods" json:"periods"`
	Windows        []windowView `yaml:"windows,omitempty" json:"windows,omitempty"`
	PaymentMethods []groupView  `yaml:"payment_methods,omitempty" json:"payment_methods,omitempty"`
	Top            []groupView  `yaml:"top_descriptions,omitempty" json:"top_descriptions,omitempty"`
	Budgets        []budgetView `yaml:"budgets,omitempty" json:"budgets,omitempty"`
}

func toExpenseView(e models.Expense, ok bool) *expenseView {
	if !ok {
		return nil
	}
	return &expenseView{Row: e.Row, Date: e.Date, Amount: e.Amount, Category: e.Category, Description: e.Description}
}

func toGroups(kts []stats.KeyTotal) []groupView {
	out := make([]groupView, 0, len(kts))
	for _, kt := range kts {
		out = append(out, groupView{Key: kt.Key, Count: kt.Count, Total: kt.Total})
	}
	return out
}

func newView(in Input) view {
	s := in.Summary
	v := view{
		Source:         in.Source,
		Rows:           in.Rows,
		Expenses:       s.Count,
		Rejected:       in.Rejected,
		AsOf:           in.AsOf,
		Total:          s.Total,
		Min:            toExpenseView(s.Min()),
		Max:            toExpenseView(s.Max()),
		Categories:     []groupView{},
		Periods:        []periodView{},
		PaymentMethods: toGroups(s.PaymentMethods()),
		Top:            toGroups(in.Top),
	}
	if mean, ok := s.Mean(); ok {
		v.Mean = &mean
	}
	for _, c := range s.Categories() {
		v.Categories = append(v.Categories, groupView{Key: c.Category.String(), Count: c.Count, Total: c.Total})
	}
	for _, p := range in.Periods {
		v.Periods = append(v.Periods, periodView{
			groupView: groupView{Key: p.Key, Count: p.Summary.Count, Total: p.Summary.Total},
			Days:      p.Days,
			Daily:     p.DailyAverage(),
		})
	}
	for _, w := range in.Windows {
		v.Windows = append(v.Windows, windowView{Days: w.Days, Count: w.Summary.Count, Total: w.Summary.Total, Daily: w.DailyAverage()})
	}
	for _, b := range in.Budgets {
		v.Budgets = append(v.Budgets, budgetView{
			Budget:    b.Budget.Label(),
			Days:      b.Days,
			Allowed:   b.Allowed,
			Spent:     b.Spent,
			Remaining: b.Remaining,
			Status:    b.Status,
			Derived:   b.Derived,
		})
	}
	return v
}

func YAML(w io.Writer, in Input) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newView(in)); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func JSON(w io.Writer, in Input) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newView(in)); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
