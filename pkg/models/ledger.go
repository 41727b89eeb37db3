package models

import (
	"fmt"
	"strings"
)

// Reason classifies why a row was rejected.
type Reason string

const (
	ReasonFieldCount      Reason = "field count"
	ReasonMissingField    Reason = "missing field"
	ReasonInvalidDate     Reason = "invalid date"
	ReasonInvalidAmount   Reason = "invalid amount"
	ReasonMalformed       Reason = "malformed row"
	ReasonUnknownCategory Reason = "unknown category"
)

// ParseError describes one input row that failed validation. Row 0 is the
// header; data rows count from 1.
type ParseError struct {
	Row    int
	Raw    []string
	Reason Reason
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Reason, e.Detail)
}

// RawLine joins the raw fields back into a single comma separated line for
// display.
func (e *ParseError) RawLine() string {
	return strings.Join(e.Raw, ",")
}

// Budget is a spending allowance of Amount every Days days, either for one
// category or, when Category is nil, for everything.
type Budget struct {
	Category *Category `yaml:"category,omitempty" json:"category,omitempty"`
	Amount   Money     `yaml:"amount" json:"amount"`
	Days     int       `yaml:"days" json:"days"`
}

// Daily returns the allowance for a single day.
func (b Budget) Daily() Money {
	return b.Amount.Div(int64(b.Days))
}

// Label names the budget for reports.
func (b Budget) Label() string {
	if b.Category == nil {
		return "Total"
	}
	return b.Category.String()
}

// Ledger is everything loaded from one source: the valid expenses in file
// order, the rejected rows, and any budgets the source declared.
//
// len(Expenses)+len(Errors) == Rows always holds.
type Ledger struct {
	Source   string
	Expenses []Expense
	Errors   []ParseError
	Budgets  []Budget
	Rows     int
}

// NewLedger returns an empty ledger for source.
func NewLedger(source string) *Ledger {
	return &Ledger{Source: source}
}

// AddExpense records a successfully parsed row.
func (l *Ledger) AddExpense(e Expense) {
	l.Rows++
	l.Expenses = append(l.Expenses, e)
}

// AddError records a rejected row.
func (l *Ledger) AddError(e ParseError) {
	l.Rows++
	l.Errors = append(l.Errors, e)
}

// HasErrors reports whether any rows were rejected.
func (l *Ledger) HasErrors() bool {
	return len(l.Errors) > 0
}

// Merge concatenates ledgers in argument order. Row numbers keep referring
// to each expense's own source.
func Merge(source string, ledgers ...*Ledger) *Ledger {
	out := NewLedger(source)
	for _, l := range ledgers {
		if l == nil {
			continue
		}
		out.Expenses = append(out.Expenses, l.Expenses...)
		out.Errors = append(out.Errors, l.Errors...)
		out.Budgets = append(out.Budgets, l.Budgets...)
		out.Rows += l.Rows
	}
	return out
}
