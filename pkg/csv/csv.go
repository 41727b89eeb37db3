// Package csv writes expenses and rejected rows back out as normalized CSV.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"strconv"

	"github.com/yurifrl/spendstat/pkg/models"
)

// Record is anything that can be written as one CSV line.
type Record interface {
	Header() []string
	Fields() []string
}

type FilterFunc[T Record] func(T) bool

// Create renders records that pass filter, preceded by a header line. A nil
// filter keeps everything.
func Create[T Record](records []T, filter FilterFunc[T]) ([]byte, error) {
	var zero T
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)

	if err := w.Write(zero.Header()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if filter != nil && !filter(r) {
			continue
		}
		if err := w.Write(r.Fields()); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Expense adapts models.Expense to Record.
type Expense models.Expense

func (Expense) Header() []string {
	return []string{"date", "amount", "category", "description"}
}

func (e Expense) Fields() []string {
	return []string{e.Date.String(), e.Amount.String(), e.Category.String(), e.Description}
}

// Rejected adapts models.ParseError to Record.
type Rejected models.ParseError

func (Rejected) Header() []string {
	return []string{"row", "reason", "detail", "raw"}
}

func (r Rejected) Fields() []string {
	pe := models.ParseError(r)
	return []string{strconv.Itoa(r.Row), string(r.Reason), r.Detail, pe.RawLine()}
}

// Expenses writes a ledger's valid expenses.
func Expenses(expenses []models.Expense, filter FilterFunc[Expense]) ([]byte, error) {
	records := make([]Expense, len(expenses))
	for i, e := range expenses {
		records[i] = Expense(e)
	}
	return Create(records, filter)
}

// Errors writes a ledger's rejected rows.
func Errors(errs []models.ParseError) ([]byte, error) {
	records := make([]Rejected, len(errs))
	for i, e := range errs {
		records[i] = Rejected(e)
	}
	return Create[Rejected](records, nil)
}
