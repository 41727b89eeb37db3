package parser

import (
	"fmt"
	"strings"

	"github.com/yurifrl/spendstat/pkg/models"
)

// Column order of a ledger row.
const (
	colDate = iota
	colAmount
	colCategory
	colDescription
	numColumns
)

// ParseRecord validates one tokenized row (date, amount, category,
// description). It has no side effects; a nil *ParseError means the expense
// is valid.
func (p *Parser) ParseRecord(fields []string, row int) (models.Expense, *models.ParseError) {
	reject := func(reason models.Reason, format string, args ...any) (models.Expense, *models.ParseError) {
		return models.Expense{}, &models.ParseError{
			Row:    row,
			Raw:    append([]string(nil), fields...),
			Reason: reason,
			Detail: fmt.Sprintf(format, args...),
		}
	}

	if len(fields) != numColumns {
		return reject(models.ReasonFieldCount, "expected %d fields, got %d", numColumns, len(fields))
	}

	dateStr := strings.TrimSpace(fields[colDate])
	if dateStr == "" {
		return reject(models.ReasonMissingField, "date is empty")
	}
	amountStr := strings.TrimSpace(fields[colAmount])
	if amountStr == "" {
		return reject(models.ReasonMissingField, "amount is empty")
	}

	date, err := models.ParseDate(dateStr, p.opts.DateLayout)
	if err != nil {
		return reject(models.ReasonInvalidDate, "%q does not match layout %q", dateStr, p.opts.DateLayout)
	}

	amount, err := models.ParseMoney(amountStr)
	if err != nil {
		return reject(models.ReasonInvalidAmount, "%v", err)
	}

	category, ok := p.opts.Aliases.Resolve(fields[colCategory])
	if !ok && p.opts.CategoryMode == CategoryStrict && strings.TrimSpace(fields[colCategory]) != "" {
		return reject(models.ReasonUnknownCategory, "%q is not a known category", strings.TrimSpace(fields[colCategory]))
	}

	return models.Expense{
		Row:         row,
		Date:        date,
		Amount:      amount,
		Category:    category,
		Description: fields[colDescription],
	}, nil
}
