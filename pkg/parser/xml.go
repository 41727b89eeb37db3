package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yurifrl/spendstat/pkg/models"
)

// xmlExpense accepts each field either as an attribute or as a child
// element. "note" is accepted as a synonym for "description".
type xmlExpense struct {
	DateAttr        string `xml:"date,attr"`
	AmountAttr      string `xml:"amount,attr"`
	CategoryAttr    string `xml:"category,attr"`
	DescriptionAttr string `xml:"description,attr"`
	NoteAttr        string `xml:"note,attr"`
	PaymentAttr     string `xml:"payment-method,attr"`

	Date          string `xml:"date"`
	Amount        string `xml:"amount"`
	Category      string `xml:"category"`
	Description   string `xml:"description"`
	Note          string `xml:"note"`
	PaymentMethod string `xml:"payment-method"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (x xmlExpense) fields() []string {
	return []string{
		firstNonEmpty(x.DateAttr, x.Date),
		firstNonEmpty(x.AmountAttr, x.Amount),
		firstNonEmpty(x.CategoryAttr, x.Category),
		firstNonEmpty(x.DescriptionAttr, x.Description, x.NoteAttr, x.Note),
	}
}

func (x xmlExpense) paymentMethod() string {
	return strings.TrimSpace(firstNonEmpty(x.PaymentAttr, x.PaymentMethod))
}

type xmlBudget struct {
	Category string `xml:"category,attr"`
	Amount   string `xml:"amount,attr"`
	Duration string `xml:"duration,attr"`
}

func (b xmlBudget) budget(aliases models.Aliases) (models.Budget, error) {
	amount, err := models.ParseMoney(b.Amount)
	if err != nil {
		return models.Budget{}, err
	}
	days, err := strconv.Atoi(strings.TrimSpace(b.Duration))
	if err != nil || days <= 0 {
		return models.Budget{}, fmt.Errorf("invalid duration %q", b.Duration)
	}

	out := models.Budget{Amount: amount, Days: days}
	if strings.TrimSpace(b.Category) != "" {
		c, ok := aliases.Resolve(b.Category)
		if !ok {
			return models.Budget{}, fmt.Errorf("unknown category %q", b.Category)
		}
		out.Category = &c
	}
	return out, nil
}

// ParseXML reads <expense> (or <transaction>) elements from anywhere in the
// document, plus <budget> elements. The decoder is lenient the way HTML
// parsers are: bare ampersands, unknown entities, unquoted attributes and
// mismatched end tags all parse. Markup it still cannot read is recorded as
// a malformed row and ends the load, since the decoder cannot resynchronise
// after it.
func (p *Parser) ParseXML(data []byte, source string) (*models.Ledger, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, source)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	ledger := models.NewLedger(source)
	row := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if p.stopOnSyntax(ledger, &row, err) {
				break
			}
			return nil, fmt.Errorf("failed to read xml: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch strings.ToLower(se.Name.Local) {
		case "expense", "transaction":
			var x xmlExpense
			if err := dec.DecodeElement(&x, &se); err != nil {
				if p.stopOnSyntax(ledger, &row, err) {
					return ledger, nil
				}
				return nil, fmt.Errorf("failed to read xml: %w", err)
			}
			row++
			p.addRow(ledger, x.fields(), row, x.paymentMethod())

		case "budget":
			var xb xmlBudget
			if err := dec.DecodeElement(&xb, &se); err != nil {
				if p.stopOnSyntax(ledger, &row, err) {
					return ledger, nil
				}
				return nil, fmt.Errorf("failed to read xml: %w", err)
			}
			b, err := xb.budget(p.opts.Aliases)
			if err != nil {
				p.logger.Warn("ignoring budget", "source", source, "error", err)
				continue
			}
			ledger.Budgets = append(ledger.Budgets, b)
		}
	}

	return ledger, nil
}

// stopOnSyntax files a markup error as one malformed row. It reports false
// for errors that are not markup errors, which the caller treats as fatal.
func (p *Parser) stopOnSyntax(ledger *models.Ledger, row *int, err error) bool {
	var syn *xml.SyntaxError
	if !errors.As(err, &syn) {
		return false
	}
	*row++
	p.addMalformed(ledger, nil, *row, fmt.Errorf("line %d: %s", syn.Line, syn.Msg))
	return true
}
