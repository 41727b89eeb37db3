package parser

import (
	"testing"

	"github.com/yurifrl/spendstat/pkg/models"
)

const scenarioXML = `<?xml version="1.0" encoding="UTF-8"?>
<ledger>
  <budget amount="600" duration="30"/>
  <budget category="Grocery" amount="300" duration="30"/>
  <budget category="Yacht" amount="1" duration="1"/>
  <expense date="2024-01-05" amount="12.50" category="Grocery" description="milk"/>
  <expense>
    <date>2024-01-10</date>
    <amount>-5.00</amount>
    <category>Grocery</category>
    <description>refund</description>
  </expense>
  <transaction date="2024-02-01" amount="100.00" category="Rent" note="rent" payment-method="transfer"/>
  <expense date="2024-02-03" amount="7.00" category="Yaght" description="typo"/>
</ledger>
`

func TestParseXMLMatchesCSV(t *testing.T) {
	p := newTestParser(DefaultOptions())

	fromCSV, err := p.ProcessBytes([]byte(scenarioCSV), "ledger.csv")
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	fromXML, err := p.ProcessBytes([]byte(scenarioXML), "ledger.xml")
	if err != nil {
		t.Fatalf("xml: %v", err)
	}

	if len(fromXML.Expenses) != len(fromCSV.Expenses) || len(fromXML.Errors) != 0 {
		t.Fatalf("expected %d expenses and no errors, got %d and %v",
			len(fromCSV.Expenses), len(fromXML.Expenses), fromXML.Errors)
	}
	for i := range fromCSV.Expenses {
		c, x := fromCSV.Expenses[i], fromXML.Expenses[i]
		if c.Row != x.Row || c.Date != x.Date || !c.Amount.Equal(x.Amount) ||
			c.Category != x.Category || c.Description != x.Description {
			t.Errorf("expense %d mismatch:\ncsv: %+v\nxml: %+v", i, c, x)
		}
	}
	if fromXML.Expenses[2].PaymentMethod != "transfer" {
		t.Errorf("expected payment method to be read, got %q", fromXML.Expenses[2].PaymentMethod)
	}
}

func TestParseXMLBudgets(t *testing.T) {
	p := newTestParser(DefaultOptions())
	ledger, err := p.ProcessBytes([]byte(scenarioXML), "ledger.xml")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(ledger.Budgets) != 2 {
		t.Fatalf("expected 2 budgets (unknown category dropped), got %d", len(ledger.Budgets))
	}
	if ledger.Budgets[0].Category != nil || ledger.Budgets[0].Daily().String() != "20.00" {
		t.Errorf("unexpected overall budget %+v", ledger.Budgets[0])
	}
	if c := ledger.Budgets[1].Category; c == nil || *c != models.Grocery {
		t.Errorf("expected Grocery budget, got %+v", ledger.Budgets[1])
	}
}

func TestParseXMLRowErrors(t *testing.T) {
	input := `<ledger>
  <expense date="2024-01-05" amount="1.00" category="Books"/>
  <expense amount="1.00" category="Books"/>
  <expense date="2024-01-07" amount="x" category="Books"/>
</ledger>`
	p := newTestParser(DefaultOptions())
	ledger, err := p.ProcessBytes([]byte(input), "ledger.xml")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(ledger.Expenses) != 1 || len(ledger.Errors) != 2 {
		t.Fatalf("expected 1 expense and 2 errors, got %d and %d", len(ledger.Expenses), len(ledger.Errors))
	}
	if ledger.Errors[0].Reason != models.ReasonMissingField || ledger.Errors[1].Reason != models.ReasonInvalidAmount {
		t.Fatalf("unexpected reasons: %+v", ledger.Errors)
	}
}

func TestParseXMLSyntaxErrorKeepsEarlierRows(t *testing.T) {
	input := `<ledger>
  <expense date="2024-01-05" amount="1.00" category="Books" description="a"/>
  <expense date="2024-01-06" amount="2.00" category="Books" description="b"/>
  <expense date="2024-01-07" amount="3.00" category="Books description="c"/>
  <expense date="2024-01-08" amount="4.00" category="Books" description="d"/>
</ledger>`
	p := newTestParser(DefaultOptions())
	ledger, err := p.ProcessBytes([]byte(input), "broken.xml")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(ledger.Expenses) != 2 {
		t.Fatalf("expected the two rows before the error, got %d", len(ledger.Expenses))
	}
	if len(ledger.Errors) != 1 || ledger.Errors[0].Reason != models.ReasonMalformed || ledger.Errors[0].Row != 3 {
		t.Fatalf("expected one malformed row 3, got %+v", ledger.Errors)
	}
	if ledger.Rows != 3 {
		t.Fatalf("expected 3 rows, got %d", ledger.Rows)
	}
}

func TestParseXMLLenientMarkup(t *testing.T) {
	input := `<ledger>
  <expense date="2024-01-05" amount="1.00" category="Restaurants" description="Fish & Chips"/>
  <expense date="2024-01-06" amount="2.00" category="Books" description="caf&eacute; &amp; more"/>
  <expense date=2024-01-07 amount="3.00" category=Books description=plain/>
  <expense><date>2024-01-08</date><amount>4.00</amount><category>Books</category><description>R&D</description></expense>
  <expense date="2024-01-09" amount="5.00" category="Books" description="e"/>
</ledger>`
	p := newTestParser(DefaultOptions())
	ledger, err := p.ProcessBytes([]byte(input), "hand-edited.xml")
	if err != nil {
		t.Fatalf("ProcessBytes failed: %v", err)
	}
	if len(ledger.Expenses) != 5 || len(ledger.Errors) != 0 {
		t.Fatalf("expected 5 expenses and 0 errors, got %d and %d: %+v",
			len(ledger.Expenses), len(ledger.Errors), ledger.Errors)
	}
	if got := ledger.Expenses[0].Description; got != "Fish & Chips" {
		t.Errorf("expected bare ampersand kept, got %q", got)
	}
	if got := ledger.Expenses[1].Description; got != "caf\u00e9 & more" {
		t.Errorf("expected HTML entities decoded, got %q", got)
	}
	if got := ledger.Expenses[3].Description; got != "R&D" {
		t.Errorf("expected bare ampersand in element text kept, got %q", got)
	}
	if got := ledger.Expenses[4]; got.Row != 5 || got.Amount.String() != "5.00" {
		t.Errorf("expected the last expense on row 5, got %+v", got)
	}
}
