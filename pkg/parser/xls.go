package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/yurifrl/spendstat/pkg/models"
)

// maxXLSRows is the BIFF8 sheet row limit.
const maxXLSRows = 65536

// ParseXLS reads the first sheet of a legacy Excel workbook and treats every
// non-empty row exactly like a CSV record.
func (p *Parser) ParseXLS(data []byte, source string) (*models.Ledger, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}

	rows := workbook.ReadAllCells(maxXLSRows)
	ledger := models.NewLedger(source)
	skipHeader := p.opts.HasHeader
	row := 0

	for _, cells := range rows {
		if isBlank(cells) {
			continue
		}
		if skipHeader {
			skipHeader = false
			continue
		}
		row++
		p.addRow(ledger, fitColumns(cells), row, "")
	}

	return ledger, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fitColumns makes a spreadsheet row line up with the ledger columns. Sheets
// report every row as wide as the widest one, and a column that is empty
// everywhere may be missing altogether, so blank cells past the last column
// are dropped and missing trailing cells are treated as empty. Non-blank
// extra cells are kept so the row fails the field count check.
func fitColumns(cells []string) []string {
	n := len(cells)
	for n > numColumns && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	out := make([]string, max(n, numColumns))
	copy(out, cells[:n])
	return out
}
