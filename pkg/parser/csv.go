package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/yurifrl/spendstat/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses delimited text with one expense per record:
// date,amount,category,description. Quoted fields may contain the delimiter
// and newlines. A record with broken quoting is rejected on its own; the
// records after it are still read.
func (p *Parser) ParseCSV(data []byte, source string, delim rune) (*models.Ledger, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, source)
	}

	rest := data
	r := newCSVReader(rest, delim)

	ledger := models.NewLedger(source)
	skipHeader := p.opts.HasHeader
	row := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("failed to read csv: %w", err)
			}

			// An unterminated quote swallows the rest of the input. Drop
			// only the line it opened on and read again from the next one.
			var raw []string
			if errors.Is(perr.Err, csv.ErrQuote) && perr.Line > perr.StartLine {
				var line []byte
				line, rest = splitAfterLine(rest, perr.StartLine)
				raw = []string{string(line)}
				r = newCSVReader(rest, delim)
			}

			if skipHeader {
				skipHeader = false
				p.logger.Warn("malformed header row", "source", source, "error", err)
				continue
			}
			row++
			p.addMalformed(ledger, firstNonNil(rec, raw), row, perr.Err)
			continue
		}

		if skipHeader {
			skipHeader = false
			p.logger.Debug("skipping header", "source", source, "header", rec)
			continue
		}

		row++
		p.addRow(ledger, rec, row, "")
	}

	return ledger, nil
}

func newCSVReader(data []byte, delim rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1 // arity is checked per row by ParseRecord
	return r
}

// splitAfterLine returns line n (1-based, without its newline) and the
// bytes that follow it.
func splitAfterLine(data []byte, n int) (line, rest []byte) {
	rest = data
	for i := 1; i <= n; i++ {
		idx := bytes.IndexByte(rest, '\n')
		if idx < 0 {
			return bytes.TrimRight(rest, "\r"), nil
		}
		line, rest = rest[:idx], rest[idx+1:]
	}
	return bytes.TrimRight(line, "\r"), rest
}

func firstNonNil(values ...[]string) []string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
