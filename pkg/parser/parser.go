package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/spendstat/pkg/models"
)

type FileType string

const (
	Auto FileType = ""
	CSV  FileType = "csv"
	XML  FileType = "xml"
	XLS  FileType = "xls"
)

// CategoryMode decides what happens to labels outside the category list.
type CategoryMode string

const (
	// CategoryFallback files unrecognised labels under models.Unknown.
	CategoryFallback CategoryMode = "fallback"
	// CategoryStrict rejects the row instead.
	CategoryStrict CategoryMode = "strict"
)

var (
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
	ErrUnknownFormat   = errors.New("unknown file type")
)

// Options controls how raw input is tokenized and validated.
type Options struct {
	Format       FileType
	Delimiter    rune
	HasHeader    bool
	DateLayout   string
	CategoryMode CategoryMode
	Aliases      models.Aliases
}

// DefaultOptions reads comma separated files with a header row and ISO dates.
func DefaultOptions() Options {
	return Options{
		Format:       Auto,
		Delimiter:    ',',
		HasHeader:    true,
		DateLayout:   models.DefaultDateLayout,
		CategoryMode: CategoryFallback,
	}
}

type Parser struct {
	logger *log.Logger
	opts   Options
}

func New(logger *log.Logger, opts Options) *Parser {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.DateLayout == "" {
		opts.DateLayout = models.DefaultDateLayout
	}
	if opts.CategoryMode == "" {
		opts.CategoryMode = CategoryFallback
	}
	return &Parser{
		logger: logger,
		opts:   opts,
	}
}

// LoadFile reads and parses the ledger at path. Only I/O and encoding
// problems are returned as errors; bad rows end up in Ledger.Errors.
func (p *Parser) LoadFile(path string) (*models.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ProcessBytes(data, path)
}

// Load reads everything from r and parses it. source names the input in the
// ledger and in log lines, and its extension drives format detection.
func (p *Parser) Load(r io.Reader, source string) (*models.Ledger, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return p.ProcessBytes(data, source)
}

func (p *Parser) ProcessBytes(data []byte, filename string) (*models.Ledger, error) {
	fileType, delim, err := p.detectType(filename)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("detected file type", "type", fileType, "filename", filename)

	var ledger *models.Ledger
	switch fileType {
	case CSV:
		ledger, err = p.ParseCSV(data, filename, delim)
	case XML:
		ledger, err = p.ParseXML(data, filename)
	case XLS:
		ledger, err = p.ParseXLS(data, filename)
	}
	if err != nil {
		return nil, err
	}

	p.logger.Info("ledger loaded",
		"source", filename,
		"rows", ledger.Rows,
		"expenses", len(ledger.Expenses),
		"errors", len(ledger.Errors),
		"budgets", len(ledger.Budgets))
	return ledger, nil
}

// ParseDelimiter reads a single-character delimiter. "tab" and `\t` name
// the tab character; empty means comma.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

func (p *Parser) detectType(filename string) (FileType, rune, error) {
	delim := p.opts.Delimiter
	switch p.opts.Format {
	case CSV, XML, XLS:
		return p.opts.Format, delim, nil
	case Auto:
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownFormat, p.opts.Format)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml":
		return XML, delim, nil
	case ".xls":
		return XLS, delim, nil
	case ".tsv":
		if delim == ',' {
			delim = '\t'
		}
		return CSV, delim, nil
	default:
		return CSV, delim, nil
	}
}

// addRow runs one tokenized row through ParseRecord and files the result.
func (p *Parser) addRow(ledger *models.Ledger, fields []string, row int, paymentMethod string) {
	expense, perr := p.ParseRecord(fields, row)
	if perr != nil {
		p.logger.Debug("rejected row",
			"source", ledger.Source, "row", row, "reason", perr.Reason, "detail", perr.Detail)
		ledger.AddError(*perr)
		return
	}
	expense.PaymentMethod = paymentMethod
	ledger.AddExpense(expense)
}

func (p *Parser) addMalformed(ledger *models.Ledger, raw []string, row int, err error) {
	p.logger.Debug("malformed row", "source", ledger.Source, "row", row, "error", err)
	ledger.AddError(models.ParseError{
		Row:    row,
		Raw:    raw,
		Reason: models.ReasonMalformed,
		Detail: err.Error(),
	})
}
