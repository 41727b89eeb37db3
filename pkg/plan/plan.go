// Package plan reads batch files that list several ledgers to summarize in
// one run.
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/parser"
)

// Ledger is one input file and any per-file overrides of the parser
// settings.
type Ledger struct {
	File       string `yaml:"file"`
	Name       string `yaml:"name,omitempty"`
	Format     string `yaml:"format,omitempty"`
	Delimiter  string `yaml:"delimiter,omitempty"`
	Header     *bool  `yaml:"header,omitempty"`
	DateFormat string `yaml:"date_format,omitempty"`
}

type Plan struct {
	Name    string          `yaml:"name"`
	Ledgers []Ledger        `yaml:"ledgers"`
	Budgets []models.Budget `yaml:"budgets"`

	dir string
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a plan. Relative ledger paths are resolved against dir.
func Parse(data []byte, dir string) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	p.dir = dir

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) Validate() error {
	if len(p.Ledgers) == 0 {
		return fmt.Errorf("plan has no ledgers")
	}

	var errs []error
	seen := make(map[string]int, len(p.Ledgers))
	for i, l := range p.Ledgers {
		if strings.TrimSpace(l.File) == "" {
			errs = append(errs, fmt.Errorf("ledger %d: file is required", i+1))
			continue
		}
		if j, dup := seen[l.Label()]; dup {
			errs = append(errs, fmt.Errorf("ledger %d: %q already used by ledger %d", i+1, l.Label(), j))
		}
		seen[l.Label()] = i + 1
		if _, err := l.Options(parser.DefaultOptions()); err != nil {
			errs = append(errs, fmt.Errorf("ledger %d: %w", i+1, err))
		}
	}
	for i, b := range p.Budgets {
		if b.Days <= 0 {
			errs = append(errs, fmt.Errorf("budget %d: days must be positive", i+1))
		}
	}
	return errors.Join(errs...)
}

// Label names the ledger in reports: Name when set, else the file path.
func (l Ledger) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return l.File
}

// Path returns where the ledger file lives.
func (p *Plan) Path(l Ledger) string {
	if filepath.IsAbs(l.File) || p.dir == "" {
		return l.File
	}
	return filepath.Join(p.dir, l.File)
}

// Options applies the ledger's overrides on top of base.
func (l Ledger) Options(base parser.Options) (parser.Options, error) {
	opts := base
	if l.Format != "" {
		switch f := parser.FileType(strings.ToLower(l.Format)); f {
		case parser.CSV, parser.XML, parser.XLS:
			opts.Format = f
		default:
			return opts, fmt.Errorf("%w: %q", parser.ErrUnknownFormat, l.Format)
		}
	}
	if l.Delimiter != "" {
		d, err := parser.ParseDelimiter(l.Delimiter)
		if err != nil {
			return opts, err
		}
		opts.Delimiter = d
	}
	if l.Header != nil {
		opts.HasHeader = *l.Header
	}
	if l.DateFormat != "" {
		opts.DateLayout = l.DateFormat
	}
	return opts, nil
}

func (p *Plan) Print(w io.Writer) {
	name := p.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Plan: %s\n", name)
	for i, l := range p.Ledgers {
		format := l.Format
		if format == "" {
			format = "auto"
		}
		fmt.Fprintf(w, "[%d] file=%s format=%s\n", i+1, p.Path(l), format)
	}
	for _, b := range p.Budgets {
		fmt.Fprintf(w, "budget %s: %s every %d days\n", b.Label(), b.Amount, b.Days)
	}
}
