// Package service loads several ledgers at once, for batch plans and for
// directories of statements.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/parser"
	"github.com/yurifrl/spendstat/pkg/plan"
)

// DefaultConcurrency caps how many files are parsed at the same time.
const DefaultConcurrency = 4

// Result is one loaded ledger.
type Result struct {
	Name   string
	Path   string
	Ledger *models.Ledger
}

// Batch holds every ledger of a run, in input order, and their union.
// Budgets are the plan's own; budgets declared inside ledger files stay on
// those ledgers.
type Batch struct {
	Name     string
	Results  []Result
	Combined *models.Ledger
	Budgets  []models.Budget
}

type Processor struct {
	logger      *log.Logger
	opts        parser.Options
	concurrency int
}

func NewProcessor(logger *log.Logger, opts parser.Options) *Processor {
	return &Processor{
		logger:      logger,
		opts:        opts,
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency returns a copy of p that parses up to n files at once.
func (p *Processor) WithConcurrency(n int) *Processor {
	cp := *p
	if n < 1 {
		n = 1
	}
	cp.concurrency = n
	return &cp
}

type job struct {
	name string
	path string
	opts parser.Options
}

// LoadFile loads a single ledger with the processor's options.
func (p *Processor) LoadFile(path string) (*models.Ledger, error) {
	return parser.New(p.logger, p.opts).LoadFile(path)
}

// RunPlan loads every ledger in pl. The first fatal error cancels the files
// that have not started yet and is returned; row errors stay inside each
// ledger.
func (p *Processor) RunPlan(ctx context.Context, pl *plan.Plan) (*Batch, error) {
	jobs := make([]job, 0, len(pl.Ledgers))
	for _, l := range pl.Ledgers {
		opts, err := l.Options(p.opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Label(), err)
		}
		jobs = append(jobs, job{name: l.Label(), path: pl.Path(l), opts: opts})
	}

	name := pl.Name
	if name == "" {
		name = "combined"
	}
	batch, err := p.run(ctx, name, jobs)
	if err != nil {
		return nil, err
	}
	batch.Budgets = pl.Budgets
	return batch, nil
}

// supported lists the extensions LoadDirectory picks up.
var supported = map[string]bool{".csv": true, ".tsv": true, ".xml": true, ".xls": true}

// LoadDirectory loads every ledger file directly inside dir, in name order.
// Other files and subdirectories are skipped.
func (p *Processor) LoadDirectory(ctx context.Context, dir string) (*Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var jobs []job
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !supported[strings.ToLower(filepath.Ext(entry.Name()))] {
			p.logger.Debug("skipping file", "file", entry.Name())
			continue
		}
		jobs = append(jobs, job{name: entry.Name(), path: filepath.Join(dir, entry.Name()), opts: p.opts})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no ledger files found in %s", dir)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].name < jobs[j].name })

	return p.run(ctx, dir, jobs)
}

func (p *Processor) run(ctx context.Context, name string, jobs []job) (*Batch, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.logger.Info("processing file", "path", j.path)
			ledger, err := parser.New(p.logger.With("ledger", j.name), j.opts).LoadFile(j.path)
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			results[i] = Result{Name: j.name, Path: j.path, Ledger: ledger}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ledgers := make([]*models.Ledger, len(results))
	for i, r := range results {
		ledgers[i] = r.Ledger
	}
	combined := models.Merge(name, ledgers...)
	p.logger.Info("batch loaded", "ledgers", len(results), "rows", combined.Rows, "errors", len(combined.Errors))

	return &Batch{
		Name:     name,
		Results:  results,
		Combined: combined,
	}, nil
}
