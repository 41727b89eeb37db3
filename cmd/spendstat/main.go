package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/spendstat/pkg/config"
	"github.com/yurifrl/spendstat/pkg/csv"
	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/parser"
	"github.com/yurifrl/spendstat/pkg/plan"
	"github.com/yurifrl/spendstat/pkg/report"
	"github.com/yurifrl/spendstat/pkg/service"
)

// cli holds the global flags of one command tree.
type cli struct {
	filters filters
	cfgFile string
	dump    bool
}

// errRejected is returned under --strict when any row failed to parse.
var errRejected = errors.New("rows were rejected")

// app is what every command needs once flags and config are resolved.
type app struct {
	*cli
	cfg       *config.Config
	logger    *log.Logger
	opts      parser.Options
	match     matcher
	processor *service.Processor
	today     models.Date
}

func (c *cli) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Build(c.cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(cmd.ErrOrStderr(), "spendstat")
	if cfg.File != "" {
		logger.Debug("using config file", "file", cfg.File)
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		return nil, err
	}
	match, err := c.filters.compile(opts.Aliases)
	if err != nil {
		return nil, err
	}

	return &app{
		cli:       c,
		cfg:       cfg,
		logger:    logger,
		opts:      opts,
		match:     match,
		processor: service.NewProcessor(logger, opts),
		today:     models.DateOf(time.Now()),
	}, nil
}

func (a *app) reportOptions(extra []models.Budget) (report.Options, error) {
	g, err := a.cfg.Granularity()
	if err != nil {
		return report.Options{}, err
	}
	asOf, err := a.cfg.AsOfDate(a.today)
	if err != nil {
		return report.Options{}, err
	}
	budgets, err := a.cfg.BudgetList(a.opts.Aliases)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{
		Granularity:     g,
		AsOf:            asOf,
		Windows:         a.cfg.Windows,
		Budgets:         append(budgets, extra...),
		TopDescriptions: a.cfg.Top,
	}, nil
}

// load reads a single ledger file, or every ledger in a directory merged
// into one.
func (a *app) load(cmd *cobra.Command, path string) (*models.Ledger, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	var ledger *models.Ledger
	if info.IsDir() {
		batch, err := a.processor.LoadDirectory(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		ledger = batch.Combined
	} else {
		ledger, err = a.processor.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	if a.dump {
		pp.Fprintln(cmd.ErrOrStderr(), ledger)
	}
	return ledger, nil
}

// finish lists rejected rows on stderr and applies --strict.
func (a *app) finish(cmd *cobra.Command, errs []models.ParseError) error {
	report.Errors(cmd.ErrOrStderr(), errs)
	if a.cfg.Strict && len(errs) > 0 {
		return fmt.Errorf("%w: %d row(s)", errRejected, len(errs))
	}
	return nil
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "spendstat [flags] <file|dir>",
		Short:         "Summarize personal expense ledgers",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}
			ledger, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			opts, err := a.reportOptions(nil)
			if err != nil {
				return err
			}
			format, err := a.cfg.OutputFormat()
			if err != nil {
				return err
			}

			in := report.Build(a.match.apply(ledger), opts)
			if err := report.Write(cmd.OutOrStdout(), in, format); err != nil {
				return err
			}
			return a.finish(cmd, ledger.Errors)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [flags] <file|dir>",
		Short: "Write the valid expenses as normalized CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}
			ledger, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}

			var out []byte
			if rejected, _ := cmd.Flags().GetBool("rejected"); rejected {
				out, err = csv.Errors(ledger.Errors)
			} else {
				expenses := append([]models.Expense(nil), ledger.Expenses...)
				sort.SliceStable(expenses, func(i, j int) bool {
					return expenses[i].Date.Before(expenses[j].Date)
				})
				out, err = csv.Expenses(expenses, a.match.toFilterFunc())
			}
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			return a.finish(cmd, ledger.Errors)
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch <plan_file>",
		Short: "Summarize every ledger listed in a YAML plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}
			p, err := plan.Load(args[0])
			if err != nil {
				return err
			}
			format, err := a.cfg.OutputFormat()
			if err != nil {
				return err
			}
			if format == report.FormatText {
				p.Print(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout())
			}

			batch, err := a.processor.RunPlan(cmd.Context(), p)
			if err != nil {
				return err
			}
			if a.dump {
				pp.Fprintln(cmd.ErrOrStderr(), batch)
			}
			opts, err := a.reportOptions(batch.Budgets)
			if err != nil {
				return err
			}

			var b report.BatchInput
			for _, r := range batch.Results {
				perLedger := opts
				perLedger.Budgets = nil
				in := report.Build(a.match.apply(r.Ledger), perLedger)
				in.Source = r.Name
				b.Ledgers = append(b.Ledgers, in)
			}
			b.Combined = report.Build(a.match.apply(batch.Combined), opts)

			if err := report.WriteBatch(cmd.OutOrStdout(), b, format); err != nil {
				return err
			}
			return a.finish(cmd, batch.Combined.Errors)
		},
	}

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List the known categories and configured aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}
			report.Categories(cmd.OutOrStdout(), a.opts.Aliases)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "Config file (default is ./spendstat.yaml)")
	rootCmd.PersistentFlags().BoolVar(&c.dump, "dump", false, "Pretty-print the loaded ledger to stderr")
	config.RegisterFlags(rootCmd.PersistentFlags())

	// Filter flags (global)
	rootCmd.PersistentFlags().StringVar(&c.filters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&c.filters.endDate, "end", "", "End date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&c.filters.minAmount, "min", "", "Minimum amount")
	rootCmd.PersistentFlags().StringVar(&c.filters.maxAmount, "max", "", "Maximum amount")
	rootCmd.PersistentFlags().StringVar(&c.filters.category, "category", "", "Only this category (aliases allowed)")
	rootCmd.PersistentFlags().StringVar(&c.filters.description, "description", "", "Filter by description (case insensitive)")

	exportCmd.Flags().Bool("rejected", false, "Write the rejected rows instead of the expenses")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(categoriesCmd)
	return rootCmd
}

func run(args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
