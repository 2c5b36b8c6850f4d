package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/config"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/output"
	"github.com/rgehrsitz/savingsim/internal/recorder"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const envLogLevel = "SAVINGSIM_LOG_LEVEL"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newLogger builds the CLI logger. An empty level falls back to
// SAVINGSIM_LOG_LEVEL, then to warn.
func newLogger(w io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)
	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (use text or json)", format)
	}

	if level == "" {
		level = os.Getenv(envLogLevel)
	}
	if level == "" {
		level = "warn"
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(logLevel)
	return logger, nil
}

// newEngine returns a calculation engine wired to the logger and the
// --strict flag
func newEngine(cmd *cobra.Command) (*calculation.CalculationEngine, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	logger, err := newLogger(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return nil, err
	}
	engine := calculation.NewCalculationEngine()
	engine.SetLogger(logger)
	engine.Strict, _ = cmd.Flags().GetBool("strict")
	return engine, nil
}

// loadConfig parses the input file and the product registry
func loadConfig(cmd *cobra.Command, path string) (*domain.Configuration, *config.InputParser, error) {
	parser := config.NewInputParser()
	cfg, err := parser.LoadFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	if display, _ := cmd.Flags().GetString("display-currency"); display != "" {
		cfg.Display.Currency = domain.Currency(strings.ToUpper(display))
		if err := parser.ValidateConfiguration(cfg); err != nil {
			return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, parser, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "savingsim %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate [input-file]",
		Short: "Simulate a contract and print its yearly breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, parser, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			product, err := resolveProduct(cmd, cfg, parser)
			if err != nil {
				return err
			}

			var results *domain.ResultsDaily
			productName := ""
			if product != nil {
				productName = product.Name
				results, err = product.Simulate(cmd.Context(), engine, cfg.Contract)
			} else {
				results, err = engine.Simulate(cmd.Context(), cfg.Contract)
			}
			if err != nil {
				return err
			}

			if cfg.Display.Currency != "" {
				results, err = calculation.ConvertResults(results, cfg.Display.Currency, cfg.Display.Rates)
				if err != nil {
					return err
				}
			}

			outputFormat, _ := cmd.Flags().GetString("format")
			f := output.GetFormatterByName(outputFormat)
			if f == nil {
				return fmt.Errorf("unknown format %q (available: %s)", outputFormat,
					strings.Join(output.AvailableFormatterNames(), ", "))
			}
			report := output.NewReport(cfg.Name, productName, results)

			if save, _ := cmd.Flags().GetBool("save"); save {
				filename, err := output.WriteFormatted(f, report, fileExtension(f.Name()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", filename)
				return nil
			}

			data, err := f.Format(report)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringP("format", "f", "console-lite", "Output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	cmd.Flags().StringP("product", "p", "", "Product code to apply (overrides the file's product)")
	cmd.Flags().Bool("save", false, "Write the report to a timestamped file instead of stdout")
	return cmd
}

func fileExtension(format string) string {
	switch format {
	case "json":
		return "json"
	case "html":
		return "html"
	case "pdf":
		return "pdf"
	case "csv", "detailed-csv":
		return "csv"
	default:
		return "txt"
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, parser, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			catalog, _ := cmd.Flags().GetString("catalog")
			registry, err := parser.LoadRegistry(catalog)
			if err != nil {
				return err
			}
			if _, err := config.Candidates(cfg, registry); err != nil {
				return err
			}
			if cfg.Product != "" {
				if _, err := registry.MustGet(cfg.Product); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration %q is valid\n", cfg.Name)
			return nil
		},
	}
}

func rankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [input-file]",
		Short: "Rank candidate products for a contract by final surrender value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, parser, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}
			catalog, _ := cmd.Flags().GetString("catalog")
			registry, err := parser.LoadRegistry(catalog)
			if err != nil {
				return err
			}
			candidates, err := config.Candidates(cfg, registry)
			if err != nil {
				return err
			}

			workers, _ := cmd.Flags().GetInt("workers")
			rs, err := compare.NewRankEngine(engine).Rank(cmd.Context(), cfg.Contract, candidates, compare.RankOptions{
				ContractName:    cfg.Name,
				ConfigPath:      args[0],
				Workers:         workers,
				DisplayCurrency: cfg.Display.Currency,
				Rates:           cfg.Display.Rates,
			})
			if err != nil {
				return err
			}
			if err := recordRun(cmd, recorder.KindRank, rs); err != nil {
				return err
			}

			return formatRanking(cmd, rs)
		},
	}
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.Flags().Int("workers", 0, "Parallel simulations (0 uses all CPUs)")
	cmd.Flags().String("record", "", "Store the ranking in this SQLite file")
	return cmd
}

func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the available products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, _ := cmd.Flags().GetString("catalog")
			registry, err := config.NewInputParser().LoadRegistry(catalog)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range registry.All() {
				currency := string(p.Overlay.Currency)
				if currency == "" {
					currency = "any"
				}
				fmt.Fprintf(w, "%-22s %-4s %s\n", p.Code, currency, p.Name)
				if p.Description != "" {
					fmt.Fprintf(w, "%-22s      %s\n", "", p.Description)
				}
			}
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [amount] [from] [to]",
		Short: "Convert an amount between HUF, EUR and USD",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			from := domain.Currency(strings.ToUpper(args[1]))
			to := domain.Currency(strings.ToUpper(args[2]))

			var rates domain.ExchangeRates
			eur, _ := cmd.Flags().GetString("eur-rate")
			usd, _ := cmd.Flags().GetString("usd-rate")
			if rates.EUR, err = parseRate("eur-rate", eur); err != nil {
				return err
			}
			if rates.USD, err = parseRate("usd-rate", usd); err != nil {
				return err
			}

			converted, err := calculation.ConvertWithRates(amount, from, to, rates)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", amount.String(), from, output.FormatCurrency(converted, to))
			return nil
		},
	}
	cmd.Flags().String("eur-rate", "", "HUF per EUR")
	cmd.Flags().String("usd-rate", "", "HUF per USD")
	return cmd
}

func parseRate(flag, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return rate, nil
}

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List calculate output formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			aliases := output.AvailableFormatAliases()
			sort.Strings(aliases)
			fmt.Fprintf(cmd.OutOrStdout(), "formats: %s\naliases: %s\n",
				strings.Join(output.AvailableFormatterNames(), ", "),
				strings.Join(aliases, ", "))
		},
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "savingsim",
		Short: "Savings and insurance contract cash-flow simulator",
		Long: "Simulates long-term savings and unit-linked insurance contracts month by month,\n" +
			"applies product defaults and ranks products by their surrender value.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); defaults to $"+envLogLevel+" or warn")
	root.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	root.PersistentFlags().Bool("strict", false, "Fail runs that produce warning diagnostics")
	root.PersistentFlags().String("catalog", "", "Additional product catalog YAML file")
	root.PersistentFlags().String("display-currency", "", "Show results in HUF, EUR or USD")

	root.AddCommand(
		calculateCmd(),
		validateCmd(),
		rankCmd(),
		whatifCmd(),
		breakevenCmd(),
		sensitivityCmd(),
		historyCmd(),
		productsCmd(),
		convertCmd(),
		formatsCmd(),
		versionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
