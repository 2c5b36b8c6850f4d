package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/savingsim/internal/breakeven"
	"github.com/rgehrsitz/savingsim/internal/calculation"
	"github.com/rgehrsitz/savingsim/internal/compare"
	"github.com/rgehrsitz/savingsim/internal/config"
	"github.com/rgehrsitz/savingsim/internal/domain"
	"github.com/rgehrsitz/savingsim/internal/output"
	"github.com/rgehrsitz/savingsim/internal/products"
	"github.com/rgehrsitz/savingsim/internal/recorder"
	"github.com/rgehrsitz/savingsim/internal/transform"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// resolveProduct looks up the --product flag, falling back to the file's
// product. It returns nil when neither names one.
func resolveProduct(cmd *cobra.Command, cfg *domain.Configuration, parser *config.InputParser) (*products.Product, error) {
	code, _ := cmd.Flags().GetString("product")
	if code == "" {
		code = cfg.Product
	}
	if code == "" {
		return nil, nil
	}
	catalog, _ := cmd.Flags().GetString("catalog")
	registry, err := parser.LoadRegistry(catalog)
	if err != nil {
		return nil, err
	}
	product, err := registry.MustGet(code)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func formatRanking(cmd *cobra.Command, rs *compare.RankingSet) error {
	outputFormat, _ := cmd.Flags().GetString("format")
	var out string
	var err error
	switch outputFormat {
	case "table", "":
		out = (&compare.TableFormatter{}).Format(rs)
	case "compact":
		out = (&compare.TableFormatter{}).FormatCompact(rs) + "\n"
	case "csv":
		out, err = (&compare.CSVFormatter{}).Format(rs)
	case "json":
		out, err = (&compare.JSONFormatter{Pretty: true}).Format(rs)
	default:
		return fmt.Errorf("unknown format %q (use table, compact, csv or json)", outputFormat)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func whatifCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whatif [input-file]",
		Short: "Compare a contract against what-if variants",
		Long: `Compare a contract against variants built from templates or transforms.

Examples:
  savingsim whatif contract.yaml --with yield_low,premium_holiday
  savingsim whatif contract.yaml --transform premium_holiday:from=2,to=3 --transform adjust_yield:percent=7
  savingsim whatif --list-templates
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list-templates"); list {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates(domain.NewContractInputs())))
				fmt.Fprintf(cmd.OutOrStdout(), "\nTransforms: %s\n", strings.Join(transform.NewTransformRegistry().List(), ", "))
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("input file required (use --list-templates to see available templates)")
			}

			templatesStr, _ := cmd.Flags().GetString("with")
			specs, _ := cmd.Flags().GetStringArray("transform")
			templateNames := transform.ParseTemplateList(templatesStr)
			if len(templateNames) == 0 && len(specs) == 0 {
				return fmt.Errorf("--with or --transform is required")
			}

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

			variants := []compare.Variant{{
				Code:        "base",
				Name:        "Base",
				Description: "Contract as configured",
				Inputs:      cfg.Contract,
			}}

			templates := transform.CreateBuiltInTemplates(cfg.Contract)
			for _, name := range templateNames {
				template, ok := templates.Get(name)
				if !ok {
					return fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(templates.List(), ", "))
				}
				inputs, err := transform.ApplyTemplate(cfg.Contract, template)
				if err != nil {
					return err
				}
				variants = append(variants, compare.Variant{
					Code:        template.Name,
					Name:        template.Name,
					Description: template.Description,
					Inputs:      inputs,
				})
			}

			registry := transform.NewTransformRegistry()
			for _, spec := range specs {
				t, err := registry.ParseTransformSpec(spec)
				if err != nil {
					return err
				}
				inputs, err := transform.ApplyTransforms(cfg.Contract, []transform.ContractTransform{t})
				if err != nil {
					return err
				}
				variants = append(variants, compare.Variant{
					Code:        spec,
					Name:        spec,
					Description: t.Description(),
					Inputs:      inputs,
				})
			}

			workers, _ := cmd.Flags().GetInt("workers")
			rs, err := compare.NewRankEngine(engine).CompareVariants(cmd.Context(), product, variants, compare.RankOptions{
				ContractName:    cfg.Name,
				ConfigPath:      args[0],
				Workers:         workers,
				DisplayCurrency: cfg.Display.Currency,
				Rates:           cfg.Display.Rates,
			})
			if err != nil {
				return err
			}
			if err := recordRun(cmd, recorder.KindWhatIf, rs); err != nil {
				return err
			}
			return formatRanking(cmd, rs)
		},
	}
	cmd.Flags().String("with", "", "Comma-separated list of templates to compare")
	cmd.Flags().StringArray("transform", nil, "Transform spec name:key=value,... (repeatable)")
	cmd.Flags().Bool("list-templates", false, "List all available templates and transforms")
	cmd.Flags().StringP("product", "p", "", "Product code to apply (overrides the file's product)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.Flags().Int("workers", 0, "Parallel simulations (0 uses all CPUs)")
	cmd.Flags().String("record", "", "Store the ranking in this SQLite file")
	return cmd
}

func breakevenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakeven [input-file]",
		Short: "Solve for the break-even yield or the payment a target needs",
		Long: `Find the lowest annual yield at which the surrender value reaches the amount
paid in, or the lowest base annual payment that reaches a target surrender value.

Examples:
  savingsim breakeven contract.yaml
  savingsim breakeven contract.yaml --by-year 10
  savingsim breakeven contract.yaml --target required_payment --surrender 20000000
  savingsim breakeven contract.yaml --all-products
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, parser, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			target, _ := cmd.Flags().GetString("target")
			byYear, _ := cmd.Flags().GetInt("by-year")
			req := breakeven.SolveRequest{
				Inputs:      cfg.Contract,
				Target:      breakeven.SolveTarget(target),
				Constraints: breakeven.Constraints{ByYear: byYear},
			}
			if err := applyBounds(cmd, &req); err != nil {
				return err
			}

			solver := breakeven.NewDefaultSolver(engine)
			outputFormat, _ := cmd.Flags().GetString("format")
			if outputFormat != "table" && outputFormat != "json" {
				return fmt.Errorf("unknown format %q (use table or json)", outputFormat)
			}

			if all, _ := cmd.Flags().GetBool("all-products"); all {
				catalog, _ := cmd.Flags().GetString("catalog")
				registry, err := parser.LoadRegistry(catalog)
				if err != nil {
					return err
				}
				candidates, err := config.Candidates(cfg, registry)
				if err != nil {
					return err
				}
				result, err := solver.SolveProducts(cmd.Context(), req, candidates)
				if err != nil {
					return err
				}
				if outputFormat == "json" {
					out, err := (&breakeven.JSONFormatter{Pretty: true}).FormatMulti(result)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), out)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), (&breakeven.TableFormatter{}).FormatMulti(result))
				return nil
			}

			if req.Product, err = resolveProduct(cmd, cfg, parser); err != nil {
				return err
			}
			result, err := solver.Solve(cmd.Context(), req)
			if err != nil {
				return err
			}
			if outputFormat == "json" {
				out, err := (&breakeven.JSONFormatter{Pretty: true}).Format(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), (&breakeven.TableFormatter{}).Format(result))
			return nil
		},
	}
	cmd.Flags().String("target", string(breakeven.TargetBreakEvenYield), "What to solve for (break_even_yield, required_payment)")
	cmd.Flags().String("surrender", "", "Target surrender value in contract currency (required_payment)")
	cmd.Flags().Int("by-year", 0, "Contract year the goal must be met in (0 is maturity)")
	cmd.Flags().String("min", "", "Lower search bound (yield percent or annual payment)")
	cmd.Flags().String("max", "", "Upper search bound (yield percent or annual payment)")
	cmd.Flags().Bool("all-products", false, "Solve for every candidate product in the file")
	cmd.Flags().StringP("product", "p", "", "Product code to apply (overrides the file's product)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

// applyBounds copies the decimal flags onto the request constraints
func applyBounds(cmd *cobra.Command, req *breakeven.SolveRequest) error {
	parse := func(flag string) (*decimal.Decimal, error) {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			return nil, nil
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q: %w", flag, raw, err)
		}
		return &v, nil
	}

	surrender, err := parse("surrender")
	if err != nil {
		return err
	}
	lo, err := parse("min")
	if err != nil {
		return err
	}
	hi, err := parse("max")
	if err != nil {
		return err
	}

	req.Constraints.TargetSurrender = surrender
	if req.Target == breakeven.TargetRequiredPayment {
		req.Constraints.MinPayment, req.Constraints.MaxPayment = lo, hi
	} else {
		req.Constraints.MinYield, req.Constraints.MaxYield = lo, hi
	}
	return nil
}

func sensitivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity [input-file]",
		Short: "Sweep contract inputs and measure the surrender value response",
		Long: `Sweep yield, indexation, payment or asset cost around the contract's own
values and report how the final surrender value responds.

Examples:
  savingsim sensitivity contract.yaml
  savingsim sensitivity contract.yaml --param yield --min 2 --max 8 --steps 7
  savingsim sensitivity contract.yaml --matrix yield,payment --format csv
`,
		Args: cobra.ExactArgs(1),
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
			inputs := cfg.Contract
			if product != nil {
				if inputs, err = product.Apply(inputs); err != nil {
					return err
				}
			}

			outputFormat, _ := cmd.Flags().GetString("format")
			formatter := output.NewSensitivityFormatter(outputFormat)
			if formatter == nil {
				return fmt.Errorf("unknown format %q (use table, csv or json)", outputFormat)
			}

			common := map[string]domain.SensitivityParameter{}
			var order []string
			for _, p := range domain.CommonParameters(inputs) {
				common[p.Name] = p
				order = append(order, p.Name)
			}
			lookup := func(name string) (domain.SensitivityParameter, error) {
				p, ok := common[strings.TrimSpace(name)]
				if !ok {
					return p, fmt.Errorf("unknown parameter %q (available: %s)", name, strings.Join(order, ", "))
				}
				if steps, _ := cmd.Flags().GetInt("steps"); steps > 0 {
					p.Steps = steps
				}
				return p, nil
			}

			analyzer := calculation.NewSensitivityAnalyzer(engine)
			var analysis any

			if matrixSpec, _ := cmd.Flags().GetString("matrix"); matrixSpec != "" {
				names := strings.Split(matrixSpec, ",")
				if len(names) != 2 {
					return fmt.Errorf("--matrix needs exactly two parameters, got %q", matrixSpec)
				}
				p1, err := lookup(names[0])
				if err != nil {
					return err
				}
				p2, err := lookup(names[1])
				if err != nil {
					return err
				}
				if analysis, err = analyzer.AnalyzeParameterMatrix(cmd.Context(), inputs, p1, p2); err != nil {
					return err
				}
			} else {
				names, _ := cmd.Flags().GetStringSlice("param")
				if len(names) == 0 {
					names = order
				}
				params := make([]domain.SensitivityParameter, 0, len(names))
				for _, name := range names {
					p, err := lookup(name)
					if err != nil {
						return err
					}
					params = append(params, p)
				}
				if err := applySweepRange(cmd, params); err != nil {
					return err
				}
				if len(params) == 1 {
					analysis, err = analyzer.AnalyzeSingleParameter(cmd.Context(), inputs, params[0])
				} else {
					analysis, err = analyzer.AnalyzeMultipleParameters(cmd.Context(), inputs, params)
				}
				if err != nil {
					return err
				}
			}

			out, err := formatter.FormatSensitivityAnalysis(analysis)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringSlice("param", nil, "Parameters to sweep (yield, index, payment, asset_cost); default all")
	cmd.Flags().String("matrix", "", "Sweep two parameters against each other, e.g. yield,payment")
	cmd.Flags().Int("steps", 0, "Points per sweep (0 keeps the default of 5)")
	cmd.Flags().String("min", "", "Sweep lower bound (single parameter only)")
	cmd.Flags().String("max", "", "Sweep upper bound (single parameter only)")
	cmd.Flags().StringP("product", "p", "", "Product code to apply (overrides the file's product)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	return cmd
}

// applySweepRange overrides the sweep bounds from --min/--max
func applySweepRange(cmd *cobra.Command, params []domain.SensitivityParameter) error {
	minRaw, _ := cmd.Flags().GetString("min")
	maxRaw, _ := cmd.Flags().GetString("max")
	if minRaw == "" && maxRaw == "" {
		return nil
	}
	if len(params) != 1 {
		return fmt.Errorf("--min and --max need exactly one --param")
	}
	if minRaw != "" {
		v, err := decimal.NewFromString(minRaw)
		if err != nil {
			return fmt.Errorf("invalid --min %q: %w", minRaw, err)
		}
		params[0].MinValue = v
	}
	if maxRaw != "" {
		v, err := decimal.NewFromString(maxRaw)
		if err != nil {
			return fmt.Errorf("invalid --max %q: %w", maxRaw, err)
		}
		params[0].MaxValue = v
	}
	return nil
}
