// Package main provides the footprint CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/footprint/internal/cache"
	"github.com/spherical-ai/footprint/internal/config"
	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/engine"
	"github.com/spherical-ai/footprint/internal/fanout"
	"github.com/spherical-ai/footprint/internal/observability"
	"github.com/spherical-ai/footprint/internal/planner"
	"github.com/spherical-ai/footprint/internal/provider"
	"github.com/spherical-ai/footprint/internal/relevance"
	"github.com/spherical-ai/footprint/internal/source"
)

const version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "footprint-cli",
	Short: "Footprint CLI for planning, probing and running subject searches",
	Long: `Footprint CLI drives the search engine from a terminal.

Use this tool to:
- Run a full categorized search for a subject
- Inspect the queries planned for a subject
- Probe the provider fallback chain with a single query

All commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "footprint-cli",
		})
		ui = NewUI(outputJSON, noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	var (
		extra    string
		useCache bool
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search the web footprint of a subject",
		Long: `Search plans the category queries for a subject, runs them through the
provider fallback chain, filters the hits for relevance and prints the
deduplicated, ranked results per category.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")

			backends, err := provider.Build(cfg, logger)
			if err != nil {
				return err
			}

			plan := planner.Build(name, extra)
			bar := ui.ProgressBar("querying", len(plan.Queries))

			opts := []engine.Option{
				engine.WithLogger(logger),
				engine.WithProgress(func(done, total int, o fanout.Outcome) {
					if bar == nil {
						return
					}
					bar.Describe(Truncate(o.Query.Category, 16))
					_ = bar.Set(done)
				}),
			}
			if useCache {
				c, err := cache.Open(cfg.Cache)
				if err != nil {
					ui.Warning("cache unavailable: %v", err)
				} else if c != nil {
					defer c.Close()
					opts = append(opts, engine.WithCache(c, cfg.Cache.TTL))
				}
			}

			ui.Step("Searching %q with %s", name, strings.Join(provider.Names(backends), ", "))
			report, err := engine.NewFromConfig(cfg, backends, opts...).Aggregate(cmd.Context(), name, extra)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(os.Stdout, report)
			}
			ui.Report(report, plan.Categories)
			ui.Newline()
			ui.Success("%d results in %s", report.Meta.TotalResults,
				FormatDuration(time.Duration(report.Meta.ElapsedMS)*time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&extra, "extra", "e", "", "extra context such as a city or employer")
	cmd.Flags().BoolVar(&useCache, "cache", false, "use the configured response cache")

	return cmd
}

type planOutput struct {
	BaseQuery     string         `json:"base_query"`
	RequiredTerms []string       `json:"required_terms"`
	Unfiltered    bool           `json:"unfiltered"`
	Categories    []string       `json:"categories"`
	Queries       []domain.Query `json:"queries"`
}

// newPlanCmd creates the plan subcommand.
func newPlanCmd() *cobra.Command {
	var extra string

	cmd := &cobra.Command{
		Use:   "plan <name>",
		Short: "Print the queries planned for a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				return domain.ValidationError("name is required", nil)
			}

			plan := planner.Build(name, extra)
			filter := relevance.NewFilter(plan.Terms, logger)

			out := planOutput{
				BaseQuery:     plan.BaseQuery,
				RequiredTerms: plan.Terms,
				Unfiltered:    filter.Unfiltered(),
				Categories:    plan.Categories,
				Queries:       plan.Queries,
			}
			if outputJSON {
				return writeJSON(os.Stdout, out)
			}

			ui.Section("Plan")
			ui.KeyValue("Base query", out.BaseQuery)
			ui.KeyValue("Required terms", strings.Join(out.RequiredTerms, " | "))
			if out.Unfiltered {
				ui.Warning("no term is long enough to filter on; results will not be filtered")
			}
			ui.Newline()

			rows := make([][]string, 0, len(out.Queries))
			for i, q := range out.Queries {
				rows = append(rows, []string{fmt.Sprint(i + 1), q.Category, q.Text})
			}
			ui.Table([]string{"#", "Category", "Query"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&extra, "extra", "e", "", "extra context such as a city or employer")

	return cmd
}

type probeOutput struct {
	Query    string             `json:"query"`
	Backend  string             `json:"backend,omitempty"`
	Attempts []probeAttempt     `json:"attempts"`
	Results  []domain.RawResult `json:"results"`
}

type probeAttempt struct {
	Backend   string `json:"backend"`
	Count     int    `json:"count"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// newProbeCmd creates the probe subcommand.
func newProbeCmd() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "probe <query>",
		Short: "Run one raw query through the provider fallback chain",
		Long: `Probe sends a single query through the configured backends in order and
reports every attempt. Use --backend to restrict the chain to named backends.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			backends, err := provider.Build(cfg, logger)
			if err != nil {
				return err
			}
			backends, err = selectBackends(backends, only)
			if err != nil {
				return err
			}

			chain := source.NewChain(backends, source.Config{
				BackendTimeout: cfg.Search.BackendTimeout,
				MaxResults:     cfg.Search.MaxResults,
			}, logger)

			spin := ui.Spinner(fmt.Sprintf("probing %s", strings.Join(chain.Backends(), " → ")))
			if spin != nil {
				spin.Start()
			}
			res := chain.Resolve(cmd.Context(), query)
			if spin != nil {
				spin.Stop()
			}

			out := probeOutput{Query: query, Backend: res.Backend, Results: res.Results}
			for _, a := range res.Attempts {
				pa := probeAttempt{Backend: a.Backend, Count: a.Count, ElapsedMS: a.Elapsed.Milliseconds()}
				if a.Err != nil {
					pa.Error = a.Err.Error()
				}
				out.Attempts = append(out.Attempts, pa)
			}
			if outputJSON {
				return writeJSON(os.Stdout, out)
			}

			rows := make([][]string, 0, len(out.Attempts))
			for _, a := range out.Attempts {
				status := fmt.Sprintf("%d hits", a.Count)
				if a.Error != "" {
					status = Truncate(a.Error, 60)
				}
				rows = append(rows, []string{a.Backend, status, FormatDuration(time.Duration(a.ElapsedMS) * time.Millisecond)})
			}
			ui.Section("Attempts")
			ui.Table([]string{"Backend", "Outcome", "Elapsed"}, rows)

			if res.AllFailed() {
				ui.Error("every backend failed")
				return res.Err(query)
			}
			if len(res.Results) == 0 {
				ui.Warning("no backend returned results")
				return nil
			}

			ui.Section(fmt.Sprintf("Results from %s", res.Backend))
			for i, r := range res.Results {
				fmt.Fprintf(ui.out, "%2d. %s\n    %s\n", i+1, r.Title, r.URL)
				if r.Description != "" {
					fmt.Fprintf(ui.out, "    %s\n", Truncate(r.Description, 120))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&only, "backend", "b", nil, "restrict the chain to these backends (repeatable)")

	return cmd
}

// selectBackends keeps the named backends in the order given. An empty names
// list keeps all of them.
func selectBackends(backends []provider.Backend, names []string) ([]provider.Backend, error) {
	if len(names) == 0 {
		return backends, nil
	}

	byName := make(map[string]provider.Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}

	selected := make([]provider.Backend, 0, len(names))
	for _, name := range names {
		b, ok := byName[name]
		if !ok {
			return nil, domain.ConfigError(fmt.Sprintf("backend %q is not configured (have %s)",
				name, strings.Join(provider.Names(backends), ", ")), nil)
		}
		selected = append(selected, b)
	}
	return selected, nil
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return writeJSON(os.Stdout, map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			fmt.Println("footprint-cli v" + version)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
