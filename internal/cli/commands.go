package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dyike/SectorsGo/config"
	"github.com/dyike/SectorsGo/consts"
	"github.com/dyike/SectorsGo/internal/agents"
	"github.com/dyike/SectorsGo/internal/dataflows"
	"github.com/dyike/SectorsGo/internal/debug"
	"github.com/dyike/SectorsGo/internal/logger"
	"github.com/dyike/SectorsGo/internal/storage/sqlite"
	"github.com/dyike/SectorsGo/internal/tools"
)

var errHistoryDisabled = errors.New("query history is disabled; set HISTORY_ENABLED=true")

// app holds the lazily built dependencies shared by the commands. Tests
// preset fields to avoid the network and the LLM.
type app struct {
	cfg     *config.Config
	source  dataflows.DataSource
	agent   agents.Agent
	store   *sqlite.Store
	history HistoryRecorder
	verbose bool
	now     func() time.Time
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// Execute runs the command tree. The history store is released even when the
// command fails.
func Execute(ctx context.Context) error {
	a := &app{}
	return a.execute(ctx, newRootCmd(a))
}

func (a *app) execute(ctx context.Context, cmd *cobra.Command) (err error) {
	defer func() {
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
	}()
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   consts.AppName,
		Short: "SectorsGo - ask questions about IDX stocks in plain language",
		Long: `SectorsGo answers questions about companies listed on the Indonesia Stock Exchange.
An LLM agent calls the Sectors API for company overviews, the most traded stocks
and daily transaction data, then summarises the results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil {
				a.cfg = config.DefaultConfig()
			}
			if dbg, _ := cmd.Flags().GetBool("debug"); dbg {
				a.cfg.Debug = true
			}
			a.verbose, _ = cmd.Flags().GetBool("verbose")
			logger.Setup(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.Debug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd)
		},
	}

	rootCmd.AddCommand(newChatCmd(a))
	rootCmd.AddCommand(newAskCmd(a))
	rootCmd.AddCommand(newBatchCmd(a))
	rootCmd.AddCommand(newToolsCmd(a))
	rootCmd.AddCommand(newCallCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print the tool calls behind each answer")

	return rootCmd
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if _, ok := a.history.(*sqliteHistory); ok {
		a.history = nil
	}
	return err
}

func (a *app) dataSource() dataflows.DataSource {
	if a.source == nil {
		a.source = dataflows.NewSectorsClient(a.cfg)
	}
	return a.source
}

func (a *app) catalog(ctx context.Context) (*tools.Catalog, error) {
	return tools.NewCatalog(ctx, a.dataSource())
}

func (a *app) buildAgent(ctx context.Context) (agents.Agent, error) {
	if a.agent != nil {
		return a.agent, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	for _, w := range a.cfg.Warnings() {
		log.Warn().Msg(w)
	}

	if err := debug.NewEinoDebugger(a.cfg).Initialize(ctx); err != nil {
		log.Warn().Err(err).Msg("eino debug server unavailable")
	}

	catalog, err := a.catalog(ctx)
	if err != nil {
		return nil, err
	}
	chatModel, err := agents.NewChatModel(ctx, a.cfg)
	if err != nil {
		return nil, err
	}

	opts := []agents.Option{agents.WithMaxStep(a.cfg.AgentMaxSteps)}
	if a.cfg.Debug {
		opts = append(opts, agents.WithCallbacks(agents.NewLoggerCallback(log.Logger)))
	}
	agent, err := agents.NewReactAgent(ctx, chatModel, catalog, opts...)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("provider", a.cfg.LLMProvider).
		Str("model", a.cfg.Model()).
		Strs("tools", catalog.Names()).
		Msg("agent ready")
	a.agent = agent
	return agent, nil
}

func (a *app) openStore() (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.cfg.HistoryEnabled {
		return nil, errHistoryDisabled
	}
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	store, err := sqlite.Open(a.cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) historyRecorder() HistoryRecorder {
	if a.history != nil {
		return a.history
	}
	if !a.cfg.HistoryEnabled {
		return nopHistory{}
	}
	store, err := a.openStore()
	if err != nil {
		log.Warn().Err(err).Msg("query history unavailable")
		return nopHistory{}
	}
	a.history = &sqliteHistory{store: store}
	return a.history
}

func (a *app) session(cmd *cobra.Command) (*Session, error) {
	agent, err := a.buildAgent(cmd.Context())
	if err != nil {
		return nil, err
	}
	return &Session{
		Agent:   agent,
		History: a.historyRecorder(),
		Out:     cmd.OutOrStdout(),
		Verbose: a.verbose,
	}, nil
}

func (a *app) runChat(cmd *cobra.Command) error {
	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	return s.RunREPL(cmd.Context(), cmd.InOrStdin())
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive question loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd)
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ask QUESTION...",
		Short:   "Answer a single question",
		Example: `  sectorsgo ask "What are the top 3 companies by transaction volume over the last 7 days?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			answer, elapsed, err := s.ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Verbose {
				printToolCalls(out, answer.Invocations)
			}
			fmt.Fprintln(out, answer.Output)
			fmt.Fprintf(out, "\nExecution Time: %.2f seconds\n", elapsed.Seconds())
			return nil
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a list of questions in order",
		Long: `Run the built-in example questions, or one question per line from --file.
Blank lines are skipped and a failing question does not stop the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := DefaultQueries
			if path, _ := cmd.Flags().GetString("file"); path != "" {
				loaded, err := LoadQueries(path)
				if err != nil {
					return err
				}
				queries = loaded
			}

			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			summary := s.RunBatch(cmd.Context(), queries)
			log.Info().
				Int("succeeded", summary.Succeeded).
				Int("failed", summary.Failed).
				Int("skipped", summary.Skipped).
				Msg("batch finished")
			return cmd.Context().Err()
		},
	}
	cmd.Flags().StringP("file", "f", "", "File with one question per line")
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			printToolInfos(cmd.OutOrStdout(), catalog.Infos())
			return nil
		},
	}
}

func newCallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Invoke one tool directly and print the raw JSON response",
		Example: `  sectorsgo call get_company_overview --symbol BBCA
  sectorsgo call get_top_companies_by_tx_volume --start 2024-06-01 --end 2024-06-07 --top-n 3
  sectorsgo call get_daily_tx --symbol BBCA --start 2024-06-01 --end 2024-06-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{}
			if v, _ := cmd.Flags().GetString("symbol"); v != "" {
				callArgs["stock"] = v
			}
			// dates typed at the shell fall back to today instead of failing
			if cmd.Flags().Changed("start") {
				v, _ := cmd.Flags().GetString("start")
				callArgs["start_date"] = dataflows.FormatDate(v, a.clock())
			}
			if cmd.Flags().Changed("end") {
				v, _ := cmd.Flags().GetString("end")
				callArgs["end_date"] = dataflows.FormatDate(v, a.clock())
			}
			if cmd.Flags().Changed("top-n") {
				v, _ := cmd.Flags().GetInt("top-n")
				callArgs["top_n"] = v
			}
			argsJSON, err := json.Marshal(callArgs)
			if err != nil {
				return err
			}

			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			out, err := catalog.Invoke(cmd.Context(), args[0], string(argsJSON))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("symbol", "", "Stock symbol, e.g. BBCA")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD or DD/MM/YYYY); unparseable values mean today")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD or DD/MM/YYYY); unparseable values mean today")
	cmd.Flags().Int("top-n", consts.DefaultTopN, "Number of companies to return")
	return cmd
}

func writeJSON(w io.Writer, raw string) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		_, err = fmt.Fprintln(w, raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			showCalls, _ := cmd.Flags().GetBool("calls")
			queries, err := store.ListQueries(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(queries) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No queries recorded yet."))
				return nil
			}
			for _, q := range queries {
				status := successStyle.Render(q.Status)
				if q.Status != sqlite.StatusDone {
					status = errorStyle.Render(q.Status)
				}
				fmt.Fprintf(out, "%s  %s  %s  %.2fs\n", mutedStyle.Render(q.CreatedAt.Local().Format("2006-01-02 15:04:05")),
					status, q.Query, float64(q.ElapsedMS)/1000)
				if !showCalls {
					continue
				}
				invocations, err := store.ListInvocations(cmd.Context(), q.ID)
				if err != nil {
					return err
				}
				for _, inv := range invocations {
					fmt.Fprintf(out, "    %s\n", toolCallStyle.Render(fmt.Sprintf("%d. %s %s", inv.Seq, inv.Tool, inv.Arguments)))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of queries to list")
	cmd.Flags().Bool("calls", false, "Also list the tool calls of each query")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .env file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			answers, err := PromptForInit(a.cfg)
			if err != nil {
				return err
			}
			if err := WriteEnvFile(path, answers); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+path))
			return nil
		},
	}
	cmd.Flags().String("path", ".env", "Where to write the environment file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "SectorsGo %s\n", consts.AppVersion)
			fmt.Fprintln(cmd.OutOrStdout(), "IDX market Q&A agent over the Sectors API")
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cmd.OutOrStdout(), a.cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), a.cfg)
		},
	})

	return configCmd
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

func showConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, headerStyle.Render("Current SectorsGo configuration"))
	fmt.Fprintf(w, "Data Directory:    %s\n", cfg.DataDir)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sectors API:       %s\n", cfg.SectorsBaseURL)
	fmt.Fprintf(w, "Sectors API Key:   %s\n", maskSecret(cfg.SectorsAPIKey))
	fmt.Fprintf(w, "HTTP Timeout:      %s\n", cfg.HTTPTimeout)
	fmt.Fprintf(w, "HTTP Max Retries:  %d\n", cfg.HTTPMaxRetries)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "LLM Provider:      %s\n", cfg.LLMProvider)
	fmt.Fprintf(w, "Model:             %s\n", cfg.Model())
	if base := cfg.ModelBaseURL(); base != "" {
		fmt.Fprintf(w, "Model Endpoint:    %s\n", base)
	}
	fmt.Fprintf(w, "LLM API Key:       %s\n", maskSecret(cfg.LLMAPIKey()))
	fmt.Fprintf(w, "Agent Max Steps:   %d\n", cfg.AgentMaxSteps)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "History Enabled:   %t\n", cfg.HistoryEnabled)
	if cfg.HistoryEnabled {
		fmt.Fprintf(w, "History DB:        %s\n", cfg.HistoryDB)
	}
	fmt.Fprintf(w, "Log Level:         %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "Debug Mode:        %t\n", cfg.Debug)
	fmt.Fprintf(w, "Eino Debug:        %t\n", cfg.EinoDebugEnabled)
	if cfg.EinoDebugEnabled {
		fmt.Fprintf(w, "Debug URL:         http://localhost:%d\n", cfg.EinoDebugPort)
	}
}

func validateConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, headerStyle.Render("Validating SectorsGo configuration..."))
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(w, errorStyle.Render("Configuration is invalid"))
		return err
	}

	warnings := cfg.Warnings()
	for _, warning := range warnings {
		fmt.Fprintln(w, warningStyle.Render("warning: "+warning))
	}
	if len(warnings) == 0 {
		fmt.Fprintln(w, successStyle.Render("Configuration is valid."))
	} else {
		fmt.Fprintf(w, "Configuration is valid with %d warning(s).\n", len(warnings))
	}
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		fmt.Fprintln(w, mutedStyle.Render("Tip: run 'sectorsgo init' to create a .env file."))
	}
	return nil
}
