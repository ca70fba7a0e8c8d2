package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/evanschultz/chantab/internal/adapters/ambient/markup"
	serveradapter "github.com/evanschultz/chantab/internal/adapters/server"
	servercommon "github.com/evanschultz/chantab/internal/adapters/server/common"
	"github.com/evanschultz/chantab/internal/adapters/snapshot/httpsnapshot"
	"github.com/evanschultz/chantab/internal/adapters/storage/sqlite"
	"github.com/evanschultz/chantab/internal/app"
	"github.com/evanschultz/chantab/internal/config"
	"github.com/evanschultz/chantab/internal/domain"
	"github.com/evanschultz/chantab/internal/platform"
	"github.com/evanschultz/chantab/internal/popover"
	"github.com/evanschultz/chantab/internal/rows"
	"github.com/evanschultz/chantab/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner runs the HTTP/MCP surface. Tests replace it.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flag values shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeEnv is the resolved state one command flow runs against.
type runtimeEnv struct {
	appName    string
	devMode    bool
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	store      *app.Store
}

// run builds the command tree and executes args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(
		ctx,
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// newRootCommand wires the root TUI command and its subcommands.
func newRootCommand(stderr io.Writer) *cobra.Command {
	opts := &rootOptions{appName: platform.DefaultAppName}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("CHANTAB_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("CHANTAB_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:   "chantab",
		Short: "Manage the channel table from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "tui", func(ctx context.Context, env *runtimeEnv) error {
				return runTUI(ctx, env)
			})
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newListCommand(opts, stderr),
		newExportCommand(opts, stderr),
		newMarkupCommand(opts, stderr),
		newServeCommand(opts, stderr),
		newResetCommand(opts, stderr),
	)
	return root
}

// newPathsCommand prints resolved locations without opening storage.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "markup: %s\n", paths.MarkupPath)
			_, _ = fmt.Fprintf(out, "export: %s\n", paths.ExportPath)
			return nil
		},
	}
}

// newListCommand prints the resolved channel table.
func newListCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the channel table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "list", func(ctx context.Context, env *runtimeEnv) error {
				channels, err := env.store.Initialize(ctx)
				if err != nil {
					return err
				}
				updated, ok, err := env.repo.UpdatedAt(ctx, app.StorageKeyChannels)
				if err != nil {
					return fmt.Errorf("read channel timestamp: %w", err)
				}
				return writeChannelTable(cmd.OutOrStdout(), channels, env.store.Source(), env.store.Counter(), updated, ok)
			})
		},
	}
}

// newExportCommand writes the channel list as a JSON snapshot document.
func newExportCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export channels as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "export", func(ctx context.Context, env *runtimeEnv) error {
				target := out
				if strings.TrimSpace(target) == "" {
					target = env.paths.ExportPath
				}
				return runExport(ctx, env.store, target, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "-", "output file path, - for stdout, empty for the data dir")
	return cmd
}

// newMarkupCommand writes the channel list as a markup table the ambient tier can scrape.
func newMarkupCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "markup",
		Short: "Write channels as an HTML table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "markup", func(ctx context.Context, env *runtimeEnv) error {
				target := out
				if strings.TrimSpace(target) == "" {
					target = env.cfg.Ambient.MarkupPath
				}
				return runMarkup(ctx, env.store, target, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "-", "output file path, - for stdout, empty for the configured markup path")
	return cmd
}

// newServeCommand exposes the channel table over read-only HTTP and MCP.
func newServeCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var bind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the channel table over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, stderr, "serve", func(ctx context.Context, env *runtimeEnv) error {
				if _, err := env.store.Initialize(ctx); err != nil {
					return err
				}
				cfg := serveradapter.Config{
					HTTPBind:      firstNonEmpty(bind, env.cfg.Server.Bind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, env.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, env.cfg.Server.MCPEndpoint),
					ServerName:    env.appName,
					ServerVersion: version,
				}
				env.logger.Info("serve endpoints resolved", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
				return serveCommandRunner(ctx, cfg, serveradapter.Dependencies{
					Channels: servercommon.NewAppServiceAdapter(env.store),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base path (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (default from config)")
	return cmd
}

// newResetCommand clears the persisted tier so the next start reconciles again.
func newResetCommand(opts *rootOptions, stderr io.Writer) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted channel list and counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("reset deletes persisted channels; pass --yes to confirm")
			}
			return withRuntime(cmd.Context(), opts, stderr, "reset", func(ctx context.Context, env *runtimeEnv) error {
				removed, err := env.repo.DeleteItems(ctx, app.StorageKeyChannels, app.StorageKeyCounter)
				if err != nil {
					return fmt.Errorf("delete persisted channels: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d persisted keys\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")
	return cmd
}

// resolvePaths resolves platform paths for the current flags.
func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// withRuntime opens config, logging, storage and the store around one command flow.
func withRuntime(ctx context.Context, opts *rootOptions, stderr io.Writer, command string, fn func(context.Context, *runtimeEnv) error) (err error) {
	env, err := openRuntime(opts, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := env.close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	env.logger.Info("command flow start", "command", command)
	if err := fn(ctx, env); err != nil {
		env.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	env.logger.Info("command flow complete", "command", command)
	return nil
}

// openRuntime resolves paths and config, then opens logging, storage and the store.
func openRuntime(opts *rootOptions, stderr io.Writer) (*runtimeEnv, error) {
	paths, err := opts.resolvePaths()
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("CHANTAB_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("CHANTAB_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if strings.TrimSpace(cfg.Ambient.MarkupPath) == "" {
		cfg.Ambient.MarkupPath = paths.MarkupPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, err
	}
	env := &runtimeEnv{
		appName:    opts.appName,
		devMode:    opts.devMode,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path, "markup_path", cfg.Ambient.MarkupPath)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.repo = repo
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	remote, err := newRemoteSource(cfg)
	if err != nil {
		_ = env.close()
		return nil, err
	}
	var source app.SnapshotSource
	if remote != nil {
		source = remote
		logger.Debug("remote snapshot source configured", "url", cfg.Remote.URL)
	}

	env.store = app.NewStore(repo, source, markup.NewScraper(cfg.Ambient.MarkupPath), app.StoreConfig{
		CounterFloor: cfg.Store.CounterFloor,
		Logger:       logger,
	})
	logger.Debug("channel store constructed", "counter_floor", cfg.Store.CounterFloor)
	return env, nil
}

// newRemoteSource builds the snapshot client, or nil when no URL is configured.
func newRemoteSource(cfg config.Config) (*httpsnapshot.Client, error) {
	if strings.TrimSpace(cfg.Remote.URL) == "" {
		return nil, nil
	}
	timeout, err := cfg.RemoteTimeout()
	if err != nil {
		return nil, err
	}
	client, err := httpsnapshot.New(httpsnapshot.Config{
		URL:       cfg.Remote.URL,
		Timeout:   timeout,
		ItemsPath: cfg.Remote.ItemsPath,
		Fields: httpsnapshot.FieldAliases{
			ID:            cfg.Remote.Fields.ID,
			DisplayNumber: cfg.Remote.Fields.DisplayNumber,
			SecondaryID:   cfg.Remote.Fields.SecondaryID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure remote snapshot: %w", err)
	}
	return client, nil
}

// close releases storage and the log file.
func (e *runtimeEnv) close() error {
	var errs []error
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
			errs = append(errs, fmt.Errorf("close sqlite repository: %w", err))
		}
	}
	if err := e.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close runtime log sink: %w", err))
	}
	return errors.Join(errs...)
}

// runTUI runs the interactive table with the console sink muted.
func runTUI(_ context.Context, env *runtimeEnv) error {
	cfg := env.cfg
	m := tui.NewModel(
		env.store,
		tui.WithSpacing(popover.Spacing{Gap: cfg.Popover.Gap, Margin: cfg.Popover.Margin}),
		tui.WithConfirmDelete(cfg.Confirm.Delete),
		tui.WithPairingBase(cfg.Add.PairingBase),
		tui.WithKeyConfig(tui.KeyConfig{
			Add:    cfg.Keys.Add,
			Menu:   cfg.Keys.Menu,
			Delete: cfg.Keys.Delete,
		}),
		tui.WithLogger(env.logger),
	)

	env.logger.SetConsoleEnabled(false)
	defer env.logger.SetConsoleEnabled(true)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// runExport writes the resolved channel list as indented JSON.
func runExport(ctx context.Context, store *app.Store, out string, stdout io.Writer) error {
	channels, err := store.Initialize(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(channels, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export json: %w", err)
	}
	encoded = append(encoded, '\n')
	return writeOutput(out, encoded, stdout)
}

// runMarkup writes the resolved channel list as an HTML table.
func runMarkup(ctx context.Context, store *app.Store, out string, stdout io.Writer) error {
	channels, err := store.Initialize(ctx)
	if err != nil {
		return err
	}
	var buf strings.Builder
	if err := markup.Write(&buf, channels); err != nil {
		return err
	}
	return writeOutput(out, []byte(buf.String()), stdout)
}

// writeOutput writes payload to stdout for "-" or to a file otherwise.
func writeOutput(out string, payload []byte, stdout io.Writer) error {
	out = strings.TrimSpace(out)
	if out == "-" {
		_, err := stdout.Write(payload)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// writeChannelTable renders the list command output.
func writeChannelTable(w io.Writer, channels []domain.Channel, source app.Tier, counter int64, updated time.Time, hasUpdated bool) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("ID", "Name", "Status", "Account", "State").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range rows.Build(channels, nil) {
		t.Row(row.TriggerID, row.Name, row.Status[0]+" / "+row.Status[1], row.Account, row.Label)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	footer := fmt.Sprintf("source: %s  counter: %s  channels: %d", source, strconv.FormatInt(counter, 10), len(channels))
	if hasUpdated {
		footer += "  saved: " + updated.UTC().Format(time.RFC3339)
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

// firstNonEmpty returns the first trimmed non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
