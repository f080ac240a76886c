package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/Fantasim/looter/internal/api"
	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/db"
	"github.com/Fantasim/looter/internal/dispatch"
	"github.com/Fantasim/looter/internal/inventory"
	"github.com/Fantasim/looter/internal/logging"
	"github.com/Fantasim/looter/internal/price"
	"github.com/Fantasim/looter/internal/report"
	"github.com/Fantasim/looter/internal/steam"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(config.ExitFatal)
	}

	switch os.Args[1] {
	case "send":
		os.Exit(runSend(os.Args[2:]))
	case "report":
		if err := runReport(); err != nil {
			slog.Error("report error", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("looter %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(config.ExitFatal)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: looter <command>

Commands:
  send <login> <password> <shared_secret> <identity_secret> <trade_offer_link> [pairs]
            Send every tradable item of the listed inventories (default %s)
  report    Re-render %s from %s
  serve     Start the read-only report API
  version   Print version information

Exit codes (send): %d sent, %d nothing to send, %d no valid inventories, %d fatal
`, config.DefaultInventoryPairs, config.ReportTextFile, config.ReportDataFile,
		config.ExitSent, config.ExitNothingToSend, config.ExitNoInventories, config.ExitFatal)
}

// setup loads configuration and installs the process logger.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	return cfg, func() { logCloser.Close() }, nil
}

// runSend performs one dispatch and returns the process exit code.
func runSend(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(config.FatalLogPrefix+" panic",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			code = config.ExitFatal
		}
	}()

	cfg, closeLogs, err := setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return config.ExitFatal
	}
	defer closeLogs()

	sa, err := config.ParseSendArgs(args)
	if err != nil {
		fatal(err)
		printUsage()
		return config.ExitFatal
	}

	pairs := inventory.Normalize(sa.Inventories)
	if len(pairs) == 0 {
		slog.Error("no valid inventories provided", "raw", sa.Inventories)
		return config.ExitNoInventories
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting dispatch",
		"version", version,
		"account", sa.Login,
		"pairs", inventory.Format(pairs),
		"workDir", cfg.WorkDir,
	)

	session, err := steam.NewSession(steam.EndpointsFromConfig(cfg))
	if err != nil {
		fatal(err)
		return config.ExitFatal
	}
	if err := session.Login(ctx, steam.Credentials{
		Account:      sa.Login,
		Password:     sa.Password,
		SharedSecret: sa.SharedSecret,
	}); err != nil {
		fatal(err)
		return config.ExitFatal
	}

	oracle := price.NewMarketOracle(
		&http.Client{Timeout: config.PriceLookupTimeout},
		cfg.CommunityURL,
		cfg.MarketCurrency,
		cfg.PriceRPM,
	)

	opts := dispatch.Options{
		Account:    sa.Login,
		TradeLink:  sa.TradeOfferLink,
		Fetcher:    steam.NewInventory(session),
		Sender:     steam.NewOffers(session),
		Confirmer:  steam.NewConfirmations(session, sa.IdentitySecret),
		Aggregator: report.NewAggregator(report.NewStore(cfg.WorkDir), oracle),
	}
	if database := openJournal(cfg); database != nil {
		defer database.Close()
		opts.Journal = database
	}

	res, err := dispatch.New(opts).Run(ctx, pairs)
	switch {
	case errors.Is(err, config.ErrNoValidInventories):
		slog.Error("no valid inventories provided", "raw", sa.Inventories)
		return config.ExitNoInventories
	case err != nil:
		fatal(err)
		return config.ExitFatal
	}

	slog.Info("dispatch finished",
		"runID", res.RunID,
		"outcome", res.Outcome.String(),
		"itemsSent", res.ItemsSent,
		"exitCode", res.Outcome.ExitCode(),
	)
	return res.Outcome.ExitCode()
}

// openJournal opens the dispatch journal. A journal that cannot be opened
// is skipped; the dispatch itself does not depend on it.
func openJournal(cfg *config.Config) *db.DB {
	if !cfg.JournalEnabled {
		return nil
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		slog.Warn("dispatch journal unavailable", "path", cfg.DBPath, "error", err)
		return nil
	}
	if err := database.RunMigrations(context.Background()); err != nil {
		slog.Warn("dispatch journal migrations failed", "path", cfg.DBPath, "error", err)
		database.Close()
		return nil
	}
	return database
}

// fatal logs err under the fatal prefix and its category.
func fatal(err error) {
	slog.Error(config.FatalLogPrefix+" "+fatalCategory(err), logging.Err(err))
}

func fatalCategory(err error) string {
	if !config.IsFatal(err) {
		if errors.Is(err, config.ErrInvalidArguments) {
			return "arguments"
		}
		return "unexpected"
	}

	switch {
	case errors.Is(err, config.ErrLogin):
		return "login"
	case errors.Is(err, config.ErrSession):
		return "session"
	case errors.Is(err, config.ErrTransport):
		return "transport"
	case errors.Is(err, config.ErrConfirmationFailed):
		return "confirmation"
	case errors.Is(err, config.ErrInterrupted):
		return "interrupted"
	default:
		return "panic"
	}
}

func runReport() error {
	cfg, closeLogs, err := setup()
	if err != nil {
		return err
	}
	defer closeLogs()

	store := report.NewStore(cfg.WorkDir)
	st, err := store.Peek()
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no report data in %s", cfg.WorkDir)
	}
	if err != nil {
		return err
	}

	if err := store.Save(st); err != nil {
		return err
	}

	slog.Info("report rendered",
		"workDir", cfg.WorkDir,
		"periodStart", st.PeriodStart,
		"periodEnd", st.PeriodEnd,
		"accounts", len(st.Accounts),
	)
	fmt.Print(report.Render(st))
	return nil
}

func runServe() error {
	cfg, closeLogs, err := setup()
	if err != nil {
		return err
	}
	defer closeLogs()

	slog.Info("starting looter api",
		"version", version,
		"port", cfg.Port,
		"workDir", cfg.WorkDir,
		"journal", cfg.JournalEnabled,
	)

	deps := api.Deps{
		Config: cfg,
		Report: report.NewStore(cfg.WorkDir),
	}
	if database := openJournal(cfg); database != nil {
		defer database.Close()
		deps.Runs = database
	}

	api.Version = version
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	srv := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    config.ServerReadTimeout,
		WriteTimeout:   config.ServerWriteTimeout,
		IdleTimeout:    config.ServerIdleTimeout,
		MaxHeaderBytes: config.ServerMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}

	slog.Info("initiating graceful shutdown", "timeout", config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	start := time.Now()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped gracefully", "elapsed", time.Since(start).String())
	return nil
}
