package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hunchagency/dot/internal/airtable"
	"github.com/hunchagency/dot/internal/config"
	"github.com/hunchagency/dot/internal/domain/activity"
	"github.com/hunchagency/dot/internal/domain/allocation"
	"github.com/hunchagency/dot/internal/domain/job"
	"github.com/hunchagency/dot/internal/domain/lifecycle"
	"github.com/hunchagency/dot/internal/domain/routing"
	"github.com/hunchagency/dot/internal/mcp"
	"github.com/hunchagency/dot/internal/oracle"
	"github.com/hunchagency/dot/internal/prompts"
	"github.com/hunchagency/dot/internal/repository"
	"github.com/hunchagency/dot/internal/sqlite"
	"github.com/hunchagency/dot/internal/transport"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("dot", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML or JSONC config file (default: $DOT_CONFIG_PATH)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Println("dot", version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	store, closers, err := openStore(ctx, cfg, logger)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	if err != nil {
		return err
	}

	var auditSvc *activity.Service
	if cfg.Audit.Enabled {
		repo, closer, err := openAudit(cfg, store)
		if closer != nil {
			closers = append(closers, closer)
		}
		if err != nil {
			return err
		}
		auditSvc = activity.NewService(repo, logger)
	}

	promptSet, err := prompts.Load(cfg.Prompts.Dir)
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	if cfg.Oracle.APIKey == "" {
		logger.Warn("no classifier api key configured; classification requests will fail")
	}
	classifier := oracle.NewAnthropic(oracle.AnthropicConfig{
		APIKey:  cfg.Oracle.APIKey,
		BaseURL: cfg.Oracle.BaseURL,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.Oracle.Timeout.Std(),
	}, logger)

	allocator := allocation.NewAllocator(store, allocation.Policy{
		ValidCodes:    cfg.Clients.ValidCodes,
		InternalCodes: cfg.Clients.InternalCodes,
	}, logger)
	routerSvc := routing.NewService(store, classifier, promptSet.RoutingIntent(), routing.DomainTable(cfg.Clients.Domains), logger)

	var opts []lifecycle.Option
	if auditSvc != nil {
		opts = append(opts, lifecycle.WithAudit(auditSvc))
	}
	lifecycleSvc := lifecycle.NewService(store, classifier, allocator, lifecycle.Intents{
		Triage:   promptSet.TriageIntent(),
		Update:   promptSet.UpdateIntent(),
		Dispatch: promptSet.DispatchIntent(),
	}, logger, opts...)

	services := mcp.Services{Router: routerSvc, Lifecycle: lifecycleSvc}
	if auditSvc != nil {
		services.Activity = auditSvc
	}
	mcpServer := mcp.NewServer(mcp.Config{Services: services, Version: version, Logger: logger})

	serverOpts := transport.Options{
		MCP:     mcp.NewHTTPHandler(mcpServer),
		Logger:  logger,
		Version: version,
	}
	if cfg.Auth.Token != "" {
		serverOpts.Auth = transport.AuthMiddleware(transport.StaticToken(cfg.Auth.Token))
	} else {
		logger.Warn("auth disabled; set auth.token to require a bearer token")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(routerSvc, lifecycleSvc, serverOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "backend", cfg.Store.Backend, "audit", cfg.Audit.Enabled, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "dot routes agency email and Teams traffic into the job registry.\n\nUsage: dot [flags]\n\nFlags:\n")
	flagSet.PrintDefaults()
}

func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	writer := io.Writer(os.Stderr)
	closeLog := func() {}
	if cfg.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		writer = fileWriter
		closeLog = func() { _ = fileWriter.Close() }
	}
	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level}))
	return logger, closeLog, nil
}

// openStore returns the configured Record Store Client and anything that
// must be closed on shutdown.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, []io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendAirtable:
		if cfg.Airtable.APIKey == "" {
			logger.Warn("no airtable api key configured; registry operations will fail")
		}
		return airtable.New(airtable.Config{
			APIKey:        cfg.Airtable.APIKey,
			BaseID:        cfg.Airtable.BaseID,
			BaseURL:       cfg.Airtable.BaseURL,
			ClientsTable:  cfg.Airtable.ClientsTable,
			ProjectsTable: cfg.Airtable.ProjectsTable,
			UpdatesTable:  cfg.Airtable.UpdatesTable,
			Timeout:       cfg.Airtable.Timeout.Std(),
		}, logger), nil, nil
	case config.BackendSQLite:
		db, err := openSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		closers := []io.Closer{db}
		store := sqlite.NewStore(db, logger)
		for _, seed := range cfg.SQLite.SeedClients {
			err := store.SeedClient(ctx, job.Client{
				Code:            seed.Code,
				Name:            seed.Name,
				TeamsChannelRef: seed.TeamsID,
				DocumentRootRef: seed.SharepointURL,
				NextSequence:    seed.NextNumber,
			})
			if err != nil {
				return nil, closers, fmt.Errorf("seed clients: %w", err)
			}
		}
		return store, closers, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// openAudit returns the activity log. The SQLite backend keeps it in the
// registry database; otherwise it gets its own file.
func openAudit(cfg config.Config, store repository.Store) (repository.ActivityRepository, io.Closer, error) {
	if sqliteStore, ok := store.(*sqlite.Store); ok {
		return sqlite.NewActivityRepository(sqliteStore.DB()), nil, nil
	}
	db, err := openSQLite(cfg.Audit.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("audit: %w", err)
	}
	return sqlite.NewActivityRepository(db), db, nil
}

func openSQLite(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
