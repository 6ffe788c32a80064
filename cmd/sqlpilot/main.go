package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	_ "github.com/lib/pq"

	"github.com/sqlpilot-ai/sqlpilot"
	"github.com/sqlpilot-ai/sqlpilot/httpapi"
)

// CLI configuration
type cliConfig struct {
	ConfigFile string
	Query      string
	SessionID  string
	LogsDir    string
	Verbose    bool
	JSON       bool
}

func main() {
	cli := parseFlags()
	logger := setupLogger(cli.Verbose)

	cfg, err := loadConfig(cli.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cli.LogsDir != "" {
		cfg.RequestLogDir = cli.LogsDir
	}

	if cfg.GeminiAPIKey == "" {
		color.Red("Error: GEMINI_API_KEY is not set")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		color.Red("Error: DATABASE_URL is not set")
		os.Exit(1)
	}

	ctx := context.Background()

	generator, err := sqlpilot.NewGenAIClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create model client: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	schema := sqlpilot.LoadSchema(ctx, sqlpilot.NewPostgresSchemaProvider(db))
	color.Blue("Schema loaded: %d tables", len(schema))

	drafter, err := sqlpilot.NewDrafter(sqlpilot.DrafterOptions{
		Generator:    generator,
		DefaultLimit: cfg.DefaultLimit,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to create drafter: %v", err)
	}

	var requestLogger sqlpilot.RequestLogger
	if cfg.RequestLogDir != "" {
		requestLogger = sqlpilot.NewFileRequestLogger(cfg.RequestLogDir)
		color.Blue("Request logs: %s", cfg.RequestLogDir)
	} else {
		requestLogger = sqlpilot.NewNullRequestLogger()
	}

	orch, err := sqlpilot.NewOrchestrator(sqlpilot.OrchestratorOptions{
		Drafter:   drafter,
		Responder: sqlpilot.NewResponder(generator, logger),
		Summarizer: sqlpilot.NewSummarizer(sqlpilot.SummarizerOptions{
			Generator: generator,
			MaxRows:   cfg.MaxResultRows,
			Logger:    logger,
		}),
		Executor:      sqlpilot.NewPostgresExecutorFromDB(db, cfg.MaxResultRows),
		Schema:        schema,
		RequestLogger: requestLogger,
		Logger:        logger,
		Config:        cfg,
	})
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	if cli.Query != "" {
		runOneShot(ctx, orch, cli)
		return
	}

	runServer(orch, cfg, logger)
}

func parseFlags() *cliConfig {
	cli := &cliConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to the YAML configuration file (optional)")
	flag.StringVar(&cli.ConfigFile, "c", "", "Path to the YAML configuration file (shorthand)")

	flag.StringVar(&cli.Query, "query", "", "Run a single request and exit instead of serving HTTP")
	flag.StringVar(&cli.Query, "q", "", "Run a single request and exit (shorthand)")

	flag.StringVar(&cli.SessionID, "session", "cli", "Session identifier for one-shot requests")
	flag.StringVar(&cli.LogsDir, "logs", "", "Directory to store request logs (optional)")
	flag.StringVar(&cli.LogsDir, "l", "", "Directory to store request logs (shorthand)")

	flag.BoolVar(&cli.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&cli.Verbose, "v", false, "Enable verbose logging (shorthand)")
	flag.BoolVar(&cli.JSON, "json", false, "Output one-shot results in JSON format")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `sqlpilot - Natural language query service for the casino analytics database

Usage: %s [options]

Examples:
  # Serve the HTTP API
  %s -config config.yaml

  # Answer a single question and exit
  %s -query "how many employees work in each department" -logs ./logs

Environment:
  DATABASE_URL    Postgres connection string (required)
  GEMINI_API_KEY  Model API key (required)

Options:
`, os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()
	return cli
}

func loadConfig(path string) (*sqlpilot.Config, error) {
	if path == "" {
		return sqlpilot.DefaultConfig(), nil
	}
	return sqlpilot.LoadConfigFile(path)
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return sqlpilot.NewLoggerWithLevel(level)
}

func runOneShot(ctx context.Context, orch *sqlpilot.Orchestrator, cli *cliConfig) {
	start := time.Now()
	result, err := orch.Handle(ctx, cli.SessionID, cli.Query)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}

	if cli.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to format result: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	color.Cyan("Intent: %s (confidence %.2f)", result.Intent, result.Confidence)
	if result.SQL != "" {
		color.Yellow("SQL: %s", result.SQL)
	}
	fmt.Printf("\n%s\n\n", result.Response)
	if result.Err != nil {
		color.Red("Error: %s", result.Err.Error())
	}
	color.White("Completed in %v", time.Since(start).Round(time.Millisecond))
}

func runServer(orch *sqlpilot.Orchestrator, cfg *sqlpilot.Config, logger *slog.Logger) {
	server, err := httpapi.NewServer(httpapi.ServerOptions{
		Orchestrator: orch,
		Logger:       logger,
		ListenAddr:   cfg.ListenAddr,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		color.Green("Listening on %s", cfg.ListenAddr)
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		color.White("Server stopped")
	}
}
