// Command flockd runs the workflow engine's HTTP API: the State Store,
// Handler Registry, Dispatcher, and Phase Launcher wired behind
// /start_workflow, /run_workflow, and /health (spec §4.F).
//
// # Usage
//
//	flockd server [--port 8900] [--log-level INFO] [--mode SIMULATED]
//
// mirroring the original's argparse flags (flock/__main__.py).
//
// # Configuration
//
// Environment variables:
//
//	FLOCKD_ADDR             - HTTP listen address, overrides --port (default ":8900")
//	FLOCKD_STATE_DIR        - State Store directory (default "./state")
//	FLOCKD_PHASE_DIR        - directory phase program binaries are resolved from
//	FLOCKD_RUNLOG_BACKEND   - inmem | jsonl | redis | mongo (default "inmem")
//	FLOCKD_RUNLOG_DIR       - jsonl backend's log directory
//	REDIS_URL               - runlog redis backend address
//	MONGO_URI               - runlog mongo backend connection string
//	ANTHROPIC_API_KEY       - LIVE generate backend (Anthropic)
//	OPENAI_API_KEY          - LIVE generate backend (OpenAI)
//	FLOCKD_GATEWAY_PROVIDER - anthropic | openai (default "anthropic")
//	FLOCKD_TASK_URL         - task environment base URL (LIVE get_task/get_usage/score)
//	FLOCKD_TASK_API_KEY     - task environment bearer token
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"goa.design/clue/log"

	"github.com/poking-agents/flock-public/dispatch"
	"github.com/poking-agents/flock-public/eventbus"
	"github.com/poking-agents/flock-public/gateway"
	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/httpapi"
	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/runlog"
	"github.com/poking-agents/flock-public/runlog/inmem"
	"github.com/poking-agents/flock-public/runlog/jsonl"
	"github.com/poking-agents/flock-public/runlog/mongo"
	"github.com/poking-agents/flock-public/runlog/redis"
	"github.com/poking-agents/flock-public/store"
	"github.com/poking-agents/flock-public/telemetry"
	"github.com/poking-agents/flock-public/tokenizer"
)

func main() {
	root := &cobra.Command{
		Use:   "flockd",
		Short: "flockd — agent workflow engine",
	}
	root.AddCommand(newServerCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newServerCmd builds the "server" subcommand, mirroring the original's
// argparse surface (--log-level, --port, --mode — flock/__main__.py).
func newServerCmd() *cobra.Command {
	var (
		port     int
		logLevel string
		modeFlag string
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "run the workflow engine HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(port, logLevel, modeFlag)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8900, "port to run the server on")
	cmd.Flags().StringVar(&logLevel, "log-level", "INFO", "logging level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	cmd.Flags().StringVar(&modeFlag, "mode", string(handlers.Simulated), "processing mode (LIVE or SIMULATED)")
	return cmd
}

func runServer(port int, logLevel, modeFlag string) error {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if strings.EqualFold(logLevel, "DEBUG") {
		ctx = log.Context(ctx, log.WithDebug())
	}
	logger := telemetry.NewClueLogger()
	tracer := telemetry.NewClueTracer()
	metrics := telemetry.NewClueMetrics()

	addr := envOr("FLOCKD_ADDR", fmt.Sprintf(":%d", port))
	stateDir := envOr("FLOCKD_STATE_DIR", "./state")
	phaseDir := envOr("FLOCKD_PHASE_DIR", "./phases")
	mode := handlers.Mode(modeFlag)

	st := store.NewFileStore(stateDir)
	registry := handlers.NewRegistry()
	bus := eventbus.New()
	d := dispatch.New(registry, bus, logger, tracer)
	d.SetMetrics(metrics)
	launcher := phase.New(logger)

	rlog, err := buildRunLog(ctx)
	if err != nil {
		return fmt.Errorf("flockd: build runlog backend: %w", err)
	}

	gw := buildGateway()
	taskProvider := buildTaskProvider()
	tok := tokenizer.NewDefault()

	programs := httpapi.PhaseProgram(func(name string) (string, bool) {
		path := filepath.Join(phaseDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", false
		}
		return path, true
	})

	var simMu sync.Mutex
	simCounters := map[string]*handlers.SimCounters{}

	depsFn := func(stateID, phaseName string) *handlers.Deps {
		simMu.Lock()
		sim, ok := simCounters[stateID]
		if !ok {
			sim = handlers.NewSimCounters()
			simCounters[stateID] = sim
		}
		simMu.Unlock()

		return &handlers.Deps{
			StateID:      stateID,
			Phase:        phaseName,
			Gateway:      gw,
			RunLog:       rlog,
			TaskProvider: taskProvider,
			Tokenizer:    tok,
			Logger:       logger,
			EventBus:     bus,
			Sim:          sim,
		}
	}

	srv := httpapi.NewServer(st, d, launcher, registry, programs, mode, logger, depsFn)
	srv.Tracer = tracer
	srv.Metrics = metrics

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "flockd: listening", "addr", addr, "mode", string(mode))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("flockd: server error: %w", err)
	case sig := <-quit:
		logger.Info(ctx, "flockd: shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildRunLog(ctx context.Context) (runlog.Store, error) {
	switch envOr("FLOCKD_RUNLOG_BACKEND", "inmem") {
	case "jsonl":
		return jsonl.New(envOr("FLOCKD_RUNLOG_DIR", "./runlog")), nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: envOr("REDIS_URL", "localhost:6379")})
		ttl := time.Duration(envIntOr("FLOCKD_RUNLOG_TTL_SECONDS", 0)) * time.Second
		return redis.New(client, ttl), nil
	case "mongo":
		client, err := mongodriver.Connect(options.Client().ApplyURI(envOr("MONGO_URI", "mongodb://localhost:27017")))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return mongo.New(ctx, mongo.Options{
			Client:     client,
			Database:   envOr("FLOCKD_MONGO_DATABASE", "flock"),
			Collection: envOr("FLOCKD_MONGO_COLLECTION", "runlog"),
		})
	default:
		return inmem.New(), nil
	}
}

func buildGateway() gateway.Client {
	switch envOr("FLOCKD_GATEWAY_PROVIDER", "anthropic") {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return gateway.NewOpenAIClient(key)
		}
	default:
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return gateway.NewAnthropicClient(key)
		}
	}
	return nil
}

func buildTaskProvider() handlers.TaskProvider {
	url := os.Getenv("FLOCKD_TASK_URL")
	if url == "" {
		return nil
	}
	return handlers.NewHTTPTaskProvider(url, os.Getenv("FLOCKD_TASK_API_KEY"))
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOr(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
