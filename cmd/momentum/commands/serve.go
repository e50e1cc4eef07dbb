package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/api"
	"github.com/wonny/momentum/internal/api/handlers"
	"github.com/wonny/momentum/internal/brain"
	"github.com/wonny/momentum/internal/external/yahoo"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/internal/scheduler"
	"github.com/wonny/momentum/internal/scheduler/jobs"
	"github.com/wonny/momentum/pkg/httputil"
	"github.com/wonny/momentum/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작 (랭킹, 설정, 시장 개요)
- 시장 개요 갱신 스케줄러 시작
- Prometheus 메트릭 노출

Endpoints:
  GET  /health               - Health check
  POST /api/rank             - CSV/JSON 배치 랭킹
  GET  /api/config           - 활성 스코어링 설정 + 해시
  GET  /api/market           - 시장 개요 (SPY/QQQ/IWM)
  POST /api/market/refresh   - 시장 개요 즉시 갱신
  GET  /metrics              - Prometheus

Example:
  go run ./cmd/momentum serve
  go run ./cmd/momentum serve --port 8080`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default: $PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config + logger
	cfg, log, err := loadRuntime(false)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Scoring config + engine
	strategy, err := loadStrategy(cfg, log)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.NewRegistry()
	}

	engine, err := brain.NewEngine(strategy, brain.Options{
		Workers: cfg.Workers,
		Metrics: reg,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	// 3. Redis (선택)
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	var (
		cache   *redis.Cache
		limiter handlers.UploadLimiter
	)
	if rdb.Enabled() {
		cache = redis.NewCache(rdb, cfg.Cache.Prefix)
		limiter = redis.NewRateLimiter(rdb, cfg.Cache.Prefix)
		log.Info("Connected to Redis")
	}

	// 4. Market overview + scheduler
	sched := scheduler.New(log)
	var store *yahoo.OverviewStore
	if cfg.Market.Enabled {
		httpClient := httputil.New(log).WithRateLimit(cfg.Market.RequestsPerSec, 1)
		client := yahoo.NewClient(httpClient, log, cfg.Market.BaseURL)
		if reg != nil {
			client = client.WithMetrics(reg)
		}
		store = yahoo.NewOverviewStore(client, cfg.Market.Symbols, cache, log)

		job := jobs.NewMarketOverviewJob(store, cfg.Market.RefreshCron, log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register market job: %w", err)
		}

		// 첫 스냅샷은 기동 직후 백그라운드로
		go func() {
			if _, err := sched.RunJob(job.Name()); err != nil {
				log.WithError(err).Warn("Initial market overview refresh failed")
			}
		}()
	}
	sched.Start()
	defer sched.Stop()

	// 5. Router + server
	router := api.NewRouter(api.Handlers{
		Rank:   handlers.NewRankHandler(engine, cfg, cache, limiter, reg, log),
		Config: handlers.NewConfigHandler(engine, log),
		Market: handlers.NewMarketHandler(store, log),
	}, reg, log)

	server := api.New(cfg, log, router)

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithFields(map[string]interface{}{
		"strategy_id": strategy.Meta.StrategyID,
		"config_hash": engine.ConfigHash()[:12],
		"redis":       rdb.Enabled(),
		"market":      cfg.Market.Enabled,
	}).Info("API server started successfully")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal or listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
