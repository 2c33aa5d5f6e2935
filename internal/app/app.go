// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/blurosiere/clinica/internal/appointment"
	"github.com/blurosiere/clinica/internal/auth"
	"github.com/blurosiere/clinica/internal/config"
	"github.com/blurosiere/clinica/internal/handler"
	"github.com/blurosiere/clinica/internal/logger"
	"github.com/blurosiere/clinica/internal/metrics"
	"github.com/blurosiere/clinica/internal/middleware"
	"github.com/blurosiere/clinica/internal/patient"
	"github.com/blurosiere/clinica/internal/report"
	"github.com/blurosiere/clinica/internal/repository"
	"github.com/blurosiere/clinica/internal/request"
	"github.com/blurosiere/clinica/internal/security"
	"github.com/blurosiere/clinica/internal/storage"
	"github.com/blurosiere/clinica/internal/worker/snapshot"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_path", cfg.StorePath),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// openStore はストアファイルを開き、設定に応じてデモデータを投入する。
func openStore(cfg *config.Config) (*storage.FileStore, error) {
	store, err := storage.OpenFileStore(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.SeedOnStart {
		seeder := storage.NewSeeder(store, time.Now)
		if err := seeder.Seed(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
	}
	return store, nil
}

// rateLimiterConfig は設定値（req/min）をレート制限設定（req/sec）へ変換する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		limiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		limiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitSubmit > 0 {
		limiterCfg.SubmitRate = rate.Limit(float64(cfg.RateLimitSubmit) / 60.0)
		limiterCfg.SubmitBurst = cfg.RateLimitSubmit
	}
	return limiterCfg
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストアのオープンとシード
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	slog.Info("store opened", slog.String("path", store.Path()))

	// 2. リポジトリの初期化
	opts := repository.Options{
		Delays: repository.Delays{
			Read:  cfg.ReadDelay,
			Write: cfg.WriteDelay,
		},
	}
	userRepo := repository.NewKVUserRepo(store, opts)
	patientRepo := repository.NewKVPatientRepo(store, opts)
	appointmentRepo := repository.NewKVAppointmentRepo(store, opts)
	requestRepo := repository.NewKVRequestRepo(store, opts)

	// 3. セキュリティサービスの初期化
	sanitizer := security.NewNoteSanitizer()
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, patientRepo, issuer)
	appointmentService := appointment.NewService(appointmentRepo, patientRepo, sanitizer)
	patientService := patient.NewService(patientRepo, appointmentRepo, sanitizer)
	requestService := request.NewService(requestRepo, patientRepo)
	reportService := report.NewService(patientRepo, appointmentRepo)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. ルーターの構築
	limiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer limiter.Stop()

	deps := handler.RouterDeps{
		TokenVerifier:     issuer,
		RateLimiter:       limiter,
		Logger:            slog.Default(),
		Collector:         collector,
		MetricsHandler:    metrics.Handler(registry),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,

		AuthService:        authService,
		AppointmentService: appointmentService,
		PatientService:     patientService,
		RequestService:     requestService,
		ReportService:      reportService,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はバックアップワーカーモードで起動する。
// cronスケジュールに従ってストアファイルのバックアップを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	job := snapshot.NewJob(
		cfg.StorePath, cfg.BackupDir, cfg.BackupRetention,
		collector, slog.Default(),
	)

	// ワーカーのメトリクスもスクレイプできるよう /metrics だけのサーバーを立てる
	metricsServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      metrics.SetupMetricsRoute(registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.String("schedule", cfg.BackupSchedule),
		slog.String("backup_dir", cfg.BackupDir),
		slog.Int("retention", cfg.BackupRetention),
	)

	// 起動直後に1回実行してから、スケジューラをメインgoroutineで回す
	if err := job.Run(ctx); err != nil {
		slog.Error("initial backup failed", slog.String("error", err.Error()))
	}

	if err := job.Start(ctx, cfg.BackupSchedule); err != nil {
		return fmt.Errorf("backup scheduler failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runSeed はデモデータの初期投入のみを実行して終了する。
// シードは冪等なので、既存データがある場合は何もしない。
func runSeed(cfg *config.Config) error {
	store, err := storage.OpenFileStore(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	seeder := storage.NewSeeder(store, time.Now)
	if err := seeder.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	slog.Info("seed completed", slog.String("store_path", cfg.StorePath))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
