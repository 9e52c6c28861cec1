package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/mpfit/internal/auth"
	"github.com/hitoshi/mpfit/internal/config"
	"github.com/hitoshi/mpfit/internal/dashboard"
	"github.com/hitoshi/mpfit/internal/database"
	"github.com/hitoshi/mpfit/internal/handler"
	"github.com/hitoshi/mpfit/internal/logger"
	"github.com/hitoshi/mpfit/internal/metrics"
	"github.com/hitoshi/mpfit/internal/middleware"
	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
	"github.com/hitoshi/mpfit/internal/security"
	"github.com/hitoshi/mpfit/internal/share"
	"github.com/hitoshi/mpfit/internal/timer"
	"github.com/hitoshi/mpfit/internal/training"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

	// 3. 設定に合わせてログレベルを変更する
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		slog.Warn("invalid LOG_LEVEL, falling back to info", slog.String("error", err.Error()))
		_ = logger.SetLevel("info")
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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandAdmin:
		return runAdmin(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 3. ストアとドメインサービスの初期化
	store := repository.NewPostgresStore(db)

	trainingService := training.NewService(store, security.NewTextSanitizer(), security.NewURLGuard())
	sessionTimer := timer.NewEngine(store.Days(), timer.WithMetrics(collector))
	shareEngine := share.NewEngine(store,
		share.WithMaxAttempts(cfg.ShareCodeMaxAttempts),
		share.WithMetrics(collector),
	)
	dashboardService := dashboard.NewService(store)

	authService := auth.NewService(store.Users(), auth.ServiceConfig{BcryptCost: cfg.BcryptCost})
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL())

	// 4. ルーターの構築
	// 設定値はreq/min単位のため、RateLimiterConfigへの変換はPerMinuteRateLimiterConfigに任せる
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: cfg.CookieSecure,
		CookieDomain: cfg.CookieDomain,
	}

	deps := &handler.RouterDeps{
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      db,
		TokenVerifier:      tokens,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CSRFConfig:         csrfConfig,
		RateLimiter:        rateLimiter,

		AuthService: authService,
		TokenIssuer: tokens,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		DayService:       trainingService,
		WorkoutService:   trainingService,
		BMIService:       trainingService,
		ExerciseService:  trainingService,
		SessionTimer:     sessionTimer,
		DaySharer:        shareEngine,
		TemplateService:  shareEngine,
		DashboardService: dashboardService,
		AssistantService: trainingService,
	}

	router := handler.NewRouter(deps)

	// 5. HTTPサーバーの起動
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
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runAdmin は管理者フラグを変更する。
// 引数は "grant <email>" または "revoke <email>"。
func runAdmin(cfg *config.Config, args []string) error {
	action, err := ParseAdminArgs(args)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := repository.NewPostgresStore(db)
	return applyAdmin(ctx, auth.NewService(store.Users(), auth.ServiceConfig{BcryptCost: cfg.BcryptCost}), action)
}

// adminSetter は管理者フラグを変更する操作。auth.Serviceが満たす。
type adminSetter interface {
	SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error)
}

func applyAdmin(ctx context.Context, svc adminSetter, action AdminAction) error {
	user, err := svc.SetAdmin(ctx, action.Email, action.Admin)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("user %q not found", action.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}

	slog.Info("admin command completed",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("admin", user.Admin),
	)
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

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// URLとして解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
