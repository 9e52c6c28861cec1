package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/mpfit/internal/metrics"
	"github.com/hitoshi/mpfit/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler
	HealthChecker      HealthChecker
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	CSRFConfig         middleware.CSRFConfig
	RateLimiter        *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	TokenIssuer TokenIssuerInterface
	AuthConfig  AuthHandlerConfig

	// トレーニング
	DayService       DayServiceInterface
	WorkoutService   WorkoutServiceInterface
	BMIService       BMIServiceInterface
	ExerciseService  ExerciseServiceInterface
	SessionTimer     SessionTimerInterface
	DaySharer        DaySharerInterface
	TemplateService  TemplateServiceInterface
	DashboardService DashboardServiceInterface
	AssistantService AssistantServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Recovery → SecurityHeaders → CORS
//	  → (認証が必要なルート) Session → CSRF → RateLimit(General)
//
// /health、/metrics、ログイン・登録は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins...))

	authHandler := NewAuthHandler(deps.AuthService, deps.TokenIssuer, deps.AuthConfig)
	dayHandler := NewDayHandler(deps.DayService, deps.SessionTimer, deps.DaySharer)
	workoutHandler := NewWorkoutHandler(deps.WorkoutService)
	bmiHandler := NewBMIHandler(deps.BMIService)
	shareHandler := NewShareHandler(deps.TemplateService)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService)
	assistantHandler := NewAssistantHandler(deps.AssistantService)

	// --- 認証不要のルート ---

	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Route("/auth", func(r chi.Router) {
		// ログイン・登録はIP単位のレート制限を適用する
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.NewSessionMiddleware(deps.TokenVerifier)).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.TokenVerifier))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// トレーニング日
		r.Route("/days", func(r chi.Router) {
			r.Get("/", dayHandler.ListDays)
			r.Post("/", dayHandler.CreateDay)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", dayHandler.DeleteDay)
				r.Post("/start", dayHandler.Start)
				r.Post("/complete", dayHandler.Complete)
				r.Post("/share", dayHandler.Share)
				r.Delete("/share", dayHandler.Unshare)

				r.Get("/workouts", dayHandler.ListWorkouts)
				r.Post("/workouts", dayHandler.AddWorkout)
				r.Post("/workouts/reorder", dayHandler.ReorderWorkouts)
			})
		})

		// ワークアウト
		r.Route("/workouts/{id}", func(r chi.Router) {
			r.Patch("/", workoutHandler.UpdateWorkout)
			r.Put("/", workoutHandler.UpdateWorkout)
			r.Delete("/", workoutHandler.DeleteWorkout)
			r.Post("/complete", workoutHandler.Complete)
			r.Get("/current", workoutHandler.GetCurrentWeight)
			r.Post("/current", workoutHandler.SetCurrentWeight)
			r.Get("/weights", workoutHandler.ListLogs)
			r.Post("/weights", workoutHandler.AddLog)
		})

		// BMI
		r.Route("/imc", func(r chi.Router) {
			r.Get("/", bmiHandler.List)
			r.Post("/", bmiHandler.Add)
			r.Delete("/", bmiHandler.Clear)
			r.Delete("/{id}", bmiHandler.Delete)
		})

		// 共有コード
		r.Route("/share/{code}", func(r chi.Router) {
			r.Get("/", shareHandler.Preview)
			r.Post("/clone", shareHandler.Clone)
		})

		r.Get("/dashboard", dashboardHandler.Summary)
		r.Post("/assistant/generate", assistantHandler.Generate)

		// 種目カタログ（書き込みは管理者のみ）
		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", exerciseHandler.List)
			r.Post("/", exerciseHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", exerciseHandler.Get)
				r.Put("/", exerciseHandler.Update)
				r.Delete("/", exerciseHandler.Delete)
			})
		})
	})

	return r
}
