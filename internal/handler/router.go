package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blurosiere/clinica/internal/metrics"
	"github.com/blurosiere/clinica/internal/middleware"
)

// RouterDeps はルーター構築に必要な依存をまとめる。
type RouterDeps struct {
	TokenVerifier      middleware.TokenVerifier
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
	Collector          metrics.MetricsCollector
	MetricsHandler     http.Handler
	CORSAllowedOrigin  string
	AuthService        AuthServiceInterface
	AppointmentService AppointmentServiceInterface
	PatientService     PatientServiceInterface
	RequestService     RequestServiceInterface
	ReportService      ReportServiceInterface
}

// NewRouter はアプリケーション全体のルーティングを構築する。
//
// 認証不要のルート(ログイン、申込作成、心理士一覧)と、Bearerトークン必須の
// /api 配下のルートに分かれる。患者管理とレポートは心理士のみ。
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	appointmentHandler := NewAppointmentHandler(deps.AppointmentService, deps.Collector)
	patientHandler := NewPatientHandler(deps.PatientService)
	requestHandler := NewRequestHandler(deps.RequestService, deps.Collector)
	reportHandler := NewReportHandler(deps.ReportService)

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/register", authHandler.Register)
	r.Get("/api/psychologists", authHandler.ListPsychologists)

	// 申込作成は未認証だがIP単位の厳しいレート制限を掛ける。
	r.With(deps.RateLimiter.SubmissionMiddleware()).Post("/api/requests", requestHandler.Create)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/auth/me", authHandler.Me)

		r.Route("/api/appointments", func(r chi.Router) {
			r.Get("/", appointmentHandler.List)
			r.Get("/slots", appointmentHandler.AvailableSlots)
			r.Get("/{id}", appointmentHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePsychologist())
				r.Post("/", appointmentHandler.Create)
				r.Patch("/{id}/status", appointmentHandler.UpdateStatus)
				r.Put("/{id}/notes", appointmentHandler.UpdateNotes)
				r.Delete("/{id}", appointmentHandler.Cancel)
			})
		})

		r.Route("/api/patients", func(r chi.Router) {
			r.Use(middleware.RequirePsychologist())
			r.Get("/", patientHandler.List)
			r.Post("/", patientHandler.Create)
			r.Patch("/{id}/status", patientHandler.UpdateStatus)
			r.Post("/{id}/notes", patientHandler.AddNote)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePsychologist())
			r.Get("/api/requests", requestHandler.List)
			r.Put("/api/requests/{id}/status", requestHandler.UpdateStatus)
			r.Get("/api/reports", reportHandler.Summary)
		})
	})

	return r
}
