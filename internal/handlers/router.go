package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"familyspace/internal/metrics"
	"familyspace/internal/security"
	"familyspace/internal/service"
)

// RouterConfig carries everything the HTTP surface depends on
type RouterConfig struct {
	Logger         *zap.Logger
	Tokens         TokenValidator
	DB             Pinger
	Auth           *service.AuthService
	Families       *service.FamilyService
	Invitations    *service.InvitationRegistry
	Activities     *service.ActivityService
	RateLimiter    *security.RateLimiter
	AllowedOrigins []string
}

// NewRouter wires the API routes
func NewRouter(cfg RouterConfig) http.Handler {
	mw := NewMiddleware(cfg.Tokens, cfg.Logger)

	r := chi.NewRouter()
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(metrics.InstrumentHandler)

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limited = cfg.RateLimiter.Middleware
	}

	healthHandler := NewHealthHandler(cfg.DB)
	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	familyHandler := NewFamilyHandler(cfg.Families, cfg.Invitations, cfg.Logger)
	activityHandler := NewActivityHandler(cfg.Activities, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(limited).Post("/auth/kakao", authHandler.KakaoLogin)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)

			r.Get("/members/me", authHandler.Me)
			r.Post("/members/signup", authHandler.SignUp)

			r.Route("/families", func(r chi.Router) {
				r.Post("/", familyHandler.Create)
				r.Get("/code", familyHandler.GenerateCode)
				r.With(limited).Post("/join", familyHandler.Join)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Post("/attendance", activityHandler.CheckIn)
				r.Get("/attendance/today", activityHandler.TodayAttendance)
				r.Get("/attendance/weekly", activityHandler.WeeklyAttendance)
				r.Post("/posts", activityHandler.CreatePost)
				r.Get("/posts/today", activityHandler.TodayPosts)
				r.Get("/posts/status", activityHandler.Status)
				r.Get("/posts/weekly", activityHandler.WeeklyPosts)
			})
		})
	})

	return r
}
