package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"videoquiz-backend/internal/handlers"
	"videoquiz-backend/internal/middleware"
)

// New wires the HTTP surface. authLimiter may be nil to disable rate limiting.
func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	allowedOrigins []string,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(chimiddleware.StripSlashes)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Group(func(r chi.Router) {
			if authLimiter != nil {
				r.Use(authLimiter.Middleware)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/token/refresh", authHandler.Refresh)
		})

		// ──── Authenticated Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/logout", authHandler.Logout)

			r.Post("/createQuiz", quizHandler.Create)
			r.Get("/quizzes", quizHandler.List)
			r.Get("/quizzes/{id}", quizHandler.Get)
			r.Patch("/quizzes/{id}", quizHandler.Update)
			r.Delete("/quizzes/{id}", quizHandler.Delete)
		})
	})

	return r
}
