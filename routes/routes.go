package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/club-scheduler/handlers"
	"github.com/Dosada05/club-scheduler/metrics"
	"github.com/Dosada05/club-scheduler/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Sport     *handlers.SportHandler
	Player    *handlers.PlayerHandler
	Session   *handlers.SessionHandler
	Round     *handlers.RoundHandler
	Match     *handlers.MatchHandler
	Board     *handlers.BoardHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	JWTSecret          []byte
	CORSAllowedOrigins []string
	Logger             *slog.Logger
	// Metrics, when set, is served on /metrics and request latency is recorded.
	Metrics            http.Handler
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(metrics.Middleware)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Healthz)
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	router.Post("/auth/token", h.Auth.Token)
	router.Get("/sports", h.Sport.List)

	// websocket connections are long-lived, keep them out of the timeout
	router.Get("/ws/sessions/{sessionID}", h.WebSocket.ServeWs)

	organizer := []func(http.Handler) http.Handler{
		middleware.Authenticate(opts.JWTSecret, opts.Logger),
		middleware.Authorize(middleware.RoleOrganizer),
	}

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.Player.List)
			r.With(organizer...).Post("/", h.Player.Create)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.Session.List)
			r.With(organizer...).Put("/", h.Session.Open)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.Session.Get)
				r.Get("/attendance", h.Session.GetAttendance)
				r.Get("/rounds", h.Round.ListRounds)
				r.Get("/rounds/active", h.Round.ActiveRound)
				r.Get("/matches", h.Match.History)
				r.Get("/fairness", h.Board.Fairness)
				r.Get("/board", h.Board.Board)

				r.Group(func(r chi.Router) {
					r.Use(organizer...)
					r.Put("/attendance", h.Session.SetAttendance)
					r.Post("/attendance/{playerID}", h.Session.AddAttendance)
					r.Delete("/attendance/{playerID}", h.Session.RemoveAttendance)
					r.Post("/rounds", h.Round.CreateRound)
					r.Post("/pool", h.Round.GeneratePool)
					r.Delete("/pool/{poolID}", h.Round.DiscardPool)
					r.Post("/advance", h.Round.Advance)
					r.Post("/matches", h.Match.Record)
				})
			})
		})

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Get("/", h.Round.GetRound)
			r.Group(func(r chi.Router) {
				r.Use(organizer...)
				r.Post("/activate", h.Round.Activate)
				r.Post("/complete", h.Round.Complete)
				r.Delete("/", h.Round.Discard)
			})
		})

		r.With(organizer...).Post("/round-matches/{matchID}/score", h.Match.Score)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
