package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"charachat/internal/handlers"
	"charachat/internal/middleware"
	"charachat/internal/websocket"
)

// Limiter is satisfied by both middleware.RateLimiter and
// middleware.RedisRateLimiter.
type Limiter interface {
	Middleware(next http.Handler) http.Handler
}

// New wires the relay routes. jwtAuth and limiter are optional; a nil value
// leaves the chat routes open. staticDir, when set, is served at /.
func New(
	relayHandler *handlers.RelayHandler,
	wsHub *websocket.Hub,
	jwtAuth *middleware.JWTAuth,
	limiter Limiter,
	logger *slog.Logger,
	frontendURL string,
	staticDir string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", handlers.Health)

	r.Route("/api/chat", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		if jwtAuth != nil {
			r.Use(jwtAuth.Middleware)
		}

		r.MethodNotAllowed(handlers.MethodNotAllowed)

		// Every method reaches the handler so it can answer 405 as JSON.
		r.HandleFunc("/", relayHandler.Chat)
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return r
}
