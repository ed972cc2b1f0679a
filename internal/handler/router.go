/*
Package handler provides the HTTP handlers and routing setup for the Parlor chat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"parlor/internal/pkg/auth/jwt"
	"parlor/internal/pkg/limiter"
	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/resp"
)

const (
	AuthRate  = 0.1
	AuthBurst = 3
	WSRate    = 0.2
	WSBurst   = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WSRate), WSBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PoW-Token"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "Parlor Chat Server",
			"online":  deps.Chat.OnlineCount(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/pow/challenge", HandlePowChallenge(deps))
			auth.Post("/pow/verify", HandlePowVerify(deps))

			auth.Post("/register", authLimiter.Middleware(HandleRegister(deps)).ServeHTTP)
			auth.Post("/login", authLimiter.Middleware(HandleLogin(deps)).ServeHTTP)
			auth.Post("/guest", authLimiter.Middleware(HandleGuestLogin(deps)).ServeHTTP)
		})

		api.Route("/user", func(user chi.Router) {
			user.Get("/profile", HandleGetUserProfile(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, wsLimiter, deps))

	return r
}
