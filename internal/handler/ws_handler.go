/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
resolving the caller's identity from their token, upgrading the HTTP connection to
WebSocket, and initiating the client lifecycle.
*/
package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"parlor/internal/app/chat"
	"parlor/internal/app/user"
	"parlor/internal/pkg/auth/jwt"
	"parlor/internal/pkg/errs"
	"parlor/internal/pkg/limiter"
	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		// Identity failures are reported over the socket so browser clients
		// can render the reason; the HTTP response is gone after upgrade.
		profile, ok := resolveProfile(r, deps)
		if !ok {
			rejectSocket(conn, errs.NewError(errs.ErrNotLoggedIn))
			return
		}

		client := chat.NewClient(deps.Chat, conn, profile)

		go client.WritePump()

		logx.Info("WebSocket connection established", "username", profile.Username, "guest", profile.Guest)

		client.Run()
	}
}

// resolveProfile authenticates the handshake. The token travels in the
// "token" query parameter or the Authorization header. Registered users are
// resolved to their current database profile; guests are reconstructed from
// token claims alone.
func resolveProfile(r *http.Request, deps *AppDeps) (user.Profile, bool) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		return user.Profile{}, false
	}

	payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
	if err != nil {
		logx.Warn("WebSocket handshake with invalid token", "error", err)
		return user.Profile{}, false
	}

	if payload.Guest {
		return user.Profile{
			Identity: payload.ID,
			Username: payload.Username,
			Avatar:   payload.Avatar,
			Bio:      payload.Bio,
			Guest:    true,
		}, true
	}

	record, err := deps.Store.UserByID(r.Context(), payload.ID)
	if err != nil {
		logx.Warn("WebSocket handshake for unknown user", "id", payload.ID, "error", err)
		return user.Profile{}, false
	}

	return record.Profile(), true
}

// rejectSocket sends a blocked event followed by a close frame and drops
// the connection.
func rejectSocket(conn *websocket.Conn, customErr *errs.CustomError) {
	deadline := time.Now().Add(10 * time.Second)

	event := chat.BlockedEvent{Type: chat.EventBlocked, Message: customErr.Message}
	if data, err := json.Marshal(event); err == nil {
		conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}

	closeMessage := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, customErr.Message)
	conn.SetWriteDeadline(deadline)
	_ = conn.WriteMessage(websocket.CloseMessage, closeMessage)
	_ = conn.Close()
}
