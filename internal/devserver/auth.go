package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nhle/taskboard/internal/remote"
	"github.com/nhle/taskboard/internal/session"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// auth rejects requests without a valid bearer token and stores the
// verified claims in the request context.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := session.Verify(parts[1], s.secret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) session.Claims {
	c, _ := ctx.Value(claimsContextKey).(session.Claims)
	return c
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req remote.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	u, ok := s.users[req.Username]
	if !ok || u.Password != req.Password {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	now := s.clock.Now()
	token, err := session.Sign(u.User, s.secret, now, now.Add(tokenTTL))
	if err != nil {
		s.log.Logf("[ERROR] signing token for %s: %v", u.Username, err)
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}

	respondJSON(w, http.StatusOK, remote.LoginResponse{
		Token: token,
		User: remote.UserDTO{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Department:  u.Department,
			Role:        string(u.Role),
		},
	})
}
