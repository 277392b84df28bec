package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// RequireAdmin rejects requests whose bearer token a does not authorize.
func RequireAdmin(a Authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "missing bearer token")
			return
		}
		allowed, err := a.Authorize(r.Context(), token)
		if err != nil {
			log.Printf("auth: %v", err)
			unauthorized(w, "invalid token")
			return
		}
		if !allowed {
			unauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": http.StatusUnauthorized,
		"error":  http.StatusText(http.StatusUnauthorized),
		"kind":   "unauthorized",
		"detail": detail,
	})
}
