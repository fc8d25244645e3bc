package middleware

import (
	"encoding/json"
	"net/http"
)

// ConnectionState lo cumple postgres.Conn.
type ConnectionState interface {
	Connected() bool
}

// RequireConnection corta con 503 mientras la base no esté conectada.
// Sólo se monta cuando la base es el único backend (networked-only): con
// archivo de respaldo el request sigue y el repo degrada.
func RequireConnection(conn ConnectionState) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if conn == nil || !conn.Connected() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message": "Service Unavailable: Database not connected",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
