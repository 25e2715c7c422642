package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured frontend origins to call the API with bearer tokens
func CORS(allowedOrigins []string, debug bool) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
		Debug:            debug,
	})
	return c.Handler
}
