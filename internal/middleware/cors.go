package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/cors"

	"fleets-server/internal/shared/config"
	"fleets-server/internal/shared/response"
)

type CORSMiddleware struct {
	*cors.Cors
}

// NewCORS allows the configured frontend origins. FRONTEND_URL may list
// several origins separated by commas.
func NewCORS(cfg config.FrontendConfig) *CORSMiddleware {
	logger := slog.With("component", "cors", "operation", "setup")
	logger.Debug("Setting up CORS middleware")

	var allowedOrigins []string
	for _, origin := range strings.Split(cfg.URL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}
	allowedMethods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}

	corsConfig := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: allowedMethods,
		AllowedHeaders: []string{"Content-Type", response.RequestIDHeader},
		ExposedHeaders: []string{response.RequestIDHeader},
		Debug:          cfg.CORSDebug,
	})

	logger.Info("CORS middleware configured",
		"allowed_origins", allowedOrigins,
		"allowed_methods", allowedMethods,
		"debug_mode", cfg.CORSDebug,
	)

	if cfg.CORSDebug {
		logger.Debug("CORS debug mode enabled - will log CORS request details")
	}

	return &CORSMiddleware{corsConfig}
}

func (c *CORSMiddleware) Middleware(h http.Handler) http.Handler {
	return c.Cors.Handler(h)
}
