// Package api exposes the liveness endpoint used by deploy platforms that
// ping the service to decide whether it is healthy.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tgshare/sharebot/internal/chizap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BotInfo reports the connected bot's identity for the status payload.
type BotInfo interface {
	Username() string
}

type status struct {
	Status string `json:"status"`
	Bot    string `json:"bot,omitempty"`
	Uptime string `json:"uptime"`
}

func NewRouter(bot BotInfo, logger *zap.Logger) http.Handler {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedOrigins: []string{"*"},
	}))
	r.Use(chizap.ChizapWithConfig(logger, &chizap.Config{
		TimeFormat:   time.RFC3339,
		UTC:          true,
		SkipPaths:    []string{"/"},
		DefaultLevel: zapcore.DebugLevel,
	}))

	handler := func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status{
			Status: "ok",
			Bot:    bot.Username(),
			Uptime: time.Since(started).Round(time.Second).String(),
		})
	}
	r.Get("/", handler)
	r.Get("/health", handler)

	return r
}
