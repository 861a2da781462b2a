// Package chizap provides request log handling using the zap package for the
// go-chi/chi router.
package chizap

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	TimeFormat   string
	UTC          bool
	SkipPaths    []string
	DefaultLevel zapcore.Level
}

func Chizap(logger *zap.Logger, timeFormat string, utc bool) func(next http.Handler) http.Handler {
	return ChizapWithConfig(logger, &Config{TimeFormat: timeFormat, UTC: utc, DefaultLevel: zapcore.InfoLevel})
}

func ChizapWithConfig(logger *zap.Logger, conf *Config) func(next http.Handler) http.Handler {
	skipPaths := make(map[string]bool, len(conf.SkipPaths))
	for _, path := range conf.SkipPaths {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			query := r.URL.RawQuery

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				if skipPaths[path] {
					return
				}

				end := time.Now()
				latency := end.Sub(start)
				if conf.UTC {
					end = end.UTC()
				}

				fields := []zapcore.Field{
					zap.Int("status", ww.Status()),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.String("query", query),
					zap.String("ip", r.RemoteAddr),
					zap.String("user-agent", r.UserAgent()),
					zap.Duration("latency", latency),
				}
				if conf.TimeFormat != "" {
					fields = append(fields, zap.String("time", end.Format(conf.TimeFormat)))
				}

				if ww.Status() >= 400 {
					logger.Error("", fields...)
				} else {
					logger.Log(conf.DefaultLevel, "", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
