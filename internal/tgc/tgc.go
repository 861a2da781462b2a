package tgc

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbbolt "github.com/gotd/contrib/bbolt"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/tgshare/sharebot/internal/config"
	"github.com/tgshare/sharebot/internal/logging"
	"github.com/tgshare/sharebot/internal/recovery"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func sessionKey(indexes ...string) string {
	return strings.Join(indexes, ":")
}

func newClient(ctx context.Context, config *config.TGConfig, handler telegram.UpdateHandler, storage session.Storage, middlewares ...telegram.Middleware) *telegram.Client {

	var logger *zap.Logger
	if config.EnableLogging {
		logger = logging.FromContext(ctx).Named("td")
	}

	opts := telegram.Options{
		ReconnectionBackoff: func() backoff.BackOff {
			return newBackoff(config.ReconnectTimeout)
		},
		Device: telegram.DeviceConfig{
			DeviceModel:    config.DeviceModel,
			SystemVersion:  config.SystemVersion,
			AppVersion:     config.AppVersion,
			SystemLangCode: config.SystemLangCode,
			LangPack:       config.LangPack,
			LangCode:       config.LangCode,
		},
		SessionStorage: storage,
		RetryInterval:  2 * time.Second,
		MaxRetries:     10,
		DialTimeout:    10 * time.Second,
		Middlewares:    middlewares,
		UpdateHandler:  handler,
		Logger:         logger,
	}

	return telegram.NewClient(config.AppId, config.AppHash, opts)
}

// BotClient builds the bot's MTProto client with its session persisted in
// bolt, so restarts do not burn a fresh authorization.
func BotClient(ctx context.Context, boltdb *bbolt.DB, config *config.TGConfig, token string, handler telegram.UpdateHandler, middlewares ...telegram.Middleware) *telegram.Client {
	storage := tgbbolt.NewSessionStorage(boltdb, sessionKey("botsession", token), []byte("sharebot"))
	return newClient(ctx, config, handler, storage, middlewares...)
}

func NewBoltDB(path string) (*bbolt.DB, error) {
	return bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
}

type middlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	config      *config.TGConfig
	middlewares []telegram.Middleware
}

func NewMiddleware(config *config.TGConfig, opts ...middlewareOption) []telegram.Middleware {
	mc := &middlewareConfig{
		config:      config,
		middlewares: []telegram.Middleware{},
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc.middlewares
}

// WithFloodWait honors FLOOD_WAIT by sleeping the mandated duration and
// logging every wait. The returned waiter must be run alongside the client.
func WithFloodWait(waiter *floodwait.Waiter) middlewareOption {
	return func(mc *middlewareConfig) {
		mc.middlewares = append(mc.middlewares, waiter)
	}
}

func NewFloodWaiter(logger *zap.Logger) *floodwait.Waiter {
	return floodwait.NewWaiter().WithCallback(func(ctx context.Context, wait floodwait.FloodWait) {
		logger.Warn("flood wait, retrying after",
			zap.Duration("wait", wait.Duration))
	})
}

func WithRecovery(ctx context.Context) middlewareOption {
	return func(mc *middlewareConfig) {
		mc.middlewares = append(mc.middlewares,
			recovery.New(ctx, newBackoff(mc.config.ReconnectTimeout)))
	}
}

func WithRateLimit() middlewareOption {
	return func(mc *middlewareConfig) {
		if mc.config.RateLimit {
			mc.middlewares = append(mc.middlewares,
				ratelimit.New(rate.Every(time.Millisecond*time.Duration(mc.config.Rate)), mc.config.RateBurst))
		}
	}
}

func newBackoff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.Multiplier = 1.1
	b.MaxElapsedTime = timeout
	b.MaxInterval = 10 * time.Second
	return b
}
