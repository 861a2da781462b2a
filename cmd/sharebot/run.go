package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tgshare/sharebot/api"
	"github.com/tgshare/sharebot/internal/cache"
	"github.com/tgshare/sharebot/internal/config"
	"github.com/tgshare/sharebot/internal/logging"
	"github.com/tgshare/sharebot/internal/tgc"
	"github.com/tgshare/sharebot/pkg/bot"
	"github.com/tgshare/sharebot/pkg/cron"
	"github.com/tgshare/sharebot/pkg/services"
	"github.com/tgshare/sharebot/pkg/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func NewRun() *cobra.Command {
	var cfg config.Config
	loader := config.NewConfigLoader()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the health server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loader.InitializeConfig(cmd); err != nil {
				return err
			}
			if err := loader.Load(&cfg); err != nil {
				return err
			}
			return config.Validate(&cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplication(cmd.Context(), &cfg)
		},
	}
	config.AddCommonFlags(cmd.Flags(), &cfg)
	return cmd
}

func runApplication(ctx context.Context, cfg *config.Config) error {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logging.SetConfig(&logging.Config{
		Level:    level,
		FilePath: cfg.Log.File,
	})
	logger := logging.DefaultLogger()
	defer logger.Sync()

	st, err := store.New(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	cacher := cache.NewCache(ctx, &cfg.Cache)

	batches := services.NewBatchService(st, logger)
	settings := services.NewSettingService(st, cacher, cfg.Bot.Admins, logger)
	shareBot := bot.New(&cfg.Bot, batches, settings, logger)
	redeems := services.NewRedeemService(st, cacher, shareBot.Gate(), logger)
	shareBot.SetRedeemService(redeems)

	sessionFile, err := sessionFilePath(cfg)
	if err != nil {
		return err
	}
	boltdb, err := tgc.NewBoltDB(sessionFile)
	if err != nil {
		return fmt.Errorf("open session db: %w", err)
	}
	defer boltdb.Close()

	waiter := tgc.NewFloodWaiter(logger)
	middlewares := tgc.NewMiddleware(&cfg.TG,
		tgc.WithFloodWait(waiter),
		tgc.WithRecovery(ctx),
		tgc.WithRateLimit(),
	)
	client := tgc.BotClient(ctx, boltdb, &cfg.TG, cfg.Bot.Token, shareBot.Dispatcher(), middlewares...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(shareBot, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	jobs := cron.NewCronService(batches, &cfg.CronJobs, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return waiter.Run(ctx, func(ctx context.Context) error {
			return shareBot.Run(ctx, client, cfg.Bot.Token)
		})
	})

	g.Go(func() error {
		logger.Info("health server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return jobs.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func sessionFilePath(cfg *config.Config) (string, error) {
	if cfg.TG.SessionFile != "" {
		return cfg.TG.SessionFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".sharebot")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.db"), nil
}
