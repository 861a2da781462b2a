package tgc

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/tgshare/sharebot/internal/logging"
	"go.uber.org/zap"
)

// RunWithBotAuth runs the client, performing bot authorization on first use,
// and hands the bot's own user to f once the session is ready.
func RunWithBotAuth(ctx context.Context, client *telegram.Client, token string, f func(ctx context.Context, self *tg.User) error) error {
	return client.Run(ctx, func(ctx context.Context) error {
		logger := logging.FromContext(ctx)

		status, err := client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "auth status")
		}

		if !status.Authorized {
			logger.Debug("creating bot session")
			if _, err := client.Auth().Bot(ctx, token); err != nil {
				return errors.Wrap(err, "bot login")
			}
		}

		self, err := client.Self(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch self")
		}
		logger.Info("bot session ready",
			zap.Int64("id", self.ID),
			zap.String("username", self.Username))

		return f(ctx, self)
	})
}
