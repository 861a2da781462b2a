package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type ServerConfig struct {
	Port             int           `mapstructure:"port"`
	GracefulShutdown time.Duration `mapstructure:"graceful-shutdown"`
	ReadTimeout      time.Duration `mapstructure:"read-timeout"`
	WriteTimeout     time.Duration `mapstructure:"write-timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type CacheConfig struct {
	MaxSize   int    `mapstructure:"max-size"`
	RedisAddr string `mapstructure:"redis-addr"`
	RedisPass string `mapstructure:"redis-pass"`
}

type DBConfig struct {
	DataSource  string `mapstructure:"data-source"`
	PrepareStmt bool   `mapstructure:"prepare-stmt"`
	LogLevel    string `mapstructure:"log-level"`
	Pool        struct {
		Enable             bool          `mapstructure:"enable"`
		MaxOpenConnections int           `mapstructure:"max-open-connections"`
		MaxIdleConnections int           `mapstructure:"max-idle-connections"`
		MaxLifetime        time.Duration `mapstructure:"max-lifetime"`
	} `mapstructure:"pool"`
}

type TGConfig struct {
	AppId            int           `mapstructure:"app-id"`
	AppHash          string        `mapstructure:"app-hash"`
	RateLimit        bool          `mapstructure:"rate-limit"`
	RateBurst        int           `mapstructure:"rate-burst"`
	Rate             int           `mapstructure:"rate"`
	DeviceModel      string        `mapstructure:"device-model"`
	SystemVersion    string        `mapstructure:"system-version"`
	AppVersion       string        `mapstructure:"app-version"`
	LangCode         string        `mapstructure:"lang-code"`
	SystemLangCode   string        `mapstructure:"system-lang-code"`
	LangPack         string        `mapstructure:"lang-pack"`
	SessionFile      string        `mapstructure:"session-file"`
	ReconnectTimeout time.Duration `mapstructure:"reconnect-timeout"`
	EnableLogging    bool          `mapstructure:"enable-logging"`
}

type BotConfig struct {
	Token            string  `mapstructure:"token"`
	ArchiveChannelId int64   `mapstructure:"archive-channel-id"`
	JoinChannelId    int64   `mapstructure:"join-channel-id"`
	JoinChannelLink  string  `mapstructure:"join-channel-link"`
	Admins           []int64 `mapstructure:"admins"`
}

type CronJobConfig struct {
	Enable             bool          `mapstructure:"enable"`
	StaleBatchAge      time.Duration `mapstructure:"stale-batch-age"`
	StaleBatchInterval time.Duration `mapstructure:"stale-batch-interval"`
	LockSweepIdle      time.Duration `mapstructure:"lock-sweep-idle"`
	LockSweepInterval  time.Duration `mapstructure:"lock-sweep-interval"`
}

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Log      LoggingConfig `mapstructure:"log"`
	DB       DBConfig      `mapstructure:"db"`
	Cache    CacheConfig   `mapstructure:"cache"`
	TG       TGConfig      `mapstructure:"tg"`
	Bot      BotConfig     `mapstructure:"bot"`
	CronJobs CronJobConfig `mapstructure:"cronjobs"`
}

type ConfigLoader struct {
	v *viper.Viper
}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		v: viper.New(),
	}
}

func (cl *ConfigLoader) InitializeConfig(cmd *cobra.Command) error {
	cl.v.SetConfigType("toml")

	cfgFile := cmd.Flags().Lookup("config").Value.String()

	if cfgFile != "" {
		cl.v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting home directory: %v", err)
		}
		cl.v.AddConfigPath(filepath.Join(home, ".sharebot"))
		cl.v.AddConfigPath(".")
		cl.v.SetConfigName("config")
	}

	cl.v.SetEnvPrefix("sharebot")
	cl.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	cl.v.AutomaticEnv()

	if err := cl.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	if err := cl.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %v", err)
		}
	}

	return nil
}

func (cl *ConfigLoader) Load(cfg *Config) error {
	config := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %v", err)
	}

	if err := decoder.Decode(cl.v.AllSettings()); err != nil {
		return fmt.Errorf("failed to decode config: %v", err)
	}

	return nil
}

func Validate(cfg *Config) error {
	if cfg.TG.AppId == 0 || cfg.TG.AppHash == "" {
		return fmt.Errorf("tg-app-id and tg-app-hash are required")
	}
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot-token is required")
	}
	if cfg.Bot.ArchiveChannelId == 0 {
		return fmt.Errorf("bot-archive-channel-id is required")
	}
	return nil
}

func AddCommonFlags(flags *pflag.FlagSet, config *Config) {

	flags.StringP("config", "c", "", "Config file path (default $HOME/.sharebot/config.toml)")

	// Log config
	flags.StringVar(&config.Log.Level, "log-level", zapcore.InfoLevel.String(), "Logging level")
	flags.StringVar(&config.Log.File, "log-file", "", "Logging file path")

	// Server config
	flags.IntVar(&config.Server.Port, "server-port", 8080, "Health server port")
	flags.DurationVar(&config.Server.GracefulShutdown, "server-graceful-shutdown", 10*time.Second, "Shutdown grace period")
	flags.DurationVar(&config.Server.ReadTimeout, "server-read-timeout", 30*time.Second, "Server read timeout")
	flags.DurationVar(&config.Server.WriteTimeout, "server-write-timeout", 30*time.Second, "Server write timeout")

	// DB config
	flags.StringVar(&config.DB.DataSource, "db-data-source", "", "Database connection string (empty runs the in-memory store)")
	flags.StringVar(&config.DB.LogLevel, "db-log-level", zapcore.ErrorLevel.String(), "Database log level")
	flags.BoolVar(&config.DB.PrepareStmt, "db-prepare-stmt", true, "Enable prepared statements")
	flags.BoolVar(&config.DB.Pool.Enable, "db-pool-enable", true, "Enable database pool")
	flags.IntVar(&config.DB.Pool.MaxOpenConnections, "db-pool-max-open-connections", 25, "Database max open connections")
	flags.IntVar(&config.DB.Pool.MaxIdleConnections, "db-pool-max-idle-connections", 25, "Database max idle connections")
	flags.DurationVar(&config.DB.Pool.MaxLifetime, "db-pool-max-lifetime", 10*time.Minute, "Database max connection lifetime")

	// Cache config
	flags.IntVar(&config.Cache.MaxSize, "cache-max-size", 10*1024*1024, "Max cache size in bytes")
	flags.StringVar(&config.Cache.RedisAddr, "cache-redis-addr", "", "Redis address")
	flags.StringVar(&config.Cache.RedisPass, "cache-redis-pass", "", "Redis password")

	// Telegram config
	flags.IntVar(&config.TG.AppId, "tg-app-id", 0, "Telegram app ID")
	flags.StringVar(&config.TG.AppHash, "tg-app-hash", "", "Telegram app hash")
	flags.StringVar(&config.TG.SessionFile, "tg-session-file", "", "Bot session file path")
	flags.BoolVar(&config.TG.RateLimit, "tg-rate-limit", true, "Enable rate limiting for telegram client")
	flags.IntVar(&config.TG.RateBurst, "tg-rate-burst", 5, "Limiting burst for telegram client")
	flags.IntVar(&config.TG.Rate, "tg-rate", 100, "Limiting rate for telegram client")
	flags.StringVar(&config.TG.DeviceModel, "tg-device-model",
		"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/116.0", "Device model")
	flags.StringVar(&config.TG.SystemVersion, "tg-system-version", "Win32", "System version")
	flags.StringVar(&config.TG.AppVersion, "tg-app-version", "1.0.0", "App version")
	flags.StringVar(&config.TG.LangCode, "tg-lang-code", "en", "Language code")
	flags.StringVar(&config.TG.SystemLangCode, "tg-system-lang-code", "en-US", "System language code")
	flags.StringVar(&config.TG.LangPack, "tg-lang-pack", "webk", "Language pack")
	flags.DurationVar(&config.TG.ReconnectTimeout, "tg-reconnect-timeout", 5*time.Minute, "Reconnection backoff limit")
	flags.BoolVar(&config.TG.EnableLogging, "tg-enable-logging", false, "Enable telegram client logging")

	// Bot config
	flags.StringVar(&config.Bot.Token, "bot-token", "", "Bot token")
	flags.Int64Var(&config.Bot.ArchiveChannelId, "bot-archive-channel-id", 0, "Channel files are relayed to")
	flags.Int64Var(&config.Bot.JoinChannelId, "bot-join-channel-id", 0, "Channel users must join before redeeming links (0 disables the gate)")
	flags.StringVar(&config.Bot.JoinChannelLink, "bot-join-channel-link", "", "Invite link shown with the join prompt")
	flags.Int64SliceVar(&config.Bot.Admins, "bot-admins", nil, "Admin user ids")

	// Cron config
	flags.BoolVar(&config.CronJobs.Enable, "cronjobs-enable", true, "Enable background jobs")
	flags.DurationVar(&config.CronJobs.StaleBatchAge, "cronjobs-stale-batch-age", 24*time.Hour, "Age after which an abandoned active batch is cancelled")
	flags.DurationVar(&config.CronJobs.StaleBatchInterval, "cronjobs-stale-batch-interval", time.Hour, "Stale batch sweep interval")
	flags.DurationVar(&config.CronJobs.LockSweepIdle, "cronjobs-lock-sweep-idle", 15*time.Minute, "Idle time before an owner lock is dropped")
	flags.DurationVar(&config.CronJobs.LockSweepInterval, "cronjobs-lock-sweep-interval", 5*time.Minute, "Owner lock sweep interval")
}
