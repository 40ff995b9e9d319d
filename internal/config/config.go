// Package config loads bot configuration. Sources are applied in order,
// later ones overriding earlier ones: built-in defaults, the YAML config
// file, the environment (including a .env file) and the command line.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/keshon/plankboat/internal/logger"
	"github.com/keshon/plankboat/pkg/workerpool"
)

// ErrHelp is returned by Load when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

type Config struct {
	Discord DiscordConfig `mapstructure:"discord" envPrefix:"DISCORD_"`
	Bot     BotConfig     `mapstructure:"bot" envPrefix:"BOT_"`
	Pool    PoolConfig    `mapstructure:"pool" envPrefix:"POOL_"`
	MAL     MALConfig     `mapstructure:"mal" envPrefix:"MAL_"`
	Redis   RedisConfig   `mapstructure:"redis" envPrefix:"REDIS_"`
	Storage StorageConfig `mapstructure:"storage" envPrefix:"STORAGE_"`
	Status  StatusConfig  `mapstructure:"status" envPrefix:"STATUS_"`
	Log     logger.Config `mapstructure:"log" envPrefix:"LOG_"`
}

type DiscordConfig struct {
	Token string `mapstructure:"token" env:"TOKEN"`
	// Shards is the number of gateway sessions; 0 uses the count
	// recommended by the gateway.
	Shards int `mapstructure:"shards" env:"SHARDS"`
}

type BotConfig struct {
	Prefix              string `mapstructure:"prefix" env:"PREFIX"`
	ReplyArgumentErrors bool   `mapstructure:"reply_argument_errors" env:"REPLY_ARGUMENT_ERRORS"`
	MaxListedDice       int    `mapstructure:"max_listed_dice" env:"MAX_LISTED_DICE"`
}

type PoolConfig struct {
	Workers   int    `mapstructure:"workers" env:"WORKERS"`
	QueueSize int    `mapstructure:"queue_size" env:"QUEUE_SIZE"`
	Overflow  string `mapstructure:"overflow" env:"OVERFLOW"`
}

type MALConfig struct {
	Username        string        `mapstructure:"username" env:"USERNAME"`
	Password        string        `mapstructure:"password" env:"PASSWORD"`
	BaseURL         string        `mapstructure:"base_url" env:"BASE_URL"`
	Timeout         time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
	RateLimit       float64       `mapstructure:"rate_limit" env:"RATE_LIMIT"`
	MaxAttempts     int           `mapstructure:"max_attempts" env:"MAX_ATTEMPTS"`
	SynopsisLimit   int           `mapstructure:"synopsis_limit" env:"SYNOPSIS_LIMIT"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl" env:"CACHE_TTL"`
	BreakerFailures uint32        `mapstructure:"breaker_failures" env:"BREAKER_FAILURES"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" env:"BREAKER_TIMEOUT"`
}

// RedisConfig enables the lookup cache when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address" env:"ADDRESS"`
	Password string `mapstructure:"password" env:"PASSWORD"`
	DB       int    `mapstructure:"db" env:"DB"`
}

type StorageConfig struct {
	Path string `mapstructure:"path" env:"PATH"`
}

// StatusConfig enables the metrics/health server when Address is set.
type StatusConfig struct {
	Address string `mapstructure:"address" env:"ADDRESS"`
}

// Options controls where Load looks for its inputs.
type Options struct {
	Args    []string // command line without the program name
	EnvFile string   // "" skips the .env file
	Environ map[string]string
}

// Load builds the configuration from defaults, the config file, the
// environment and the command line, then validates it.
func Load(opts Options) (*Config, error) {
	fl, f := newFlagSet()
	if err := fl.Parse(opts.Args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	if *f.config != "" {
		v.SetConfigFile(*f.config)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}
	envOpts := env.Options{}
	if opts.Environ != nil {
		envOpts.Environment = opts.Environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if fl.NArg() > 0 {
		cfg.Discord.Token = fl.Arg(0)
	}
	if fl.Changed("shards") {
		cfg.Discord.Shards = *f.shards
	}
	if fl.Changed("prefix") {
		cfg.Bot.Prefix = *f.prefix
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = *f.logLevel
	}
	if fl.Changed("status-address") {
		cfg.Status.Address = *f.statusAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type flagValues struct {
	config     *string
	shards     *int
	prefix     *string
	logLevel   *string
	statusAddr *string
}

func newFlagSet() (*pflag.FlagSet, flagValues) {
	fl := pflag.NewFlagSet("plankboat", pflag.ContinueOnError)
	fl.Usage = func() {}
	fl.SetOutput(discard{})
	f := flagValues{
		config:     fl.StringP("config", "c", "", "path to a YAML config file"),
		shards:     fl.IntP("shards", "s", 0, "number of gateway shards (0: gateway recommendation)"),
		prefix:     fl.StringP("prefix", "p", "", "command prefix"),
		logLevel:   fl.String("log-level", "", "log level (trace, debug, info, warn, error)"),
		statusAddr: fl.String("status-address", "", "listen address of the status server"),
	}
	fl.Lookup("shards").NoOptDefVal = "0"
	return fl, f
}

// Usage describes the command line.
func Usage() string {
	fl, _ := newFlagSet()
	return "Usage: plankboat [flags] [token]\n\nFlags:\n" + fl.FlagUsages()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Discord.Token) == "" {
		problems = append(problems, "discord token is not set (argument, DISCORD_TOKEN or discord.token)")
	}
	if c.Discord.Shards < 0 {
		problems = append(problems, "discord.shards must not be negative")
	}
	if c.Bot.Prefix == "" {
		problems = append(problems, "bot.prefix must not be empty")
	}
	if c.Pool.Workers <= 0 {
		problems = append(problems, "pool.workers must be positive")
	}
	if c.Pool.QueueSize <= 0 {
		problems = append(problems, "pool.queue_size must be positive")
	}
	if _, err := workerpool.ParseOverflow(c.Pool.Overflow); err != nil {
		problems = append(problems, err.Error())
	}
	if c.MAL.SynopsisLimit < 4 {
		problems = append(problems, "mal.synopsis_limit must be at least 4")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.shards", 0)

	v.SetDefault("bot.prefix", "^")
	v.SetDefault("bot.reply_argument_errors", true)
	v.SetDefault("bot.max_listed_dice", 12)

	v.SetDefault("pool.workers", 4)
	v.SetDefault("pool.queue_size", 64)
	v.SetDefault("pool.overflow", workerpool.Reject.String())

	v.SetDefault("mal.base_url", "https://myanimelist.net/api")
	v.SetDefault("mal.timeout", 10*time.Second)
	v.SetDefault("mal.rate_limit", 2.0)
	v.SetDefault("mal.max_attempts", 2)
	v.SetDefault("mal.synopsis_limit", 2048)
	v.SetDefault("mal.cache_ttl", time.Hour)
	v.SetDefault("mal.breaker_failures", 5)
	v.SetDefault("mal.breaker_timeout", 30*time.Second)

	v.SetDefault("redis.db", 0)
	v.SetDefault("storage.path", "datastore.json")

	d := logger.DefaultConfig()
	v.SetDefault("log.level", d.Level)
	v.SetDefault("log.file", d.File)
	v.SetDefault("log.console", d.Console)
	v.SetDefault("log.max_size_mb", d.MaxSizeMB)
	v.SetDefault("log.max_backups", d.MaxBackups)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
