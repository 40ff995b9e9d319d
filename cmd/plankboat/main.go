// Command plankboat runs the chat bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/keshon/plankboat/datastore"
	"github.com/keshon/plankboat/internal/command"
	"github.com/keshon/plankboat/internal/command/help"
	"github.com/keshon/plankboat/internal/command/history"
	"github.com/keshon/plankboat/internal/command/lookup"
	"github.com/keshon/plankboat/internal/command/roll"
	"github.com/keshon/plankboat/internal/command/roulette"
	"github.com/keshon/plankboat/internal/config"
	"github.com/keshon/plankboat/internal/discord"
	"github.com/keshon/plankboat/internal/dispatch"
	"github.com/keshon/plankboat/internal/logger"
	"github.com/keshon/plankboat/internal/mal"
	"github.com/keshon/plankboat/internal/metrics"
	"github.com/keshon/plankboat/internal/storage"
	"github.com/keshon/plankboat/pkg/cmd"
	"github.com/keshon/plankboat/pkg/jobmgr"
	"github.com/keshon/plankboat/pkg/workerpool"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, config.ErrHelp) {
			fmt.Fprint(os.Stdout, config.Usage())
			return
		}
		fmt.Fprintln(os.Stderr, "plankboat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(config.Options{Args: args, EnvFile: ".env"})
	if err != nil {
		return err
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log.Info().Str("version", version).Msg("starting plankboat")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	dsCfg := datastore.DefaultConfig(cfg.Storage.Path)
	dsCfg.Logger = log.With().Str("component", "datastore").Logger()
	store, err := storage.New(dsCfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()
	log.Info().Str("path", cfg.Storage.Path).Int("scopes", store.Scopes()).Msg("command history loaded")

	cache, closeCache := lookupCache(ctx, cfg.Redis, cfg.MAL, log)
	defer closeCache()

	malClient := mal.NewClient(mal.Config{
		Username:        cfg.MAL.Username,
		Password:        cfg.MAL.Password,
		BaseURL:         cfg.MAL.BaseURL,
		Timeout:         cfg.MAL.Timeout,
		RateLimit:       cfg.MAL.RateLimit,
		MaxAttempts:     cfg.MAL.MaxAttempts,
		SynopsisLimit:   cfg.MAL.SynopsisLimit,
		BreakerFailures: cfg.MAL.BreakerFailures,
		BreakerTimeout:  cfg.MAL.BreakerTimeout,
	},
		mal.WithCache(cache),
		mal.WithMetrics(m),
		mal.WithLogger(log.With().Str("component", "mal").Logger()),
	)

	overflow, err := workerpool.ParseOverflow(cfg.Pool.Overflow)
	if err != nil {
		return err
	}
	pool := workerpool.New(ctx, workerpool.Config{
		Workers:   cfg.Pool.Workers,
		QueueSize: cfg.Pool.QueueSize,
		Overflow:  overflow,
		OnDrop:    m.TaskDropped,
		OnPanic: func(r any) {
			log.Error().Msgf("worker recovered from panic: %v", r)
		},
	})
	defer pool.Close()

	registry := cmd.NewRegistry()
	mws := []cmd.Middleware{
		command.WithMetrics(m),
		command.WithCommandLog(store),
	}
	if cfg.Bot.ReplyArgumentErrors {
		mws = append(mws, command.WithArgumentReply())
	}
	mws = append(mws, command.WithRecovery())

	for _, c := range []cmd.Command{
		roll.New(roll.WithMaxListed(cfg.Bot.MaxListedDice)),
		roulette.New(nil),
		lookup.NewAnime(malClient),
		lookup.NewManga(malClient),
		history.New(cfg.Bot.Prefix, store),
		help.New(cfg.Bot.Prefix, registry),
	} {
		if registry.Register(c.Name(), cmd.Apply(c, mws...)) {
			log.Warn().Str("command", c.Name()).Msg("command registered twice, the last registration wins")
		}
	}
	log.Info().Strs("commands", registry.Names()).Msg("commands registered")

	disp := dispatch.New(dispatch.Options{
		Prefix:   cfg.Bot.Prefix,
		Registry: registry,
		Pool:     pool,
		Logger:   log,
		Metrics:  m,
	})
	bot := discord.New(discord.Config{Token: cfg.Discord.Token, Shards: cfg.Discord.Shards}, disp, log)

	jobs := jobmgr.NewManager(ctx, jobmgr.LogReporter(log.With().Str("component", "jobs").Logger()))
	// Any job failing takes the whole process down.
	critical := func(run func(context.Context) error) func(context.Context) error {
		return func(ctx context.Context) error {
			err := run(ctx)
			if err != nil {
				stop()
			}
			return err
		}
	}

	if err := jobs.StartAsync("discord", critical(bot.Run)); err != nil {
		return err
	}
	if cfg.Status.Address != "" {
		gin.SetMode(gin.ReleaseMode)
		router := metrics.Router(reg, func() map[string]any {
			return map[string]any{
				"version":     version,
				"commands":    registry.Len(),
				"queue_depth": pool.Pending(),
				"workers":     pool.Workers(),
				"shards":      bot.ShardCount(),
				"jobs":        jobs.List(),
				"mal_breaker": malClient.BreakerState(),
				"storage":     store.Stats(),
				"history":     store.Scopes(),
			}
		})
		if err := jobs.StartAsync("status", critical(func(ctx context.Context) error {
			return metrics.Serve(ctx, cfg.Status.Address, router, log.With().Str("component", "status").Logger())
		})); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	jobs.StopAll()
	if err := jobs.Wait(); err != nil {
		return err
	}
	log.Info().Msg("plankboat exited cleanly")
	return nil
}

// lookupCache connects the Redis cache when configured. A Redis server that
// does not answer at startup disables caching rather than the bot.
func lookupCache(ctx context.Context, rc config.RedisConfig, mc config.MALConfig, log zerolog.Logger) (mal.Cache, func()) {
	if rc.Address == "" {
		return mal.NopCache{}, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Address,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("address", rc.Address).Msg("redis unavailable, lookup cache disabled")
		rdb.Close()
		return mal.NopCache{}, func() {}
	}
	log.Info().Str("address", rc.Address).Dur("ttl", mc.CacheTTL).Msg("lookup cache enabled")
	return mal.NewRedisCache(rdb, mc.CacheTTL), func() { rdb.Close() }
}
