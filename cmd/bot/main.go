package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/antagonist-oracle/oracle-bot/internal/bot"
	"github.com/antagonist-oracle/oracle-bot/internal/database"
	"github.com/antagonist-oracle/oracle-bot/internal/deck"
	apperrors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/health"
	"github.com/antagonist-oracle/oracle-bot/internal/i18n"
	"github.com/antagonist-oracle/oracle-bot/internal/idempotency"
	"github.com/antagonist-oracle/oracle-bot/internal/jobs"
	jobhandlers "github.com/antagonist-oracle/oracle-bot/internal/jobs/handlers"
	"github.com/antagonist-oracle/oracle-bot/internal/lifecycle"
	"github.com/antagonist-oracle/oracle-bot/internal/middleware"
	"github.com/antagonist-oracle/oracle-bot/internal/profile"
	"github.com/antagonist-oracle/oracle-bot/internal/ratelimit"
	"github.com/antagonist-oracle/oracle-bot/internal/repository"
	"github.com/antagonist-oracle/oracle-bot/internal/state"
	"github.com/antagonist-oracle/oracle-bot/pkg/config"
	"github.com/antagonist-oracle/oracle-bot/pkg/graceful"
	"github.com/antagonist-oracle/oracle-bot/pkg/logger"
	"github.com/antagonist-oracle/oracle-bot/pkg/metrics"
	redispkg "github.com/antagonist-oracle/oracle-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:         cfg.Logger.Level,
		Format:        cfg.Logger.Format,
		FilePath:      cfg.Logger.File.Path,
		FileMaxSizeMB: cfg.Logger.File.MaxSizeMB,
		FileMaxAge:    cfg.Logger.File.MaxAgeDays,
		FileBackups:   cfg.Logger.File.MaxBackups,
		FileCompress:  cfg.Logger.File.Compress,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Error("sentry init failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting oracle bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("deck", cfg.Deck.Path),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	shutdown := lifecycle.NewShutdown(log)

	// A missing or empty strategies file is a startup failure, not a
	// runtime one.
	cardDeck, err := deck.Load(cfg.Deck.Path, cfg.Deck.MaxLines)
	if err != nil {
		return apperrors.NewDeckError(err)
	}
	metrics.SetDeckSize(cardDeck.Size())
	log.Info("deck loaded", slog.Int("cards", cardDeck.Size()))

	if cfg.Deck.WatchReload {
		watcher := deck.NewWatcher(cardDeck, log, metrics.SetDeckSize)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error("deck watcher stopped", slog.Any("error", err))
			}
		}()
	}

	redisClient, err := redispkg.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })

	repo, db, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	shutdown.Register("repository", func(context.Context) error { return repo.Close() })

	profiles := profile.NewService(repo, log)

	stateStorage := state.NewRedisStorage(redisClient.Client, log)
	fsm := state.NewStateMachine(stateStorage, log, redisClient.Client)

	stateCleaner := state.NewCleaner(redisClient.Client, stateStorage, log, time.Hour, 10*time.Minute)
	go stateCleaner.Run(ctx)

	idemStore := idempotency.NewRedisStore(redisClient.Client, log)
	idemManager := idempotency.NewManager(idemStore, log)
	idemCleaner := idempotency.NewCleaner(redisClient.Client, log, time.Hour)
	go idemCleaner.Run(ctx)

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		var limiter ratelimit.Limiter
		if cfg.RateLimit.Backend == "memory" {
			limiter = ratelimit.NewMemoryLimiter(log)
		} else {
			limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)

			rlCleaner := ratelimit.NewCleaner(redisClient.Client, log, 10*time.Minute)
			go rlCleaner.Run(ctx)
		}

		rules := ratelimit.NewRules(cfg.RateLimit)
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, rules, log)
	}

	i18nManager, err := i18n.Load("en")
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	translator := i18nManager.Translator("en")

	oracleBot, err := bot.New(*cfg, log, fsm, idemManager, rateLimitMw, profiles, cardDeck, translator)
	if err != nil {
		return fmt.Errorf("build bot: %w", err)
	}
	shutdown.Register("telegram", func(context.Context) error {
		oracleBot.Stop()
		return nil
	})

	var jobsManager jobs.Manager
	if cfg.Jobs.Enabled {
		jobsManager = startJobs(cfg, log, cardDeck, profiles, oracleBot, idemManager, shutdown)
	}

	stateCollector := metrics.NewStateCollector(fsm)
	go stateCollector.Run(ctx)

	go runOpsServer(ctx, cfg, log, cardDeck, redisClient, db, oracleBot, jobsManager)

	go oracleBot.Start()
	log.Info("oracle bot is up")

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return shutdown.Execute(shutdownCtx)
}

// openRepository selects the profile store backend. The embedded bolt store
// is the default; postgres is for deployments that already run a database.
func openRepository(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.ProfileRepository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Database.Postgres.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}

		if err := db.PingContext(ctx); err != nil {
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}

		migrator := database.NewMigrator(db, log)
		migrationsDir := cfg.Database.MigrationsDir
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		if err := migrator.ApplyDir(ctx, migrationsDir); err != nil {
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}

		return repository.NewPostgresStore(db, log), db, nil
	default:
		store, err := repository.NewBoltStore(cfg.Database.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return store, nil, nil
	}
}

func startJobs(
	cfg *config.Config,
	log *slog.Logger,
	cardDeck *deck.Deck,
	profiles *profile.Service,
	broadcaster jobhandlers.Broadcaster,
	idemManager idempotency.Manager,
	shutdown *lifecycle.Shutdown,
) jobs.Manager {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	queues := map[string]int{
		jobs.QueueCritical: 6,
		jobs.QueueDefault:  3,
		jobs.QueueLow:      1,
	}

	worker := jobs.NewWorker(redisOpt, queues, cfg.Jobs.Concurrency, log)
	worker.RegisterHandler(jobs.TaskTypeDailyCard, jobhandlers.NewDailyCardHandler(cardDeck, profiles, broadcaster, idemManager, log))
	worker.RegisterHandler(jobs.TaskTypeDeckReload, jobhandlers.NewDeckReloadHandler(cardDeck, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker failed", slog.Any("error", err))
		}
	}()
	shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	scheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.DailyCardCron, log)
	if err := scheduler.RegisterTasks(); err != nil {
		log.Error("scheduler registration failed", slog.Any("error", err))
	} else {
		scheduler.Run()
		shutdown.Register("jobs-scheduler", func(context.Context) error {
			scheduler.Shutdown()
			return nil
		})
	}

	manager := jobs.NewManager(redisOpt, log)
	shutdown.Register("jobs-client", func(context.Context) error { return manager.Close() })
	return manager
}

func runOpsServer(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	cardDeck *deck.Deck,
	redisClient *redispkg.Client,
	db *sql.DB,
	oracleBot *bot.Bot,
	jobsManager jobs.Manager,
) {
	checker := health.NewChecker(log)
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(oracleBot.Telebot()))
	checker.AddCheck("deck", health.NewDeckChecker(cardDeck))
	if db != nil {
		checker.AddCheck("database", health.NewDBChecker(db))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	})

	if jobsManager != nil {
		mux.HandleFunc("/admin/reload-deck", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}

			task, err := jobs.NewDeckReloadTask("manual")
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if _, err := jobsManager.Enqueue(r.Context(), task); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			w.WriteHeader(http.StatusAccepted)
		})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := graceful.NewServer(log, srv, cfg.Server.ShutdownTimeout).ListenAndServe(ctx); err != nil {
		log.Error("ops server failed", slog.Any("error", err))
	}
}
