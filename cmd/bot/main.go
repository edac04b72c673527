package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soulsguard/guard-bot-go/internal/clock"
	"github.com/soulsguard/guard-bot-go/internal/config"
	"github.com/soulsguard/guard-bot-go/internal/database"
	"github.com/soulsguard/guard-bot-go/internal/handler"
	"github.com/soulsguard/guard-bot-go/internal/jobs"
	"github.com/soulsguard/guard-bot-go/internal/notify"
	"github.com/soulsguard/guard-bot-go/internal/redis"
	"github.com/soulsguard/guard-bot-go/internal/repository"
	"github.com/soulsguard/guard-bot-go/internal/service"
	"github.com/soulsguard/guard-bot-go/internal/tracker"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), config.DBMigrateTimeout)
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	migrateCancel()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to authenticate bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	aggRepo := repository.NewAggregateRepository(db.DB)
	roleRepo := repository.NewRoleRepository(db.DB)
	banRepo := repository.NewBanRepository(db.DB)

	notifier := notify.NewTelegramNotifier(bot, cfg.GuardChatID)
	trk := tracker.New(sessionRepo, aggRepo, notifier, clk)

	roleService := service.NewRoleService(roleRepo, trk, cfg.OwnerID)
	banService := service.NewBanService(banRepo, bot, cfg.MainChatID)
	contactService := service.NewContactService(redisClient)
	pokeService := service.NewPokeService(userRepo, redisClient, clk, bot, cfg.MainChatID)
	statsService := service.NewStatsService(aggRepo, roleRepo, clk, bot, cfg.GuardChatID)

	dispatcher := handler.NewDispatcher(
		bot, trk, roleService, banService, contactService, pokeService, statsService,
		userRepo, cfg.MainChatID, cfg.GuardChatID, cfg.OwnerID,
	)
	webhook := handler.NewWebhook(dispatcher, cfg.WebhookSecret)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Mount("/telegram/webhook", webhook.Routes())

	sweepJob := jobs.NewSweepJob(trk, cfg.SweepInterval(), cfg.IdleTimeout())
	sweepJob.Start()
	defer sweepJob.Stop()

	nightlyJob := jobs.NewNightlyJob(statsService, clk)
	nightlyJob.Start()
	defer nightlyJob.Stop()

	pokeJob := jobs.NewPokeJob(pokeService, cfg.PokeInterval())
	pokeJob.Start()
	defer pokeJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
