package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/adjustment"
	"teacher_timetable/internal/domain/message"
	"teacher_timetable/internal/domain/timetable"
	"teacher_timetable/internal/domain/user"
	"teacher_timetable/internal/infra/auth"
	"teacher_timetable/internal/infra/config"
	idb "teacher_timetable/internal/infra/database"
	"teacher_timetable/internal/infra/httpapi"
	"teacher_timetable/internal/infra/logger"
	"teacher_timetable/internal/infra/memory"
	"teacher_timetable/internal/infra/scheduler"
	"teacher_timetable/internal/infra/telegram"
)

type repositories struct {
	users       user.Repository
	grids       timetable.Repository
	adjustments adjustment.Repository
	messages    message.Repository
	db          *sql.DB
}

func openRepositories(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (*repositories, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage. Data is lost on restart.")
		return &repositories{
			users:       memory.NewUserRepository(),
			grids:       memory.NewTimetableRepository(),
			adjustments: memory.NewAdjustmentRepository(),
			messages:    memory.NewMessageRepository(),
		}, nil
	}

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("Database connection established successfully.")
	if err := idb.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Database schema is up to date.")
	return &repositories{
		users:       idb.NewPostgresUserRepository(db),
		grids:       idb.NewPostgresTimetableRepository(db),
		adjustments: idb.NewPostgresAdjustmentRepository(db),
		messages:    idb.NewPostgresMessageRepository(db),
		db:          db,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"storage_driver": cfg.StorageDriver,
		"bot_enabled":    cfg.BotEnabled(),
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancelStartup := context.WithTimeout(ctx, 30*time.Second)
	repos, err := openRepositories(startupCtx, cfg, mainLogger)
	cancelStartup()
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not initialize storage")
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	policy := access.NewPolicy()

	// Telegram bot is optional; without it notifications only go to the log.
	var (
		bot      *telebot.Bot
		notifier app.NotificationService
	)
	if cfg.BotEnabled() {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		notifier = app.NewTelegramNotificationService(
			repos.users,
			repos.adjustments,
			telegram.NewTelebotAdapter(bot),
			logger.Component("notification_service"),
			cfg.AdminTelegramID,
		)
	} else {
		notifier = app.NewLogNotificationService(repos.adjustments, logger.Component("notification_service"))
	}

	timetableService := app.NewTimetableService(repos.grids, policy, logger.Component("timetable_service"))
	adjustmentService := app.NewAdjustmentService(repos.grids, repos.adjustments, policy, notifier, logger.Component("adjustment_service"))
	messagingService := app.NewMessagingService(repos.messages, repos.users, policy, logger.Component("messaging_service"))
	accountService := app.NewAccountService(repos.users, repos.grids, timetableService, policy, logger.Component("account_service"))
	mainLogger.Info("Application services initialized.")

	digestScheduler := scheduler.NewDigestScheduler(notifier, logger.Component("scheduler"), cfg.CronSpecPendingDigest)
	if err := digestScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start digest scheduler")
	}

	if bot != nil {
		adminBot := telegram.NewAdminBot(adjustmentService, accountService, cfg.AdminTelegramID, cfg.AdminEmail, logger.Component("telegram"))
		adminBot.RegisterAdminHandlers(ctx, bot)
		adminBot.RegisterDecisionCallbacks(ctx, bot)
		telegram.RegisterBotCommands(ctx, bot, cfg.AdminTelegramID, repos.users, logger.Component("telegram"))
		mainLogger.Info("Telegram handlers registered.")
		go bot.Start()
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	server := httpapi.NewServer(accountService, timetableService, adjustmentService, messagingService, tokens, logger.Component("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	digestScheduler.Stop()
	if bot != nil {
		bot.Stop()
	}
	mainLogger.Info("Application shut down gracefully.")
}
