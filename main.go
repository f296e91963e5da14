package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/spanishbot/internal/api"
	"github.com/example/spanishbot/internal/bot"
	"github.com/example/spanishbot/internal/config"
	"github.com/example/spanishbot/internal/database"
	"github.com/example/spanishbot/internal/learning"
	"github.com/example/spanishbot/internal/logger"
	"github.com/example/spanishbot/internal/scheduler"
	"github.com/example/spanishbot/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("application error", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(cfg.APIURL, cfg.HTTPTimeout, api.WithLogger(log))
	log.Info("using vocabulary backend", "url", cfg.APIURL)

	webSessions := learning.NewSessions(client, log)
	webServer, err := web.New(webSessions, log, web.Options{
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	janitor := scheduler.NewJanitor(webSessions, 10*time.Minute, cfg.SessionIdleTimeout, log)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("failed to start session janitor: %w", err)
	}
	defer janitor.Stop()
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("web server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("web server: %w", err)
		}
	}()

	var sched *scheduler.Scheduler
	botDone := make(chan struct{})
	if cfg.TelegramToken != "" {
		db, err := database.Connect(database.Options{URL: cfg.DatabaseURL, Path: cfg.DBPath})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		chats := database.NewChatRepository(db)
		botConfig := bot.DefaultConfig()
		botConfig.ReminderStartHour = cfg.ReminderStartHour
		botConfig.ReminderEndHour = cfg.ReminderEndHour
		b, err := bot.New(cfg.TelegramToken, bot.Deps{
			Sessions: learning.NewSessions(client, log),
			Users:    client,
			Chats:    chats,
			Answers:  database.NewAnswerRepository(db),
		}, botConfig, log)
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}

		if cfg.SchedulerEnabled {
			sched = scheduler.New(chats, b, scheduler.Options{
				StartHour: cfg.ReminderStartHour,
				EndHour:   cfg.ReminderEndHour,
			}, log)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
		}

		go func() {
			defer close(botDone)
			if err := b.Start(ctx); err != nil {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	} else {
		close(botDone)
		log.Info("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		stop()
	}

	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during web server shutdown", "error", err)
	}
	<-botDone
	return runErr
}
