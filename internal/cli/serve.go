package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindmeet/mindmeet/internal/config"
	"github.com/mindmeet/mindmeet/internal/handler"
	"github.com/mindmeet/mindmeet/internal/notify"
	"github.com/mindmeet/mindmeet/internal/service"
)

// Rate limit for the unauthenticated auth endpoints, per client IP.
const (
	authRatePerSecond = 10.0 / 60
	authBurst         = 10
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Applies pending migrations and serves the auth and meetings API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().String("port", "8080", "HTTP listen port")
	v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg.SlogLevel())

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "driver", cfg.DatabaseDriver)

	var sender notify.Sender = notify.LogSender{}
	if cfg.SMTPAddr != "" {
		sender = &notify.SMTPSender{
			Addr:     cfg.SMTPAddr,
			From:     cfg.MailFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}
		slog.Info("smtp delivery enabled", "addr", cfg.SMTPAddr)
	}
	notifier := notify.New(sender, cfg.BaseURL)

	queue := service.NewTranscriptionQueue(store.Meetings(), cfg.TranscriptionQueueSize)
	authService := service.NewAuthService(store.Users(), store.Roles(), notifier, cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)
	meetingService := service.NewMeetingService(store.Meetings(), store.Users(), store.FileStore(), notifier, queue)
	limiter := service.NewTokenBucket(authRatePerSecond, authBurst)

	workers, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go queue.Run(workers)
	go limiter.RunCleanup(workers, time.Minute)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, meetingService, limiter, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
