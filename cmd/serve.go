package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/wordsmith/internal/api"
	"github.com/abhisek/wordsmith/internal/curriculum"
	"github.com/abhisek/wordsmith/internal/scheduler"
	"github.com/abhisek/wordsmith/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the assessment API.

On start the default curriculum is published if the database has none,
and a background job retries progression and mastery updates that did
not land when their attempt was assessed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	serveCmd.Flags().String("provider", "", "LLM provider: anthropic, openai, gemini, openrouter, mock")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.logger.Warn("flush traces", zap.Error(err))
		}
	}()

	if _, err := curriculum.EnsurePublished(ctx, a.store.LevelRepo(), a.logger); err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	svc, err := a.writingService(ctx, metrics)
	if err != nil {
		return err
	}

	gin.SetMode(a.cfg.Server.Mode)
	router := api.NewRouter(svc, api.Options{
		Metrics:           metrics,
		Logger:            a.logger,
		Health:            a.store.DB().PingContext,
		RequestsPerSecond: a.cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             a.cfg.Server.RateLimit.Burst,
	})
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *scheduler.Scheduler
	if a.cfg.Server.ReconcileInterval > 0 {
		sched = scheduler.New(svc, a.cfg.Server.ReconcileInterval, a.logger)
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", a.cfg.LLM.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		if sched != nil {
			sched.Stop()
		}
		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
