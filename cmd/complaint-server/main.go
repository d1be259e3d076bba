// cmd/complaint-server/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"complaint-router/internal/analysis"
	"complaint-router/internal/api"
	"complaint-router/internal/classifier"
	"complaint-router/internal/common/auth"
	"complaint-router/internal/common/aws"
	"complaint-router/internal/common/camunda"
	"complaint-router/internal/common/config"
	"complaint-router/internal/common/database"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/metrics"
	"complaint-router/internal/common/observability"
	"complaint-router/internal/dataset"
	"complaint-router/internal/pipeline"
	"complaint-router/internal/provider/openrouter"
	"complaint-router/internal/provider/watsonx"
	"complaint-router/internal/response"

	ac "complaint-router/internal/workers/complaint/analyze-complaint"
)

var errPermanent = stderrors.New("permanent failure")

// retryWithBackoff attempts to execute a function with exponential backoff.
// An error wrapping errPermanent stops the loop.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if stderrors.Is(err, errPermanent) {
			break
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after retries: %w", operationName, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting complaint server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()
	ds := dataset.MustLoad()

	// --- Token cache, optionally shared through Redis ---
	cacheOpts := []auth.Option{
		auth.WithLogger(log),
		auth.WithFillHook(func(origin string) { metrics.TokenFillsTotal.WithLabelValues(origin).Inc() }),
	}
	if cfg.Database.Redis.Address != "" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			if redis != nil {
				_ = redis.Close()
			}
			zapLog.Warn("redis unavailable, tokens stay in process memory", zap.Error(err))
		} else {
			defer redis.Close()
			cacheOpts = append(cacheOpts, auth.WithStore(database.NewRedisTokenStore(redis, cfg.Database.Redis.TokenKey)))
			zapLog.Info("Redis connected successfully")
		}
	}

	wx := cfg.Providers.Watsonx
	tokens := auth.NewTokenCache(
		auth.NewIAMClient(wx.IAMURL, wx.APIKey, config.GetDuration(wx.IAMTimeout)),
		cacheOpts...,
	)

	// --- Providers ---
	watsonxClient := watsonx.New(watsonx.Config{
		APIKey:        wx.APIKey,
		StreamURL:     wx.StreamURL,
		HeaderTimeout: config.GetDuration(wx.Timeout),
	}, tokens, log)

	or := cfg.Providers.OpenRouter
	openrouterClient := openrouter.New(openrouter.Config{
		APIKey:       or.APIKey,
		URL:          or.BaseURL,
		DefaultModel: or.Model,
		Referer:      cfg.Server.FrontendURL,
		Title:        or.Title,
		MaxTokens:    or.MaxTokens,
		Temperature:  &or.Temperature,
		Timeout:      config.GetDuration(or.Timeout),
	}, log)

	zapLog.Info("Providers initialized",
		zap.Bool("watsonx", watsonxClient.Configured()),
		zap.Bool("openrouter", openrouterClient.Configured()),
	)

	// --- Pipeline ---
	analyzer := analysis.New(openrouterClient, ds, log)
	responder := response.New(ds, log,
		response.StreamStrategy{Generator: watsonxClient, MaxTokens: wx.MaxTokens, Temperature: &wx.Temperature},
		response.ChatStrategy{Generator: openrouterClient},
	)

	pipelineOpts := []pipeline.Option{pipeline.WithObservability(obs)}
	if sns := cfg.Integrations.AWS.SNS; sns.Enabled && sns.TopicARN != "" {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("sns client unavailable, critical alerts disabled", zap.Error(err))
		} else {
			pipelineOpts = append(pipelineOpts, pipeline.WithNotifier(aws.NewAlertNotifier(snsClient, sns.TopicARN, log)))
			zapLog.Info("Critical complaint alerts enabled", zap.String("topic", sns.TopicARN))
		}
	}
	proc := pipeline.New(analyzer, responder, log, pipelineOpts...)

	// --- Workflow worker ---
	var zeebe *camunda.Client
	var jobHandler *ac.Handler
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			if err != nil && !camunda.IsRetryableConnectError(err) {
				return fmt.Errorf("%w: %v", errPermanent, err)
			}
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		jobHandler, err = ac.NewHandler(ac.HandlerOptions{
			AppConfig:     cfg,
			Camunda:       zeebe,
			Processor:     proc,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create analyze-complaint handler", zap.Error(err))
		}
		if err := jobHandler.Register(); err != nil {
			zapLog.Fatal("failed to register analyze-complaint worker", zap.Error(err))
		}
	}

	// --- HTTP server ---
	srv := api.NewServer(api.Config{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Providers: api.ProviderStatus{
			Watsonx:    watsonxClient.Configured(),
			OpenRouter: openrouterClient.Configured(),
		},
	}, proc, classifier.New(ds), ds, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if jobHandler != nil {
		jobHandler.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Complaint server stopped gracefully")
}
