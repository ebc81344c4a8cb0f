// lovelockd serves the read-only lock API over HTTP. It holds no key:
// browsing endpoints only, backed by the configured fullnode.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lovebridge/lovelock/internal/api"
	"github.com/lovebridge/lovelock/internal/config"
	"github.com/lovebridge/lovelock/internal/health"
	"github.com/lovebridge/lovelock/pkg/client"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("lovelockd exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("lovelockd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("lovelock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.network", "testnet")
	viper.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("api.rate_limit_rps", 20)
	viper.SetDefault("api.node_rate_limit_rps", 10)
	viper.SetDefault("api.health_check_interval", "1m")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Network + SDK client ─────────────────────────────────────────────────
	networkName := viper.GetString("api.network")
	net, err := config.FromViper(viper.GetViper(), networkName)
	if err != nil {
		return fmt.Errorf("resolve network %q: %w", networkName, err)
	}

	opts := []client.Option{client.WithLogger(logger)}
	if rps := viper.GetFloat64("api.node_rate_limit_rps"); rps > 0 {
		opts = append(opts, client.WithRateLimit(rps, int(rps*2)))
	}
	sdk, err := client.New(net, opts...)
	if err != nil {
		return fmt.Errorf("build lock client: %w", err)
	}
	logger.Info("lock client ready",
		zap.String("network", net.Name),
		zap.String("endpoint", net.Endpoint),
	)

	// ── Node health prober ───────────────────────────────────────────────────
	checker := health.New(sdk.Ping, health.Config{
		CheckInterval: viper.GetDuration("api.health_check_interval"),
	}, logger)
	checker.SetMetricsRecord(api.RecordNodeProbe)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go checker.Start(quit)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(sdk, api.RouterConfig{
		CORSOrigins:  viper.GetStringSlice("api.cors_origins"),
		RateLimitRPS: viper.GetFloat64("api.rate_limit_rps"),
		Health:       checker,
	}, logger)

	port := viper.GetInt("api.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("lovelockd HTTP listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped cleanly")
	return nil
}
