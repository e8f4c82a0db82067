package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shotpay-gateway/api"
	"shotpay-gateway/config"
	"shotpay-gateway/handler"
	gatemw "shotpay-gateway/middleware"
	"shotpay-gateway/utils/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"api_base_url", cfg.APIBaseURL,
		"upstream_url", cfg.UpstreamURL,
		"port", cfg.Port)

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		slog.ErrorContext(ctx, "invalid upstream URL", "error", err)
		os.Exit(1)
	}

	// Backend client used by the readiness probe. The refresh token file
	// keeps a gateway-held session alive across restarts.
	tokens := api.NewTokenStore(api.NewFileRefreshTokenStorage(cfg.RefreshTokenDir), slog.Default())
	apiClient := api.NewClient(cfg.APIBaseURL, tokens, slog.Default())
	apiClient.SetTimeout(cfg.RequestTimeout)

	healthHandler := handler.NewHealthHandler(apiClient)
	rateLimiter := gatemw.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst,
		"/health/live", "/health/ready")

	gateConfig := gatemw.DefaultAuthGateConfig()
	gateConfig.AccessTokenCookie = cfg.AccessTokenCookie
	gateConfig.RefreshTokenCookie = cfg.RefreshTokenCookie

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(gatemw.SecurityHeaders())
	e.Use(rateLimiter.Middleware())

	e.GET("/health/live", healthHandler.Live)
	e.GET("/health/ready", healthHandler.Ready)

	// Everything else is gated, then proxied to the storefront.
	e.Use(gatemw.AuthGate(gateConfig))
	e.Use(middleware.ProxyWithConfig(middleware.ProxyConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/health/")
		},
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{URL: upstream},
		}),
	}))

	address := fmt.Sprintf(":%s", cfg.Port)

	go func() {
		slog.InfoContext(ctx, "starting shotpay-gateway server", "address", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.InfoContext(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "server exited properly")
}

// runHealthcheck performs a health check against the local server
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8889"
	}

	client := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health/live", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}

	return nil
}
