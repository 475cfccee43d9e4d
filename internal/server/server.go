// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the console together: configuration, logging,
// the local cache store, the backend clients and the HTTP surface.
package server

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/Gayathri240502/persft-web-sub000/internal/backend"
	"github.com/Gayathri240502/persft-web-sub000/internal/cache"
	"github.com/Gayathri240502/persft-web-sub000/internal/config"
	"github.com/Gayathri240502/persft-web-sub000/internal/countdown"
	"github.com/Gayathri240502/persft-web-sub000/internal/database"
	"github.com/Gayathri240502/persft-web-sub000/internal/handlers"
	"github.com/Gayathri240502/persft-web-sub000/internal/i18n"
	"github.com/Gayathri240502/persft-web-sub000/internal/repository"
	"github.com/Gayathri240502/persft-web-sub000/internal/session"
)

// cachePurgeInterval is how often expired cache rows are removed.
const cachePurgeInterval = time.Hour

// Run starts the console with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting console",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Local cache store
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)
	cacheSvc := cache.New(repo, cfg.Cache.TTL)

	// Sessions
	sessions, err := setupSessions(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up sessions: %w", err)
	}

	// Backend clients
	backends := handlers.Backends{
		Auth:      backend.NewAuthClient(cfg.Backends.AuthURL, cfg.Backends.Timeout),
		Core:      backend.NewCoreClient(cfg.Backends.CoreURL, cfg.Backends.Timeout),
		Vendor:    backend.NewVendorClient(cfg.Backends.VendorURL, cfg.Backends.Timeout),
		Support:   backend.NewSupportClient(cfg.Backends.SupportURL, cfg.Backends.Timeout),
		Scheduler: backend.NewSchedulerClient(cfg.Backends.SchedulerURL, cfg.Backends.Timeout),
	}

	// Shared countdown ticker for the OTP deadline watchdogs
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cd := countdown.New(time.Second)
	go cd.Run(runCtx)
	go purgeCacheLoop(runCtx, cacheSvc)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)

	h := handlers.New(backends, sessions, cacheSvc, cd)
	setupRoutes(e, h)

	return startWithGracefulShutdown(e, cfg)
}

// setupSessions builds the cookie manager. Without a configured hash
// key a random one is generated; sessions then do not survive a
// restart.
func setupSessions(cfg *config.Config) (*session.Manager, error) {
	hashKey := cfg.Session.HashKey
	if hashKey == "" {
		hashKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		slog.Warn("no session hash key configured, sessions will not survive restarts")
	}

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	return session.NewManager(cfg.Session.CookieName, hashKey, cfg.Session.BlockKey, cfg.Session.MaxAge, secure)
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	// Credential recovery needs no session
	api.POST("/recovery", h.StartRecovery)
	api.GET("/recovery/:id", h.RecoveryState)
	api.POST("/recovery/:id/mode", h.RecoveryMode)
	api.POST("/recovery/:id/phone", h.RecoveryPhone)
	api.POST("/recovery/:id/resend", h.RecoveryResend)
	api.POST("/recovery/:id/code", h.RecoveryCode)
	api.POST("/recovery/:id/password", h.RecoveryPassword)

	authed := api.Group("", h.RequireSession())
	authed.POST("/verification", h.StartVerification)
	authed.GET("/verification", h.VerificationState)
	authed.POST("/verification/send", h.VerificationSend)
	authed.POST("/verification/code", h.VerificationCode)
	authed.POST("/verification/skip", h.VerificationSkip)

	authed.GET("/work-orders/:id", h.WorkOrderDetail)
	authed.PATCH("/work-orders/:id/groups/:groupID", h.GroupStatus)
	authed.PATCH("/work-orders/:id/groups/:groupID/tasks/:taskID", h.TaskStatus)
	authed.POST("/work-orders/:id/items/:itemID/merchant", h.AssignMerchant)

	authed.GET("/menu", h.Menu)
	authed.GET("/merchants", h.Merchants)
	authed.GET("/tickets", h.Tickets)
	authed.GET("/budget-categories", h.BudgetCategories)
}

// purgeCacheLoop removes expired cache rows until the context ends.
func purgeCacheLoop(ctx context.Context, cacheSvc *cache.Service) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := cacheSvc.PurgeExpired(ctx)
			if err != nil {
				slog.Error("cache purge failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Debug("purged expired cache entries", "count", removed)
			}
		}
	}
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	// Setup TLS
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	// Channel for server errors
	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		// Plain HTTP on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		// HTTPS on :443
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		// HTTP redirect server on :80
		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP to HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeSelfSigned, TLSModeManual:
		// HTTPS on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown main server
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	// Shutdown HTTP redirect server if running
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
