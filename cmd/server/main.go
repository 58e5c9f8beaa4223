// Package main is the entry point for the nas-power-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesprial/nas-power-mcp/internal/auth"
	"github.com/jamesprial/nas-power-mcp/internal/config"
	"github.com/jamesprial/nas-power-mcp/internal/disk"
	"github.com/jamesprial/nas-power-mcp/internal/extpower"
	"github.com/jamesprial/nas-power-mcp/internal/power"
	"github.com/jamesprial/nas-power-mcp/internal/safety"
	"github.com/jamesprial/nas-power-mcp/internal/system"
	"github.com/jamesprial/nas-power-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v — running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set NAS_POWER_MCP_AUTH_TOKEN to persist): %s", token)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v — audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	// Build the classification pipeline: enumerator, probe cascade, cache.
	deviceFilter := safety.NewFilter(cfg.Devices.Allowlist, cfg.Devices.Denylist)
	enumerator := disk.NewFileSystemEnumerator(cfg.Paths.Sys, cfg.Paths.Dev, deviceFilter)
	classifier := disk.NewCascadeClassifier(
		enumerator,
		disk.DefaultProbes(cfg.Paths.Sys, cfg.Paths.Dev, disk.ExecRunner{}),
	)

	// Host health collaborators.
	systemMon := system.NewFileSystemMonitor(cfg.Paths.Proc, cfg.Paths.Sys)

	// Power model: bundled catalog plus call-time config overrides.
	catalog, err := power.LoadCatalog()
	if err != nil {
		log.Fatalf("failed to load tdp catalog: %v", err)
	}

	overrides := power.FuncSource(func() power.Overrides {
		return power.Overrides{
			CPUTDP:      cfg.Power.CPUTDPWatts,
			HDDActive:   cfg.Power.HDDActiveWatts,
			HDDIdle:     cfg.Power.HDDIdleWatts,
			SSD:         cfg.Power.SSDWatts,
			NVMe:        cfg.Power.NVMeWatts,
			MemoryStick: cfg.Power.MemoryStickWatts,
		}
	})

	estimator := power.NewEstimator(catalog, classifier, systemMon, systemMon, overrides)

	// External power source: optional; absent config disables it.
	var extProvider power.ExternalProvider
	if rawProvider, extErr := extpower.NewHTTPProvider(cfg.External); extErr != nil {
		log.Printf("external power source not configured (%v) — using internal estimation", extErr)
	} else {
		log.Printf("external power source configured: entity %s", cfg.External.Entity)
		extProvider = rawProvider
	}

	// Build MCP server.
	mcpServer := server.NewMCPServer(
		"nas-power-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Register all tools.
	var registrations []tools.Registration
	registrations = append(registrations, disk.DiskTools(classifier, auditLogger)...)
	registrations = append(registrations, power.PowerTools(estimator, extProvider, auditLogger)...)
	registrations = append(registrations, system.SystemTools(systemMon, estimator, auditLogger)...)

	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)
	wrappedHandler := authMiddleware(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("nas-power-mcp listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig attempts to read the config file from the path specified by
// NAS_POWER_MCP_CONFIG_PATH or the default /config/config.yaml. If the file
// cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("NAS_POWER_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
