// Package main implements the camera-core service entry point.
//
// This service manages native USB/vendor-SDK cameras and exposes them to a
// local desktop shell over a single JSON-RPC 2.0 WebSocket connection. It
// has no network-facing media pipeline: preview frames are pulled on
// demand, not streamed or recorded to an external media server.
//
// Architecture follows the layered approach:
//   - Foundation: Configuration and logging
//   - Core Services: camera backends (native V4L2/DirectShow, vendor SDK,
//     simulated) composed behind a single camera.Backend
//   - Supporting Services: persisted per-camera control settings, capture
//     sessions, system health reporting
//   - API: JSON-RPC 2.0 over WebSocket server (internal/ipc)
//
// The startup sequence:
//  1. Load and validate configuration
//  2. Initialize structured logging
//  3. Compose the camera backend (native + optional vendor SDK + optional
//     simulated)
//  4. Construct the settings store, capture session manager, bounded
//     worker pool, and IPC server
//  5. Wire the hotplug bridge so device connect/disconnect drives preview
//     lifecycle and settings restoration
//  6. Start the hotplug bridge, then the IPC server
//
// Graceful shutdown stops the IPC server, the capture sessions and the
// settings store concurrently, then stops the config manager.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/webbertakken/camera-core/internal/camera"
	"github.com/webbertakken/camera-core/internal/camera/vendor/canon"
	"github.com/webbertakken/camera-core/internal/capture"
	"github.com/webbertakken/camera-core/internal/config"
	"github.com/webbertakken/camera-core/internal/health"
	"github.com/webbertakken/camera-core/internal/ipc"
	"github.com/webbertakken/camera-core/internal/logging"
	"github.com/webbertakken/camera-core/internal/security"
	"github.com/webbertakken/camera-core/internal/settings"
)

func main() {
	// Layer 1: Foundation - Load and validate configuration
	configManager := config.CreateConfigManager()
	if err := configManager.LoadConfig("config/default.yaml"); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := configManager.GetConfig()

	_ = logging.SetupLogging(&logging.LoggingConfig{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		MaxFileSize:    int(cfg.Logging.MaxFileSize),
		BackupCount:    cfg.Logging.BackupCount,
		ConsoleEnabled: cfg.Logging.ConsoleEnabled,
	})
	configManager.RegisterLoggingConfigurationUpdates()

	logger := logging.NewLogger("camera-core")
	logger.Info("Starting camera-core service")

	// Layer 2: Core Services - compose the camera backend
	backends := []camera.Backend{camera.NewNativeBackend()}
	if cfg.Camera.VendorEnabled {
		backends = append(backends, canon.NewBackend(
			canon.NewMockSession(),
			canon.WithPollInterval(cfg.Camera.VendorPollInterval),
		))
		logger.Warn("vendor SDK backend enabled against the mock session; real EDSDK binding is out of scope")
	}
	if cfg.Camera.SimulatedEnabled {
		backends = append(backends, camera.NewSimulatedBackend())
	}
	backend := camera.NewCompositeBackend(backends...)

	// Layer 3: Supporting services
	store, err := settings.NewStore(cfg.Storage.SettingsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open settings store")
	}

	pool := camera.NewBoundedWorkerPool(cfg.Server.WorkerCount, cfg.Server.WorkerQueueTimeout, logger)
	healthReporter := health.NewReporter()

	var validator *security.TokenValidator
	if cfg.Security.RequireAuth {
		validator, err = security.NewTokenValidator(cfg.Security.JWTSecretKey)
		if err != nil {
			logger.WithError(err).Fatal("Failed to construct token validator")
		}
	}

	// ipcServer is constructed before sessions/bridge because both need it
	// as their event sink; sessions is filled in once ipcServer exists.
	var ipcServer *ipc.Server
	sessions := ipc.NewSessions(capture.NewDefaultBuilder(), func(deviceID camera.DeviceId, message string) {
		ipcServer.OnPreviewError(deviceID, message)
	})

	applier := func(ctx context.Context, id camera.DeviceId) (int, string, error) {
		applied, err := settings.ApplySavedSettings(ctx, backend, store, id)
		if err != nil {
			return 0, "", err
		}
		name := id.String()
		if devices, derr := backend.EnumerateDevices(ctx); derr == nil {
			for _, d := range devices {
				if d.ID == id {
					name = d.Name
					break
				}
			}
		}
		return len(applied), name, nil
	}

	ipcServer = ipc.NewServer(&cfg.Server, validator, backend, store, sessions, pool, healthReporter)

	bridge := camera.NewHotplugBridge(backend, applier, sessions, ipcServer.OnAppEvent, cfg.Camera.AutoStartPreviewOnConnect)

	// Layer 4: Start services
	bridge.Start()
	logger.Info("Hotplug bridge started")

	if err := ipcServer.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start IPC server")
	}
	logger.Info("IPC server started")

	logger.Info("camera-core started successfully - all components operational")

	// Graceful shutdown - wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errorChan := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Stopping IPC server...")
		if err := ipcServer.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error stopping IPC server")
			errorChan <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Stopping capture sessions...")
		sessions.StopAll()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Closing settings store...")
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Error closing settings store")
			errorChan <- err
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All services stopped cleanly")
	case <-shutdownCtx.Done():
		logger.Error("Shutdown timeout - forcing exit")
		os.Exit(1)
	}

	close(errorChan)
	errCount := 0
	for range errorChan {
		errCount++
	}
	if errCount > 0 {
		logger.WithField("error_count", "nonzero").Error("Some services failed to stop cleanly")
	}

	if err := configManager.Stop(context.Background()); err != nil {
		logger.WithError(err).Warn("Error stopping config manager")
	}

	logger.Info("camera-core stopped")
}
