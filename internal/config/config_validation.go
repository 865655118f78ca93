package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks the final, fully-merged configuration for values
// that would otherwise fail confusingly deep inside the components that
// consume them.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Server.Host) == "" {
		errs = append(errs, "server.host cannot be empty")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.MaxConnections <= 0 {
		errs = append(errs, "server.max_connections must be positive")
	}
	if cfg.Server.WorkerCount <= 0 {
		errs = append(errs, "server.worker_count must be positive")
	}
	if cfg.Server.MaxMessageSize <= 0 {
		errs = append(errs, "server.max_message_size must be positive")
	}

	if cfg.Camera.VendorPollInterval <= 0 {
		errs = append(errs, "camera.vendor_poll_interval must be positive")
	}
	if cfg.Camera.VendorLiveViewInterval <= 0 {
		errs = append(errs, "camera.vendor_live_view_interval must be positive")
	}
	if cfg.Camera.CaptureWatchdogStartupTimeout <= 0 {
		errs = append(errs, "camera.capture_watchdog_startup_timeout must be positive")
	}
	if cfg.Camera.CaptureWatchdogFrameTimeout <= 0 {
		errs = append(errs, "camera.capture_watchdog_frame_timeout must be positive")
	}

	if strings.TrimSpace(cfg.Storage.SettingsPath) == "" {
		errs = append(errs, "storage.settings_path cannot be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true, "panic": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a recognized level", cfg.Logging.Level))
	}
	if cfg.Logging.FileEnabled && strings.TrimSpace(cfg.Logging.FilePath) == "" {
		errs = append(errs, "logging.file_path cannot be empty when logging.file_enabled is true")
	}

	if cfg.Security.RequireAuth && strings.TrimSpace(cfg.Security.JWTSecretKey) == "" {
		errs = append(errs, "security.jwt_secret_key must be set when security.require_auth is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
