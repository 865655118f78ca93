package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/webbertakken/camera-core/internal/logging"
)

const envPrefix = "CAMERA_CORE"

// ConfigManager loads, validates, and optionally hot-reloads the process
// configuration.
type ConfigManager struct {
	lock            sync.RWMutex
	config          *Config
	defaultConfig   *Config
	configPath      string
	updateCallbacks []func(*Config)

	watcherLock   sync.Mutex
	watcher       *fsnotify.Watcher
	watcherActive int32
	stopChan      chan struct{}
	wg            sync.WaitGroup

	logger *logging.Logger
}

// CreateConfigManager constructs a manager seeded with defaults; call
// LoadConfig to read an actual file.
func CreateConfigManager() *ConfigManager {
	return &ConfigManager{
		defaultConfig: defaultConfig(),
		stopChan:      make(chan struct{}),
		logger:        logging.NewLogger("config-manager"),
	}
}

// LoadConfig reads configPath through Viper, applies CAMERA_CORE_ environment
// overrides, validates the result, and — if CAMERA_CORE_ENABLE_HOT_RELOAD is
// set — (re)starts the file watcher.
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	applyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("read config file %q: %w", configPath, err)
		}
		cm.logger.WithField("config_path", configPath).Warn("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return err
	}

	old := cm.config
	cm.config = &cfg
	cm.configPath = configPath

	if os.Getenv(envPrefix+"_ENABLE_HOT_RELOAD") == "true" {
		if err := cm.startWatching(); err != nil {
			cm.logger.WithError(err).Warn("failed to start configuration hot reload")
		}
	}

	cm.notifyUpdated(old, &cfg)
	cm.logger.WithField("config_path", configPath).Info("configuration loaded")
	return nil
}

// GetConfig returns the active configuration, or compiled-in defaults if
// LoadConfig has not yet succeeded.
func (cm *ConfigManager) GetConfig() *Config {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	if cm.config == nil {
		return cm.defaultConfig
	}
	return cm.config
}

// AddUpdateCallback registers a function invoked with the new configuration
// every time LoadConfig succeeds, including the initial load.
func (cm *ConfigManager) AddUpdateCallback(cb func(*Config)) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.updateCallbacks = append(cm.updateCallbacks, cb)
}

// RegisterLoggingConfigurationUpdates wires logging.ConfigureGlobalLogging to
// fire on every configuration reload so log level/output changes without a
// restart.
func (cm *ConfigManager) RegisterLoggingConfigurationUpdates() {
	cm.AddUpdateCallback(func(cfg *Config) {
		loggingCfg := &logging.LoggingConfig{
			Level:          cfg.Logging.Level,
			Format:         cfg.Logging.Format,
			FileEnabled:    cfg.Logging.FileEnabled,
			FilePath:       cfg.Logging.FilePath,
			MaxFileSize:    cfg.Logging.MaxFileSize,
			BackupCount:    cfg.Logging.BackupCount,
			ConsoleEnabled: cfg.Logging.ConsoleEnabled,
		}
		if err := logging.ConfigureGlobalLogging(loggingCfg); err != nil {
			cm.logger.WithError(err).Error("failed to apply reloaded logging configuration")
		}
	})
}

func (cm *ConfigManager) notifyUpdated(_, newConfig *Config) {
	for _, cb := range cm.updateCallbacks {
		cb(newConfig)
	}
}

// startWatching begins watching configPath for changes and reloads on
// write/create events, debounced to absorb editors that write in multiple
// steps. Must be called with cm.lock held.
func (cm *ConfigManager) startWatching() error {
	cm.watcherLock.Lock()
	defer cm.watcherLock.Unlock()

	if atomic.LoadInt32(&cm.watcherActive) == 1 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(cm.configPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	cm.watcher = watcher
	atomic.StoreInt32(&cm.watcherActive, 1)
	cm.wg.Add(1)
	go cm.watchLoop()
	cm.logger.Info("configuration hot reload enabled")
	return nil
}

func (cm *ConfigManager) watchLoop() {
	defer cm.wg.Done()

	var debounce *time.Timer
	for {
		select {
		case <-cm.stopChan:
			return
		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cm.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, cm.reload)
		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.WithError(err).Warn("configuration watcher error")
		}
	}
}

func (cm *ConfigManager) reload() {
	path := cm.configPath
	if err := cm.LoadConfig(path); err != nil {
		cm.logger.WithError(err).Error("configuration reload failed, keeping previous configuration")
	}
}

// Stop halts hot reload and releases the file watcher. Safe to call even if
// hot reload was never started.
func (cm *ConfigManager) Stop(ctx context.Context) error {
	if atomic.CompareAndSwapInt32(&cm.watcherActive, 1, 0) {
		close(cm.stopChan)
		cm.watcherLock.Lock()
		cm.watcher.Close()
		cm.watcherLock.Unlock()
	}

	done := make(chan struct{})
	go func() { cm.wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8002)
	v.SetDefault("server.websocket_path", "/ws")
	v.SetDefault("server.max_connections", 10)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.ping_interval", "30s")
	v.SetDefault("server.pong_wait", "60s")
	v.SetDefault("server.max_message_size", 1024*1024)
	v.SetDefault("server.client_cleanup_timeout", "5s")
	v.SetDefault("server.worker_count", 8)
	v.SetDefault("server.worker_queue_timeout", "2s")

	v.SetDefault("camera.simulated_enabled", false)
	v.SetDefault("camera.vendor_enabled", false)
	v.SetDefault("camera.vendor_poll_interval", "3s")
	v.SetDefault("camera.vendor_live_view_interval", "200ms")
	v.SetDefault("camera.capture_watchdog_startup_timeout", "30s")
	v.SetDefault("camera.capture_watchdog_frame_timeout", "5s")
	v.SetDefault("camera.auto_start_preview_on_connect", false)

	v.SetDefault("storage.settings_path", "./data/camera-settings.json")
	v.SetDefault("storage.dir_mode", 0755)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file_enabled", false)
	v.SetDefault("logging.file_path", "./logs/camera-core.log")
	v.SetDefault("logging.max_file_size", 10)
	v.SetDefault("logging.backup_count", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.console_enabled", true)

	v.SetDefault("security.require_auth", false)
	v.SetDefault("security.jwt_expiry_hours", 24)
}

func defaultConfig() *Config {
	v := viper.New()
	applyDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
