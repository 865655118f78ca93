package config

import "time"

// ServerConfig controls the IPC (JSON-RPC over WebSocket) listener.
type ServerConfig struct {
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	WebSocketPath        string        `mapstructure:"websocket_path"`
	MaxConnections       int           `mapstructure:"max_connections"`
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	PingInterval         time.Duration `mapstructure:"ping_interval"`
	PongWait             time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize       int64         `mapstructure:"max_message_size"`
	ClientCleanupTimeout time.Duration `mapstructure:"client_cleanup_timeout"`
	WorkerCount          int           `mapstructure:"worker_count"`
	WorkerQueueTimeout   time.Duration `mapstructure:"worker_queue_timeout"`
}

// CameraConfig tunes backend discovery and the capture pipeline.
type CameraConfig struct {
	SimulatedEnabled              bool          `mapstructure:"simulated_enabled"`
	VendorEnabled                 bool          `mapstructure:"vendor_enabled"`
	VendorPollInterval            time.Duration `mapstructure:"vendor_poll_interval"`
	VendorLiveViewInterval        time.Duration `mapstructure:"vendor_live_view_interval"`
	CaptureWatchdogStartupTimeout time.Duration `mapstructure:"capture_watchdog_startup_timeout"`
	CaptureWatchdogFrameTimeout   time.Duration `mapstructure:"capture_watchdog_frame_timeout"`
	AutoStartPreviewOnConnect     bool          `mapstructure:"auto_start_preview_on_connect"`
}

// StorageConfig locates the settings file persisted by internal/settings.
type StorageConfig struct {
	SettingsPath string `mapstructure:"settings_path"`
	DirMode      uint32 `mapstructure:"dir_mode"`
}

// LoggingConfig feeds internal/logging's logrus+lumberjack setup.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	Format         string `mapstructure:"format"`
	FileEnabled    bool   `mapstructure:"file_enabled"`
	FilePath       string `mapstructure:"file_path"`
	MaxFileSize    int    `mapstructure:"max_file_size"`
	BackupCount    int    `mapstructure:"backup_count"`
	MaxAge         int    `mapstructure:"max_age"`
	ConsoleEnabled bool   `mapstructure:"console_enabled"`
}

// SecurityConfig is the optional IPC auth boundary (see internal/ipc).
// RequireAuth without a JWTSecretKey fails ValidateConfig.
type SecurityConfig struct {
	RequireAuth    bool   `mapstructure:"require_auth"`
	JWTSecretKey   string `mapstructure:"jwt_secret_key"`
	JWTExpiryHours int    `mapstructure:"jwt_expiry_hours"`
}

// Config is the complete camera-core process configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Security SecurityConfig `mapstructure:"security"`
}
