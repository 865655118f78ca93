// Package config provides centralized configuration for camera-core.
//
// Configuration is loaded from a single YAML file (cmd/server reads the
// fixed path config/default.yaml; cmd/camctl takes it from -config) through
// Viper, with every key overridable by an environment variable under the
// CAMERA_CORE_ prefix. Five sections cover the whole process: server
// (IPC bind settings), camera (backend/capture tuning), storage (settings
// file location), logging, and security (optional IPC auth boundary).
//
// Hot reload is opt-in via CAMERA_CORE_ENABLE_HOT_RELOAD: ConfigManager
// watches the config file with fsnotify and, after a 500ms debounce,
// reloads and validates it and swaps its mutex-guarded *Config pointer. Only camera.* and
// logging.* fields are safe to change without a restart; server bind
// settings require one.
package config
