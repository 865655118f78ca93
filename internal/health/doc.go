// Package health reports process and host resource status for the
// get_system_health IPC method.
//
// SystemHealth gathers process uptime and goroutine count from the Go
// runtime and host CPU/memory/platform information via gopsutil. It has
// no HTTP surface of its own — the IPC layer is the only consumer, per
// the desktop-embedded deployment this core targets.
package health
