// Package security implements the optional JWT auth boundary for the IPC
// WebSocket upgrade (security.require_auth in internal/config). Absent
// configuration, the IPC layer never constructs a TokenValidator and the
// upgrade is unauthenticated.
package security
