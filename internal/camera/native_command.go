package camera

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandExecutor runs the external v4l2-ctl tool against a device path.
// Abstracted behind an interface so backend logic is testable without a
// real camera or the v4l-utils package installed.
type CommandExecutor interface {
	Run(ctx context.Context, devicePath string, args ...string) (string, error)
}

// RealCommandExecutor shells out to v4l2-ctl, the same tool the teacher
// repository's native-device layer wraps.
type RealCommandExecutor struct{}

func (RealCommandExecutor) Run(ctx context.Context, devicePath string, args ...string) (string, error) {
	full := append([]string{"--device", devicePath}, args...)
	cmd := exec.CommandContext(ctx, "v4l2-ctl", full...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			switch {
			case strings.Contains(stderr, "Cannot open device"):
				return "", fmt.Errorf("cannot open device %s", devicePath)
			case strings.Contains(stderr, "Permission denied"):
				return "", fmt.Errorf("permission denied accessing device %s", devicePath)
			case strings.Contains(stderr, "Device or resource busy"):
				return "", fmt.Errorf("device %s is busy", devicePath)
			case stderr != "":
				return "", fmt.Errorf("v4l2-ctl: %s", stderr)
			}
			return "", fmt.Errorf("v4l2-ctl exited with status %d", exitErr.ExitCode())
		}
		if isCommandNotFound(err) {
			return "", fmt.Errorf("v4l2-ctl not found: install v4l-utils")
		}
		return "", fmt.Errorf("v4l2-ctl failed: %w", err)
	}
	return string(out), nil
}

func isCommandNotFound(err error) bool {
	execErr, ok := err.(*exec.Error)
	return ok && execErr.Err == exec.ErrNotFound
}
