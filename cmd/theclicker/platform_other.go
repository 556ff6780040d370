//go:build !linux

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"theclicker/internal/config"
)

func startClicker(_ context.Context, _ options, _ config.Config, _ *slog.Logger, _ io.Writer) error {
	return fmt.Errorf("evdev/uinput autoclicking is only supported on linux")
}

func interactiveSetup(_ context.Context, _ *prompter) (config.Config, error) {
	return config.Config{}, fmt.Errorf("interactive setup is only supported on linux")
}

func listInputDevices(_ io.Writer) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func findKeycodes(_ context.Context, _ string, _ io.Writer) error {
	return fmt.Errorf("key code capture is not supported on this platform")
}

func isPermissionError(_ error) bool {
	return false
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}
