//go:build linux

package linuxinput

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"theclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

// CaptureNextKeyCode grabs the device at path, discards whatever is already
// queued and returns the code of the next key/button press. The grab keeps
// the chosen key from reaching other applications.
func CaptureNextKeyCode(ctx context.Context, path string) (uint16, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	if len(dev.CapableEvents(evdev.EV_KEY)) == 0 {
		return 0, fmt.Errorf("%s does not expose key/button events", path)
	}
	if err := dev.NonBlock(); err != nil {
		return 0, fmt.Errorf("failed to set nonblocking mode for %s: %w", path, err)
	}
	if err := dev.Grab(); err == nil {
		defer dev.Ungrab()
	}

	drainEvents(dev)

	for {
		event, err := dev.ReadOne()
		if err != nil {
			if isWouldBlockError(err) {
				if !sleepCapture(ctx, 10*time.Millisecond) {
					return 0, ctx.Err()
				}
				continue
			}
			return 0, err
		}
		if event == nil {
			continue
		}
		if event.Type == evdev.EV_KEY && (event.Value == 1 || event.Value == 2) {
			return uint16(event.Code), nil
		}
	}
}

// WatchKeyPresses calls fn with the code of every key press on the device at
// path until ctx ends.
func WatchKeyPresses(ctx context.Context, path string, fn func(code uint16)) error {
	handle, err := OpenInput(path)
	if err != nil {
		return err
	}
	return watchKeyPresses(ctx, handle, fn)
}

// watchKeyPresses owns source: it is closed exactly once, either when ctx
// ends (to unblock the read) or when the loop returns.
func watchKeyPresses(ctx context.Context, source autoclicker.Source, fn func(code uint16)) error {
	var closeOnce sync.Once
	closeSource := func() {
		closeOnce.Do(func() { _ = source.Close() })
	}
	defer closeSource()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeSource()
		case <-done:
		}
	}()

	for {
		events, err := source.ReadEvents()
		if err != nil {
			if ctx.Err() != nil || isDeviceClosedError(err) {
				return nil
			}
			return err
		}
		for _, event := range events {
			if event.Type == autoclicker.EventTypeKey && event.Value == 1 {
				fn(event.Code)
			}
		}
	}
}

func drainEvents(dev *evdev.InputDevice) {
	for {
		if _, err := dev.ReadOne(); err != nil {
			return
		}
	}
}

func sleepCapture(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
