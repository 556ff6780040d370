//go:build linux

package linuxinput

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WaitForDevice opens query, waiting up to timeout for the device node to show
// up under /dev/input. Permission errors are retried too: udev usually fixes
// up the mode shortly after the node is created.
func WaitForDevice(ctx context.Context, query string, timeout time.Duration) (*InputHandle, error) {
	handle, err := OpenInput(query)
	if err == nil || !isRetryableOpenError(err) {
		return handle, err
	}
	lastErr := err

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer watcher.Close()
	if err := watcher.Add(inputDir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", inputDir, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for device %q: %w (last error: %v)", query, ctx.Err(), lastErr)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, lastErr
			}
			return nil, fmt.Errorf("watch %s: %w", inputDir, err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil, lastErr
			}
			if event.Op&(fsnotify.Create|fsnotify.Chmod) == 0 {
				continue
			}
			handle, err := OpenInput(query)
			if err == nil {
				return handle, nil
			}
			if !isRetryableOpenError(err) {
				return nil, err
			}
			lastErr = err
		}
	}
}

func isRetryableOpenError(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) || errors.Is(err, fs.ErrNotExist) || IsPermissionError(err)
}
