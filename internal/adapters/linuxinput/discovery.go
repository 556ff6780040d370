//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

const inputDir = "/dev/input"

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
	HasKeys   bool
	IsLegacy  bool
}

// DisplayName is the name used for lookups, e.g. "Logitech USB Mouse-event5".
func (d DeviceInfo) DisplayName() string {
	return displayName(d.Name, d.Path)
}

// ListInputDevices returns every evdev node followed by the legacy
// /dev/input/mouseN nodes, each group sorted by path.
func ListInputDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := evdev.OpenWithFlags(path.Path, os.O_RDONLY)
		if err != nil {
			continue
		}

		name := path.Name
		if actualName, err := dev.Name(); err == nil && actualName != "" {
			name = actualName
		}

		devices = append(devices, DeviceInfo{
			Path:      path.Path,
			Name:      name,
			IsVirtual: deviceIsVirtual(dev, name),
			IsPointer: deviceIsPointer(dev),
			HasKeys:   len(dev.CapableEvents(evdev.EV_KEY)) > 0,
		})
		_ = dev.Close()
	}

	return append(devices, listLegacyDevices()...), nil
}

func listLegacyDevices() []DeviceInfo {
	matches, err := filepath.Glob(filepath.Join(inputDir, "mouse*"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)

	devices := make([]DeviceInfo, 0, len(matches))
	for _, path := range matches {
		base := filepath.Base(path)
		name := base
		if raw, err := os.ReadFile(filepath.Join("/sys/class/input", base, "device", "name")); err == nil {
			name = strings.TrimSpace(string(raw))
		}
		devices = append(devices, DeviceInfo{
			Path:      path,
			Name:      name,
			IsPointer: true,
			HasKeys:   true,
			IsLegacy:  true,
		})
	}
	return devices
}

// OpenInput opens an evdev device by path or by name. A path may be a
// /dev/input/by-id or by-path symlink. A name matches the display name
// exactly first, then as a substring.
func OpenInput(query string) (*InputHandle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("device query is empty")
	}

	if strings.HasPrefix(query, "/") {
		path, err := resolveDevicePath(query)
		if err != nil {
			return nil, err
		}
		if isLegacyNode(path) {
			return nil, fmt.Errorf("%s: %w", path, ErrLegacyDevice)
		}
		return openInputHandle(path)
	}

	devices, err := ListInputDevices()
	if err != nil {
		return nil, err
	}
	match, err := matchDevice(devices, query)
	if err != nil {
		return nil, err
	}
	if match.IsLegacy {
		return nil, fmt.Errorf("%s: %w", match.Path, ErrLegacyDevice)
	}
	return openInputHandle(match.Path)
}

func resolveDevicePath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	if filepath.Base(resolved) == "mice" {
		return "", ErrAllMice
	}
	return resolved, nil
}

func matchDevice(devices []DeviceInfo, query string) (DeviceInfo, error) {
	for _, dev := range devices {
		if strings.TrimSpace(dev.DisplayName()) == query || strings.TrimSpace(dev.Name) == query {
			return dev, nil
		}
	}
	for _, dev := range devices {
		if strings.Contains(strings.TrimSpace(dev.DisplayName()), query) {
			return dev, nil
		}
	}
	return DeviceInfo{}, fmt.Errorf("%q: %w", query, ErrDeviceNotFound)
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	if name == VirtualDeviceName {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool", "autoclicker"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func deviceIsPointer(device *evdev.InputDevice) bool {
	var hasRelX, hasRelY bool
	for _, code := range device.CapableEvents(evdev.EV_REL) {
		if code == evdev.REL_X {
			hasRelX = true
		}
		if code == evdev.REL_Y {
			hasRelY = true
		}
	}
	if hasRelX && hasRelY {
		return true
	}
	return len(device.CapableEvents(evdev.EV_ABS)) > 0
}
