//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"theclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

const (
	VirtualDeviceName = "TheClicker"

	busUSB  uint16 = 0x03
	vendor  uint16 = 0x3232
	product uint16 = 0x5678
	version uint16 = 0x1234

	readBatch = 64
)

// Handle is either a physical device being read or the virtual device being
// written. Each variant only carries the operations valid for it.
type Handle interface {
	Path() string
	Close() error
	handle()
}

// HandleKind names the variant of h for logs.
func HandleKind(h Handle) string {
	switch h.(type) {
	case *InputHandle:
		return "input"
	case *OutputHandle:
		return "output"
	case *PacketHandle:
		return "legacy"
	default:
		return "unknown"
	}
}

// InputHandle is an opened /dev/input/eventN node.
type InputHandle struct {
	dev  *evdev.InputDevice
	path string
	name string
}

func (*InputHandle) handle() {}

func openInputHandle(path string) (*InputHandle, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	name, _ := dev.Name()
	return &InputHandle{dev: dev, path: path, name: name}, nil
}

func (h *InputHandle) Path() string {
	return h.path
}

// Name is the kernel device name suffixed with the node file name, which keeps
// two identical mice apart.
func (h *InputHandle) Name() string {
	return displayName(h.name, h.path)
}

// ReadEvents blocks until the device completes one SYN_REPORT frame.
func (h *InputHandle) ReadEvents() ([]autoclicker.Event, error) {
	return readFrame(h.dev)
}

type eventReader interface {
	ReadOne() (*evdev.InputEvent, error)
}

// readFrame collects events up to and including SYN_REPORT. Frames longer
// than readBatch are returned in pieces.
func readFrame(r eventReader) ([]autoclicker.Event, error) {
	out := make([]autoclicker.Event, 0, 8)
	for len(out) < readBatch {
		event, err := r.ReadOne()
		if err != nil {
			return nil, err
		}
		if event == nil {
			continue
		}
		out = append(out, fromEvdev(*event))
		if event.Type == evdev.EV_SYN && event.Code == evdev.SYN_REPORT {
			break
		}
	}
	return out, nil
}

func (h *InputHandle) Grab(enabled bool) error {
	if enabled {
		return h.dev.Grab()
	}
	return h.dev.Ungrab()
}

func (h *InputHandle) Close() error {
	return h.dev.Close()
}

func (h *InputHandle) capabilities() map[evdev.EvType][]evdev.EvCode {
	caps := make(map[evdev.EvType][]evdev.EvCode)
	for _, t := range []evdev.EvType{evdev.EV_KEY, evdev.EV_REL, evdev.EV_MSC} {
		if codes := h.dev.CapableEvents(t); len(codes) > 0 {
			caps[t] = codes
		}
	}
	return caps
}

// OutputHandle is the uinput device clicks and pass-through events go to.
type OutputHandle struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

func (*OutputHandle) handle() {}

// CreateOutput creates the virtual device. With a non-nil mirror the device
// also advertises the key, relative and misc codes of mirror so grabbed input
// can be forwarded through it.
func CreateOutput(mirror *InputHandle) (*OutputHandle, error) {
	var source map[evdev.EvType][]evdev.EvCode
	if mirror != nil {
		source = mirror.capabilities()
	}

	dev, err := evdev.CreateDevice(
		VirtualDeviceName,
		evdev.InputID{
			BusType: busUSB,
			Vendor:  vendor,
			Product: product,
			Version: version,
		},
		buildUinputCapabilities(source),
	)
	if err != nil {
		return nil, fmt.Errorf("create virtual device: %w", err)
	}
	return &OutputHandle{dev: dev}, nil
}

func (o *OutputHandle) Path() string {
	return o.dev.Path()
}

// WriteEvents writes one batch. Batches from different goroutines never
// interleave.
func (o *OutputHandle) WriteEvents(events ...autoclicker.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, event := range events {
		ev := toEvdev(event)
		if err := o.dev.WriteOne(&ev); err != nil {
			return err
		}
	}
	return nil
}

func (o *OutputHandle) Close() error {
	if o.dev == nil {
		return nil
	}
	return o.dev.Close()
}

func buildUinputCapabilities(source map[evdev.EvType][]evdev.EvCode) map[evdev.EvType][]evdev.EvCode {
	keyCodes := map[evdev.EvCode]struct{}{
		evdev.BTN_LEFT:   {},
		evdev.BTN_RIGHT:  {},
		evdev.BTN_MIDDLE: {},
	}
	relCodes := make(map[evdev.EvCode]struct{})
	mscCodes := make(map[evdev.EvCode]struct{})

	// EV_ABS is left out: some devices report min == max axes that uinput rejects.
	for _, code := range source[evdev.EV_KEY] {
		keyCodes[code] = struct{}{}
	}
	for _, code := range source[evdev.EV_REL] {
		relCodes[code] = struct{}{}
	}
	for _, code := range source[evdev.EV_MSC] {
		mscCodes[code] = struct{}{}
	}

	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: sortedCodes(keyCodes),
	}
	if len(relCodes) > 0 {
		capabilities[evdev.EV_REL] = sortedCodes(relCodes)
	}
	if len(mscCodes) > 0 {
		capabilities[evdev.EV_MSC] = sortedCodes(mscCodes)
	}
	return capabilities
}

func sortedCodes(values map[evdev.EvCode]struct{}) []evdev.EvCode {
	codes := make([]evdev.EvCode, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i] < codes[j]
	})
	return codes
}

func fromEvdev(event evdev.InputEvent) autoclicker.Event {
	return autoclicker.Event{
		Type:  uint16(event.Type),
		Code:  uint16(event.Code),
		Value: event.Value,
		Time:  time.Unix(event.Time.Unix()),
	}
}

func toEvdev(event autoclicker.Event) evdev.InputEvent {
	ts := event.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return evdev.InputEvent{
		Time:  syscall.NsecToTimeval(ts.UnixNano()),
		Type:  evdev.EvType(event.Type),
		Code:  evdev.EvCode(event.Code),
		Value: event.Value,
	}
}

func displayName(name, path string) string {
	return fmt.Sprintf("%s-%s", name, filepath.Base(path))
}
