//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"theclicker/internal/core/autoclicker"
)

const packetSize = 3

// PacketHandle reads the 3-byte PS/2 protocol of /dev/input/mouseN and
// reports button changes as EV_KEY events, so the regular engine can drive it.
// It cannot be grabbed.
type PacketHandle struct {
	file    *os.File
	path    string
	buttons byte
}

func (*PacketHandle) handle() {}

// OpenLegacy opens a /dev/input/mouseN node.
func OpenLegacy(path string) (*PacketHandle, error) {
	path, err := resolveDevicePath(path)
	if err != nil {
		return nil, err
	}
	if !isLegacyNode(path) {
		return nil, fmt.Errorf("%s is not a legacy mouse device (expected /dev/input/mouseN)", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &PacketHandle{file: file, path: path}, nil
}

func (h *PacketHandle) Path() string {
	return h.path
}

func (h *PacketHandle) ReadEvents() ([]autoclicker.Event, error) {
	var packet [packetSize]byte
	n, err := h.file.Read(packet[:])
	if err != nil {
		return nil, err
	}
	if n != packetSize {
		return nil, nil
	}
	events := decodePacket(h.buttons, packet[0], time.Now())
	h.buttons = packet[0]
	return events, nil
}

func (h *PacketHandle) Close() error {
	return h.file.Close()
}

var packetButtons = []struct {
	bit  byte
	code uint16
}{
	{0, autoclicker.LeftButtonCode},
	{1, autoclicker.RightButtonCode},
	{2, autoclicker.MiddleButtonCode},
}

// decodePacket emits one key event per button bit that changed between the
// previous and current status byte, followed by a SYN_REPORT.
func decodePacket(prev, cur byte, now time.Time) []autoclicker.Event {
	var events []autoclicker.Event
	for _, b := range packetButtons {
		was := (prev >> b.bit) & 1
		is := (cur >> b.bit) & 1
		if was == is {
			continue
		}
		events = append(events, autoclicker.Event{
			Type:  autoclicker.EventTypeKey,
			Code:  b.code,
			Value: int32(is),
			Time:  now,
		})
	}
	if len(events) == 0 {
		return nil
	}
	return append(events, autoclicker.Event{
		Type: autoclicker.EventTypeSyn,
		Code: autoclicker.SynReportCode,
		Time: now,
	})
}

// LegacyBinding is the fixed binding used for PS/2 mice: left and right
// toggle their button, middle locks and unlocks.
func LegacyBinding() autoclicker.Binding {
	return autoclicker.Binding{
		Left:       autoclicker.Code(autoclicker.LeftButtonCode),
		Right:      autoclicker.Code(autoclicker.RightButtonCode),
		LockUnlock: autoclicker.Code(autoclicker.MiddleButtonCode),
	}
}

func isLegacyNode(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "mouse") && base != "mice"
}
