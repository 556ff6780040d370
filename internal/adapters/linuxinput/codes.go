//go:build linux

package linuxinput

import (
	"fmt"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

const (
	CodeBTNLeft  uint16 = uint16(evdev.BTN_LEFT)
	CodeBTNRight uint16 = uint16(evdev.BTN_RIGHT)
	CodeBTNSide  uint16 = uint16(evdev.BTN_SIDE)
	CodeBTNExtra uint16 = uint16(evdev.BTN_EXTRA)
)

// ParseCode accepts evdev names (BTN_SIDE, KEY_F8) or numbers (275, 0x113).
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := evdev.KEYFromString[raw]; ok {
		return uint16(code), nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like KEY_F8/BTN_SIDE or numeric code", value)
	}
	if parsed < 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	if name, ok := keyName(code); ok {
		return name
	}
	return strconv.Itoa(int(code))
}

// DescribeCode renders "KeyCode: 275, Key: BTN_RIGHT", omitting the key name
// for codes evdev does not know.
func DescribeCode(code uint16) string {
	desc := fmt.Sprintf("KeyCode: %d", code)
	if name, ok := keyName(code); ok {
		desc += ", Key: " + name
	}
	return desc
}

// keyName reports the EV_KEY name of code. evdev.CodeName answers "unknown"
// for codes it has no name for.
func keyName(code uint16) (string, bool) {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name == "" || name == "unknown" {
		return "", false
	}
	return name, true
}

// IsReservedCode reports keys that cannot be bound because the user needs them
// to stop the program with Ctrl+C.
func IsReservedCode(code uint16) bool {
	return code == uint16(evdev.KEY_LEFTCTRL) || code == uint16(evdev.KEY_C)
}
