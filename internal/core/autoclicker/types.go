package autoclicker

import (
	"fmt"
	"time"
)

const (
	EventTypeSyn uint16 = 0x00
	EventTypeKey uint16 = 0x01
	EventTypeRel uint16 = 0x02
	EventTypeMsc uint16 = 0x04

	SynReportCode    uint16 = 0
	LeftButtonCode   uint16 = 0x110
	RightButtonCode  uint16 = 0x111
	MiddleButtonCode uint16 = 0x112
)

// Event is one raw input_event as read from, or written to, an evdev node.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
	Time  time.Time
}

// Pressed reports whether the event is a press or an autorepeat.
func (e Event) Pressed() bool {
	return e.Value == 1 || e.Value == 2
}

func (e Event) String() string {
	return fmt.Sprintf("Event{type: %d, code: %d, value: %d}", e.Type, e.Code, e.Value)
}

type Mode int

const (
	ModeToggle Mode = iota
	ModeHold
)

func (m Mode) String() string {
	switch m {
	case ModeToggle:
		return "toggle"
	case ModeHold:
		return "hold"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(value string) (Mode, error) {
	switch value {
	case "", "toggle":
		return ModeToggle, nil
	case "hold":
		return ModeHold, nil
	default:
		return ModeToggle, fmt.Errorf("unknown mode %q (expected toggle|hold)", value)
	}
}

// Binding maps each role to an optional device code. A nil field is unbound.
type Binding struct {
	Left       *uint16
	Middle     *uint16
	Right      *uint16
	LockUnlock *uint16
}

// Code returns a pointer suitable for a Binding field.
func Code(code uint16) *uint16 {
	return &code
}

// State is the set of buttons that should currently be clicking, plus the lock flag.
type State struct {
	Left   bool
	Middle bool
	Right  bool
	Lock   bool
}

// Active reports whether at least one button role is on.
func (s State) Active() bool {
	return s.Left || s.Middle || s.Right
}

type Config struct {
	Binding    Binding
	Mode       Mode
	Cooldown   time.Duration
	CooldownPR time.Duration
	Grab       bool
	Beep       bool
}

// Source is the physical side: a blocking reader of raw events.
type Source interface {
	ReadEvents() ([]Event, error)
	Close() error
}

// Grabber is implemented by sources that support exclusive access.
type Grabber interface {
	Grab(enabled bool) error
}

// Sink is the virtual output device.
type Sink interface {
	WriteEvents(events ...Event) error
}

// Reporter receives every state the emission loop starts clicking with.
type Reporter interface {
	Beep()
	Report(state State)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
