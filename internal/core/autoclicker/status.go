package autoclicker

import (
	"io"
	"strings"
	"sync"
)

// StatusLine prints the active roles as a single console line. On a terminal
// the line is redrawn in place instead of scrolling.
type StatusLine struct {
	mu       sync.Mutex
	out      io.Writer
	terminal bool
}

func NewStatusLine(out io.Writer, terminal bool) *StatusLine {
	return &StatusLine{out: out, terminal: terminal}
}

func (s *StatusLine) Beep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, "\a")
}

func (s *StatusLine) Report(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if s.terminal {
		b.WriteString("\x1b[0K")
	}
	b.WriteString(FormatState(state))
	b.WriteByte('\n')
	if s.terminal {
		b.WriteString("\x1b[1F")
	}
	_, _ = io.WriteString(s.out, b.String())
}

// FormatState renders state as "Active: LOCKED: left, right".
func FormatState(state State) string {
	var b strings.Builder
	b.WriteString("Active: ")
	if state.Lock {
		b.WriteString("LOCKED: ")
	}

	roles := make([]string, 0, 3)
	if state.Left {
		roles = append(roles, "left")
	}
	if state.Middle {
		roles = append(roles, "middle")
	}
	if state.Right {
		roles = append(roles, "right")
	}
	b.WriteString(strings.Join(roles, ", "))
	return strings.TrimRight(b.String(), " ")
}
