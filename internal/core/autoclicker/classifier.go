package autoclicker

// Classifier turns raw events into State transitions. It holds no state of its
// own; the caller threads the previous State through every call.
type Classifier struct {
	binding Binding
	mode    Mode
}

func NewClassifier(binding Binding, mode Mode) Classifier {
	return Classifier{binding: binding, mode: mode}
}

// Apply returns the state after event and whether the event hit a binding.
// Consumed events must not be forwarded to the virtual device.
func (c Classifier) Apply(state State, event Event) (State, bool) {
	if event.Type != EventTypeKey {
		return state, false
	}

	pressed := event.Pressed()
	consumed := false

	// Role codes are frozen while locked and pass through untouched.
	if !state.Lock {
		for _, role := range []struct {
			bind  *uint16
			value *bool
		}{
			{c.binding.Left, &state.Left},
			{c.binding.Middle, &state.Middle},
			{c.binding.Right, &state.Right},
		} {
			if role.bind == nil || *role.bind != event.Code {
				continue
			}
			switch c.mode {
			case ModeHold:
				*role.value = pressed
			default:
				if pressed {
					*role.value = !*role.value
				}
			}
			consumed = true
		}
	}

	if bind := c.binding.LockUnlock; bind != nil && *bind == event.Code {
		if pressed {
			state.Lock = !state.Lock
		}
		consumed = true
	}

	return state, consumed
}

// InitialState is locked whenever a lock/unlock binding exists.
func (c Classifier) InitialState() State {
	return State{Lock: c.binding.LockUnlock != nil}
}
