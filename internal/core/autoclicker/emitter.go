package autoclicker

import (
	"context"
	"fmt"
)

func (e *Engine) emitLoop(ctx context.Context) error {
	var current State
	e.reporter.Report(current)

	for {
		next, ok, err := e.nextState(ctx, current)
		if err != nil {
			return nil
		}
		if ok && next != current {
			current = next
			if e.cfg.Beep {
				e.reporter.Beep()
			}
			e.reporter.Report(current)
		}

		if err := e.clickCycle(ctx, current); err != nil {
			return err
		}
		if !e.sleep(ctx, e.cfg.Cooldown) {
			return nil
		}
	}
}

// nextState blocks only while nothing is clicking. With an active role it
// polls so the cadence keeps running between state changes. Queued snapshots
// are taken one per cycle, oldest first.
func (e *Engine) nextState(ctx context.Context, current State) (State, bool, error) {
	if current.Active() {
		state, ok := e.queue.TryPop()
		return state, ok, nil
	}
	state, err := e.queue.Pop(ctx)
	if err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

// clickCycle presses then releases every active button of state. The release
// always follows the press, even when ctx ends during the press/release gap.
func (e *Engine) clickCycle(ctx context.Context, state State) error {
	buttons := activeButtons(state)
	if len(buttons) == 0 {
		return nil
	}

	for _, code := range buttons {
		if err := e.sendButton(code, 1); err != nil {
			return err
		}
	}

	if e.cfg.CooldownPR > 0 {
		e.sleep(ctx, e.cfg.CooldownPR)
	}

	for _, code := range buttons {
		if err := e.sendButton(code, 0); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) sendButton(code uint16, value int32) error {
	now := e.now()
	if err := e.sink.WriteEvents(
		Event{Type: EventTypeKey, Code: code, Value: value, Time: now},
		Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0, Time: now},
	); err != nil {
		return fmt.Errorf("write to virtual device: %w", err)
	}
	return nil
}

func activeButtons(state State) []uint16 {
	buttons := make([]uint16, 0, 3)
	if state.Left {
		buttons = append(buttons, LeftButtonCode)
	}
	if state.Middle {
		buttons = append(buttons, MiddleButtonCode)
	}
	if state.Right {
		buttons = append(buttons, RightButtonCode)
	}
	return buttons
}
