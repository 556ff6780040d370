package autoclicker

import (
	"context"
	"sync"
)

// stateQueue is an unbounded FIFO of snapshots with one producer and one
// consumer. Push never blocks, so the device read loop is never held up by a
// sleeping emission loop.
type stateQueue struct {
	mu     sync.Mutex
	items  []State
	wakeCh chan struct{}
}

func newStateQueue() *stateQueue {
	return &stateQueue{wakeCh: make(chan struct{}, 1)}
}

func (q *stateQueue) Push(state State) {
	q.mu.Lock()
	q.items = append(q.items, state)
	q.mu.Unlock()
	q.signalWake()
}

// TryPop returns the oldest queued snapshot without waiting.
func (q *stateQueue) TryPop() (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return State{}, false
	}
	state := q.items[0]
	q.items[0] = State{}
	q.items = q.items[1:]
	return state, true
}

// Pop waits for a snapshot or for ctx to end.
func (q *stateQueue) Pop(ctx context.Context) (State, error) {
	for {
		if state, ok := q.TryPop(); ok {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case <-q.wakeCh:
		}
	}
}

func (q *stateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *stateQueue) signalWake() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}
