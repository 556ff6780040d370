package autoclicker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type recordedWrite struct {
	at     time.Time
	events []Event
}

type recordingSink struct {
	mu     sync.Mutex
	writes []recordedWrite
	err    error
}

func (r *recordingSink) WriteEvents(events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	batch := make([]Event, len(events))
	copy(batch, events)
	r.writes = append(r.writes, recordedWrite{at: time.Now(), events: batch})
	return nil
}

func (r *recordingSink) snapshot() []recordedWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedWrite, len(r.writes))
	copy(out, r.writes)
	return out
}

type scriptedSource struct {
	batches   chan []Event
	closed    chan struct{}
	closeOnce sync.Once
	readErr   error
	grabErr   error

	mu    sync.Mutex
	grabs []bool
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{
		batches: make(chan []Event, 16),
		closed:  make(chan struct{}),
	}
}

func (s *scriptedSource) ReadEvents() ([]Event, error) {
	select {
	case batch, ok := <-s.batches:
		if !ok {
			return nil, s.readErr
		}
		return batch, nil
	case <-s.closed:
		return nil, os.ErrClosed
	}
}

func (s *scriptedSource) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *scriptedSource) Grab(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grabs = append(s.grabs, enabled)
	if enabled {
		return s.grabErr
	}
	return nil
}

func (s *scriptedSource) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *scriptedSource) grabCalls() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.grabs...)
}

// plainSource cannot be grabbed.
type plainSource struct{}

func (plainSource) ReadEvents() ([]Event, error) { return nil, nil }
func (plainSource) Close() error                 { return nil }

type recordingReporter struct {
	mu     sync.Mutex
	states []State
	beeps  int
}

func (r *recordingReporter) Beep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beeps++
}

func (r *recordingReporter) Report(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingReporter) last() (State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return State{}, 0
	}
	return r.states[len(r.states)-1], len(r.states)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func testConfig() Config {
	return Config{
		Binding:    Binding{Left: Code(testLeftCode)},
		Mode:       ModeToggle,
		Cooldown:   25 * time.Millisecond,
		CooldownPR: 0,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

type runningEngine struct {
	cancel context.CancelFunc
	done   chan error
}

func startEngine(t *testing.T, engine *Engine) *runningEngine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &runningEngine{cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-r.done
	})
	return r
}

func (r *runningEngine) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		r.done <- err
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("engine did not stop")
		return nil
	}
}

var ignoreTime = cmpopts.IgnoreFields(Event{}, "Time")

func pressBatch(code uint16) []Event {
	return []Event{
		{Type: EventTypeKey, Code: code, Value: 1},
		{Type: EventTypeSyn, Code: SynReportCode},
	}
}

func releaseBatch(code uint16) []Event {
	return []Event{
		{Type: EventTypeKey, Code: code, Value: 0},
		{Type: EventTypeSyn, Code: SynReportCode},
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	sink := &recordingSink{}

	cfg := testConfig()
	cfg.Binding = Binding{LockUnlock: Code(testLockCode)}
	cfg.Cooldown = 0
	if _, err := NewEngine(cfg, newScriptedSource(), sink, &recordingReporter{}, noopLogger{}); err == nil {
		t.Fatalf("expected error for missing roles and zero cooldown")
	}

	cfg = testConfig()
	cfg.Grab = true
	if _, err := NewEngine(cfg, plainSource{}, sink, &recordingReporter{}, noopLogger{}); err == nil {
		t.Fatalf("expected error when grabbing a source without Grab")
	}

	if _, err := NewEngine(testConfig(), nil, sink, &recordingReporter{}, noopLogger{}); err == nil {
		t.Fatalf("expected error for nil source")
	}

	if _, err := NewEngine(testConfig(), newScriptedSource(), sink, &recordingReporter{}, noopLogger{}); err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
}

func TestToggleLeftClicksAtCooldownAndStops(t *testing.T) {
	source := newScriptedSource()
	sink := &recordingSink{}
	reporter := &recordingReporter{}

	cfg := testConfig()
	cfg.Beep = true
	engine, err := NewEngine(cfg, source, sink, reporter, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	run := startEngine(t, engine)

	source.batches <- []Event{keyEvent(testLeftCode, 1), {Type: EventTypeSyn}}
	waitFor(t, "two click cycles", func() bool { return len(sink.snapshot()) >= 4 })

	writes := sink.snapshot()
	for cycle := 0; cycle < 2; cycle++ {
		press, release := writes[2*cycle], writes[2*cycle+1]
		if diff := cmp.Diff(pressBatch(LeftButtonCode), press.events, ignoreTime); diff != "" {
			t.Fatalf("cycle %d press mismatch (-want +got):\n%s", cycle, diff)
		}
		if diff := cmp.Diff(releaseBatch(LeftButtonCode), release.events, ignoreTime); diff != "" {
			t.Fatalf("cycle %d release mismatch (-want +got):\n%s", cycle, diff)
		}
	}
	if gap := writes[2].at.Sub(writes[0].at); gap < cfg.Cooldown {
		t.Fatalf("cycle period %v shorter than cooldown %v", gap, cfg.Cooldown)
	}

	source.batches <- []Event{keyEvent(testLeftCode, 1), {Type: EventTypeSyn}}
	waitFor(t, "left to turn off", func() bool {
		state, _ := reporter.last()
		return state == State{}
	})

	// One cycle may already have been in flight when the state flipped.
	time.Sleep(3 * cfg.Cooldown)
	settled := len(sink.snapshot())
	time.Sleep(4 * cfg.Cooldown)
	if got := len(sink.snapshot()); got != settled {
		t.Fatalf("emission continued after toggling off: %d -> %d writes", settled, got)
	}
	if settled%2 != 0 {
		t.Fatalf("press without matching release: %d writes", settled)
	}

	if err := run.stop(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reporter.mu.Lock()
	beeps := reporter.beeps
	reporter.mu.Unlock()
	if beeps != 2 {
		t.Fatalf("beeps = %d, want 2", beeps)
	}
}

func TestGrabForwardsUnconsumedEventsInOrder(t *testing.T) {
	source := newScriptedSource()
	sink := &recordingSink{}
	reporter := &recordingReporter{}

	cfg := testConfig()
	cfg.Binding.LockUnlock = Code(testLockCode)
	cfg.Grab = true
	engine, err := NewEngine(cfg, source, sink, reporter, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	run := startEngine(t, engine)

	// Starts locked: the left press is frozen and passes through, the lock
	// press is consumed and unlocks without activating any role.
	batch := []Event{
		{Type: EventTypeMsc, Code: 4, Value: 90001},
		keyEvent(testLeftCode, 1),
		{Type: EventTypeSyn},
		keyEvent(testLockCode, 1),
		{Type: EventTypeSyn},
		{Type: EventTypeRel, Code: 0, Value: -3},
	}
	source.batches <- batch
	waitFor(t, "pass-through write", func() bool { return len(sink.snapshot()) == 1 })

	want := []Event{batch[0], batch[1], batch[2], batch[4], batch[5]}
	if diff := cmp.Diff(want, sink.snapshot()[0].events); diff != "" {
		t.Fatalf("pass-through mismatch (-want +got):\n%s", diff)
	}

	waitFor(t, "unlocked state", func() bool {
		state, _ := reporter.last()
		return state == State{}
	})

	if err := run.stop(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]bool{true, false}, source.grabCalls()); diff != "" {
		t.Fatalf("grab calls mismatch (-want +got):\n%s", diff)
	}
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("expected no clicks while idle, got %d writes", got)
	}
}

func TestNoPassThroughWithoutGrab(t *testing.T) {
	source := newScriptedSource()
	sink := &recordingSink{}
	reporter := &recordingReporter{}

	engine, err := NewEngine(testConfig(), source, sink, reporter, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	run := startEngine(t, engine)

	source.batches <- []Event{keyEvent(30, 1), {Type: EventTypeSyn}}
	source.batches <- []Event{keyEvent(30, 0), {Type: EventTypeSyn}}
	time.Sleep(30 * time.Millisecond)

	if err := run.stop(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(sink.snapshot()); got != 0 {
		t.Fatalf("expected no writes without grab, got %d", got)
	}
	if got := source.grabCalls(); len(got) != 0 {
		t.Fatalf("unexpected grab calls %v", got)
	}
}

func TestReadErrorIsFatal(t *testing.T) {
	source := newScriptedSource()
	source.readErr = errors.New("device unplugged")
	close(source.batches)

	engine, err := NewEngine(testConfig(), source, &recordingSink{}, &recordingReporter{}, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, source.readErr) {
			t.Fatalf("Run() error = %v, want %v", err, source.readErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after read error")
	}
}

func TestGrabFailureClosesSource(t *testing.T) {
	source := newScriptedSource()
	source.grabErr = errors.New("device or resource busy")

	cfg := testConfig()
	cfg.Grab = true
	engine, err := NewEngine(cfg, source, &recordingSink{}, &recordingReporter{}, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if err := engine.Run(context.Background()); !errors.Is(err, source.grabErr) {
		t.Fatalf("Run() error = %v, want %v", err, source.grabErr)
	}
	if !source.isClosed() {
		t.Fatalf("source left open after failed grab")
	}
}

func TestWriteErrorIsFatal(t *testing.T) {
	source := newScriptedSource()
	sink := &recordingSink{err: errors.New("uinput gone")}

	engine, err := NewEngine(testConfig(), source, sink, &recordingReporter{}, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()
	source.batches <- []Event{keyEvent(testLeftCode, 1)}

	select {
	case err := <-done:
		if !errors.Is(err, sink.err) {
			t.Fatalf("Run() error = %v, want %v", err, sink.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after write error")
	}
}

func TestRunQueuesLockedInitialState(t *testing.T) {
	source := newScriptedSource()
	reporter := &recordingReporter{}

	cfg := testConfig()
	cfg.Binding.LockUnlock = Code(testLockCode)
	engine, err := NewEngine(cfg, source, &recordingSink{}, reporter, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	run := startEngine(t, engine)

	waitFor(t, "locked report", func() bool {
		state, _ := reporter.last()
		return state == State{Lock: true}
	})
	if err := run.stop(t); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
