package autoclicker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Engine wires a physical Source to a virtual Sink: a read loop classifies
// events and queues state snapshots, the emission loop turns the latest
// snapshot into press/release pairs.
type Engine struct {
	cfg        Config
	classifier Classifier
	source     Source
	sink       Sink
	reporter   Reporter
	logger     Logger
	queue      *stateQueue

	sleep func(ctx context.Context, d time.Duration) bool
	now   func() time.Time
}

func NewEngine(cfg Config, source Source, sink Sink, reporter Reporter, logger Logger) (*Engine, error) {
	var result *multierror.Error
	if source == nil {
		result = multierror.Append(result, errors.New("source is nil"))
	}
	if sink == nil {
		result = multierror.Append(result, errors.New("sink is nil"))
	}
	if reporter == nil {
		result = multierror.Append(result, errors.New("reporter is nil"))
	}
	if logger == nil {
		result = multierror.Append(result, errors.New("logger is nil"))
	}
	if err := validateConfig(cfg); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Grab && source != nil {
		if _, ok := source.(Grabber); !ok {
			result = multierror.Append(result, errors.New("grab requested but the input device cannot be grabbed"))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Binding, cfg.Mode),
		source:     source,
		sink:       sink,
		reporter:   reporter,
		logger:     logger,
		queue:      newStateQueue(),
		sleep:      sleepContext,
		now:        time.Now,
	}, nil
}

func validateConfig(cfg Config) error {
	var result *multierror.Error
	b := cfg.Binding
	if b.Left == nil && b.Middle == nil && b.Right == nil {
		result = multierror.Append(result, errors.New("at least one of left, middle or right must be bound"))
	}
	if cfg.Mode != ModeToggle && cfg.Mode != ModeHold {
		result = multierror.Append(result, fmt.Errorf("unknown mode %s", cfg.Mode))
	}
	if cfg.Cooldown <= 0 {
		result = multierror.Append(result, fmt.Errorf("cooldown must be > 0, got %s", cfg.Cooldown))
	}
	if cfg.CooldownPR < 0 {
		result = multierror.Append(result, fmt.Errorf("press/release cooldown must be >= 0, got %s", cfg.CooldownPR))
	}
	return result.ErrorOrNil()
}

// Run blocks until ctx is cancelled or a device fails. A device failure is
// returned and is meant to end the process; cancellation returns nil after
// the in-flight click has been released.
func (e *Engine) Run(ctx context.Context) error {
	grabber, _ := e.source.(Grabber)
	if e.cfg.Grab {
		if err := grabber.Grab(true); err != nil {
			if cerr := e.source.Close(); cerr != nil {
				e.logger.Debug("Closing input device failed", "err", cerr)
			}
			return fmt.Errorf("grab input device: %w", err)
		}
	}

	state := e.classifier.InitialState()
	e.queue.Push(state)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return e.readLoop(ctx, state)
	})
	group.Go(func() error {
		return e.emitLoop(ctx)
	})
	group.Go(func() error {
		<-ctx.Done()
		if e.cfg.Grab {
			if err := grabber.Grab(false); err != nil {
				e.logger.Debug("Ungrab failed", "err", err)
			}
		}
		if err := e.source.Close(); err != nil {
			e.logger.Debug("Closing input device failed", "err", err)
		}
		return nil
	})
	return group.Wait()
}

func (e *Engine) readLoop(ctx context.Context, state State) error {
	for {
		events, err := e.source.ReadEvents()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input device: %w", err)
		}

		var passthrough []Event
		for _, event := range events {
			e.logger.Debug("Event", "type", event.Type, "code", event.Code, "value", event.Value)

			next, consumed := e.classifier.Apply(state, event)
			if next != state {
				state = next
				e.queue.Push(state)
			}
			if e.cfg.Grab && !consumed {
				passthrough = append(passthrough, event)
			}
		}

		if len(passthrough) > 0 {
			if err := e.sink.WriteEvents(passthrough...); err != nil {
				return fmt.Errorf("forward events to virtual device: %w", err)
			}
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
