package events

import (
	"context"
	"errors"

	"github.com/Emmyblinks655/taskpay-rewards/internal/metrics"
)

// Multi fans an event out to every publisher and records the outcome.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		metrics.RecordEvent(e.Type, "error")
		return errors.Join(errs...)
	}
	metrics.RecordEvent(e.Type, "ok")
	return nil
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
