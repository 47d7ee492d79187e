package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
)

// subscriberBuffer is the number of runner events queued between the driver
// and the pipeline.
const subscriberBuffer = 64

// Pipeline feeds runner events through the correlator into the reporter.
// Events are handled one at a time.
type Pipeline struct {
	correlator Correlator
	reporter   Reporter
	logger     cacik.Logger
}

func NewPipeline(correlator Correlator, reporter Reporter, logger cacik.Logger) *Pipeline {
	if logger == nil {
		logger = cacik.NoopLogger()
	}
	return &Pipeline{
		correlator: correlator,
		reporter:   reporter,
		logger:     logger,
	}
}

// Handle correlates one runner event and reports the lifecycle event it
// resolves to.
func (p *Pipeline) Handle(event events.Event) error {
	resolved, err := p.correlator.Handle(event)
	if err != nil {
		return fmt.Errorf("could not correlate %s: %w", event.EventType(), err)
	}
	if resolved == nil {
		return nil
	}
	p.logger.Debug("lifecycle event", "name", resolved.LifecycleName())

	if err := p.reporter.Handle(resolved); err != nil {
		return fmt.Errorf("could not report %s: %w", resolved.LifecycleName(), err)
	}
	return nil
}

// Consume handles events until in is closed, ctx ends or an event fails.
func (p *Pipeline) Consume(ctx context.Context, in <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.Handle(event); err != nil {
				return err
			}
		}
	}
}

// Replay handles every event of a recorded stream in order.
func (p *Pipeline) Replay(ctx context.Context, r io.Reader) error {
	decoder := events.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.Handle(event); err != nil {
			return err
		}
	}
}

// Settle blocks until the reporter's sink acknowledged every message.
func (p *Pipeline) Settle(ctx context.Context) error {
	return p.reporter.WaitUntilSettled(ctx)
}

// FailedCount is the number of failed tests reported so far.
func (p *Pipeline) FailedCount() int {
	return p.reporter.FailedCount()
}

// Run executes the driver and the pipeline concurrently, connected through a
// Broadcaster, and waits until every reported message is settled.
func Run(ctx context.Context, driver *Driver, pipeline *Pipeline) error {
	broadcaster := events.NewBroadcaster()
	in := broadcaster.Subscribe(subscriberBuffer)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer broadcaster.Close()
		return driver.Run(groupCtx, broadcaster)
	})
	group.Go(func() error {
		return pipeline.Consume(groupCtx, in)
	})

	if err := group.Wait(); err != nil {
		return err
	}
	return pipeline.Settle(ctx)
}
