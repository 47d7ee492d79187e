package runner

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/correlator"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/lifecycle"
	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
	"github.com/denizgursoy/cacik-reporter/pkg/sink"
)

// collector acknowledges channel deliveries on its own goroutine.
type collector struct {
	mu       sync.Mutex
	messages []reporter.Message
}

func collect(channel *sink.Channel) *collector {
	c := &collector{}
	go func() {
		for delivery := range channel.Deliveries() {
			c.mu.Lock()
			c.messages = append(c.messages, delivery.Message)
			c.mu.Unlock()
			delivery.Ack()
		}
	}()
	return c
}

func (c *collector) all() []reporter.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]reporter.Message(nil), c.messages...)
}

func (c *collector) uids(event string) []string {
	uids := make([]string, 0)
	for _, message := range c.all() {
		if message.Event == event {
			uids = append(uids, message.UID)
		}
	}
	return uids
}

func (c *collector) children(parent string) []string {
	uids := make([]string, 0)
	for _, message := range c.all() {
		if message.Event == reporter.EventTestStart && message.ParentUID() == parent {
			uids = append(uids, message.UID)
		}
	}
	return uids
}

func newPipeline(t *testing.T) (*Pipeline, *collector) {
	t.Helper()

	channel := sink.NewChannel(256)
	t.Cleanup(channel.Close)
	received := collect(channel)

	return NewPipeline(correlator.New(), reporter.New(channel, "0-0"), cacik.NoopLogger()), received
}

func settled(t *testing.T, pipeline *Pipeline) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pipeline.Settle(ctx))
}

func TestPipeline_Replay(t *testing.T) {
	t.Run("should report a recorded run", func(t *testing.T) {
		file, err := os.Open("testdata/recorded.ndjson")
		require.NoError(t, err)
		defer file.Close()

		pipeline, received := newPipeline(t)

		require.NoError(t, pipeline.Replay(context.Background(), file))
		settled(t, pipeline)

		names := make([]string, 0)
		uids := make([]string, 0)
		for _, message := range received.all() {
			names = append(names, message.Event)
			uids = append(uids, message.UID)
		}
		require.Equal(t, []string{
			reporter.EventSuiteStart,
			reporter.EventSuiteStart,
			reporter.EventTestStart,
			reporter.EventTestPass,
			reporter.EventTestStart,
			reporter.EventTestPass,
			reporter.EventTestStart,
			reporter.EventTestFail,
			reporter.EventSuiteEnd,
			reporter.EventSuiteEnd,
		}, names)
		require.Equal(t, []string{
			"feature123",
			"scenario133",
			"Hook hooks.go:7",
			"Hook hooks.go:7",
			"step-title-passing134",
			"step-title-passing134",
			"step-title-failing135",
			"step-title-failing135",
			"scenario133",
			"feature123",
		}, uids)

		failed := received.all()[7]
		require.Equal(t, "scenario133", failed.ParentUID())
		require.Equal(t, "exception-error", failed.Err.Message)
		require.Equal(t, 3*time.Millisecond, failed.Duration)
		require.Equal(t, 1, pipeline.FailedCount())
	})

	t.Run("should resolve a run recorded with flat document children", func(t *testing.T) {
		file, err := os.Open("testdata/legacy.ndjson")
		require.NoError(t, err)
		defer file.Close()

		pipeline, received := newPipeline(t)

		require.NoError(t, pipeline.Replay(context.Background(), file))
		settled(t, pipeline)

		require.Equal(t, []string{"feature123", "scenario133"}, received.uids(reporter.EventSuiteStart))
		require.Equal(t, []string{"Hook hooks.go:7", "step-title-passing134", "step-title-failing135"}, received.children("scenario133"))
		require.Equal(t, []string{"step-title-failing135"}, received.uids(reporter.EventTestFail))
		require.Equal(t, 1, pipeline.FailedCount())
	})

	t.Run("should return decoding errors", func(t *testing.T) {
		pipeline, _ := newPipeline(t)

		err := pipeline.Replay(context.Background(), strings.NewReader(`{"type":"made-up"}`))

		require.ErrorIs(t, err, events.ErrUnknownEvent)
	})

	t.Run("should return correlation errors", func(t *testing.T) {
		pipeline, _ := newPipeline(t)

		err := pipeline.Replay(context.Background(), strings.NewReader(`{"type":"test-run-finished","result":{"success":true}}`))

		require.ErrorIs(t, err, correlator.ErrLookup)
	})

	t.Run("should stop when the context ends", func(t *testing.T) {
		pipeline, _ := newPipeline(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := pipeline.Replay(ctx, strings.NewReader(`{"type":"test-run-finished"}`))

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipeline_Handle(t *testing.T) {
	t.Run("should not report events that resolve to nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		corr := NewMockCorrelator(ctrl)
		rep := NewMockReporter(ctrl)
		prepared := events.CasePrepared{}
		corr.EXPECT().Handle(prepared).Return(nil, nil)

		require.NoError(t, NewPipeline(corr, rep, nil).Handle(prepared))
	})

	t.Run("should wrap correlation errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		corr := NewMockCorrelator(ctrl)
		rep := NewMockReporter(ctrl)
		started := events.StepStarted{Index: 4}
		corr.EXPECT().Handle(started).Return(nil, &correlator.ResolutionError{Line: 10, Index: 4, Reason: "test case was never prepared"})

		err := NewPipeline(corr, rep, nil).Handle(started)

		require.ErrorIs(t, err, correlator.ErrResolution)
		require.ErrorContains(t, err, string(events.TypeStepStarted))
	})

	t.Run("should wrap reporter errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		corr := NewMockCorrelator(ctrl)
		rep := NewMockReporter(ctrl)
		parsed := events.DocumentParsed{URI: "a.feature"}
		resolved := lifecycle.AfterFeature{URI: "a.feature"}
		reportErr := errors.New("boom")
		corr.EXPECT().Handle(parsed).Return(resolved, nil)
		rep.EXPECT().Handle(resolved).Return(reportErr)

		err := NewPipeline(corr, rep, nil).Handle(parsed)

		require.ErrorIs(t, err, reportErr)
		require.ErrorContains(t, err, string(lifecycle.NameAfterFeature))
	})
}

func TestPipeline_Consume(t *testing.T) {
	t.Run("should return when the input is closed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		corr := NewMockCorrelator(ctrl)
		in := make(chan events.Event, 1)
		in <- events.CasePrepared{}
		close(in)
		corr.EXPECT().Handle(events.CasePrepared{}).Return(nil, nil)

		require.NoError(t, NewPipeline(corr, NewMockReporter(ctrl), nil).Consume(context.Background(), in))
	})

	t.Run("should return when the context ends", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPipeline(NewMockCorrelator(ctrl), NewMockReporter(ctrl), nil).Consume(ctx, make(chan events.Event))

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRun(t *testing.T) {
	t.Run("should report feature files end to end", func(t *testing.T) {
		pipeline, received := newPipeline(t)
		driver := NewDriver(cartSteps(t)).
			WithFeaturesDirectories("testdata/shop").
			WithConfig(&cacik.Config{Tags: "not @wip"})

		require.NoError(t, Run(context.Background(), driver, pipeline))

		require.Equal(t, []string{
			"Shopping cart2",
			"Adding an item7",
			"Adding <count> pears (example 1.1)21",
			"Adding <count> pears (example 1.2)22",
		}, received.uids(reporter.EventSuiteStart))
		require.Equal(t, []string{
			"Adding an item7",
			"Adding <count> pears (example 1.1)21",
			"Adding <count> pears (example 1.2)22",
			"Shopping cart2",
		}, received.uids(reporter.EventSuiteEnd))
		require.Equal(t, []string{"an empty cart5", "I add 2 apples8", "the cart has 2 items9"}, received.children("Adding an item7"))
		require.Equal(t, []string{"an empty cart5", "I add <count> pears16", "the cart has <count> items17"}, received.children("Adding <count> pears (example 1.1)21"))
		require.Len(t, received.uids(reporter.EventTestPass), 9)
		require.Zero(t, pipeline.FailedCount())
	})

	t.Run("should count undefined steps as failures", func(t *testing.T) {
		pipeline, received := newPipeline(t)
		driver := NewDriver(cartSteps(t)).WithFeaturesDirectories("testdata/shop")

		require.NoError(t, Run(context.Background(), driver, pipeline))

		require.Equal(t, 1, pipeline.FailedCount())
		require.Equal(t, []string{"I remove an item13"}, received.uids(reporter.EventTestFail))
	})

	t.Run("should report hooks under every scenario", func(t *testing.T) {
		pipeline, received := newPipeline(t)
		driver := NewDriver(cartSteps(t)).
			WithFeaturesDirectories("testdata/checkout").
			WithHooks(&cacik.Hooks{BeforeScenario: func(cacik.Scenario) error { return nil }})

		require.NoError(t, Run(context.Background(), driver, pipeline))

		paying := received.children("Paying3")
		require.Len(t, paying, 4)
		require.Equal(t, []string{"an empty cart4", "the payment fails5", "the cart has 0 items6"}, paying[1:])
		again := received.children("Paying again8")
		require.Len(t, again, 2)
		require.Equal(t, paying[0], again[0])
		require.Equal(t, []string{"the payment fails5"}, received.uids(reporter.EventTestFail))
		require.Equal(t, []string{"the cart has 0 items6"}, received.uids(reporter.EventTestPending))
		require.Equal(t, 1, pipeline.FailedCount())
	})

	t.Run("should return driver errors", func(t *testing.T) {
		pipeline, _ := newPipeline(t)
		driver := NewDriver(cartSteps(t)).
			WithFeaturesDirectories("testdata/missing")

		require.Error(t, Run(context.Background(), driver, pipeline))
	})
}
