//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=runner
package runner

import (
	"context"

	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/executor"
	"github.com/denizgursoy/cacik-reporter/pkg/lifecycle"
)

type (
	Executor interface {
		Match(text string) []*executor.StepDefinition
		Run(ctx context.Context, text string) (context.Context, events.Result)
	}

	Correlator interface {
		Handle(event events.Event) (lifecycle.Event, error)
	}

	Reporter interface {
		Handle(event lifecycle.Event) error
		WaitUntilSettled(ctx context.Context) error
		FailedCount() int
	}

	Publisher interface {
		Publish(ctx context.Context, event events.Event) error
	}
)
