package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/denizgursoy/cacik-reporter/pkg/correlator"
	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
	"github.com/denizgursoy/cacik-reporter/pkg/sink"
)

// ErrTestsFailed is returned when at least one test failed.
var ErrTestsFailed = errors.New("tests failed")

// Execute runs the driver into a console sink writing to w and prints the
// summary at the end. The driver config decides coloring, and DisableReporter
// discards the console output while failures are still counted.
func Execute(ctx context.Context, driver *Driver, w io.Writer) error {
	config := driver.config
	logger := config.EffectiveLogger()
	if config.DisableReporter {
		w = io.Discard
	}

	console := sink.NewConsole(w, config.NoColor)
	rep := reporter.New(console, "0-0", reporter.WithLogger(logger))
	pipeline := NewPipeline(correlator.New(correlator.WithLogger(logger)), rep, logger)

	if err := Run(ctx, driver, pipeline); err != nil {
		return err
	}
	console.PrintSummary()

	if failed := pipeline.FailedCount(); failed > 0 {
		return fmt.Errorf("%w: %d", ErrTestsFailed, failed)
	}
	return nil
}
