package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
)

func TestExecute(t *testing.T) {
	t.Run("should print the tree and the summary", func(t *testing.T) {
		out := &bytes.Buffer{}
		driver := NewDriver(cartSteps(t)).
			WithFeaturesDirectories("testdata/shop").
			WithConfig(&cacik.Config{Tags: "not @wip", NoColor: true})

		require.NoError(t, Execute(context.Background(), driver, out))

		require.Contains(t, out.String(), "Feature: Shopping cart")
		require.Contains(t, out.String(), "Scenario: Adding an item")
		require.Contains(t, out.String(), "3 scenario(s) (3 passed)")
		require.Contains(t, out.String(), "9 step(s) (9 passed)")
	})

	t.Run("should return failures even when the console is disabled", func(t *testing.T) {
		out := &bytes.Buffer{}
		driver := NewDriver(cartSteps(t)).
			WithFeaturesDirectories("testdata/checkout").
			WithConfig(&cacik.Config{DisableReporter: true})

		err := Execute(context.Background(), driver, out)

		require.ErrorIs(t, err, ErrTestsFailed)
		require.ErrorContains(t, err, ": 1")
		require.Empty(t, out.String())
	})
}
