package cacik

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortHooks(t *testing.T) {
	t.Run("should sort hooks by Order ascending", func(t *testing.T) {
		sorted := SortHooks([]*Hooks{{Order: 3}, {Order: 1}, {Order: 2}})

		require.Equal(t, 1, sorted[0].Order)
		require.Equal(t, 2, sorted[1].Order)
		require.Equal(t, 3, sorted[2].Order)
	})

	t.Run("should keep registration order for equal Order values", func(t *testing.T) {
		var callOrder []string
		h1 := &Hooks{BeforeAll: func() { callOrder = append(callOrder, "first") }}
		h2 := &Hooks{BeforeAll: func() { callOrder = append(callOrder, "second") }}

		NewHookExecutor(h1, h2).ExecuteBeforeAll()

		require.Equal(t, []string{"first", "second"}, callOrder)
	})

	t.Run("should not modify original slice", func(t *testing.T) {
		original := []*Hooks{{Order: 2}, {Order: 1}}

		sorted := SortHooks(original)

		require.Equal(t, 2, original[0].Order)
		require.Equal(t, 1, sorted[0].Order)
	})
}

func TestHookExecutor_All(t *testing.T) {
	t.Run("should ignore nil hooks", func(t *testing.T) {
		var count int
		exec := NewHookExecutor(nil, &Hooks{BeforeAll: func() { count++ }}, nil)

		exec.ExecuteBeforeAll()

		require.Equal(t, 1, count)
	})

	t.Run("should run AfterAll hooks in order", func(t *testing.T) {
		var order []int
		exec := NewHookExecutor(
			&Hooks{Order: 2, AfterAll: func() { order = append(order, 2) }},
			&Hooks{Order: 1, AfterAll: func() { order = append(order, 1) }},
			&Hooks{Order: 3},
		)

		exec.ExecuteAfterAll()

		require.Equal(t, []int{1, 2}, order)
	})
}

func TestHookExecutor_ScenarioActions(t *testing.T) {
	t.Run("should return one action per BeforeScenario hook in order", func(t *testing.T) {
		var order []string
		exec := NewHookExecutor(
			&Hooks{Order: 2, BeforeScenario: func(s Scenario) error { order = append(order, "second:"+s.Name); return nil }},
			&Hooks{Order: 1, BeforeScenario: func(s Scenario) error { order = append(order, "first:"+s.Name); return nil }},
			&Hooks{Order: 0, AfterAll: func() {}},
		)

		actions := exec.BeforeScenarioActions()
		require.Len(t, actions, 2)
		for _, action := range actions {
			require.NoError(t, action.Run(Scenario{Name: "login"}, nil))
			require.True(t, strings.HasSuffix(action.Location.URI, "hooks_test.go"))
			require.Positive(t, action.Location.Line)
		}

		require.Equal(t, []string{"first:login", "second:login"}, order)
	})

	t.Run("should pass the scenario error to AfterScenario hooks", func(t *testing.T) {
		var received error
		exec := NewHookExecutor(&Hooks{AfterScenario: func(s Scenario, err error) error {
			received = err
			return nil
		}})

		actions := exec.AfterScenarioActions()
		require.Len(t, actions, 1)

		stepErr := errors.New("step failed: expected 200 got 500")
		require.NoError(t, actions[0].Run(Scenario{Name: "failing"}, stepErr))
		require.Equal(t, stepErr, received)
	})

	t.Run("should return hook errors", func(t *testing.T) {
		exec := NewHookExecutor(&Hooks{BeforeScenario: func(Scenario) error {
			return errors.New("database is down")
		}})

		err := exec.BeforeScenarioActions()[0].Run(Scenario{}, nil)

		require.EqualError(t, err, "database is down")
	})

	t.Run("should turn panics into errors", func(t *testing.T) {
		exec := NewHookExecutor(&Hooks{AfterScenario: func(Scenario, error) error {
			panic("boom")
		}})

		err := exec.AfterScenarioActions()[0].Run(Scenario{}, nil)

		require.ErrorContains(t, err, "hook panicked: boom")
	})

	t.Run("should return no actions without scenario hooks", func(t *testing.T) {
		exec := NewHookExecutor(&Hooks{BeforeStep: func(Step) {}})

		require.Empty(t, exec.BeforeScenarioActions())
		require.Empty(t, exec.AfterScenarioActions())
	})
}

func TestHookExecutor_Steps(t *testing.T) {
	t.Run("should pass the step to BeforeStep hooks in order", func(t *testing.T) {
		var received []Step
		exec := NewHookExecutor(
			&Hooks{Order: 2, BeforeStep: func(s Step) { received = append(received, Step{Text: "2:" + s.Text}) }},
			&Hooks{Order: 1, BeforeStep: func(s Step) { received = append(received, s) }},
		)

		step := Step{Keyword: "Given ", Text: "the user is logged in", Line: 10}
		exec.ExecuteBeforeStep(step)

		require.Equal(t, []Step{step, {Text: "2:the user is logged in"}}, received)
	})

	t.Run("should pass the step error to AfterStep hooks", func(t *testing.T) {
		var receivedStep Step
		var receivedErr error
		exec := NewHookExecutor(&Hooks{AfterStep: func(s Step, err error) {
			receivedStep = s
			receivedErr = err
		}})

		stepErr := errors.New("assertion failed: expected 200 got 500")
		exec.ExecuteAfterStep(Step{Keyword: "Then ", Text: "the status is 200"}, stepErr)

		require.Equal(t, "the status is 200", receivedStep.Text)
		require.Equal(t, stepErr, receivedErr)
	})

	t.Run("should skip hooks without step functions", func(t *testing.T) {
		exec := NewHookExecutor(&Hooks{BeforeAll: func() {}})

		exec.ExecuteBeforeStep(Step{Text: "x"})
		exec.ExecuteAfterStep(Step{Text: "x"}, nil)
	})
}
