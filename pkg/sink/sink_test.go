package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
	"github.com/stretchr/testify/require"
)

func suiteStart(uid string, parent *string, title string) reporter.Message {
	return reporter.Message{Event: reporter.EventSuiteStart, Type: reporter.TypeSuite, UID: uid, Parent: parent, Title: title, Tags: []reporter.Tag{}}
}

func ptr(s string) *string {
	return &s
}

func TestNDJSON(t *testing.T) {
	t.Run("should write one json line per message and acknowledge it", func(t *testing.T) {
		out := &bytes.Buffer{}
		s := NewNDJSON(out, 4)
		var acked atomic.Int32

		require.True(t, s.Send(suiteStart("feature123", nil, "feature"), func() { acked.Add(1) }))
		require.True(t, s.Send(suiteStart("scenario133", ptr("feature123"), "scenario"), func() { acked.Add(1) }))
		require.NoError(t, s.Close())

		require.Equal(t, int32(2), acked.Load())
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
		require.Equal(t, "scenario133", decoded["uid"])
		require.Equal(t, "feature123", decoded["parent"])
	})

	t.Run("should reject messages after close", func(t *testing.T) {
		s := NewNDJSON(&bytes.Buffer{}, 1)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		require.False(t, s.Send(suiteStart("feature1", nil, "feature"), func() {}))
	})
}

func TestChannel(t *testing.T) {
	t.Run("should hand messages to the consumer with their ack", func(t *testing.T) {
		s := NewChannel(2)
		acked := false

		require.True(t, s.Send(suiteStart("feature123", nil, "feature"), func() { acked = true }))

		delivery := <-s.Deliveries()
		require.Equal(t, "feature123", delivery.Message.UID)
		delivery.Ack()
		require.True(t, acked)
	})

	t.Run("should reject messages when the buffer is full", func(t *testing.T) {
		s := NewChannel(1)
		require.True(t, s.Send(suiteStart("a1", nil, "a"), func() {}))
		require.False(t, s.Send(suiteStart("b1", nil, "b"), func() {}))
	})

	t.Run("should reject messages after close", func(t *testing.T) {
		s := NewChannel(1)
		s.Close()
		s.Close()
		require.False(t, s.Send(suiteStart("a1", nil, "a"), func() {}))

		_, ok := <-s.Deliveries()
		require.False(t, ok)
	})
}

func TestConsole(t *testing.T) {
	t.Run("should render the tree and count outcomes", func(t *testing.T) {
		out := &bytes.Buffer{}
		s := NewConsole(out, true)
		acks := 0
		ack := func() { acks++ }

		stream := []reporter.Message{
			suiteStart("feature123", nil, "feature"),
			suiteStart("scenario133", ptr("feature123"), "scenario"),
			{Event: reporter.EventTestStart, Type: reporter.TypeTest, UID: "step-title-passing134", Parent: ptr("scenario133"), Title: "step-title-passing"},
			{Event: reporter.EventTestPass, Type: reporter.TypeTest, UID: "step-title-passing134", Parent: ptr("scenario133"), Title: "step-title-passing"},
			{Event: reporter.EventTestFail, Type: reporter.TypeTest, UID: "step-title-failing135", Parent: ptr("scenario133"), Title: "step-title-failing", Err: &reporter.Error{Message: "exception-error"}},
			{Event: reporter.EventTestPending, Type: reporter.TypeTest, UID: "10", Parent: ptr("scenario133")},
			{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "scenario133", Parent: ptr("feature123")},
			suiteStart("other140", ptr("feature123"), "other <value>"),
			{Event: reporter.EventTestPass, Type: reporter.TypeTest, UID: "141", Parent: ptr("other140")},
			{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "other140", Parent: ptr("feature123")},
			{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "feature123"},
		}
		for _, message := range stream {
			require.True(t, s.Send(message, ack))
		}

		require.Equal(t, len(stream), acks)
		require.Equal(t, Summary{
			ScenariosTotal:  2,
			ScenariosPassed: 1,
			ScenariosFailed: 1,
			StepsTotal:      4,
			StepsPassed:     2,
			StepsFailed:     1,
			StepsSkipped:    1,
		}, s.Summary())

		rendered := out.String()
		require.Contains(t, rendered, "Feature: feature")
		require.Contains(t, rendered, "  Scenario: scenario")
		require.Contains(t, rendered, "Scenario: other <value>")
		require.Contains(t, rendered, "step-title-passing")
		require.Contains(t, rendered, symbolPass)
		require.Contains(t, rendered, symbolFail)
		require.Contains(t, rendered, "      exception-error")
		require.Contains(t, rendered, "Hook")
		require.NotContains(t, rendered, "\033[")
	})

	t.Run("should print the summary", func(t *testing.T) {
		out := &bytes.Buffer{}
		s := NewConsole(out, true)
		require.True(t, s.Send(suiteStart("scenario1", ptr("feature1"), "scenario"), func() {}))
		require.True(t, s.Send(reporter.Message{Event: reporter.EventTestFail, Type: reporter.TypeTest, Parent: ptr("scenario1"), Title: "step"}, func() {}))
		require.True(t, s.Send(reporter.Message{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "scenario1", Parent: ptr("feature1")}, func() {}))

		out.Reset()
		s.PrintSummary()
		require.Equal(t, "\n1 scenario(s) (1 failed)\n1 step(s) (1 failed)\n", out.String())
	})
}
