package sink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
	"github.com/stretchr/testify/require"
)

func testMessage(event, uid, parent, title string, duration time.Duration) reporter.Message {
	return reporter.Message{Event: event, Type: reporter.TypeTest, UID: uid, Parent: ptr(parent), Title: title, Duration: duration}
}

func sendAll(t *testing.T, h *HTML, messages ...reporter.Message) int {
	t.Helper()
	acked := 0
	for _, m := range messages {
		require.True(t, h.Send(m, func() { acked++ }))
	}
	return acked
}

func TestHTML(t *testing.T) {
	t.Run("should collect scenarios with their steps", func(t *testing.T) {
		h := NewHTML(&bytes.Buffer{})
		failing := testMessage(reporter.EventTestFail, "I pay5", "Checkout3", "I pay", 2*time.Millisecond)
		failing.Err = &reporter.Error{Message: "card declined"}

		scenario := suiteStart("Checkout3", ptr("Shop1"), "Checkout")
		scenario.Tags = []reporter.Tag{{Name: "@shop"}}

		acked := sendAll(t, h,
			suiteStart("Shop1", nil, "Shop"),
			scenario,
			testMessage(reporter.EventTestPass, "I add4", "Checkout3", "I add", time.Millisecond),
			failing,
			testMessage(reporter.EventTestPending, "I leave6", "Checkout3", "I leave", 0),
			reporter.Message{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "Checkout3", Parent: ptr("Shop1")},
			reporter.Message{Event: reporter.EventSuiteEnd, Type: reporter.TypeSuite, UID: "Shop1"},
		)
		require.Equal(t, 7, acked)

		scenarios := h.Scenarios()
		require.Len(t, scenarios, 1)
		require.Equal(t, "Shop", scenarios[0].FeatureName)
		require.Equal(t, []string{"@shop"}, scenarios[0].Tags)
		require.False(t, scenarios[0].Passed)
		require.Equal(t, 3*time.Millisecond, scenarios[0].Duration)
		require.Equal(t, []StepResult{
			{Text: "I add", Status: StepPassed, Duration: time.Millisecond},
			{Text: "I pay", Status: StepFailed, Error: "card declined", Duration: 2 * time.Millisecond},
			{Text: "I leave", Status: StepSkipped},
		}, scenarios[0].Steps)
	})

	t.Run("should render failed scenarios before passed ones", func(t *testing.T) {
		out := &bytes.Buffer{}
		h := NewHTML(out)
		failing := testMessage(reporter.EventTestFail, "broken3", "Bad2", "it <breaks>", 0)
		failing.Err = &reporter.Error{Message: "boom & bust"}

		sendAll(t, h,
			suiteStart("Shop1", nil, "Shop"),
			suiteStart("Good1", ptr("Shop1"), "Good"),
			testMessage(reporter.EventTestPass, "works2", "Good1", "it works", 0),
			reporter.Message{Event: reporter.EventSuiteEnd, UID: "Good1", Parent: ptr("Shop1")},
			suiteStart("Bad2", ptr("Shop1"), "Bad"),
			failing,
			reporter.Message{Event: reporter.EventSuiteEnd, UID: "Bad2", Parent: ptr("Shop1")},
			reporter.Message{Event: reporter.EventSuiteEnd, UID: "Shop1"},
		)
		require.NoError(t, h.Close())

		report := out.String()
		require.Contains(t, report, "<h1>Cucumber Report</h1>")
		require.Contains(t, report, "summary has-failures")
		require.Contains(t, report, "boom &amp; bust")
		require.Contains(t, report, `<span class="step-param" style="color:#5C92FF">&lt;breaks&gt;</span>`)
		require.Less(t, strings.Index(report, "Failed Scenarios"), strings.Index(report, "Passed Scenarios"))
	})

	t.Run("should reject messages after close", func(t *testing.T) {
		out := &bytes.Buffer{}
		h := NewHTML(out)
		require.NoError(t, h.Close())
		require.Contains(t, out.String(), "No scenarios were executed.")

		written := out.Len()
		require.NoError(t, h.Close())
		require.Equal(t, written, out.Len())
		require.False(t, h.Send(suiteStart("Shop1", nil, "Shop"), func() {}))
	})
}

func TestGroupByTags(t *testing.T) {
	t.Run("should sort tag groups and put untagged scenarios last", func(t *testing.T) {
		groups := groupByTags([]ScenarioResult{
			{Name: "plain"},
			{Name: "b", Tags: []string{"@smoke", "@cart"}},
			{Name: "a", Tags: []string{"@api"}},
			{Name: "c", Tags: []string{"@cart", "@smoke"}},
		})

		labels := make([]string, 0, len(groups))
		for _, g := range groups {
			labels = append(labels, g.TagLabel)
		}
		require.Equal(t, []string{"@api", "@cart, @smoke", "Untagged"}, labels)
		require.Equal(t, 2, groups[1].Count)
	})
}

func TestColorizeStepText(t *testing.T) {
	t.Run("should escape text without placeholders", func(t *testing.T) {
		got := colorizeStepText(StepResult{Text: "a & b", Status: StepPassed})
		require.Equal(t, `<span class="step-text passed">a &amp; b</span>`, string(got))
	})

	t.Run("should render skipped placeholders in the skipped color", func(t *testing.T) {
		got := colorizeStepText(StepResult{Text: "buy <n>", Status: StepSkipped})
		require.Equal(t, `<span class="step-text skipped">buy </span><span class="step-text skipped">&lt;n&gt;</span>`, string(got))
	})
}
