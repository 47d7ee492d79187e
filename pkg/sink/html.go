package sink

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
)

// StepStatus is the outcome of a step in the HTML report.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StepResult is a test message as shown in the HTML report.
type StepResult struct {
	Text     string
	Status   StepStatus
	Error    string
	Duration time.Duration
}

// ScenarioResult collects the steps reported under one scenario suite.
type ScenarioResult struct {
	FeatureName string
	Name        string
	Tags        []string
	Passed      bool
	Duration    time.Duration
	Steps       []StepResult
}

// tagGroup holds scenarios sharing the same tag combination.
type tagGroup struct {
	TagLabel  string
	Count     int
	Duration  time.Duration
	Scenarios []ScenarioResult
}

// statusSection is the failed or passed part of the report.
type statusSection struct {
	Label     string
	CSSClass  string
	Count     int
	Duration  time.Duration
	TagGroups []tagGroup
}

type reportData struct {
	Summary       Summary
	TotalDuration time.Duration
	ExecutedAt    time.Time
	Sections      []statusSection
}

// HTML collects the message stream and renders a self-contained report
// on Close. Messages are acknowledged as soon as they are recorded.
type HTML struct {
	writer io.Writer

	mu         sync.Mutex
	closed     bool
	startedAt  time.Time
	features   map[string]string
	open       map[string]*ScenarioResult
	scenarios  []ScenarioResult
	summary    Summary
	stepsTotal time.Duration
}

func NewHTML(w io.Writer) *HTML {
	return &HTML{
		writer:   w,
		features: make(map[string]string),
		open:     make(map[string]*ScenarioResult),
	}
}

func (h *HTML) Send(message reporter.Message, ack func()) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	if h.startedAt.IsZero() {
		h.startedAt = time.Now()
	}
	h.record(message)
	h.mu.Unlock()

	ack()
	return true
}

func (h *HTML) record(message reporter.Message) {
	switch message.Event {
	case reporter.EventSuiteStart:
		if message.Parent == nil {
			h.features[message.UID] = message.Title
			return
		}
		tags := make([]string, 0, len(message.Tags))
		for _, tag := range message.Tags {
			tags = append(tags, tag.Name)
		}
		h.open[message.UID] = &ScenarioResult{
			FeatureName: h.features[message.ParentUID()],
			Name:        message.Title,
			Tags:        tags,
			Passed:      true,
		}
	case reporter.EventSuiteEnd:
		scenario, ok := h.open[message.UID]
		if !ok {
			return
		}
		delete(h.open, message.UID)
		h.summary.ScenariosTotal++
		if scenario.Passed {
			h.summary.ScenariosPassed++
		} else {
			h.summary.ScenariosFailed++
		}
		h.scenarios = append(h.scenarios, *scenario)
	case reporter.EventTestPass:
		h.addStep(message, StepPassed)
	case reporter.EventTestFail:
		h.addStep(message, StepFailed)
	case reporter.EventTestPending:
		h.addStep(message, StepSkipped)
	}
}

func (h *HTML) addStep(message reporter.Message, status StepStatus) {
	h.summary.StepsTotal++
	switch status {
	case StepPassed:
		h.summary.StepsPassed++
	case StepFailed:
		h.summary.StepsFailed++
	case StepSkipped:
		h.summary.StepsSkipped++
	}
	h.stepsTotal += message.Duration

	scenario, ok := h.open[message.ParentUID()]
	if !ok {
		return
	}
	step := StepResult{Text: stepTitle(message), Status: status, Duration: message.Duration}
	if message.Err != nil {
		step.Error = message.Err.Message
	}
	if status == StepFailed {
		scenario.Passed = false
	}
	scenario.Duration += message.Duration
	scenario.Steps = append(scenario.Steps, step)
}

// Scenarios returns the scenarios whose suite has ended.
func (h *HTML) Scenarios() []ScenarioResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ScenarioResult(nil), h.scenarios...)
}

// Close stops accepting messages and writes the report. Scenarios whose
// suite never ended are left out. Calling Close again does nothing.
func (h *HTML) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"statusClass":      func(s StepStatus) string { return s.String() },
		"colorizeStepText": colorizeStepText,
		"summaryClass":     summaryClass,
		"statusSymbol":     statusSymbol,
		"formatDuration":   formatDuration,
		"formatTime":       formatTime,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("could not parse HTML template: %w", err)
	}

	data := buildReportData(h.scenarios, h.summary, h.stepsTotal, h.startedAt)
	if err := tmpl.Execute(h.writer, data); err != nil {
		return fmt.Errorf("could not render HTML report: %w", err)
	}
	return nil
}

func sumDurations(scenarios []ScenarioResult) time.Duration {
	var total time.Duration
	for _, s := range scenarios {
		total += s.Duration
	}
	return total
}

// buildReportData puts failed scenarios first, then passed ones, each
// grouped by tag set.
func buildReportData(scenarios []ScenarioResult, summary Summary, total time.Duration, startedAt time.Time) reportData {
	failed := make([]ScenarioResult, 0)
	passed := make([]ScenarioResult, 0)
	for _, s := range scenarios {
		if s.Passed {
			passed = append(passed, s)
		} else {
			failed = append(failed, s)
		}
	}

	var sections []statusSection
	if len(failed) > 0 {
		sections = append(sections, statusSection{
			Label:     "Failed Scenarios",
			CSSClass:  "failed",
			Count:     len(failed),
			Duration:  sumDurations(failed),
			TagGroups: groupByTags(failed),
		})
	}
	if len(passed) > 0 {
		sections = append(sections, statusSection{
			Label:     "Passed Scenarios",
			CSSClass:  "passed",
			Count:     len(passed),
			Duration:  sumDurations(passed),
			TagGroups: groupByTags(passed),
		})
	}

	return reportData{
		Summary:       summary,
		TotalDuration: total,
		ExecutedAt:    startedAt,
		Sections:      sections,
	}
}

// groupByTags groups scenarios by their sorted tag set. Untagged scenarios
// come last.
func groupByTags(scenarios []ScenarioResult) []tagGroup {
	groups := make(map[string][]ScenarioResult)
	for _, s := range scenarios {
		key := tagKey(s.Tags)
		groups[key] = append(groups[key], s)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]tagGroup, 0, len(keys))
	var untagged *tagGroup
	for _, k := range keys {
		scenarios := groups[k]
		tg := tagGroup{TagLabel: k, Count: len(scenarios), Duration: sumDurations(scenarios), Scenarios: scenarios}
		if k == untaggedLabel {
			untagged = &tg
		} else {
			result = append(result, tg)
		}
	}
	if untagged != nil {
		result = append(result, *untagged)
	}
	return result
}

const untaggedLabel = "Untagged"

func tagKey(tags []string) string {
	if len(tags) == 0 {
		return untaggedLabel
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// htmlParamColors match the console parameter palette.
var htmlParamColors = []string{
	"#5C92FF", // bright blue
	"#00CED1", // cyan
	"#E5C07B", // gold
	"#C0A0FF", // lavender
	"#98C379", // lime
	"#56B6C2", // teal
	"#E06C75", // rose
	"#D19A66", // amber
}

// colorizeStepText returns escaped step text with every <placeholder>
// wrapped in a colored span. Skipped steps are rendered in one color.
func colorizeStepText(step StepResult) template.HTML {
	statusCls := step.Status.String()
	plain := func(s string) string {
		return fmt.Sprintf(`<span class="step-text %s">%s</span>`, statusCls, html.EscapeString(s))
	}

	var b strings.Builder
	text := step.Text
	cursor := 0
	paramIdx := 0
	for {
		start := strings.Index(text[cursor:], "<")
		if start < 0 {
			break
		}
		start += cursor
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		end += start + 1

		if cursor < start {
			b.WriteString(plain(text[cursor:start]))
		}
		if step.Status == StepSkipped {
			b.WriteString(fmt.Sprintf(`<span class="step-text skipped">%s</span>`, html.EscapeString(text[start:end])))
		} else {
			hex := htmlParamColors[paramIdx%len(htmlParamColors)]
			b.WriteString(fmt.Sprintf(`<span class="step-param" style="color:%s">%s</span>`, hex, html.EscapeString(text[start:end])))
		}
		paramIdx++
		cursor = end
	}
	if cursor < len(text) || cursor == 0 {
		b.WriteString(plain(text[cursor:]))
	}
	return template.HTML(b.String())
}

func summaryClass(failed int) string {
	if failed > 0 {
		return "has-failures"
	}
	return "all-passed"
}

func statusSymbol(s StepStatus) string {
	switch s {
	case StepPassed:
		return symbolPass
	case StepFailed:
		return symbolFail
	case StepSkipped:
		return "–"
	default:
		return "?"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	}
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Cucumber Report</title>
<style>
body { font: 14px/1.5 system-ui, sans-serif; margin: 0; padding: 24px; background: #fafafa; color: #222; }
h1 { font-size: 20px; margin: 0 0 4px; }
.meta { color: #888; font-size: 12px; margin-bottom: 16px; }
.summary { display: grid; grid-template-columns: repeat(8, minmax(80px, 1fr)); gap: 8px; padding: 12px; border-radius: 8px; background: #fff; margin-bottom: 24px; }
.summary.all-passed { outline: 2px solid #2f9e44; }
.summary.has-failures { outline: 2px solid #e03131; }
.summary b { display: block; font-size: 22px; }
.summary span { font-size: 11px; text-transform: uppercase; color: #888; }
.ok { color: #2f9e44; } .ko { color: #e03131; } .skip { color: #f08c00; }
h2 { font-size: 16px; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
h2.failed { color: #e03131; } h2.passed { color: #2f9e44; }
h3 { font-size: 13px; color: #555; margin: 12px 0 6px; }
h3 small, h2 small { font-weight: normal; color: #888; }
details { background: #fff; border: 1px solid #eee; border-left: 4px solid #ccc; border-radius: 6px; margin-bottom: 6px; }
details.passed { border-left-color: #69db7c; } details.failed { border-left-color: #ff6b6b; }
summary { padding: 6px 12px; cursor: pointer; display: flex; justify-content: space-between; }
.feature { color: #666; font-size: 12px; margin-right: 8px; }
.tag { background: #eee; border-radius: 4px; padding: 0 6px; font-size: 11px; margin-left: 4px; }
.steps { background: #1e1f22; padding: 8px 12px; font: 13px monospace; border-radius: 0 0 6px 0; }
.step { display: flex; gap: 8px; }
.step-symbol.passed { color: #32cd32; } .step-symbol.failed { color: #ff4444; } .step-symbol.skipped { color: #e6b800; }
.step-text { color: #bcbec4; } .step-text.skipped { color: #6f737a; }
.step-param { font-weight: 600; }
.step-duration { margin-left: auto; color: #6f737a; font-size: 11px; }
.step-error { color: #ff4444; background: #2c1a1a; white-space: pre-wrap; padding: 4px 8px; margin: 2px 0 2px 20px; }
.empty { color: #888; font-style: italic; }
</style>
</head>
<body>
<h1>Cucumber Report</h1>
{{if not .ExecutedAt.IsZero}}<div class="meta">Executed at {{formatTime .ExecutedAt}}</div>{{end}}
<div class="summary {{summaryClass .Summary.ScenariosFailed}}">
  <div><b>{{.Summary.ScenariosTotal}}</b><span>Scenarios</span></div>
  <div><b class="ok">{{.Summary.ScenariosPassed}}</b><span>Passed</span></div>
  <div><b class="ko">{{.Summary.ScenariosFailed}}</b><span>Failed</span></div>
  <div><b>{{.Summary.StepsTotal}}</b><span>Steps</span></div>
  <div><b class="ok">{{.Summary.StepsPassed}}</b><span>Steps Passed</span></div>
  <div><b class="ko">{{.Summary.StepsFailed}}</b><span>Steps Failed</span></div>
  <div><b class="skip">{{.Summary.StepsSkipped}}</b><span>Steps Skipped</span></div>
  <div><b>{{formatDuration .TotalDuration}}</b><span>Duration</span></div>
</div>
{{range .Sections}}
<h2 class="{{.CSSClass}}">{{.Label}} <small>{{.Count}} scenarios, {{formatDuration .Duration}}</small></h2>
{{range .TagGroups}}
<h3># {{.TagLabel}} <small>({{.Count}} scenarios, {{formatDuration .Duration}})</small></h3>
{{range .Scenarios}}
{{if .Passed}}<details class="passed">{{else}}<details class="failed" open>{{end}}
  <summary><span><span class="feature">{{.FeatureName}}</span><strong>{{.Name}}</strong>{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</span><span>{{formatDuration .Duration}}</span></summary>
  <div class="steps">
  {{range .Steps}}
    <div class="step"><span class="step-symbol {{statusClass .Status}}">{{statusSymbol .Status}}</span>{{colorizeStepText .}}<span class="step-duration">{{formatDuration .Duration}}</span></div>
    {{if .Error}}<div class="step-error">{{.Error}}</div>{{end}}
  {{end}}
  </div>
</details>
{{end}}
{{end}}
{{else}}
<p class="empty">No scenarios were executed.</p>
{{end}}
</body>
</html>
`
