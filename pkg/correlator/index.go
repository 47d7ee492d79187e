package correlator

import (
	"strings"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/lifecycle"
)

type position struct {
	uri  string
	line int64
}

// document is a parsed source together with the position indexes built for
// it and the prepared cases seen for it.
type document struct {
	uri      string
	gherkin  *messages.GherkinDocument
	units    map[int64]*lifecycle.Unit
	steps    map[position]*lifecycle.Step
	rows     map[position]*lifecycle.Step
	prepared map[int64]events.CasePrepared
	// materialized holds units whose hooks were already spliced in.
	materialized map[*lifecycle.Unit]bool
}

func newDocument(uri string, gherkin *messages.GherkinDocument) *document {
	d := &document{
		uri:          uri,
		gherkin:      gherkin,
		units:        make(map[int64]*lifecycle.Unit),
		steps:        make(map[position]*lifecycle.Step),
		rows:         make(map[position]*lifecycle.Step),
		prepared:     make(map[int64]events.CasePrepared),
		materialized: make(map[*lifecycle.Unit]bool),
	}
	if gherkin != nil && gherkin.Feature != nil {
		d.indexChildren(gherkin.Feature.Children)
	}
	return d
}

func (d *document) feature() *messages.Feature {
	if d.gherkin == nil {
		return nil
	}
	return d.gherkin.Feature
}

func (d *document) indexChildren(children []*messages.FeatureChild) {
	// Direct children first so that an example row never shadows one.
	rows := make([]*lifecycle.Unit, 0)
	for _, child := range children {
		switch {
		case child.Background != nil:
			d.indexBackground(child.Background)
		case child.Scenario != nil:
			rows = append(rows, d.indexScenario(child.Scenario)...)
		case child.Rule != nil:
			for _, ruleChild := range child.Rule.Children {
				if ruleChild.Background != nil {
					d.indexBackground(ruleChild.Background)
				}
				if ruleChild.Scenario != nil {
					rows = append(rows, d.indexScenario(ruleChild.Scenario)...)
				}
			}
		}
	}
	for _, row := range rows {
		d.addUnit(row)
	}
}

func (d *document) indexBackground(background *messages.Background) {
	steps := d.indexSteps(background.Steps)
	d.addUnit(&lifecycle.Unit{
		Kind:       lifecycle.UnitBackground,
		Line:       line(background.Location),
		Name:       background.Name,
		Keyword:    background.Keyword,
		Steps:      steps,
		Background: background,
	})
}

// indexScenario registers the scenario and returns one unit per example row
// for outlines.
func (d *document) indexScenario(scenario *messages.Scenario) []*lifecycle.Unit {
	steps := d.indexSteps(scenario.Steps)
	d.addUnit(&lifecycle.Unit{
		Kind:     lifecycle.UnitScenario,
		Line:     line(scenario.Location),
		Name:     scenario.Name,
		Keyword:  scenario.Keyword,
		Tags:     scenario.Tags,
		Steps:    steps,
		Scenario: scenario,
	})

	rows := make([]*lifecycle.Unit, 0)
	for i, examples := range scenario.Examples {
		tags := make([]*messages.Tag, 0, len(scenario.Tags)+len(examples.Tags))
		tags = append(tags, scenario.Tags...)
		tags = append(tags, examples.Tags...)

		for j, row := range examples.TableBody {
			rowLine := line(row.Location)
			d.rows[position{uri: d.uri, line: rowLine}] = &lifecycle.Step{
				Kind: lifecycle.StepExampleRow,
				URI:  d.uri,
				Line: rowLine,
				Text: rowText(row),
				Row:  row,
			}
			rows = append(rows, &lifecycle.Unit{
				Kind:         lifecycle.UnitExampleRow,
				Line:         rowLine,
				Name:         scenario.Name,
				Keyword:      scenario.Keyword,
				Tags:         tags,
				Steps:        append([]*lifecycle.Step(nil), steps...),
				Scenario:     scenario,
				Examples:     examples,
				Row:          row,
				ExampleIndex: i + 1,
				RowIndex:     j + 1,
			})
		}
	}
	return rows
}

func (d *document) indexSteps(declared []*messages.Step) []*lifecycle.Step {
	steps := make([]*lifecycle.Step, 0, len(declared))
	for _, s := range declared {
		step := &lifecycle.Step{
			Kind:    lifecycle.StepDeclared,
			URI:     d.uri,
			Line:    line(s.Location),
			Keyword: s.Keyword,
			Text:    s.Text,
			Source:  s,
		}
		pos := position{uri: d.uri, line: step.Line}
		if _, ok := d.steps[pos]; !ok {
			d.steps[pos] = step
		}
		steps = append(steps, step)
	}
	return steps
}

func (d *document) addUnit(unit *lifecycle.Unit) {
	if _, ok := d.units[unit.Line]; ok {
		return
	}
	d.units[unit.Line] = unit
}

func (d *document) unit(line int64) (*lifecycle.Unit, bool) {
	unit, ok := d.units[line]
	return unit, ok
}

// step looks a position up among declared steps and hooks, then among
// example rows.
func (d *document) step(location events.SourceLocation) (*lifecycle.Step, bool) {
	pos := d.position(location)
	if step, ok := d.steps[pos]; ok {
		return step, true
	}
	step, ok := d.rows[pos]
	return step, ok
}

func (d *document) position(location events.SourceLocation) position {
	uri := location.URI
	if uri == "" {
		uri = d.uri
	}
	return position{uri: uri, line: location.Line}
}

// materializeHooks splices a hook step into the unit for every prepared
// execution that has no declared position. It runs at most once per unit. A
// hook position is registered once per document and the same step is shared
// by every unit that runs it.
func (d *document) materializeHooks(unit *lifecycle.Unit, prepared events.CasePrepared) int {
	if d.materialized[unit] || unit.HasHooks() {
		return 0
	}
	d.materialized[unit] = true

	inserted := 0
	for idx, prepStep := range prepared.Steps {
		if !prepStep.IsHook() {
			continue
		}
		pos := d.position(*prepStep.ActionLocation)
		hook, ok := d.steps[pos]
		if !ok {
			hook = &lifecycle.Step{
				Kind:    lifecycle.StepHook,
				URI:     pos.uri,
				Line:    pos.line,
				Keyword: lifecycle.HookKeyword,
			}
			d.steps[pos] = hook
		}
		if hook.Kind != lifecycle.StepHook || containsStep(unit.Steps, hook) {
			continue
		}
		unit.Steps = insertAt(unit.Steps, idx, hook)
		inserted++
	}
	return inserted
}

func containsStep(steps []*lifecycle.Step, step *lifecycle.Step) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

func insertAt(steps []*lifecycle.Step, idx int, step *lifecycle.Step) []*lifecycle.Step {
	if idx > len(steps) {
		idx = len(steps)
	}
	steps = append(steps, nil)
	copy(steps[idx+1:], steps[idx:])
	steps[idx] = step
	return steps
}

func rowText(row *messages.TableRow) string {
	values := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		values = append(values, cell.Value)
	}
	return strings.Join(values, " | ")
}

func line(location *messages.Location) int64 {
	if location == nil {
		return 0
	}
	return location.Line
}
