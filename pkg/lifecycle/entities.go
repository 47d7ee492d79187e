package lifecycle

import (
	"fmt"

	messages "github.com/cucumber/messages/go/v21"
)

// UnitKind discriminates the scenario-like parts of a feature that a test
// case position can point at.
type UnitKind int

const (
	UnitScenario UnitKind = iota
	UnitBackground
	UnitExampleRow
)

func (k UnitKind) String() string {
	switch k {
	case UnitScenario:
		return "scenario"
	case UnitBackground:
		return "background"
	case UnitExampleRow:
		return "example row"
	default:
		return "unknown"
	}
}

// StepKind discriminates resolved steps.
type StepKind int

const (
	StepDeclared StepKind = iota
	// StepHook is a step the runner revealed at preparation time without a
	// declared position.
	StepHook
	// StepExampleRow is an example row addressed as a step.
	StepExampleRow
)

// HookKeyword is the keyword given to synthesized hook steps.
const HookKeyword = "Hook"

type (
	// Unit is a plain scenario, a background, an outline, or one example row
	// of an outline.
	Unit struct {
		Kind    UnitKind
		Line    int64
		Name    string
		Keyword string
		Tags    []*messages.Tag
		Steps   []*Step

		Scenario   *messages.Scenario
		Background *messages.Background

		// Set for UnitExampleRow only. Scenario is then the outline.
		Examples     *messages.Examples
		Row          *messages.TableRow
		ExampleIndex int
		RowIndex     int
	}

	Step struct {
		Kind    StepKind
		URI     string
		Line    int64
		Keyword string
		Text    string

		Source *messages.Step
		Row    *messages.TableRow
	}
)

// Title is the display name of the unit. Example rows are named after their
// outline followed by the 1-based example group and row numbers.
func (u *Unit) Title() string {
	if u.Kind == UnitExampleRow {
		return fmt.Sprintf("%s (example %d.%d)", u.Name, u.ExampleIndex, u.RowIndex)
	}
	return u.Name
}

// HasHooks reports whether hook steps were materialized into the unit.
func (u *Unit) HasHooks() bool {
	for _, step := range u.Steps {
		if step.Kind == StepHook {
			return true
		}
	}
	return false
}

// FeatureLine returns the source line of a feature, or zero when unknown.
func FeatureLine(feature *messages.Feature) int64 {
	if feature == nil || feature.Location == nil {
		return 0
	}
	return feature.Location.Line
}
