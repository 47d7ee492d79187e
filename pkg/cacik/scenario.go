package cacik

import messages "github.com/cucumber/messages/go/v21"

// Scenario holds metadata about the currently executing scenario.
// Passed to BeforeScenario/AfterScenario hooks.
type Scenario struct {
	// Name is the scenario name with outline placeholders substituted.
	Name string

	// Tags contains the tag names of the compiled case, including tags
	// inherited from the Feature, Rule or Examples block.
	Tags []string

	// URI is the feature file the scenario was compiled from.
	URI string

	// Line is the case position: the scenario line, or the example row line
	// for outline rows.
	Line int64
}

// Step holds metadata about the currently executing step.
// Passed to BeforeStep/AfterStep hooks.
type Step struct {
	// Keyword is the Gherkin keyword including trailing whitespace
	// (e.g. "Given ", "And ").
	Keyword string

	// Text is the step text after the keyword.
	Text string

	// Line is the source file line number where the step is declared.
	Line int64
}

// ScenarioFromPickle converts a compiled pickle into a Scenario for hook
// functions. line is the case position.
func ScenarioFromPickle(pickle *messages.Pickle, line int64) Scenario {
	tags := make([]string, len(pickle.Tags))
	for i, t := range pickle.Tags {
		tags[i] = t.Name
	}
	return Scenario{
		Name: pickle.Name,
		Tags: tags,
		URI:  pickle.Uri,
		Line: line,
	}
}

// StepFromPickle converts a compiled pickle step into a Step for hook
// functions.
func StepFromPickle(step *messages.PickleStep, keyword string, line int64) Step {
	return Step{
		Keyword: keyword,
		Text:    step.Text,
		Line:    line,
	}
}
