package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
	tagexpressions "github.com/cucumber/tag-expressions/go/v6"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/gherkin_parser"
)

// Driver runs feature files against step definitions and publishes the
// runner protocol for every file: document-parsed, then per case
// case-accepted, case-prepared, step events and case-finished, and finally
// run-finished. Files are run one after another.
type Driver struct {
	config             *cacik.Config
	featureDirectories []string
	executor           Executor
	hooks              *cacik.HookExecutor
}

func NewDriver(exec Executor) *Driver {
	return &Driver{
		config:   &cacik.Config{},
		executor: exec,
		hooks:    cacik.NewHookExecutor(),
	}
}

func (d *Driver) WithConfig(config *cacik.Config) *Driver {
	if config != nil {
		d.config = config
	}

	return d
}

func (d *Driver) WithFeaturesDirectories(directories ...string) *Driver {
	d.featureDirectories = directories

	return d
}

func (d *Driver) WithHooks(hooks ...*cacik.Hooks) *Driver {
	d.hooks = cacik.NewHookExecutor(hooks...)

	return d
}

// execution is one entry of a prepared case.
type execution struct {
	prepared events.PreparedStep
	hook     *cacik.HookAction
	after    bool
	step     *messages.PickleStep
	meta     cacik.Step
}

// Run publishes the protocol for every feature file found. It stops early
// when ctx ends, when publishing fails, or after the first failed case if
// FailFast is set.
func (d *Driver) Run(ctx context.Context, publisher Publisher) error {
	logger := d.config.EffectiveLogger()

	directories := d.featureDirectories
	if len(directories) == 0 {
		directories = []string{"."}
	}
	files, err := gherkin_parser.SearchFeatureFilesIn(directories)
	if err != nil {
		return err
	}

	filter, err := parseTagExpression(d.config.Tags)
	if err != nil {
		return err
	}

	d.hooks.ExecuteBeforeAll()
	defer d.hooks.ExecuteAfterAll()

	for _, file := range files {
		document, err := gherkin_parser.ParseFeatureFile(file)
		if err != nil {
			return err
		}
		logger.Info("running feature", "file", file)

		stop, err := d.runDocument(ctx, publisher, file, document, filter)
		if err != nil {
			return err
		}
		if stop {
			logger.Info("fail fast: stopping after first failure")
			return nil
		}
	}
	return nil
}

func (d *Driver) runDocument(ctx context.Context, publisher Publisher, uri string, document *messages.GherkinDocument, filter tagexpressions.Evaluatable) (bool, error) {
	started := time.Now()
	publish := func(event events.Event) error {
		return publisher.Publish(ctx, event)
	}

	if err := publish(events.DocumentParsed{URI: uri, Document: document}); err != nil {
		return false, err
	}

	nodes := indexNodes(document)
	success := true
	stop := false
	for _, pickle := range gherkin.Pickles(*document, uri, gherkin_parser.NewID) {
		if !filter.Evaluate(pickleTagNames(pickle)) {
			continue
		}
		passed, err := d.runPickle(ctx, publish, uri, pickle, nodes)
		if err != nil {
			return false, err
		}
		if !passed {
			success = false
			if d.config.FailFast {
				stop = true
				break
			}
		}
	}

	err := publish(events.RunFinished{Result: events.RunResult{Duration: time.Since(started), Success: success}})
	return stop, err
}

func (d *Driver) runPickle(ctx context.Context, publish func(events.Event) error, uri string, pickle *messages.Pickle, nodes nodeIndex) (bool, error) {
	started := time.Now()
	caseLine := nodes.line(pickle.AstNodeIds[len(pickle.AstNodeIds)-1])
	caseLocation := events.SourceLocation{URI: uri, Line: caseLine}
	scenario := cacik.ScenarioFromPickle(pickle, caseLine)

	if err := publish(events.CaseAccepted{
		URI:       uri,
		Pickle:    pickle,
		Locations: []*messages.Location{{Line: caseLine}},
	}); err != nil {
		return false, err
	}

	executions := d.prepare(uri, pickle, nodes)
	prepared := events.CasePrepared{SourceLocation: caseLocation, Steps: make([]events.PreparedStep, len(executions))}
	for i, exec := range executions {
		prepared.Steps[i] = exec.prepared
	}
	if err := publish(prepared); err != nil {
		return false, err
	}

	stepCtx := ctx
	var failure error
	caseResult := events.Result{Status: events.StatusPassed}
	for i, exec := range executions {
		testCase := events.TestCaseRef{SourceLocation: caseLocation}
		if err := publish(events.StepStarted{Index: i, TestCase: testCase}); err != nil {
			return false, err
		}

		var result events.Result
		switch {
		case exec.hook != nil && exec.after:
			result = runHook(*exec.hook, scenario, failure)
		case failure != nil:
			result = events.Result{Status: events.StatusSkipped}
		case exec.hook != nil:
			result = runHook(*exec.hook, scenario, nil)
		default:
			d.hooks.ExecuteBeforeStep(exec.meta)
			stepCtx, result = d.executor.Run(stepCtx, exec.step.Text)
			d.hooks.ExecuteAfterStep(exec.meta, resultError(result))
		}

		if result.Status != events.StatusPassed && result.Status != events.StatusSkipped && caseResult.Status == events.StatusPassed {
			caseResult = result
			if failure == nil {
				failure = resultError(result)
			}
		}

		if err := publish(events.StepFinished{Index: i, Result: result, TestCase: testCase}); err != nil {
			return false, err
		}
	}

	caseResult.Duration = time.Since(started)
	if err := publish(events.CaseFinished{Result: caseResult, SourceLocation: caseLocation}); err != nil {
		return false, err
	}
	return caseResult.Status == events.StatusPassed, nil
}

// prepare lists the executions of a case: BeforeScenario hooks, the pickle
// steps, then AfterScenario hooks. Hooks only carry an action location.
func (d *Driver) prepare(uri string, pickle *messages.Pickle, nodes nodeIndex) []execution {
	executions := make([]execution, 0, len(pickle.Steps))

	for _, action := range d.hooks.BeforeScenarioActions() {
		executions = append(executions, hookExecution(action, false))
	}

	for _, step := range pickle.Steps {
		declared := nodes.steps[step.AstNodeIds[0]]
		location := events.SourceLocation{URI: uri, Line: nodes.line(step.AstNodeIds[0])}
		prepared := events.PreparedStep{SourceLocation: &location}
		if matched := d.executor.Match(step.Text); len(matched) == 1 {
			action := matched[0].Location
			prepared.ActionLocation = &action
		}

		keyword := ""
		if declared != nil {
			keyword = declared.Keyword
		}
		executions = append(executions, execution{
			prepared: prepared,
			step:     step,
			meta:     cacik.StepFromPickle(step, keyword, location.Line),
		})
	}

	for _, action := range d.hooks.AfterScenarioActions() {
		executions = append(executions, hookExecution(action, true))
	}
	return executions
}

func hookExecution(action cacik.HookAction, after bool) execution {
	location := action.Location
	return execution{
		prepared: events.PreparedStep{ActionLocation: &location},
		hook:     &action,
		after:    after,
	}
}

func runHook(action cacik.HookAction, scenario cacik.Scenario, scenarioErr error) events.Result {
	started := time.Now()
	if err := action.Run(scenario, scenarioErr); err != nil {
		return events.Result{Duration: time.Since(started), Status: events.StatusFailed, Exception: err}
	}
	return events.Result{Duration: time.Since(started), Status: events.StatusPassed}
}

// resultError is the error a non passing result stands for, nil otherwise.
func resultError(result events.Result) error {
	switch result.Status {
	case events.StatusPassed, events.StatusSkipped:
		return nil
	}
	if result.Exception != nil {
		return result.Exception
	}
	return errors.New(string(result.Status))
}

// parseTagExpression compiles the run's tag filter. An empty expression
// selects every case.
func parseTagExpression(expression string) (tagexpressions.Evaluatable, error) {
	filter, err := tagexpressions.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid tag expression %q: %w", expression, err)
	}
	return filter, nil
}

func pickleTagNames(pickle *messages.Pickle) []string {
	names := make([]string, len(pickle.Tags))
	for i, tag := range pickle.Tags {
		names[i] = tag.Name
	}
	return names
}

// nodeIndex maps AST node ids of a document to their source line, and step
// ids to the declared step.
type nodeIndex struct {
	lines map[string]int64
	steps map[string]*messages.Step
}

func (n nodeIndex) line(id string) int64 {
	return n.lines[id]
}

func indexNodes(document *messages.GherkinDocument) nodeIndex {
	nodes := nodeIndex{
		lines: make(map[string]int64),
		steps: make(map[string]*messages.Step),
	}
	if document.Feature == nil {
		return nodes
	}

	addSteps := func(steps []*messages.Step) {
		for _, step := range steps {
			nodes.lines[step.Id] = step.Location.Line
			nodes.steps[step.Id] = step
		}
	}
	addScenario := func(scenario *messages.Scenario) {
		nodes.lines[scenario.Id] = scenario.Location.Line
		addSteps(scenario.Steps)
		for _, examples := range scenario.Examples {
			for _, row := range examples.TableBody {
				nodes.lines[row.Id] = row.Location.Line
			}
		}
	}

	for _, child := range document.Feature.Children {
		switch {
		case child.Background != nil:
			addSteps(child.Background.Steps)
		case child.Scenario != nil:
			addScenario(child.Scenario)
		case child.Rule != nil:
			for _, ruleChild := range child.Rule.Children {
				if ruleChild.Background != nil {
					addSteps(ruleChild.Background.Steps)
				}
				if ruleChild.Scenario != nil {
					addScenario(ruleChild.Scenario)
				}
			}
		}
	}
	return nodes
}
