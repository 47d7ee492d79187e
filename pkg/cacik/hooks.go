package cacik

import (
	"fmt"
	"sort"

	"github.com/denizgursoy/cacik-reporter/pkg/events"
)

// Hooks holds lifecycle hooks for a run.
// All registered hook functions are executed, sorted by Order.
type Hooks struct {
	// Order determines execution order (lower = runs first).
	// Hooks with same Order run in registration order.
	Order int

	// BeforeAll runs once before the first feature.
	BeforeAll func()

	// AfterAll runs once after the last feature.
	AfterAll func()

	// BeforeScenario runs before each scenario and is reported as a hook
	// step. A returned error fails the scenario and skips its steps.
	BeforeScenario func(Scenario) error

	// AfterScenario runs after each scenario and is reported as a hook step.
	// The error argument is the first step failure, nil when the scenario passed.
	AfterScenario func(Scenario, error) error

	// BeforeStep runs before each declared step. It is not reported.
	BeforeStep func(Step)

	// AfterStep runs after each declared step with the step error, if any.
	AfterStep func(Step, error)
}

// SortHooks sorts hooks by Order (ascending), keeping registration order for
// equal values.
func SortHooks(hooks []*Hooks) []*Hooks {
	sorted := make([]*Hooks, len(hooks))
	copy(sorted, hooks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}

// HookAction is one scenario level hook function. The runner prepares it as
// a hook execution whose action location is the function's definition.
type HookAction struct {
	Location events.SourceLocation
	run      func(Scenario, error) error
}

// Run calls the hook. A panic is returned as an error.
func (a HookAction) Run(scenario Scenario, scenarioErr error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return a.run(scenario, scenarioErr)
}

// HookExecutor manages execution of multiple hooks.
type HookExecutor struct {
	hooks []*Hooks // sorted by Order
}

// NewHookExecutor creates a new HookExecutor with sorted hooks. Nil hooks are
// ignored.
func NewHookExecutor(hooks ...*Hooks) *HookExecutor {
	valid := make([]*Hooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			valid = append(valid, h)
		}
	}

	return &HookExecutor{
		hooks: SortHooks(valid),
	}
}

func (e *HookExecutor) ExecuteBeforeAll() {
	for _, h := range e.hooks {
		if h.BeforeAll != nil {
			h.BeforeAll()
		}
	}
}

func (e *HookExecutor) ExecuteAfterAll() {
	for _, h := range e.hooks {
		if h.AfterAll != nil {
			h.AfterAll()
		}
	}
}

// BeforeScenarioActions returns the BeforeScenario hooks in execution order.
func (e *HookExecutor) BeforeScenarioActions() []HookAction {
	actions := make([]HookAction, 0, len(e.hooks))
	for _, h := range e.hooks {
		if h.BeforeScenario == nil {
			continue
		}
		before := h.BeforeScenario
		actions = append(actions, HookAction{
			Location: events.FuncLocation(before),
			run: func(s Scenario, _ error) error {
				return before(s)
			},
		})
	}
	return actions
}

// AfterScenarioActions returns the AfterScenario hooks in execution order.
func (e *HookExecutor) AfterScenarioActions() []HookAction {
	actions := make([]HookAction, 0, len(e.hooks))
	for _, h := range e.hooks {
		if h.AfterScenario == nil {
			continue
		}
		actions = append(actions, HookAction{
			Location: events.FuncLocation(h.AfterScenario),
			run:      h.AfterScenario,
		})
	}
	return actions
}

func (e *HookExecutor) ExecuteBeforeStep(step Step) {
	for _, h := range e.hooks {
		if h.BeforeStep != nil {
			h.BeforeStep(step)
		}
	}
}

func (e *HookExecutor) ExecuteAfterStep(step Step, err error) {
	for _, h := range e.hooks {
		if h.AfterStep != nil {
			h.AfterStep(step, err)
		}
	}
}
