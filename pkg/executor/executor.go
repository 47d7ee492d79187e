package executor

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/denizgursoy/cacik-reporter/pkg/events"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// StepDefinition holds a compiled regex pattern, its associated function and
// the place the function is defined.
type StepDefinition struct {
	Pattern  *regexp.Regexp
	Function any
	Location events.SourceLocation
}

// StepExecutor matches step text against registered definitions and runs
// them, classifying the outcome with the runner's result statuses.
type StepExecutor struct {
	steps      []*StepDefinition
	patternSet map[string]bool // Track registered patterns for duplicate detection
}

// NewStepExecutor creates a new StepExecutor
func NewStepExecutor() *StepExecutor {
	return &StepExecutor{
		steps:      make([]*StepDefinition, 0),
		patternSet: make(map[string]bool),
	}
}

// RegisterStep registers a step definition with its regex pattern and function
func (e *StepExecutor) RegisterStep(pattern string, fn any) error {
	if e.patternSet[pattern] {
		return fmt.Errorf("duplicate step pattern: %s", pattern)
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid step pattern %q: %w", pattern, err)
	}

	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("step handler must be a function, got %T", fn)
	}

	e.steps = append(e.steps, &StepDefinition{
		Pattern:  compiled,
		Function: fn,
		Location: events.FuncLocation(fn),
	})
	e.patternSet[pattern] = true
	return nil
}

// Match returns every definition whose pattern matches text, in
// registration order.
func (e *StepExecutor) Match(text string) []*StepDefinition {
	var matched []*StepDefinition
	for _, def := range e.steps {
		if def.Pattern.MatchString(text) {
			matched = append(matched, def)
		}
	}
	return matched
}

// Run executes the single definition matching text. The returned context is
// the one the step function handed back, or ctx when it returned none.
//
// No match yields StatusUndefined, more than one StatusAmbiguous. A returned
// error or a panic yields StatusFailed.
func (e *StepExecutor) Run(ctx context.Context, text string) (context.Context, events.Result) {
	started := time.Now()

	matched := e.Match(text)
	switch len(matched) {
	case 0:
		return ctx, events.Result{Status: events.StatusUndefined}
	case 1:
	default:
		return ctx, events.Result{
			Status:    events.StatusAmbiguous,
			Exception: ambiguousError(text, matched),
		}
	}

	def := matched[0]
	args := def.Pattern.FindStringSubmatch(text)[1:]

	newCtx, err := invoke(ctx, def.Function, args)
	result := events.Result{Duration: time.Since(started), Status: events.StatusPassed}
	if err != nil {
		result.Status = events.StatusFailed
		result.Exception = err
	}
	if newCtx == nil {
		newCtx = ctx
	}
	return newCtx, result
}

func ambiguousError(text string, matched []*StepDefinition) error {
	candidates := make([]string, 0, len(matched))
	for _, def := range matched {
		candidates = append(candidates, fmt.Sprintf("%s (%s)", def.Pattern, def.Location))
	}
	return fmt.Errorf("multiple step definitions match %q:\n  %s", text, strings.Join(candidates, "\n  "))
}

// invoke calls the step function with proper argument conversion. A panic in
// the step is turned into an error.
func invoke(ctx context.Context, fn any, args []string) (newCtx context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			newCtx = nil
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	callArgs, err := buildCallArgs(ctx, fnType, args)
	if err != nil {
		return nil, err
	}

	results := fnValue.Call(callArgs)

	return processReturnValues(fnType, results)
}

// buildCallArgs constructs the argument slice for function invocation
func buildCallArgs(ctx context.Context, fnType reflect.Type, capturedArgs []string) ([]reflect.Value, error) {
	numParams := fnType.NumIn()
	callArgs := make([]reflect.Value, 0, numParams)

	capturedIndex := 0

	for i := 0; i < numParams; i++ {
		paramType := fnType.In(i)

		if paramType.Implements(contextType) {
			callArgs = append(callArgs, reflect.ValueOf(ctx))
			continue
		}

		if capturedIndex >= len(capturedArgs) {
			return nil, fmt.Errorf("not enough captured arguments: expected %d more, have %d", numParams-i, len(capturedArgs)-capturedIndex)
		}

		arg := capturedArgs[capturedIndex]
		capturedIndex++

		converted, err := convertArg(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("failed to convert argument %q to %s: %w", arg, paramType, err)
		}
		callArgs = append(callArgs, converted)
	}

	return callArgs, nil
}

// processReturnValues extracts context and error from function return values
func processReturnValues(fnType reflect.Type, results []reflect.Value) (context.Context, error) {
	var newCtx context.Context
	var retErr error

	for i, result := range results {
		resultType := fnType.Out(i)

		switch {
		case resultType.Implements(contextType):
			if !result.IsNil() {
				newCtx = result.Interface().(context.Context)
			}
		case resultType.Implements(errorType):
			if !result.IsNil() {
				retErr = result.Interface().(error)
			}
		}
	}

	return newCtx, retErr
}

// convertArg converts a string argument to the target type. Named types are
// converted through their underlying kind.
func convertArg(arg string, targetType reflect.Type) (reflect.Value, error) {
	value := reflect.New(targetType).Elem()

	switch targetType.Kind() {
	case reflect.String:
		value.SetString(arg)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(arg, 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(arg, targetType.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetFloat(v)

	case reflect.Bool:
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		value.SetBool(v)

	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %s", targetType.Kind())
	}

	return value, nil
}
