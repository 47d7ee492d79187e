// Package events defines the runner-side event protocol consumed by the
// correlator. Every event references test cases only by source URI and line.
package events

import (
	"fmt"
	"time"

	messages "github.com/cucumber/messages/go/v21"
)

// Type is the protocol name of an inbound event.
type Type string

const (
	TypeDocumentParsed Type = "gherkin-document"
	TypeCaseAccepted   Type = "pickle-accepted"
	TypeCasePrepared   Type = "test-case-prepared"
	TypeStepStarted    Type = "test-step-started"
	TypeStepFinished   Type = "test-step-finished"
	TypeCaseFinished   Type = "test-case-finished"
	TypeRunFinished    Type = "test-run-finished"
)

// Status is the execution outcome reported for a step or a case.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusAmbiguous Status = "ambiguous"
	StatusUndefined Status = "undefined"
	StatusPending   Status = "pending"
	StatusSkipped   Status = "skipped"
)

// Event is implemented by every inbound event.
type Event interface {
	EventType() Type
}

type (
	// SourceLocation points at a line inside a source. For hook executions
	// the URI usually names a code file instead of a feature file.
	SourceLocation struct {
		URI  string `json:"uri"`
		Line int64  `json:"line"`
	}

	// TestCaseRef identifies the case a step event belongs to.
	TestCaseRef struct {
		SourceLocation SourceLocation `json:"sourceLocation"`
	}

	// PreparedStep is one concrete step execution of a prepared case. Steps
	// declared in the document carry a SourceLocation; hooks only carry an
	// ActionLocation.
	PreparedStep struct {
		SourceLocation *SourceLocation `json:"sourceLocation,omitempty"`
		ActionLocation *SourceLocation `json:"actionLocation,omitempty"`
	}

	// Result is the outcome of a step or a case.
	Result struct {
		Duration  time.Duration
		Status    Status
		Exception error
	}

	// RunResult is the outcome of a whole run.
	RunResult struct {
		Duration time.Duration
		Success  bool
	}
)

type (
	DocumentParsed struct {
		URI      string
		Document *messages.GherkinDocument
	}

	// CaseAccepted carries the runner's own summary of a case. Locations[0]
	// is the case position: the scenario line, or the example row line for
	// outline rows.
	CaseAccepted struct {
		URI       string
		Pickle    *messages.Pickle
		Locations []*messages.Location
	}

	CasePrepared struct {
		SourceLocation SourceLocation
		Steps          []PreparedStep
	}

	StepStarted struct {
		Index    int
		TestCase TestCaseRef
	}

	StepFinished struct {
		Index    int
		Result   Result
		TestCase TestCaseRef
	}

	CaseFinished struct {
		Result         Result
		SourceLocation SourceLocation
	}

	RunFinished struct {
		Result RunResult
	}
)

func (DocumentParsed) EventType() Type { return TypeDocumentParsed }
func (CaseAccepted) EventType() Type   { return TypeCaseAccepted }
func (CasePrepared) EventType() Type   { return TypeCasePrepared }
func (StepStarted) EventType() Type    { return TypeStepStarted }
func (StepFinished) EventType() Type   { return TypeStepFinished }
func (CaseFinished) EventType() Type   { return TypeCaseFinished }
func (RunFinished) EventType() Type    { return TypeRunFinished }

// Location returns the position a prepared step resolves through: the
// declared source position if present, the action position otherwise.
func (s PreparedStep) Location() (SourceLocation, bool) {
	if s.SourceLocation != nil {
		return *s.SourceLocation, true
	}
	if s.ActionLocation != nil {
		return *s.ActionLocation, true
	}
	return SourceLocation{}, false
}

// IsHook reports whether the step has no declared position.
func (s PreparedStep) IsHook() bool {
	return s.SourceLocation == nil && s.ActionLocation != nil
}

// Failure is an execution failure reported by the runner as data rather
// than as a Go error value.
type Failure struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.URI, l.Line)
}
