// Package correlator resolves the runner's positional events back into the
// features, scenarios, example rows and steps of the parsed documents and
// re-emits them as lifecycle events.
package correlator

import (
	"fmt"

	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/lifecycle"
)

// Correlator owns every parsed document from its document-parsed event until
// the run-finished event for it. It is not safe for concurrent use; events
// are handled one at a time, in arrival order.
type Correlator struct {
	// documents is a stack: sources are assumed not to interleave.
	documents []*document
	logger    cacik.Logger
}

// Option configures a Correlator.
type Option func(*Correlator)

func WithLogger(logger cacik.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

func New(opts ...Option) *Correlator {
	c := &Correlator{
		documents: make([]*document, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = cacik.NoopLogger()
	}
	return c
}

// Handle processes one inbound event and returns the lifecycle event it
// resolves to, or nil when the event produces none.
func (c *Correlator) Handle(event events.Event) (lifecycle.Event, error) {
	switch e := event.(type) {
	case events.DocumentParsed:
		return c.onDocumentParsed(e), nil
	case events.CaseAccepted:
		return c.onCaseAccepted(e)
	case events.CasePrepared:
		return nil, c.onCasePrepared(e)
	case events.StepStarted:
		return c.onStepStarted(e)
	case events.StepFinished:
		return c.onStepFinished(e)
	case events.CaseFinished:
		return c.onCaseFinished(e)
	case events.RunFinished:
		return c.onRunFinished(e)
	default:
		return nil, fmt.Errorf("%w: %T", events.ErrUnknownEvent, event)
	}
}

// Documents returns the number of documents currently retained.
func (c *Correlator) Documents() int {
	return len(c.documents)
}

func (c *Correlator) onDocumentParsed(e events.DocumentParsed) lifecycle.Event {
	doc, ok := c.find(e.URI)
	if !ok {
		doc = newDocument(e.URI, e.Document)
		c.documents = append(c.documents, doc)
		c.logger.Debug("document stored", "uri", e.URI, "units", len(doc.units), "steps", len(doc.steps))
	}
	return lifecycle.BeforeFeature{URI: e.URI, Feature: doc.feature()}
}

func (c *Correlator) onCaseAccepted(e events.CaseAccepted) (lifecycle.Event, error) {
	doc, err := c.lookup(e.URI)
	if err != nil {
		return nil, err
	}

	var unit *lifecycle.Unit
	if len(e.Locations) > 0 && e.Locations[0] != nil {
		unit, _ = doc.unit(e.Locations[0].Line)
	}
	return lifecycle.BeforeScenario{
		URI:       e.URI,
		Feature:   doc.feature(),
		Pickle:    e.Pickle,
		Locations: e.Locations,
		Unit:      unit,
	}, nil
}

func (c *Correlator) onCasePrepared(e events.CasePrepared) error {
	doc, err := c.lookup(e.SourceLocation.URI)
	if err != nil {
		return err
	}
	doc.prepared[e.SourceLocation.Line] = e

	unit, ok := doc.unit(e.SourceLocation.Line)
	if !ok {
		return &ResolutionError{URI: e.SourceLocation.URI, Line: e.SourceLocation.Line, Reason: "no scenario or example row at case position"}
	}
	if inserted := doc.materializeHooks(unit, e); inserted > 0 {
		c.logger.Debug("hooks materialized", "uri", doc.uri, "line", unit.Line, "hooks", inserted)
	}
	return nil
}

func (c *Correlator) onStepStarted(e events.StepStarted) (lifecycle.Event, error) {
	doc, unit, step, err := c.resolveStep(e.TestCase.SourceLocation, e.Index)
	if err != nil {
		return nil, err
	}
	return lifecycle.BeforeStep{
		URI:     doc.uri,
		Feature: doc.feature(),
		Unit:    unit,
		Step:    step,
	}, nil
}

func (c *Correlator) onStepFinished(e events.StepFinished) (lifecycle.Event, error) {
	doc, unit, step, err := c.resolveStep(e.TestCase.SourceLocation, e.Index)
	if err != nil {
		return nil, err
	}
	return lifecycle.AfterStep{
		URI:     doc.uri,
		Feature: doc.feature(),
		Unit:    unit,
		Step:    step,
		Result:  e.Result,
	}, nil
}

func (c *Correlator) onCaseFinished(e events.CaseFinished) (lifecycle.Event, error) {
	doc, unit, err := c.resolveUnit(e.SourceLocation)
	if err != nil {
		return nil, err
	}
	return lifecycle.AfterScenario{URI: doc.uri, Feature: doc.feature(), Unit: unit}, nil
}

func (c *Correlator) onRunFinished(events.RunFinished) (lifecycle.Event, error) {
	if len(c.documents) == 0 {
		return nil, &LookupError{}
	}
	last := len(c.documents) - 1
	doc := c.documents[last]
	c.documents = c.documents[:last]
	c.logger.Debug("document released", "uri", doc.uri)

	return lifecycle.AfterFeature{URI: doc.uri, Feature: doc.feature()}, nil
}

func (c *Correlator) resolveUnit(location events.SourceLocation) (*document, *lifecycle.Unit, error) {
	doc, err := c.lookup(location.URI)
	if err != nil {
		return nil, nil, err
	}
	unit, ok := doc.unit(location.Line)
	if !ok {
		return nil, nil, &ResolutionError{URI: location.URI, Line: location.Line, Reason: "no scenario or example row at case position"}
	}
	return doc, unit, nil
}

// resolveStep follows the prepared case of the test case to the position of
// its index-th execution and resolves that position in the document.
func (c *Correlator) resolveStep(location events.SourceLocation, index int) (*document, *lifecycle.Unit, *lifecycle.Step, error) {
	doc, unit, err := c.resolveUnit(location)
	if err != nil {
		return nil, nil, nil, err
	}

	resolutionErr := func(reason string) error {
		return &ResolutionError{URI: location.URI, Line: location.Line, Index: index, Reason: reason}
	}

	prepared, ok := doc.prepared[location.Line]
	if !ok {
		return nil, nil, nil, resolutionErr("test case was never prepared")
	}
	if index < 0 || index >= len(prepared.Steps) {
		return nil, nil, nil, resolutionErr(fmt.Sprintf("prepared case has %d steps", len(prepared.Steps)))
	}
	stepLocation, ok := prepared.Steps[index].Location()
	if !ok {
		return nil, nil, nil, resolutionErr("prepared step has no position")
	}
	step, ok := doc.step(stepLocation)
	if !ok {
		return nil, nil, nil, resolutionErr(fmt.Sprintf("no step, hook or example row at %s", stepLocation))
	}
	return doc, unit, step, nil
}

// lookup returns the most recently stored document for uri.
func (c *Correlator) lookup(uri string) (*document, error) {
	doc, ok := c.find(uri)
	if !ok {
		return nil, &LookupError{URI: uri}
	}
	return doc, nil
}

func (c *Correlator) find(uri string) (*document, bool) {
	for i := len(c.documents) - 1; i >= 0; i-- {
		if c.documents[i].uri == uri {
			return c.documents[i], true
		}
	}
	return nil, false
}
