// Package reporter turns resolved lifecycle events into a flat, ordered
// stream of suite and test messages and tracks their delivery to a sink.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/cacik-reporter/pkg/cacik"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
	"github.com/denizgursoy/cacik-reporter/pkg/lifecycle"
)

const (
	AmbiguousMessage = "Step definition is ambiguous: more than one step definition matches the step text"
	UndefinedMessage = "Step is undefined: no step definition matches the step text"
	FailedMessage    = "Step failed"
)

var ErrUnknownLifecycleEvent = errors.New("unknown lifecycle event")

// Reporter is driven by a single goroutine through Handle. Acknowledgements,
// WaitUntilSettled and FailedCount may be used from any goroutine.
type Reporter struct {
	cid                      string
	specs                    []string
	tagsInTitle              bool
	failAmbiguousDefinitions bool

	sink    Sink
	logger  cacik.Logger
	metrics Metrics

	queue  *queue
	failed atomic.Int64
	// suites is the stack of open suite ids, outermost first.
	suites []string
	// features holds the sources whose feature suite is open.
	features map[string]bool
}

func New(sink Sink, cid string, opts ...Option) *Reporter {
	r := &Reporter{
		cid:      cid,
		sink:     sink,
		queue:    newQueue(),
		suites:   make([]string, 0),
		features: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = cacik.NoopLogger()
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}
	return r
}

// Handle formats the lifecycle event and sends the resulting message.
func (r *Reporter) Handle(event lifecycle.Event) error {
	switch e := event.(type) {
	case lifecycle.BeforeFeature:
		r.onBeforeFeature(e)
	case lifecycle.BeforeScenario:
		return r.onBeforeScenario(e)
	case lifecycle.BeforeStep:
		r.onBeforeStep(e)
	case lifecycle.AfterStep:
		r.onAfterStep(e)
	case lifecycle.AfterScenario:
		r.onAfterScenario(e)
	case lifecycle.AfterFeature:
		r.onAfterFeature(e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownLifecycleEvent, event)
	}
	return nil
}

// Send hands the message to the sink and tracks it until acknowledged. A
// message the sink does not accept is dropped and not retried.
func (r *Reporter) Send(message Message) bool {
	id := r.queue.track(message.Event)

	var once sync.Once
	ack := func() {
		once.Do(func() {
			r.queue.release(id)
			r.metrics.EventAcknowledged(message.Event)
		})
	}

	if !r.sink.Send(message, ack) {
		once.Do(func() {
			r.queue.release(id)
		})
		r.metrics.EventRejected(message.Event)
		r.logger.Warn("sink rejected message", "event", message.Event, "uid", message.UID)
		return false
	}
	r.metrics.EventSent(message.Event)
	return true
}

// WaitUntilSettled blocks until every message handed to the sink has been
// acknowledged. There is no internal timeout: it only gives up when ctx ends.
func (r *Reporter) WaitUntilSettled(ctx context.Context) error {
	return r.queue.wait(ctx)
}

// FailedCount is the number of test:fail messages produced so far.
func (r *Reporter) FailedCount() int {
	return int(r.failed.Load())
}

// Pending is the number of messages waiting for acknowledgement.
func (r *Reporter) Pending() int {
	return r.queue.len()
}

// OpenSuites returns the ids of the currently open suites, outermost first.
func (r *Reporter) OpenSuites() []string {
	return append([]string(nil), r.suites...)
}

// onBeforeFeature opens the feature suite. A source whose feature is still
// open is not opened again, so a repeated document keeps one suite:start and
// one suite:end.
func (r *Reporter) onBeforeFeature(e lifecycle.BeforeFeature) {
	uid := FeatureUID(e.Feature)
	if r.features[e.URI] {
		r.logger.Debug("feature already open", "uid", uid, "uri", e.URI)
		return
	}
	r.features[e.URI] = true
	tags := fromTags(featureTags(e.Feature))
	r.push(uid)

	r.Send(Message{
		Event:  EventSuiteStart,
		Type:   TypeSuite,
		UID:    uid,
		Parent: nil,
		File:   r.file(e.URI),
		CID:    r.cid,
		Tags:   tags,
		Title:  r.title(featureName(e.Feature), tags),
	})
}

func (r *Reporter) onBeforeScenario(e lifecycle.BeforeScenario) error {
	var name string
	var line int64
	switch {
	case e.Unit != nil:
		name, line = e.Unit.Title(), e.Unit.Line
	case e.Pickle != nil && len(e.Locations) > 0 && e.Locations[0] != nil:
		name, line = e.Pickle.Name, e.Locations[0].Line
	default:
		return fmt.Errorf("before-scenario for %s has neither a unit nor a pickle location", e.URI)
	}

	var tags []Tag
	if e.Pickle != nil {
		tags = fromPickleTags(e.Pickle.Tags)
	} else {
		tags = fromTags(e.Unit.Tags)
	}

	uid := suiteUID(name, line)
	parent := FeatureUID(e.Feature)
	r.push(uid)

	r.Send(Message{
		Event:  EventSuiteStart,
		Type:   TypeSuite,
		UID:    uid,
		Parent: &parent,
		File:   r.file(e.URI),
		CID:    r.cid,
		Tags:   tags,
		Title:  r.title(name, tags),
	})
	return nil
}

func (r *Reporter) onBeforeStep(e lifecycle.BeforeStep) {
	r.Send(r.testMessage(EventTestStart, e.URI, e.Feature, e.Unit, e.Step))
}

func (r *Reporter) onAfterStep(e lifecycle.AfterStep) {
	message := r.testMessage(EventTestPass, e.URI, e.Feature, e.Unit, e.Step)
	message.Duration = e.Result.Duration

	switch e.Result.Status {
	case events.StatusPassed:
	case events.StatusSkipped, events.StatusPending:
		message.Event = EventTestPending
	case events.StatusFailed:
		message.Event = EventTestFail
		message.Err = &Error{Message: errorMessage(e.Result.Exception, FailedMessage)}
	case events.StatusAmbiguous:
		message.Event = EventTestFail
		message.Err = &Error{Message: AmbiguousMessage}
		if r.failAmbiguousDefinitions {
			message.Err.Message = errorMessage(e.Result.Exception, AmbiguousMessage)
		}
	case events.StatusUndefined:
		message.Event = EventTestFail
		message.Err = &Error{Message: errorMessage(e.Result.Exception, UndefinedMessage)}
	default:
		message.Event = EventTestFail
		message.Err = &Error{Message: errorMessage(e.Result.Exception, fmt.Sprintf("unexpected step status %q", e.Result.Status))}
	}

	if message.Event == EventTestFail {
		r.failed.Add(1)
		r.metrics.TestFailed()
	}
	r.Send(message)
}

func (r *Reporter) onAfterScenario(e lifecycle.AfterScenario) {
	uid := UnitUID(e.Unit)
	tags := fromTags(e.Unit.Tags)
	r.pop(uid)
	parent := FeatureUID(e.Feature)

	r.Send(Message{
		Event:  EventSuiteEnd,
		Type:   TypeSuite,
		UID:    uid,
		Parent: &parent,
		File:   r.file(e.URI),
		CID:    r.cid,
		Tags:   tags,
		Title:  r.title(e.Unit.Title(), tags),
	})
}

func (r *Reporter) onAfterFeature(e lifecycle.AfterFeature) {
	uid := FeatureUID(e.Feature)
	tags := fromTags(featureTags(e.Feature))
	delete(r.features, e.URI)
	r.pop(uid)

	r.Send(Message{
		Event:  EventSuiteEnd,
		Type:   TypeSuite,
		UID:    uid,
		Parent: nil,
		File:   r.file(e.URI),
		CID:    r.cid,
		Tags:   tags,
		Title:  r.title(featureName(e.Feature), tags),
	})
}

func (r *Reporter) testMessage(event, uri string, feature *messages.Feature, unit *lifecycle.Unit, step *lifecycle.Step) Message {
	parent := UnitUID(unit)
	return Message{
		Event:        event,
		Type:         TypeTest,
		UID:          StepUID(step),
		Parent:       &parent,
		File:         r.file(uri),
		CID:          r.cid,
		Tags:         fromTags(unit.Tags),
		Title:        stepTitle(step),
		FeatureName:  featureName(feature),
		ScenarioName: unit.Title(),
	}
}

func stepTitle(step *lifecycle.Step) string {
	if step.Text == "" {
		return step.Keyword
	}
	return step.Text
}

func (r *Reporter) push(uid string) {
	r.suites = append(r.suites, uid)
}

// pop closes the innermost open suite with the given id.
func (r *Reporter) pop(uid string) {
	for i := len(r.suites) - 1; i >= 0; i-- {
		if r.suites[i] == uid {
			r.suites = append(r.suites[:i], r.suites[i+1:]...)
			return
		}
	}
}

func (r *Reporter) file(uri string) string {
	if uri == "" && len(r.specs) > 0 {
		return r.specs[0]
	}
	return uri
}

func (r *Reporter) title(name string, tags []Tag) string {
	if !r.tagsInTitle || len(tags) == 0 {
		return name
	}
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return strings.Join(names, ", ") + ": " + name
}

// FeatureUID is the suite id of a feature: its name followed by its line.
func FeatureUID(feature *messages.Feature) string {
	return suiteUID(featureName(feature), lifecycle.FeatureLine(feature))
}

// UnitUID is the suite id of a scenario or example row.
func UnitUID(unit *lifecycle.Unit) string {
	return suiteUID(unit.Title(), unit.Line)
}

// StepUID is the test id of a step: its text followed by its line. Hooks
// have no text, so their id is the keyword and the code file followed by the
// line, which keeps hooks on the same line of different files apart.
func StepUID(step *lifecycle.Step) string {
	if step.Kind == lifecycle.StepHook {
		return suiteUID(step.Keyword+" "+step.URI+":", step.Line)
	}
	return suiteUID(step.Text, step.Line)
}

func suiteUID(name string, line int64) string {
	return name + strconv.FormatInt(line, 10)
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

func featureName(feature *messages.Feature) string {
	if feature == nil {
		return ""
	}
	return feature.Name
}

func featureTags(feature *messages.Feature) []*messages.Tag {
	if feature == nil {
		return nil
	}
	return feature.Tags
}

func fromTags(tags []*messages.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, Tag{Name: tag.Name})
	}
	return out
}

func fromPickleTags(tags []*messages.PickleTag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, Tag{Name: tag.Name})
	}
	return out
}
