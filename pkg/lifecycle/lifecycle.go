// Package lifecycle holds the resolved suite/test lifecycle events that the
// correlator emits and the reporter consumes, together with the resolved
// entities they carry.
package lifecycle

import (
	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
)

// Name is the lifecycle event name.
type Name string

const (
	NameBeforeFeature  Name = "before-feature"
	NameBeforeScenario Name = "before-scenario"
	NameBeforeStep     Name = "before-step"
	NameAfterStep      Name = "after-step"
	NameAfterScenario  Name = "after-scenario"
	NameAfterFeature   Name = "after-feature"
)

type Event interface {
	LifecycleName() Name
}

type (
	BeforeFeature struct {
		URI     string
		Feature *messages.Feature
	}

	// BeforeScenario passes the runner's pickle through unmodified. Unit is
	// the document unit at the pickle position, nil when the document has
	// none.
	BeforeScenario struct {
		URI       string
		Feature   *messages.Feature
		Pickle    *messages.Pickle
		Locations []*messages.Location
		Unit      *Unit
	}

	BeforeStep struct {
		URI     string
		Feature *messages.Feature
		Unit    *Unit
		Step    *Step
	}

	AfterStep struct {
		URI     string
		Feature *messages.Feature
		Unit    *Unit
		Step    *Step
		Result  events.Result
	}

	AfterScenario struct {
		URI     string
		Feature *messages.Feature
		Unit    *Unit
	}

	AfterFeature struct {
		URI     string
		Feature *messages.Feature
	}
)

func (BeforeFeature) LifecycleName() Name  { return NameBeforeFeature }
func (BeforeScenario) LifecycleName() Name { return NameBeforeScenario }
func (BeforeStep) LifecycleName() Name     { return NameBeforeStep }
func (AfterStep) LifecycleName() Name      { return NameAfterStep }
func (AfterScenario) LifecycleName() Name  { return NameAfterScenario }
func (AfterFeature) LifecycleName() Name   { return NameAfterFeature }
