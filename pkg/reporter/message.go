package reporter

import (
	"encoding/json"
	"time"
)

// Event names of outbound messages.
const (
	EventSuiteStart  = "suite:start"
	EventSuiteEnd    = "suite:end"
	EventTestStart   = "test:start"
	EventTestPass    = "test:pass"
	EventTestFail    = "test:fail"
	EventTestPending = "test:pending"
)

// Message types.
const (
	TypeSuite = "suite"
	TypeTest  = "test"
)

type (
	Tag struct {
		Name string `json:"name"`
	}

	Error struct {
		Message string `json:"message"`
	}

	// Message is one serialized suite or test event handed to the sink.
	// Parent is nil for root suites.
	Message struct {
		Event  string  `json:"event"`
		Type   string  `json:"type"`
		UID    string  `json:"uid"`
		Parent *string `json:"parent"`
		File   string  `json:"file"`
		CID    string  `json:"cid"`
		Tags   []Tag   `json:"tags"`
		Title  string  `json:"title,omitempty"`

		// Test messages only.
		Duration     time.Duration `json:"-"`
		Err          *Error        `json:"err,omitempty"`
		FeatureName  string        `json:"featureName,omitempty"`
		ScenarioName string        `json:"scenarioName,omitempty"`
	}
)

// MarshalJSON writes the duration of test messages in milliseconds.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	out := struct {
		plain
		Duration *int64 `json:"duration,omitempty"`
	}{plain: plain(m)}

	if m.Type == TypeTest {
		ms := m.Duration.Milliseconds()
		out.Duration = &ms
	}
	return json.Marshal(out)
}

// ParentUID returns the parent suite id, or an empty string for root suites.
func (m Message) ParentUID() string {
	if m.Parent == nil {
		return ""
	}
	return *m.Parent
}
