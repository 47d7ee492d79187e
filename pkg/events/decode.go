package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	messages "github.com/cucumber/messages/go/v21"
)

const maxRecordSize = 16 * 1024 * 1024

// ErrUnknownEvent is returned for records whose type is not part of the
// protocol.
var ErrUnknownEvent = errors.New("unknown event type")

// ignored lists protocol records the correlator has no use for.
var ignored = map[Type]bool{
	"source":               true,
	"attachment":           true,
	"pickle":               true,
	"pickle-rejected":      true,
	"test-run-started":     true,
	"test-case-started":    true,
	"test-step-attachment": true,
}

type (
	record struct {
		Type           Type            `json:"type"`
		URI            string          `json:"uri"`
		Document       json.RawMessage `json:"document"`
		Pickle         json.RawMessage `json:"pickle"`
		SourceLocation *SourceLocation `json:"sourceLocation"`
		Steps          []PreparedStep  `json:"steps"`
		Index          int             `json:"index"`
		TestCase       *TestCaseRef    `json:"testCase"`
		Result         *resultRecord   `json:"result"`
	}

	resultRecord struct {
		// Duration is expressed in milliseconds.
		Duration  float64         `json:"duration"`
		Status    Status          `json:"status"`
		Exception json.RawMessage `json:"exception"`
		Success   bool            `json:"success"`
	}

	pickleLocations struct {
		Locations []*messages.Location `json:"locations"`
	}
)

// Decoder reads a recorded event stream, one JSON record per line.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next protocol event, skipping blank lines and records the
// correlator does not consume. It returns io.EOF at the end of the stream.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		if ignored[rec.Type] {
			continue
		}

		event, err := rec.event()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return event, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// DecodeAll reads every event of the stream.
func DecodeAll(r io.Reader) ([]Event, error) {
	decoder := NewDecoder(r)
	all := make([]Event, 0)
	for {
		event, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, event)
	}
}

func (r record) event() (Event, error) {
	switch r.Type {
	case TypeDocumentParsed:
		if len(r.Document) == 0 || bytes.Equal(r.Document, []byte("null")) {
			return nil, fmt.Errorf("%s without document", r.Type)
		}
		document, err := decodeDocument(r.Document)
		if err != nil {
			return nil, fmt.Errorf("document: %w", err)
		}
		return DocumentParsed{URI: r.URI, Document: document}, nil
	case TypeCaseAccepted:
		pickle := &messages.Pickle{}
		var locations pickleLocations
		if len(r.Pickle) > 0 {
			if err := json.Unmarshal(r.Pickle, pickle); err != nil {
				return nil, fmt.Errorf("pickle: %w", err)
			}
			if err := json.Unmarshal(r.Pickle, &locations); err != nil {
				return nil, fmt.Errorf("pickle locations: %w", err)
			}
		}
		return CaseAccepted{URI: r.URI, Pickle: pickle, Locations: locations.Locations}, nil
	case TypeCasePrepared:
		if r.SourceLocation == nil {
			return nil, fmt.Errorf("%s without sourceLocation", r.Type)
		}
		return CasePrepared{SourceLocation: *r.SourceLocation, Steps: r.Steps}, nil
	case TypeStepStarted:
		if r.TestCase == nil {
			return nil, fmt.Errorf("%s without testCase", r.Type)
		}
		return StepStarted{Index: r.Index, TestCase: *r.TestCase}, nil
	case TypeStepFinished:
		if r.TestCase == nil {
			return nil, fmt.Errorf("%s without testCase", r.Type)
		}
		result, err := r.Result.result()
		if err != nil {
			return nil, err
		}
		return StepFinished{Index: r.Index, Result: result, TestCase: *r.TestCase}, nil
	case TypeCaseFinished:
		if r.SourceLocation == nil {
			return nil, fmt.Errorf("%s without sourceLocation", r.Type)
		}
		result, err := r.Result.result()
		if err != nil {
			return nil, err
		}
		return CaseFinished{Result: result, SourceLocation: *r.SourceLocation}, nil
	case TypeRunFinished:
		var run RunResult
		if r.Result != nil {
			run = RunResult{Duration: millis(r.Result.Duration), Success: r.Result.Success}
		}
		return RunFinished{Result: run}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, r.Type)
	}
}

// legacyChildren maps the flat feature children of older runners, tagged
// with a type field, onto the field that wraps them in messages.FeatureChild
// and messages.RuleChild.
var legacyChildren = map[string]string{
	"Background":      "background",
	"Scenario":        "scenario",
	"ScenarioOutline": "scenario",
	"Rule":            "rule",
}

// decodeDocument reads a gherkin document in either the messages shape or
// the flat legacy shape. A child that ends up with no background, scenario or
// rule is an error.
func decodeDocument(raw json.RawMessage) (*messages.GherkinDocument, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, err
	}

	if featureRaw, ok := shape["feature"]; ok && !bytes.Equal(featureRaw, []byte("null")) {
		var feature map[string]json.RawMessage
		if err := json.Unmarshal(featureRaw, &feature); err != nil {
			return nil, fmt.Errorf("feature: %w", err)
		}
		if children, ok := feature["children"]; ok {
			normalized, err := normalizeChildren(children)
			if err != nil {
				return nil, fmt.Errorf("feature children: %w", err)
			}
			feature["children"] = normalized
		}
		normalized, err := json.Marshal(feature)
		if err != nil {
			return nil, err
		}
		shape["feature"] = normalized
	}

	normalized, err := json.Marshal(shape)
	if err != nil {
		return nil, err
	}
	document := &messages.GherkinDocument{}
	if err := json.Unmarshal(normalized, document); err != nil {
		return nil, err
	}
	if err := validateChildren(document.Feature); err != nil {
		return nil, err
	}
	return document, nil
}

func normalizeChildren(raw json.RawMessage) (json.RawMessage, error) {
	var children []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, err
	}
	for i, child := range children {
		var kind string
		if typeRaw, ok := child["type"]; ok {
			if err := json.Unmarshal(typeRaw, &kind); err != nil {
				return nil, fmt.Errorf("child %d type: %w", i, err)
			}
		}
		field, ok := legacyChildren[kind]
		if !ok {
			continue
		}
		if nested, ok := child["children"]; ok && field == "rule" {
			normalized, err := normalizeChildren(nested)
			if err != nil {
				return nil, fmt.Errorf("rule %d children: %w", i, err)
			}
			child["children"] = normalized
		}
		wrapped, err := json.Marshal(child)
		if err != nil {
			return nil, err
		}
		children[i] = map[string]json.RawMessage{field: wrapped}
	}
	return json.Marshal(children)
}

func validateChildren(feature *messages.Feature) error {
	if feature == nil {
		return nil
	}
	for i, child := range feature.Children {
		if child == nil || (child.Background == nil && child.Scenario == nil && child.Rule == nil) {
			return fmt.Errorf("feature child %d has no background, scenario or rule", i)
		}
		if child.Rule == nil {
			continue
		}
		for j, ruleChild := range child.Rule.Children {
			if ruleChild == nil || (ruleChild.Background == nil && ruleChild.Scenario == nil) {
				return fmt.Errorf("rule %q child %d has no background or scenario", child.Rule.Name, j)
			}
		}
	}
	return nil
}

func (r *resultRecord) result() (Result, error) {
	if r == nil {
		return Result{}, nil
	}
	failure, err := decodeException(r.Exception)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Duration: millis(r.Duration),
		Status:   r.Status,
	}
	if failure != nil {
		result.Exception = failure
	}
	return result, nil
}

// decodeException accepts either a plain string or an object with a
// message field.
func decodeException(raw json.RawMessage) (*Failure, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return nil, fmt.Errorf("exception: %w", err)
		}
		return &Failure{Message: message}, nil
	}
	failure := &Failure{}
	if err := json.Unmarshal(raw, failure); err != nil {
		return nil, fmt.Errorf("exception: %w", err)
	}
	return failure, nil
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
