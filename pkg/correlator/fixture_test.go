package correlator

import (
	messages "github.com/cucumber/messages/go/v21"
	"github.com/denizgursoy/cacik-reporter/pkg/events"
)

const featureURI = "./any.feature"

func loc(line int64) *messages.Location {
	return &messages.Location{Line: line}
}

func at(line int64) *events.SourceLocation {
	return &events.SourceLocation{URI: featureURI, Line: line}
}

func caseAt(line int64) events.TestCaseRef {
	return events.TestCaseRef{SourceLocation: events.SourceLocation{URI: featureURI, Line: line}}
}

// newFixtureDocument builds a feature with a background, an outline with two
// example rows and a plain scenario.
func newFixtureDocument() *messages.GherkinDocument {
	return &messages.GherkinDocument{
		Uri: featureURI,
		Feature: &messages.Feature{
			Location: loc(123),
			Tags:     []*messages.Tag{{Name: "@feature-tag1"}, {Name: "@feature-tag2"}},
			Keyword:  "Feature",
			Name:     "feature",
			Children: []*messages.FeatureChild{
				{
					Background: &messages.Background{
						Location: loc(124),
						Keyword:  "Background",
						Name:     "background",
						Steps: []*messages.Step{
							{Location: loc(125), Keyword: "Given ", Text: "background-title"},
						},
					},
				},
				{
					Scenario: &messages.Scenario{
						Location: loc(126),
						Tags:     []*messages.Tag{},
						Keyword:  "Scenario Outline",
						Name:     "A passing scenario",
						Steps: []*messages.Step{
							{Location: loc(127), Keyword: "When ", Text: `I click on link "=<link>"`},
							{Location: loc(128), Keyword: "Then ", Text: `should the title of the page be "Google"`},
						},
						Examples: []*messages.Examples{
							{
								Location:    loc(129),
								Tags:        []*messages.Tag{},
								Keyword:     "Examples",
								TableHeader: &messages.TableRow{Location: loc(130), Cells: []*messages.TableCell{{Location: loc(130), Value: "link"}}},
								TableBody: []*messages.TableRow{
									{Location: loc(131), Cells: []*messages.TableCell{{Location: loc(131), Value: "Google"}}},
									{Location: loc(132), Cells: []*messages.TableCell{{Location: loc(132), Value: "Also Google"}}},
								},
							},
						},
					},
				},
				{
					Scenario: &messages.Scenario{
						Location: loc(133),
						Tags:     []*messages.Tag{{Name: "@scenario-tag1"}, {Name: "@scenario-tag2"}},
						Keyword:  "Scenario",
						Name:     "scenario",
						Steps: []*messages.Step{
							{Location: loc(134), Keyword: "Given ", Text: "step-title-passing"},
							{Location: loc(135), Keyword: "When ", Text: "step-title-failing"},
						},
					},
				},
			},
		},
	}
}

func documentParsed() events.DocumentParsed {
	return events.DocumentParsed{URI: featureURI, Document: newFixtureDocument()}
}

func scenarioPrepared() events.CasePrepared {
	return events.CasePrepared{
		SourceLocation: *at(133),
		Steps: []events.PreparedStep{
			{SourceLocation: at(125), ActionLocation: at(133)},
			{SourceLocation: at(134), ActionLocation: at(133)},
			{SourceLocation: at(135), ActionLocation: at(133)},
		},
	}
}

func examplePrepared() events.CasePrepared {
	code := &events.SourceLocation{URI: "a code file", Line: -1}
	return events.CasePrepared{
		SourceLocation: *at(131),
		Steps: []events.PreparedStep{
			{SourceLocation: at(125), ActionLocation: code},
			{SourceLocation: at(127), ActionLocation: code},
			{SourceLocation: at(128), ActionLocation: code},
		},
	}
}
