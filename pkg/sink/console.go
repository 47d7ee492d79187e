package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/denizgursoy/cacik-reporter/pkg/reporter"
)

// Symbols for step status
const (
	symbolPass = "✓"
	symbolFail = "✗"
	symbolSkip = "-"
)

// Summary tracks scenario and step outcomes seen by a Console sink.
type Summary struct {
	ScenariosTotal  int
	ScenariosPassed int
	ScenariosFailed int
	StepsTotal      int
	StepsPassed     int
	StepsFailed     int
	StepsSkipped    int
}

// Console renders the message stream as a readable feature/scenario/step
// tree and acknowledges every message once it is written.
type Console struct {
	writer io.Writer
	mu     sync.Mutex

	keyword *color.Color
	text    *color.Color
	param   *color.Color
	skipped *color.Color
	pass    *color.Color
	fail    *color.Color
	pending *color.Color

	// failedSuites holds open scenario suites with at least one failed step.
	failedSuites map[string]bool
	summary      Summary
}

// NewConsole creates a console sink. Colors are used only when noColor is
// false and the writer is a terminal.
func NewConsole(writer io.Writer, noColor bool) *Console {
	useColors := !noColor && isTerminal(writer)

	newColor := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}

	return &Console{
		writer:       writer,
		keyword:      newColor(color.FgHiRed),
		text:         newColor(color.FgWhite),
		param:        newColor(color.FgHiBlue),
		skipped:      newColor(color.FgHiBlack),
		pass:         newColor(color.FgGreen),
		fail:         newColor(color.FgRed),
		pending:      newColor(color.FgYellow),
		failedSuites: make(map[string]bool),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) Send(message reporter.Message, ack func()) bool {
	c.mu.Lock()
	c.render(message)
	c.mu.Unlock()

	ack()
	return true
}

func (c *Console) render(message reporter.Message) {
	switch message.Event {
	case reporter.EventSuiteStart:
		if message.Parent == nil {
			c.writeln("")
			c.writeln(c.keyword.Sprint("Feature:") + " " + c.text.Sprint(message.Title))
			return
		}
		c.writeln("")
		c.writeln("  " + c.keyword.Sprint("Scenario:") + " " + c.colorizeOutlineParams(message.Title))
	case reporter.EventSuiteEnd:
		if message.Parent == nil {
			return
		}
		c.summary.ScenariosTotal++
		if c.failedSuites[message.UID] {
			c.summary.ScenariosFailed++
			delete(c.failedSuites, message.UID)
		} else {
			c.summary.ScenariosPassed++
		}
	case reporter.EventTestPass:
		c.summary.StepsTotal++
		c.summary.StepsPassed++
		c.writeln(fmt.Sprintf("%-60s %s", c.formatStep(message), c.pass.Sprint(symbolPass)))
	case reporter.EventTestFail:
		c.summary.StepsTotal++
		c.summary.StepsFailed++
		c.failedSuites[message.ParentUID()] = true
		c.writeln(fmt.Sprintf("%-60s %s", c.formatStep(message), c.fail.Sprint(symbolFail)))
		if message.Err != nil && message.Err.Message != "" {
			for _, line := range strings.Split(message.Err.Message, "\n") {
				c.writeln(c.fail.Sprint("      " + line))
			}
		}
	case reporter.EventTestPending:
		c.summary.StepsTotal++
		c.summary.StepsSkipped++
		step := "    " + c.skipped.Sprint(stepTitle(message))
		c.writeln(fmt.Sprintf("%-60s %s", step, c.pending.Sprint(symbolSkip)))
	}
}

func (c *Console) formatStep(message reporter.Message) string {
	return "    " + c.colorizeOutlineParams(stepTitle(message))
}

func stepTitle(message reporter.Message) string {
	if message.Title == "" {
		return "Hook"
	}
	return message.Title
}

// colorizeOutlineParams applies the text color to the name while highlighting
// <placeholder> segments with the parameter color.
func (c *Console) colorizeOutlineParams(name string) string {
	var b strings.Builder
	prev := 0
	for {
		start := strings.Index(name[prev:], "<")
		if start < 0 {
			break
		}
		start += prev
		end := strings.Index(name[start:], ">")
		if end < 0 {
			break
		}
		end += start + 1

		if start > prev {
			b.WriteString(c.text.Sprint(name[prev:start]))
		}
		b.WriteString(c.param.Sprint(name[start:end]))
		prev = end
	}
	if prev < len(name) {
		b.WriteString(c.text.Sprint(name[prev:]))
	}
	return b.String()
}

func (c *Console) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// Summary returns the outcome counters seen so far.
func (c *Console) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// PrintSummary prints the final scenario and step counters.
func (c *Console) PrintSummary() {
	summary := c.Summary()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln("")

	scenarioLine := fmt.Sprintf("%d scenario(s)", summary.ScenariosTotal)
	if summary.ScenariosTotal > 0 {
		parts := []string{}
		if summary.ScenariosPassed > 0 {
			parts = append(parts, c.pass.Sprintf("%d passed", summary.ScenariosPassed))
		}
		if summary.ScenariosFailed > 0 {
			parts = append(parts, c.fail.Sprintf("%d failed", summary.ScenariosFailed))
		}
		if len(parts) > 0 {
			scenarioLine += " (" + strings.Join(parts, ", ") + ")"
		}
	}
	c.writeln(scenarioLine)

	stepLine := fmt.Sprintf("%d step(s)", summary.StepsTotal)
	if summary.StepsTotal > 0 {
		parts := []string{}
		if summary.StepsPassed > 0 {
			parts = append(parts, c.pass.Sprintf("%d passed", summary.StepsPassed))
		}
		if summary.StepsFailed > 0 {
			parts = append(parts, c.fail.Sprintf("%d failed", summary.StepsFailed))
		}
		if summary.StepsSkipped > 0 {
			parts = append(parts, c.pending.Sprintf("%d skipped", summary.StepsSkipped))
		}
		if len(parts) > 0 {
			stepLine += " (" + strings.Join(parts, ", ") + ")"
		}
	}
	c.writeln(stepLine)
}
