package parser

import "strings"

const (
	// PassSentinel marks a passing test; matched exactly and case-sensitively
	PassSentinel = "TEST PASSED"
	// warningMarker is matched case-insensitively
	warningMarker = "WARNING"
	// dumpMarker excludes waveform-dump chatter from warning detection
	dumpMarker = "VCD"
)

// LineClass is what a single output line says about the test
type LineClass struct {
	Pass    bool
	Warning bool
}

// SimOutputParser implements the pass/warning line protocol of simulated programs
type SimOutputParser struct{}

// NewSimOutputParser creates a new SimOutputParser
func NewSimOutputParser() *SimOutputParser {
	return &SimOutputParser{}
}

// ClassifyLine reports whether line carries the pass sentinel and whether it
// is a warning. A line mentioning VCD is never a warning.
func (p *SimOutputParser) ClassifyLine(line string) LineClass {
	upper := strings.ToUpper(line)
	return LineClass{
		Pass:    strings.Contains(line, PassSentinel),
		Warning: strings.Contains(upper, warningMarker) && !strings.Contains(upper, dumpMarker),
	}
}

// Classification accumulates line classes over a test's output
type Classification struct {
	parser  Parser
	passed  bool
	warning bool
}

// NewClassification starts an empty classification using p
func NewClassification(p Parser) *Classification {
	return &Classification{parser: p}
}

// ObserveCompile records a compiler output line. Only warnings count here;
// the pass sentinel is honored in simulation output alone.
func (c *Classification) ObserveCompile(line string) {
	if c.parser.ClassifyLine(line).Warning {
		c.warning = true
	}
}

// ObserveSimulation records a simulation output line
func (c *Classification) ObserveSimulation(line string) {
	lc := c.parser.ClassifyLine(line)
	if lc.Pass {
		c.passed = true
	}
	if lc.Warning {
		c.warning = true
	}
}

// Passed reports whether the pass sentinel was seen in simulation output
func (c *Classification) Passed() bool { return c.passed }

// Warning reports whether any warning line was seen in either phase
func (c *Classification) Warning() bool { return c.warning }
