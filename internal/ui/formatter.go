package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"simrun/internal/catalog"
	"simrun/internal/domain"
	"simrun/internal/results"
)

const bannerFill = "===================="

// Formatter formats and displays output
type Formatter struct {
	out io.Writer
	log *zap.Logger
}

// NewFormatter creates a new Formatter. The end-of-run report goes through
// log so it reaches every log sink; tables and lists are written to out.
func NewFormatter(out io.Writer, log *zap.Logger) *Formatter {
	return &Formatter{
		out: out,
		log: log,
	}
}

func banner(title string) string {
	return bannerFill + " " + title + " " + bannerFill
}

// Render reports the passed, failed and warning tests of a run, each in
// selection order, followed by the totals
func (f *Formatter) Render(set *results.Set) {
	f.section(set.Passed(), "PASSED TESTS", "NO TESTS PASSED")
	f.section(set.Failed(), "FAILED TESTS", "NO TESTS FAILED")
	f.section(set.Warnings(), "TESTS WITH WARNINGS", "NO TESTS WITH WARNINGS")

	passed, failed, _ := set.Counts()
	f.log.Info(banner("SUMMARY"))
	f.log.Info(fmt.Sprintf("Total PASSED tests: %d", passed))
	f.log.Info(fmt.Sprintf("Total FAILED tests: %d", failed))
}

func (f *Formatter) section(rs []domain.RunResult, title, empty string) {
	if len(rs) == 0 {
		f.log.Info(banner(empty))
		return
	}
	f.log.Info(banner(title))
	for _, r := range rs {
		f.log.Info(fmt.Sprintf("%s: %s", r.Test, r.OutDir))
	}
}

// PrintMetaStats displays the statistics table of a run
func (f *Formatter) PrintMetaStats(meta domain.RunMeta) {
	cyan := color.New(color.FgCyan)
	white := color.New(color.FgWhite)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                  Simulation Run Statistics                    ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Run ID", meta.RunID, white},
		{"Total Tests", fmt.Sprint(meta.TotalTests), white},
		{"Passed Tests", fmt.Sprint(meta.PassedTests), green},
		{"Failed Tests", fmt.Sprint(meta.FailedTests), red},
		{"Tests With Warnings", fmt.Sprint(meta.WarningTests), yellow},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Workers", fmt.Sprint(meta.Workers), white},
		{"Output Dir", meta.OutputDir, white},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼─────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if meta.FailedTests == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
	} else {
		red.Fprintf(f.out, "✗ %d of %d test(s) failed\n", meta.FailedTests, meta.TotalTests)
	}
}

func failMarker(name string, failed map[string]struct{}) string {
	if _, ok := failed[name]; ok {
		return " " + color.RedString("[F]")
	}
	return ""
}

// PrintTestList prints catalog tests with their tags and testbench.
// Tests in failed (from the last run) are marked with [F].
func (f *Formatter) PrintTestList(names []string, cat *catalog.Catalog, failed map[string]struct{}) {
	color.New(color.FgGreen).Fprintf(f.out, "Found %d test(s):\n\n", len(names))

	for i, name := range names {
		connector := "├── "
		if i == len(names)-1 {
			connector = "└── "
		}
		spec, _ := cat.Lookup(name)
		fmt.Fprintf(f.out, "%s%s%s %s %s\n",
			connector,
			color.CyanString(name),
			failMarker(name, failed),
			color.YellowString("[%s]", strings.Join(spec.Tags, ", ")),
			spec.TB,
		)
	}
}

// PrintRegressions prints every regression as a tree of its member tests
func (f *Formatter) PrintRegressions(cat *catalog.Catalog, failed map[string]struct{}) {
	names := cat.RegressionNames()
	color.New(color.FgGreen).Fprintf(f.out, "Found %d regression(s):\n\n", len(names))

	for i, name := range names {
		isLastRegression := i == len(names)-1
		if isLastRegression {
			color.New(color.FgCyan).Fprintf(f.out, "└── %s\n", name)
		} else {
			color.New(color.FgCyan).Fprintf(f.out, "├── %s\n", name)
		}

		members := cat.Regressions[name]
		for j, test := range members {
			var prefix string
			isLastMember := j == len(members)-1
			switch {
			case isLastRegression && isLastMember:
				prefix = "    └── "
			case isLastRegression:
				prefix = "    ├── "
			case isLastMember:
				prefix = "│   └── "
			default:
				prefix = "│   ├── "
			}

			label := color.YellowString(test)
			if _, ok := cat.Lookup(test); !ok {
				label = color.RedString("%s (not in catalog)", test)
			}
			fmt.Fprintf(f.out, "%s%s%s\n", prefix, label, failMarker(test, failed))
		}
	}
}

// PrintHistory prints recent runs, newest first
func (f *Formatter) PrintHistory(runs []domain.RunMeta) {
	if len(runs) == 0 {
		color.New(color.FgYellow).Fprintln(f.out, "No runs recorded yet")
		return
	}

	fmt.Fprintf(f.out, "%-36s  %-25s  %6s  %6s  %6s  %8s\n", "RUN ID", "STARTED", "PASSED", "FAILED", "WARN", "DURATION")
	for _, r := range runs {
		failed := color.GreenString("%6d", r.FailedTests)
		if r.FailedTests > 0 {
			failed = color.RedString("%6d", r.FailedTests)
		}
		fmt.Fprintf(f.out, "%-36s  %-25s  %6d  %s  %6d  %7.1fs\n",
			r.RunID, r.Timestamp, r.PassedTests, failed, r.WarningTests, r.DurationSeconds)
	}
}

// PrintTestHistory prints the outcomes of one test across runs
func (f *Formatter) PrintTestHistory(name string, recs []domain.TestRecord) {
	if len(recs) == 0 {
		color.New(color.FgYellow).Fprintf(f.out, "No history for test %s\n", name)
		return
	}

	color.New(color.FgCyan).Fprintf(f.out, "History of %s:\n", name)
	for _, r := range recs {
		status := color.GreenString(string(r.Status))
		if r.Status != domain.StatusPassed {
			status = color.RedString(string(r.Status))
		}
		line := fmt.Sprintf("  %s  %-14s %7.1fs  %s", status, r.Phase, r.Seconds, r.OutDir)
		if r.Warning {
			line += " " + color.YellowString("[W]")
		}
		fmt.Fprintln(f.out, line)
	}
}
