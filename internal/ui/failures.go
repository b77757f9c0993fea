package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"simrun/internal/domain"
	"simrun/internal/parser"
)

// logTailLines is how much of a test log the details pane shows
const logTailLines = 60

// ResolvedStore persists the resolved mark of a test
type ResolvedStore interface {
	SetResolved(summary *domain.RunSummary, name string, resolved bool) error
}

// FailureViewer displays the failed and warning tests of a run in an
// interactive TUI
type FailureViewer struct {
	store ResolvedStore
}

// NewFailureViewer creates a new FailureViewer
func NewFailureViewer(store ResolvedStore) *FailureViewer {
	return &FailureViewer{store: store}
}

// attentionItems returns the indexes of tests that failed or warned
func attentionItems(summary *domain.RunSummary) []int {
	var items []int
	for i, t := range summary.Tests {
		if t.Status == domain.StatusFailed || t.Warning {
			items = append(items, i)
		}
	}
	return items
}

// View displays the run's failures in an interactive TUI
func (fv *FailureViewer) View(summary *domain.RunSummary) error {
	items := attentionItems(summary)
	if len(items) == 0 {
		color.Green("✓ No failed or warning tests in the last run!")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	listItemText := func(n int) string {
		rec := summary.Tests[items[n]]
		tag := "[red]F"
		if rec.Status == domain.StatusPassed {
			tag = "[yellow]W"
		}
		if rec.Resolved {
			return fmt.Sprintf("[gray]✓ %d. %s[white]", n+1, rec.Name)
		}
		return fmt.Sprintf("%s [yellow]%d.[white] %s", tag, n+1, rec.Name)
	}

	for n := range items {
		list.AddItem(listItemText(n), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsView, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		unresolved := 0
		for _, i := range items {
			if !summary.Tests[i].Resolved {
				unresolved++
			}
		}
		headerView.SetText(fmt.Sprintf(" Run %s: %d to look at, %d unresolved | ↑↓ navigate, [yellow]R[white] mark resolved, → scroll log, ← back, Ctrl+C exit ",
			summary.Meta.RunID, len(items), unresolved))
	}

	updateDetails := func() {
		n := list.GetCurrentItem()
		if n < 0 || n >= len(items) {
			return
		}
		rec := summary.Tests[items[n]]
		statsView.SetText(formatTestStats(rec))
		tail, err := readTail(rec.LogPath, logTailLines)
		if err != nil {
			tail = []string{fmt.Sprintf("(log unavailable: %v)", err)}
		}
		detailsView.SetText(formatTestDetails(rec, tail)).ScrollToEnd()
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				n := list.GetCurrentItem()
				if n >= 0 && n < len(items) {
					rec := &summary.Tests[items[n]]
					if err := fv.store.SetResolved(summary, rec.Name, !rec.Resolved); err != nil {
						statsView.SetText(fmt.Sprintf("[red]could not save: %v[white]", err))
						return nil
					}
					list.SetItemText(n, listItemText(n), "")
					updateHeader()
					updateDetails()
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})

	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// formatTestStats formats the header line of a test using tview color tags
func formatTestStats(rec domain.TestRecord) string {
	status := "[green]" + string(rec.Status)
	if rec.Status == domain.StatusFailed {
		status = "[red]" + string(rec.Status)
	}
	warn := ""
	if rec.Warning {
		warn = " [yellow]WARNING"
	}
	return fmt.Sprintf("[cyan]test:[white] %s  %s%s[white]  [cyan]phase:[white] %s  [cyan]%.1fs[white]\n[cyan]out:[white] %s",
		rec.Name, status, warn, rec.Phase, rec.Seconds, rec.OutDir)
}

// formatTestDetails formats the error and log tail of a test
func formatTestDetails(rec domain.TestRecord, tail []string) string {
	var b strings.Builder
	if rec.Error != "" {
		fmt.Fprintf(&b, "[red]Error:[white]\n%s\n\n", tview.Escape(rec.Error))
	}
	fmt.Fprintf(&b, "[yellow]Log: %s[white]\n", rec.LogPath)
	p := parser.NewSimOutputParser()
	for _, line := range tail {
		escaped := tview.Escape(line)
		class := p.ClassifyLine(line)
		switch {
		case class.Pass:
			fmt.Fprintf(&b, "[green]%s[white]\n", escaped)
		case class.Warning:
			fmt.Fprintf(&b, "[yellow]%s[white]\n", escaped)
		case strings.Contains(strings.ToUpper(line), "ERROR"):
			fmt.Fprintf(&b, "[red]%s[white]\n", escaped)
		default:
			fmt.Fprintf(&b, "%s\n", escaped)
		}
	}
	return b.String()
}

// readTail returns the last n lines of the file at path
func readTail(path string, n int) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no log was written")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tail(f, n)
}

func tail(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	ring := make([]string, 0, n)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, sc.Text())
	}
	return ring, sc.Err()
}
