package catalog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"simrun/internal/domain"
	"simrun/internal/orderedset"
)

// Selection is the ordered, de-duplicated active test set
type Selection struct {
	Tests    []string
	Warnings []error // Each is a *domain.Error of KindSelection
}

// Select expands regressions and merges them with explicit tests. Explicit
// tests come first, then regression members in the order requested; the
// first occurrence of a name fixes its position. Unknown regressions and
// tests are logged as warnings and skipped. Select never fails.
func Select(regressions, tests []string, cat *Catalog, log *zap.Logger) Selection {
	var sel Selection
	warn := func(op, name string) {
		err := &domain.Error{Kind: domain.KindSelection, Op: op, Err: fmt.Errorf("%q %w", name, domain.ErrNotFound)}
		sel.Warnings = append(sel.Warnings, err)
		log.Warn(fmt.Sprintf("Unable to find %s: %s", strings.TrimPrefix(op, "find "), name))
	}

	requested := orderedset.New(tests...)
	for _, regression := range regressions {
		members, ok := cat.Regressions[regression]
		if !ok {
			warn("find regression", regression)
			continue
		}
		requested.Add(members...)
	}

	active := orderedset.New[string]()
	for _, name := range requested.Items() {
		if _, ok := cat.Lookup(name); !ok {
			warn("find test", name)
			continue
		}
		active.Add(name)
	}

	sel.Tests = active.Items()
	log.Info("running tests: " + strings.Join(sel.Tests, ", "))
	return sel
}
