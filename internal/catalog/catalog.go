// Package catalog loads the YAML test catalog and resolves requested
// regressions and tests into the active test set.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"simrun/internal/domain"
)

// Catalog holds every test and regression definition. It is read-only once loaded.
type Catalog struct {
	Tests       map[string]domain.TestSpec `yaml:"tests"`
	Regressions map[string][]string        `yaml:"regressions"`
}

// Load reads and validates the catalog at path. A missing file wraps
// domain.ErrNotFound; anything unparseable or invalid wraps domain.ErrMalformed.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		cause := err
		if errors.Is(err, fs.ErrNotExist) {
			cause = fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		return nil, &domain.Error{Kind: domain.KindConfiguration, Op: "load catalog", Path: path, Err: cause}
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindConfiguration, Op: "load catalog", Path: path, Err: err}
	}
	return cat, nil
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if cat.Tests == nil {
		cat.Tests = make(map[string]domain.TestSpec)
	}
	if cat.Regressions == nil {
		cat.Regressions = make(map[string][]string)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks that every test has a usable name, names a testbench and
// carries only known tags. Test names become directory and file names, so
// they must be a single path element.
// Regression members are not checked here; unknown members are a selection warning.
func (c *Catalog) Validate() error {
	known := make(map[string]bool, len(domain.KnownTags))
	for _, tag := range domain.KnownTags {
		known[tag] = true
	}

	var problems []string
	for _, name := range c.Names() {
		if !validName(name) {
			problems = append(problems, fmt.Sprintf("invalid test name %q", name))
			continue
		}
		spec := c.Tests[name]
		if strings.TrimSpace(spec.TB) == "" {
			problems = append(problems, fmt.Sprintf("test %q has no tb", name))
		}
		for _, tag := range spec.Tags {
			if !known[tag] {
				problems = append(problems, fmt.Sprintf("test %q has unknown tag %q", name, tag))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMalformed, strings.Join(problems, "; "))
	}
	return nil
}

func validName(name string) bool {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/"+string(filepath.Separator))
}

// Lookup returns the spec for a test name
func (c *Catalog) Lookup(name string) (domain.TestSpec, bool) {
	spec, ok := c.Tests[name]
	return spec, ok
}

// Names returns all test names, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Tests))
	for name := range c.Tests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegressionNames returns all regression names, sorted
func (c *Catalog) RegressionNames() []string {
	names := make([]string, 0, len(c.Regressions))
	for name := range c.Regressions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithTag returns the sorted names of tests carrying tag. An empty tag matches all.
func (c *Catalog) WithTag(tag string) []string {
	if tag == "" {
		return c.Names()
	}
	var names []string
	for _, name := range c.Names() {
		if c.Tests[name].HasTag(tag) {
			names = append(names, name)
		}
	}
	return names
}
