package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"simrun/internal/domain"
)

// errFound stops a walk once Find has its match
var errFound = errors.New("found")

// Scanner walks project trees for testbench sources and hex artifacts
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan returns every file under root whose base name matches pattern
// (filepath.Match syntax), in lexical walk order
func (s *Scanner) Scan(root, pattern string) ([]string, error) {
	root, err := checkDir(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = s.walk(root, true, func(path string, d fs.DirEntry) error {
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Find returns the absolute path of the first file named name under root.
// Hidden directories are searched too; only the configured skip dirs are not.
// It returns an error wrapping domain.ErrNotFound when there is none.
func (s *Scanner) Find(root, name string) (string, error) {
	root, err := checkDir(root)
	if err != nil {
		return "", err
	}

	var match string
	err = s.walk(root, false, func(path string, d fs.DirEntry) error {
		if d.Name() == name {
			match = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", err
	}
	if match == "" {
		return "", fmt.Errorf("%s under %s: %w", name, root, domain.ErrNotFound)
	}
	return filepath.Abs(match)
}

func (s *Scanner) walk(root string, skipHidden bool, visit func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path == root {
				return nil
			}
			// Skip hidden directories (starting with .)
			if skipHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		return visit(path, d)
	})
}

func checkDir(root string) (string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s: %w", root, domain.ErrNotFound)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return root, nil
}
