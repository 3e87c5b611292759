// Name library: caches tables by file and resolves relative paths under a root dir.
package names

import (
	"log/slog"
	"path/filepath"

	"github.com/talgya/kinforge/internal/entropy"
)

// Library loads name files on first use and keeps them, including misses.
type Library struct {
	root   string
	tables map[string]*Table
}

// NewLibrary creates a library resolving relative paths under root.
func NewLibrary(root string) *Library {
	return &Library{root: root, tables: make(map[string]*Table)}
}

// Resolve returns the absolute location of a name file.
func (l *Library) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}

// Table returns the parsed table for path, nil when the file is missing or path is empty.
func (l *Library) Table(path string) (*Table, error) {
	if path == "" {
		return nil, nil
	}
	full := l.Resolve(path)
	if t, ok := l.tables[full]; ok {
		return t, nil
	}
	t, err := Load(full)
	if err != nil {
		return nil, err
	}
	if t == nil {
		slog.Debug("name file missing", "path", full)
	}
	l.tables[full] = t
	return t, nil
}

// Put registers an in-memory table under path.
func (l *Library) Put(path string, t *Table) {
	l.tables[l.Resolve(path)] = t
}

// Pick draws from the first path in order that yields a name.
func (l *Library) Pick(rng *entropy.Source, paths ...string) (string, bool, error) {
	for _, p := range paths {
		t, err := l.Table(p)
		if err != nil {
			return "", false, err
		}
		if name, ok := t.Pick(rng); ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

// Files are the name lists of one culture. Empty paths are skipped.
type Files struct {
	Masculine string `yaml:"masculine,omitempty"`
	Feminine  string `yaml:"feminine,omitempty"`
	Surname   string `yaml:"surname,omitempty"`
}

// First draws a first name, preferring the list matching the archetype and falling back
// to the other one. Without a known archetype the order is random.
func (l *Library) First(rng *entropy.Source, files Files, archetype string) (string, bool, error) {
	switch archetype {
	case "Man":
		return l.Pick(rng, files.Masculine, files.Feminine)
	case "Woman":
		return l.Pick(rng, files.Feminine, files.Masculine)
	}
	if rng.Intn(2) == 0 {
		return l.Pick(rng, files.Masculine, files.Feminine)
	}
	return l.Pick(rng, files.Feminine, files.Masculine)
}

// Surname draws from the surname list.
func (l *Library) Surname(rng *entropy.Source, files Files) (string, bool, error) {
	return l.Pick(rng, files.Surname)
}
