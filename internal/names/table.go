// Package names provides weighted random name tables backed by plain-text word lists.
//
// Each line is `Name[,Weight]`; the weight defaults to 1. A missing or empty file yields
// no name rather than an error.
package names

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/talgya/kinforge/internal/entropy"
)

// Table is a parsed name list with a cumulative weight per entry.
type Table struct {
	names      []string
	cumulative []int
	total      int
}

// Parse reads `Name[,Weight]` lines. Blank lines are skipped. A weight that is not an
// integer is an error: the file format is the caller's contract.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		name, weight := text, 1
		if i := strings.LastIndexByte(text, ','); i >= 0 {
			w, err := strconv.Atoi(strings.TrimSpace(text[i+1:]))
			if err != nil {
				return nil, fmt.Errorf("line %d: weight %q: %w", line, text[i+1:], err)
			}
			name, weight = strings.TrimSpace(text[:i]), w
		}
		t.Add(name, weight)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan names: %w", err)
	}
	return t, nil
}

// Load parses the file at path. A missing file returns (nil, nil).
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open names %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse names %s: %w", path, err)
	}
	return t, nil
}

// Add appends a name with weight. Non-positive weights are kept but can never be drawn.
func (t *Table) Add(name string, weight int) {
	if weight < 0 {
		weight = 0
	}
	t.total += weight
	t.names = append(t.names, name)
	t.cumulative = append(t.cumulative, t.total)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Total returns the sum of all weights.
func (t *Table) Total() int {
	if t == nil {
		return 0
	}
	return t.total
}

// Pick draws a name with probability proportional to its weight. ok is false for a nil
// or empty table.
func (t *Table) Pick(rng *entropy.Source) (string, bool) {
	if t == nil || t.total <= 0 {
		return "", false
	}
	return t.At(rng.Between(1, t.total))
}

// At returns the entry whose cumulative weight is the first to reach v, i.e. the entry
// with cumulative[i] >= v and cumulative[i-1] < v.
func (t *Table) At(v int) (string, bool) {
	if t == nil || v < 0 || v > t.total {
		return "", false
	}
	i := sort.SearchInts(t.cumulative, v)
	if i >= len(t.names) {
		return "", false
	}
	return t.names[i], true
}
