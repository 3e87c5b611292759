// Package option provides the weighted option tree: nodes with selection modes,
// context-conditional modifiers and the Choose algorithm that checks a random subtree.
//
// Nodes live in an index-addressed arena owned by a Tree. Parent links are NodeIDs,
// paths are resolved through a table built as nodes are added.
package option

import (
	"errors"
	"fmt"
	"strings"
)

// PathSeparator joins node names into a path.
const PathSeparator = "/"

// DefaultWeight is the weight of a node that does not declare one.
const DefaultWeight = 1

// NodeID addresses a node inside its Tree.
type NodeID int32

// None is the absent node.
const None NodeID = -1

var (
	ErrDuplicateName = errors.New("duplicate sibling name")
	ErrUnknownPath   = errors.New("unknown path")
	ErrEmptyName     = errors.New("empty node name")
)

// Kind tags the payload a node carries.
type Kind uint8

const (
	KindCategory Kind = iota
	KindTrait
	KindGender
	KindOrientation
	KindRace
	KindAge
	KindRelationship
)

// Attrs is the kind-specific payload of a node (gender archetype, orientation flags,
// age bracket, relationship definition...).
type Attrs interface {
	Kind() Kind
}

// Node is a selectable item in a Tree.
type Node struct {
	Name string

	Weight              int
	IsChoice            bool // children are exclusive alternatives rather than always-active
	IsMultiSelect       bool // children chosen by independent percent trials
	IsManualMultiSelect bool // single draw at generation, users may check more later
	AllowsNone          bool
	NoneWeight          int

	Modifiers []Modifier
	Attrs     Attrs

	checked  bool
	expanded bool
	parent   NodeID
	children []NodeID
}

// Kind returns the payload kind, KindCategory for nodes without one.
func (n *Node) Kind() Kind {
	if n.Attrs == nil {
		return KindCategory
	}
	return n.Attrs.Kind()
}

// Checked reports whether the node is selected.
func (n *Node) Checked() bool { return n.checked }

// Expanded reports whether the node was opened by checking a descendant.
func (n *Node) Expanded() bool { return n.expanded }

// exclusive reports whether checking one child clears its siblings.
func (n *Node) exclusive() bool {
	return n.IsChoice && !n.IsMultiSelect && !n.IsManualMultiSelect
}

// Tree is an arena of option nodes rooted at index 0.
type Tree struct {
	nodes []Node
	paths map[string]NodeID
}

// NewTree creates a tree holding only a root node. The root name is not part of paths.
func NewTree(rootName string) *Tree {
	t := &Tree{paths: make(map[string]NodeID)}
	t.nodes = append(t.nodes, Node{Name: rootName, Weight: DefaultWeight, parent: None})
	t.paths[""] = 0
	return t
}

// Root returns the root node id.
func (t *Tree) Root() NodeID { return 0 }

// Len returns the number of nodes including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id. Panics on an id from another tree.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Add appends n as the last child of parent and returns its id.
func (t *Tree) Add(parent NodeID, n Node) (NodeID, error) {
	if n.Name == "" {
		return None, ErrEmptyName
	}
	if parent < 0 || int(parent) >= len(t.nodes) {
		return None, fmt.Errorf("add %q: parent %d out of range", n.Name, parent)
	}
	if _, ok := t.Child(parent, n.Name); ok {
		return None, fmt.Errorf("add %q under %q: %w", n.Name, t.PathString(parent), ErrDuplicateName)
	}

	id := NodeID(len(t.nodes))
	n.parent = parent
	n.children = nil
	n.checked = false
	n.expanded = false
	t.nodes = append(t.nodes, n)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	t.paths[t.PathString(id)] = id
	return id, nil
}

// MustAdd is Add for trees built from trusted literals.
func (t *Tree) MustAdd(parent NodeID, n Node) NodeID {
	id, err := t.Add(parent, n)
	if err != nil {
		panic(err)
	}
	return id
}

// Parent returns the parent id, None for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the ordered child ids. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Child finds a direct child by name.
func (t *Tree) Child(id NodeID, name string) (NodeID, bool) {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].Name == name {
			return c, true
		}
	}
	return None, false
}

// Path returns the names from the first level below the root down to id.
func (t *Tree) Path(id NodeID) []string {
	var parts []string
	for cur := id; cur != None && cur != t.Root(); cur = t.nodes[cur].parent {
		parts = append(parts, t.nodes[cur].Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// PathString returns Path joined by PathSeparator.
func (t *Tree) PathString(id NodeID) string {
	return strings.Join(t.Path(id), PathSeparator)
}

// Lookup resolves a joined path.
func (t *Tree) Lookup(path string) (NodeID, bool) {
	id, ok := t.paths[strings.Trim(path, PathSeparator)]
	return id, ok
}

// LookupParts resolves a path given as separate names.
func (t *Tree) LookupParts(parts ...string) (NodeID, bool) {
	return t.Lookup(strings.Join(parts, PathSeparator))
}

// MustLookup resolves path or returns an ErrUnknownPath error.
func (t *Tree) MustLookup(path string) (NodeID, error) {
	id, ok := t.Lookup(path)
	if !ok {
		return None, fmt.Errorf("lookup %q: %w", path, ErrUnknownPath)
	}
	return id, nil
}

// IsWithin reports whether id equals ancestor or lies below it.
func (t *Tree) IsWithin(id, ancestor NodeID) bool {
	for cur := id; cur != None; cur = t.nodes[cur].parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Checked reports whether id is checked.
func (t *Tree) Checked(id NodeID) bool { return t.nodes[id].checked }

// PathChecked reports whether the node at path exists and is checked.
func (t *Tree) PathChecked(path string) bool {
	id, ok := t.Lookup(path)
	return ok && t.nodes[id].checked
}

// SetChecked checks or unchecks id.
//
// Checking forces all ancestors checked and expanded, and clears the siblings of every
// node on the way up whose parent is a single-select choice. Unchecking cascades to
// all descendants.
func (t *Tree) SetChecked(id NodeID, on bool) {
	if !on {
		t.uncheck(id)
		return
	}
	for cur := id; cur != None; cur = t.nodes[cur].parent {
		t.nodes[cur].checked = true
		if cur != id {
			t.nodes[cur].expanded = true
		}
		p := t.nodes[cur].parent
		if p != None && t.nodes[p].exclusive() {
			for _, sib := range t.nodes[p].children {
				if sib != cur && t.nodes[sib].checked {
					t.uncheck(sib)
				}
			}
		}
	}
}

// CheckExtra checks id without clearing its siblings. Used for manual multi-select
// nodes, where a user may add siblings to the generated pick.
func (t *Tree) CheckExtra(id NodeID) {
	p := t.nodes[id].parent
	if p == None || !t.nodes[p].IsManualMultiSelect {
		t.SetChecked(id, true)
		return
	}
	t.SetChecked(p, true)
	t.nodes[p].expanded = true
	t.nodes[id].checked = true
}

func (t *Tree) uncheck(id NodeID) {
	t.nodes[id].checked = false
	for _, c := range t.nodes[id].children {
		t.uncheck(c)
	}
}

// Clear unchecks every descendant of id, leaving id itself alone.
func (t *Tree) Clear(id NodeID) {
	for _, c := range t.nodes[id].children {
		t.uncheck(c)
	}
}

// CheckedChildren returns the checked direct children of id.
func (t *Tree) CheckedChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if t.nodes[c].checked {
			out = append(out, c)
		}
	}
	return out
}

// CheckedLeaves returns the checked nodes below id that have no checked children.
func (t *Tree) CheckedLeaves(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if !t.nodes[c].checked {
			continue
		}
		sub := t.CheckedLeaves(c)
		if len(sub) == 0 {
			out = append(out, c)
		} else {
			out = append(out, sub...)
		}
	}
	return out
}

// Walk visits id and its descendants depth-first. Returning false skips the subtree.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range t.nodes[id].children {
		t.Walk(c, fn)
	}
}

// Clone returns a deep copy of the arena. Modifier slices and payloads are shared,
// they are never mutated after a tree is built.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes: make([]Node, len(t.nodes)),
		paths: make(map[string]NodeID, len(t.paths)),
	}
	copy(c.nodes, t.nodes)
	for i := range c.nodes {
		c.nodes[i].children = append([]NodeID(nil), t.nodes[i].children...)
	}
	for k, v := range t.paths {
		c.paths[k] = v
	}
	return c
}

// Graft copies the subtree of src rooted at srcID under parent in t and returns the
// new id of the copied root. Checked state is not copied.
func (t *Tree) Graft(parent NodeID, src *Tree, srcID NodeID) (NodeID, error) {
	n := src.nodes[srcID]
	id, err := t.Add(parent, n)
	if err != nil {
		return None, err
	}
	for _, c := range n.children {
		if _, err := t.Graft(id, src, c); err != nil {
			return None, err
		}
	}
	return id, nil
}
