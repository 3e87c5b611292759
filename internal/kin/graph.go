// Note graph: characters in a note hierarchy plus explicit relationship links.
package kin

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

var (
	ErrHasChildren = errors.New("character has child notes")
	ErrNoCharacter = errors.New("no such character")
)

// Link records that To is From's Relationship, outside the note hierarchy.
type Link struct {
	From         ID
	To           ID
	Relationship option.NodeID
}

// Relation is one relationship held by a character: Target is its Relationship.
type Relation struct {
	Target       ID
	Relationship option.NodeID
	Inferred     bool
}

// Graph is an arena of characters. Removed slots stay nil so IDs remain stable.
type Graph struct {
	catalog *relations.Catalog
	chars   []*Character
	links   []Link
}

// NewGraph creates an empty graph resolving relationships against catalog.
func NewGraph(catalog *relations.Catalog) *Graph {
	return &Graph{catalog: catalog}
}

// Catalog returns the relationship catalog.
func (g *Graph) Catalog() *relations.Catalog { return g.catalog }

// Get returns a character, nil for unknown or removed ids.
func (g *Graph) Get(id ID) *Character {
	if id < 0 || int(id) >= len(g.chars) {
		return nil
	}
	return g.chars[id]
}

// Len returns the number of live characters.
func (g *Graph) Len() int {
	n := 0
	for _, c := range g.chars {
		if c != nil {
			n++
		}
	}
	return n
}

// Characters returns every live character in creation order.
func (g *Graph) Characters() []*Character {
	out := make([]*Character, 0, len(g.chars))
	for _, c := range g.chars {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Links returns every explicit link.
func (g *Graph) Links() []Link { return append([]Link(nil), g.links...) }

// AddRoot creates a character with no note parent.
func (g *Graph) AddRoot(options *option.Tree) *Character {
	c := &Character{
		ID:           ID(len(g.chars)),
		Options:      options,
		Relationship: option.None,
		parent:       NoID,
	}
	g.chars = append(g.chars, c)
	return c
}

// AddChild creates a character as a child note of parent holding relationship rel
// (the new character is parent's rel).
func (g *Graph) AddChild(parent ID, options *option.Tree, rel option.NodeID) (*Character, error) {
	p := g.Get(parent)
	if p == nil {
		return nil, fmt.Errorf("add child of %d: %w", parent, ErrNoCharacter)
	}
	c := g.AddRoot(options)
	c.parent = parent
	c.Relationship = rel
	p.children = append(p.children, c.ID)
	return c, nil
}

// Remove deletes a character without child notes, along with its links.
func (g *Graph) Remove(id ID) error {
	c := g.Get(id)
	if c == nil {
		return fmt.Errorf("remove %d: %w", id, ErrNoCharacter)
	}
	if len(c.children) > 0 {
		return fmt.Errorf("remove %d: %w", id, ErrHasChildren)
	}
	if p := g.Get(c.parent); p != nil {
		p.children = slices.DeleteFunc(p.children, func(x ID) bool { return x == id })
	}
	g.links = slices.DeleteFunc(g.links, func(l Link) bool { return l.From == id || l.To == id })
	g.chars[id] = nil
	return nil
}

// Move re-parents a note. Moving a note under itself or one of its descendants panics.
func (g *Graph) Move(id, newParent ID) {
	c, np := g.Get(id), g.Get(newParent)
	if c == nil || np == nil {
		panic(fmt.Sprintf("kin: move %d under %d: unknown character", id, newParent))
	}
	if g.IsAncestor(id, newParent) {
		panic(fmt.Sprintf("kin: move %d under its own descendant %d", id, newParent))
	}
	if old := g.Get(c.parent); old != nil {
		old.children = slices.DeleteFunc(old.children, func(x ID) bool { return x == id })
	}
	c.parent = newParent
	np.children = append(np.children, id)
}

// IsAncestor reports whether a is b or a note ancestor of b.
func (g *Graph) IsAncestor(a, b ID) bool {
	for cur := b; cur != NoID; {
		if cur == a {
			return true
		}
		c := g.Get(cur)
		if c == nil {
			return false
		}
		cur = c.parent
	}
	return false
}

// Ancestors returns note ancestors from the parent up to the root.
func (g *Graph) Ancestors(id ID) []ID {
	var out []ID
	for c := g.Get(id); c != nil && c.parent != NoID; c = g.Get(c.parent) {
		out = append(out, c.parent)
	}
	return out
}

// Descendants returns every note below id, depth-first.
func (g *Graph) Descendants(id ID) []ID {
	var out []ID
	c := g.Get(id)
	if c == nil {
		return nil
	}
	for _, ch := range c.children {
		out = append(out, ch)
		out = append(out, g.Descendants(ch)...)
	}
	return out
}

// Walk visits id and its note descendants with their depth.
func (g *Graph) Walk(id ID, fn func(c *Character, depth int)) {
	g.walk(id, 0, fn)
}

func (g *Graph) walk(id ID, depth int, fn func(*Character, int)) {
	c := g.Get(id)
	if c == nil {
		return
	}
	fn(c, depth)
	for _, ch := range c.children {
		g.walk(ch, depth+1, fn)
	}
}

// Link records that to is from's rel.
func (g *Graph) Link(from, to ID, rel option.NodeID) {
	if from == to {
		return
	}
	for _, l := range g.links {
		if l.From == from && l.To == to && l.Relationship == rel {
			return
		}
	}
	g.links = append(g.links, Link{From: from, To: to, Relationship: rel})
}

// reciprocal returns what b is to a, given that a is b's rel.
func (g *Graph) reciprocal(rel option.NodeID, b ID) (option.NodeID, bool) {
	if rel == option.None {
		return option.None, false
	}
	var name, arch string
	if c := g.Get(b); c != nil {
		if info, ok := c.Gender(); ok {
			name, arch = info.Name, info.Archetype
		}
	}
	return g.catalog.Reciprocal(rel, name, arch)
}

// Relations returns the relationships id holds through notes and links.
func (g *Graph) Relations(id ID) []Relation {
	c := g.Get(id)
	if c == nil {
		return nil
	}
	var out []Relation
	add := func(r Relation) {
		for _, e := range out {
			if e.Target == r.Target && e.Relationship == r.Relationship {
				return
			}
		}
		out = append(out, r)
	}

	for _, ch := range c.children {
		if child := g.Get(ch); child != nil && child.Relationship != option.None {
			add(Relation{Target: ch, Relationship: child.Relationship})
		}
	}
	if c.parent != NoID {
		if rel, ok := g.reciprocal(c.Relationship, c.parent); ok {
			add(Relation{Target: c.parent, Relationship: rel})
		}
	}
	for _, l := range g.links {
		switch id {
		case l.From:
			add(Relation{Target: l.To, Relationship: l.Relationship})
		case l.To:
			if rel, ok := g.reciprocal(l.Relationship, l.From); ok {
				add(Relation{Target: l.From, Relationship: rel})
			}
		}
	}
	return out
}

// Related returns the targets of id's relations with the given role.
func (g *Graph) Related(id ID, role relations.Role) []ID {
	var out []ID
	for _, r := range g.Relations(id) {
		if g.catalog.Rule(r.Relationship).Role == role && !slices.Contains(out, r.Target) {
			out = append(out, r.Target)
		}
	}
	return out
}

// siblingGroup returns id followed by everyone reachable from it through sibling
// relations.
func (g *Graph) siblingGroup(id ID) []ID {
	group := []ID{id}
	for i := 0; i < len(group); i++ {
		for _, s := range g.Related(group[i], relations.RoleSibling) {
			if !slices.Contains(group, s) {
				group = append(group, s)
			}
		}
	}
	return group
}

// Parents returns direct and inferred parents: the parents of anyone in id's sibling
// group are id's parents too.
func (g *Graph) Parents(id ID) []ID {
	var out []ID
	for _, m := range g.siblingGroup(id) {
		for _, p := range g.Related(m, relations.RoleParent) {
			if p != id && !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Children returns direct and inferred children: the sibling group of a blood child
// shares its parents.
func (g *Graph) Children(id ID) []ID {
	out := g.Related(id, relations.RoleChild)
	for _, r := range g.Relations(id) {
		rule := g.catalog.Rule(r.Relationship)
		if rule.Role != relations.RoleChild || !rule.Blood() {
			continue
		}
		for _, s := range g.siblingGroup(r.Target)[1:] {
			if s != id && !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// Siblings returns id's sibling group plus every other child of id's parents.
func (g *Graph) Siblings(id ID) []ID {
	var out []ID
	add := func(s ID) {
		if s != id && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	for _, s := range g.siblingGroup(id)[1:] {
		add(s)
	}
	for _, p := range g.Parents(id) {
		for _, ch := range g.Children(p) {
			add(ch)
		}
	}
	return out
}

// inferredKind is the kind an inferred relation of role is recorded as: the first blood
// kind, else the first kind.
func (g *Graph) inferredKind(role relations.Role) (option.NodeID, bool) {
	kinds := g.catalog.Kinds(role)
	for _, k := range kinds {
		if g.catalog.Rule(k).Blood() {
			return k, true
		}
	}
	if len(kinds) == 0 {
		return option.None, false
	}
	return kinds[0], true
}

// Held returns Relations plus relationships that can only be inferred through the
// graph: siblings, parents and children through sibling groups and shared parents.
func (g *Graph) Held(id ID) []Relation {
	out := g.Relations(id)
	known := func(target ID, role relations.Role) bool {
		for _, r := range out {
			if r.Target == target && g.catalog.Rule(r.Relationship).Role == role {
				return true
			}
		}
		return false
	}
	infer := func(targets []ID, role relations.Role) {
		kind, ok := g.inferredKind(role)
		if !ok {
			return
		}
		for _, t := range targets {
			if known(t, role) {
				continue
			}
			rel := kind
			if c := g.Get(t); c != nil {
				if info, ok := c.Gender(); ok {
					rel = g.catalog.Variant(kind, info.Name, info.Archetype)
				}
			}
			out = append(out, Relation{Target: t, Relationship: rel, Inferred: true})
		}
	}
	infer(g.Siblings(id), relations.RoleSibling)
	infer(g.Parents(id), relations.RoleParent)
	infer(g.Children(id), relations.RoleChild)
	return out
}

// Holds reports whether id holds any relationship at or below path.
func (g *Graph) Holds(id ID, path string) bool {
	for _, r := range g.Held(id) {
		if g.catalog.Within(r.Relationship, path) {
			return true
		}
	}
	return false
}

// Count returns how many held relationships fall under the kind node.
func (g *Graph) Count(id ID, kind option.NodeID) int {
	n := 0
	tree := g.catalog.Tree()
	for _, r := range g.Held(id) {
		if tree.IsWithin(r.Relationship, kind) {
			n++
		}
	}
	return n
}

// RelationTo returns what target is to id, if they are related.
func (g *Graph) RelationTo(id, target ID) (option.NodeID, bool) {
	for _, r := range g.Held(id) {
		if r.Target == target {
			return r.Relationship, true
		}
	}
	return option.None, false
}
