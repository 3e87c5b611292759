// Relationship catalog built on an option tree with Definition payloads.
package relations

import (
	"fmt"
	"slices"

	"github.com/talgya/kinforge/internal/option"
)

// Catalog holds the relationship definitions of a template.
type Catalog struct {
	tree *option.Tree
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tree: option.NewTree("Relationships")}
}

// Tree exposes the underlying option tree, for weights and modifiers.
func (c *Catalog) Tree() *option.Tree { return c.tree }

// Root returns the catalog root.
func (c *Catalog) Root() option.NodeID { return c.tree.Root() }

// Add appends a relationship node. A nil def is stored as an empty definition.
func (c *Catalog) Add(parent option.NodeID, node option.Node, def *Definition) (option.NodeID, error) {
	if def == nil {
		def = &Definition{}
	}
	node.Attrs = def
	id, err := c.tree.Add(parent, node)
	if err != nil {
		return option.None, fmt.Errorf("add relationship: %w", err)
	}
	return id, nil
}

// Lookup resolves a relationship path such as "Family/Parent/Mother".
func (c *Catalog) Lookup(path string) (option.NodeID, bool) {
	return c.tree.Lookup(path)
}

// Path returns the joined path of id.
func (c *Catalog) Path(id option.NodeID) string { return c.tree.PathString(id) }

// Definition returns the node's own definition, never nil for catalog nodes.
func (c *Catalog) Definition(id option.NodeID) *Definition {
	if d, ok := c.tree.Node(id).Attrs.(*Definition); ok {
		return d
	}
	return &Definition{}
}

// Rule resolves id with every unset field inherited from the nearest ancestor that sets it.
func (c *Catalog) Rule(id option.NodeID) Rule {
	def := *c.Definition(id)
	for p := c.tree.Parent(id); p != option.None; p = c.tree.Parent(p) {
		def.inherit(c.Definition(p))
	}
	return Rule{
		Definition: def,
		ID:         id,
		Path:       c.tree.PathString(id),
		KindID:     c.KindOf(id),
	}
}

// RulePath resolves a rule by path.
func (c *Catalog) RulePath(path string) (Rule, bool) {
	id, ok := c.Lookup(path)
	if !ok {
		return Rule{}, false
	}
	return c.Rule(id), true
}

func (c *Catalog) role(id option.NodeID) Role {
	for cur := id; cur != option.None; cur = c.tree.Parent(cur) {
		if r := c.Definition(cur).Role; r != RoleNone {
			return r
		}
	}
	return RoleNone
}

// IsKind reports whether id is a generated relationship kind: it has a role, no gender
// restriction of its own, and every child is a gendered variant.
func (c *Catalog) IsKind(id option.NodeID) bool {
	if id == c.tree.Root() || c.role(id) == RoleNone || len(c.Definition(id).Genders) > 0 {
		return false
	}
	for _, ch := range c.tree.Children(id) {
		if len(c.Definition(ch).Genders) == 0 {
			return false
		}
	}
	return true
}

// KindOf returns the kind id owning id: itself or the nearest kind ancestor.
func (c *Catalog) KindOf(id option.NodeID) option.NodeID {
	for cur := id; cur != option.None; cur = c.tree.Parent(cur) {
		if c.IsKind(cur) {
			return cur
		}
	}
	return option.None
}

// Kinds lists every kind with the given role in tree order.
func (c *Catalog) Kinds(role Role) []option.NodeID {
	var out []option.NodeID
	c.tree.Walk(c.tree.Root(), func(id option.NodeID) bool {
		if c.IsKind(id) {
			if c.role(id) == role {
				out = append(out, id)
			}
			return false
		}
		return true
	})
	return out
}

// Variant picks the child of kind restricted to the given gender name or archetype,
// falling back to kind itself.
func (c *Catalog) Variant(kind option.NodeID, gender, archetype string) option.NodeID {
	for _, ch := range c.tree.Children(kind) {
		gs := c.Definition(ch).Genders
		if slices.Contains(gs, gender) || (archetype != "" && slices.Contains(gs, archetype)) {
			return ch
		}
	}
	return kind
}

// Reciprocal resolves the relationship the anchor holds toward a relative that is the
// anchor's id-relationship, picking the variant for the anchor's gender.
func (c *Catalog) Reciprocal(id option.NodeID, anchorGender, anchorArchetype string) (option.NodeID, bool) {
	rule := c.Rule(id)
	if rule.Reciprocal == "" {
		return option.None, false
	}
	rid, ok := c.Lookup(rule.Reciprocal)
	if !ok {
		return option.None, false
	}
	if c.IsKind(rid) {
		rid = c.Variant(rid, anchorGender, anchorArchetype)
	}
	return rid, true
}

// Within reports whether id is path or lies below it.
func (c *Catalog) Within(id option.NodeID, path string) bool {
	target, ok := c.Lookup(path)
	return ok && c.tree.IsWithin(id, target)
}
