// Family tree expansion: significant others, children, parents and siblings.
package family

import (
	"fmt"
	"math"

	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/relations"
)

// AddFamily grows the family of character id and returns every relative added.
//
// depth 1 adds the character's immediate family only; each further level expands the new
// relatives as well. A relative who is not blood kin gets only its own immediate family,
// and parents and siblings are generated only for blood relatives and for characters one
// hop from id. immediateOnly stops after id's own immediate family whatever the depth.
func (g *Generator) AddFamily(id kin.ID, depth int, immediateOnly bool) ([]*kin.Character, error) {
	if g.graph.Get(id) == nil {
		return nil, fmt.Errorf("add family of %d: %w", id, kin.ErrNoCharacter)
	}
	visited := make(map[kin.ID]bool)
	return g.expand(id, depth, 0, true, immediateOnly, visited)
}

func (g *Generator) expand(id kin.ID, depth, hops int, blood, immediateOnly bool, visited map[kin.ID]bool) ([]*kin.Character, error) {
	x := g.graph.Get(id)
	if depth <= 0 || x == nil || visited[id] {
		return nil, nil
	}
	visited[id] = true

	var added []*kin.Character
	steps := []func(*kin.Character) ([]*kin.Character, error){g.addSignificantOthers, g.addChildren}
	if hops <= 1 || blood {
		steps = append(steps, g.addParents, g.addSiblings)
	}
	for _, step := range steps {
		got, err := step(x)
		added = append(added, got...)
		if err != nil {
			return added, err
		}
	}
	if immediateOnly || depth <= 1 {
		return added, nil
	}

	all := append([]*kin.Character(nil), added...)
	for _, c := range added {
		rule := g.bp.Catalog.Rule(c.Relationship)
		more, err := g.expand(c.ID, depth-1, hops+1, blood && rule.Blood(), !rule.Blood(), visited)
		all = append(all, more...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func (g *Generator) addSignificantOthers(x *kin.Character) ([]*kin.Character, error) {
	var out []*kin.Character
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleSignificantOther) {
		got, err := g.occur(x, kind, func(int) (*kin.Character, error) {
			return g.addRelative(x.ID, request{kind: kind})
		})
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// partners returns x's spousal partners, former ones or current ones.
func (g *Generator) partners(x *kin.Character, former bool) []*kin.Character {
	var out []*kin.Character
	for _, r := range g.graph.Held(x.ID) {
		rule := g.bp.Catalog.Rule(r.Relationship)
		if rule.Role != relations.RoleSignificantOther || !rule.Spousal() || rule.Former() != former {
			continue
		}
		if c := g.graph.Get(r.Target); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// births tracks multiple births while one family's children are generated.
type births struct {
	last      *kin.Character
	multiples int
}

// twin returns the sibling a new child shares a birth with, nil for a separate birth.
// The chance decays geometrically with every further multiple of the same birth.
func (g *Generator) twin(b *births) *kin.Character {
	if b.last == nil {
		return nil
	}
	chance := g.settings.TwinChance * math.Pow(g.settings.TwinDecay, float64(b.multiples))
	if g.rng.Percent(chance) {
		b.multiples++
		return b.last
	}
	b.multiples = 0
	return nil
}

// parentBound bounds a child's age by one more parent.
func (g *Generator) parentBound(rule relations.Rule, parent *kin.Character) []Window {
	if parent == nil || !parent.HasAge {
		return nil
	}
	return []Window{RuleWindow(rule, parent.AgeYears, g.settings.MaxAge)}
}

// addChildren generates x's children. While x has former spouses, each child is
// attributed to one of them until an ex-child check fails; such a child takes its
// surname from the ex first. Other children are attributed to x's current spouse.
func (g *Generator) addChildren(x *kin.Character) ([]*kin.Character, error) {
	exes := g.partners(x, true)
	var spouse *kin.Character
	if current := g.partners(x, false); len(current) > 0 {
		spouse = current[0]
	}

	var out []*kin.Character
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleChild) {
		rule := g.bp.Catalog.Rule(kind)
		attributing := len(exes) > 0
		b := &births{}
		got, err := g.occur(x, kind, func(int) (*kin.Character, error) {
			req := request{
				kind:   kind,
				taken:  ages(g.graph, g.graph.Children(x.ID)),
				twinOf: g.twin(b),
			}
			co := spouse
			if attributing {
				if g.rng.Percent(g.settings.ExChildChance) {
					co = exes[g.rng.Intn(len(exes))]
					req.surnames = []*kin.Character{co, x}
				} else {
					attributing = false
				}
			}
			if co != nil && req.surnames == nil {
				req.surnames = []*kin.Character{x, co}
			}
			req.bounds = g.parentBound(rule, co)

			c, err := g.addRelative(x.ID, req)
			if err != nil {
				return nil, err
			}
			if co != nil {
				info, _ := c.Gender()
				g.graph.Link(co.ID, c.ID, g.bp.Catalog.Variant(kind, info.Name, info.Archetype))
			}
			b.last = c
			return c, nil
		})
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// addParents generates x's parents. A parent added after the first is paired with the
// first: orientation-matched, aged as a partner, and linked as spouses.
func (g *Generator) addParents(x *kin.Character) ([]*kin.Character, error) {
	spouseKind, hasSpouse := g.spouseKind()

	var out []*kin.Character
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleParent) {
		got, err := g.occur(x, kind, func(int) (*kin.Character, error) {
			req := request{kind: kind}
			var first *kin.Character
			if ps := g.graph.Parents(x.ID); len(ps) > 0 {
				first = g.graph.Get(ps[0])
				req.partner = first
			}
			c, err := g.addRelative(x.ID, req)
			if err != nil {
				return nil, err
			}
			if first != nil && hasSpouse {
				info, _ := c.Gender()
				g.graph.Link(first.ID, c.ID, g.bp.Catalog.Variant(spouseKind.ID, info.Name, info.Archetype))
			}
			return c, nil
		})
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// addSiblings generates x's siblings with the children's spacing, bounded by the ages
// of x's known parents.
func (g *Generator) addSiblings(x *kin.Character) ([]*kin.Character, error) {
	childRule, hasChild := g.bloodChildRule()

	var out []*kin.Character
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleSibling) {
		b := &births{last: x}
		got, err := g.occur(x, kind, func(int) (*kin.Character, error) {
			req := request{
				kind:   kind,
				taken:  ages(g.graph, append(g.graph.Siblings(x.ID), x.ID)),
				twinOf: g.twin(b),
			}
			if hasChild {
				for _, p := range g.graph.Parents(x.ID) {
					req.bounds = append(req.bounds, g.parentBound(childRule, g.graph.Get(p))...)
				}
			}
			c, err := g.addRelative(x.ID, req)
			if err != nil {
				return nil, err
			}
			b.last = c
			return c, nil
		})
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// spouseKind returns the first current spousal relationship kind.
func (g *Generator) spouseKind() (relations.Rule, bool) {
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleSignificantOther) {
		if rule := g.bp.Catalog.Rule(kind); rule.Spousal() && !rule.Former() {
			return rule, true
		}
	}
	return relations.Rule{}, false
}

// bloodChildRule returns the first blood child kind, whose offsets space siblings.
func (g *Generator) bloodChildRule() (relations.Rule, bool) {
	for _, kind := range g.bp.Catalog.Kinds(relations.RoleChild) {
		if rule := g.bp.Catalog.Rule(kind); rule.Blood() {
			return rule, true
		}
	}
	return relations.Rule{}, false
}
