// Template building: option prototype, relationship catalog and gender matcher.
package template

import (
	"fmt"

	"github.com/talgya/kinforge/internal/family"
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

func weightOf(w *int) int {
	if w == nil {
		return option.DefaultWeight
	}
	return *w
}

func (s NodeSpec) node(attrs option.Attrs) option.Node {
	return option.Node{
		Name:                s.Name,
		Weight:              weightOf(s.Weight),
		IsChoice:            s.Choice || s.MultiSelect || s.ManualMultiSelect,
		IsMultiSelect:       s.MultiSelect,
		IsManualMultiSelect: s.ManualMultiSelect,
		AllowsNone:          s.AllowsNone,
		NoneWeight:          s.NoneWeight,
		Modifiers:           s.Modifiers,
		Attrs:               attrs,
	}
}

func addNodes(t *option.Tree, parent option.NodeID, specs []NodeSpec) error {
	for _, s := range specs {
		id, err := t.Add(parent, s.node(nil))
		if err != nil {
			return err
		}
		if err := addNodes(t, id, s.Children); err != nil {
			return err
		}
	}
	return nil
}

// Options builds the character option prototype: one top-level category per concern.
func (t *Template) Options() (*option.Tree, error) {
	tr := option.NewTree("Character")
	category := func(name string, n option.Node) (option.NodeID, error) {
		n.Name = name
		n.Weight = option.DefaultWeight
		return tr.Add(tr.Root(), n)
	}

	gid, err := category(kin.GenderPath, option.Node{IsChoice: true})
	if err != nil {
		return nil, err
	}
	for _, g := range t.Genders {
		attrs := g.Attrs
		if _, err := tr.Add(gid, g.node(&attrs)); err != nil {
			return nil, fmt.Errorf("gender %q: %w", g.Name, err)
		}
	}

	oid, err := category(kin.OrientationPath, option.Node{IsChoice: true})
	if err != nil {
		return nil, err
	}
	for _, o := range t.Orientations {
		attrs := o.Orientation
		if _, err := tr.Add(oid, o.node(&attrs)); err != nil {
			return nil, fmt.Errorf("orientation %q: %w", o.Name, err)
		}
	}

	rid, err := category(kin.RacePath, option.Node{IsChoice: true, IsManualMultiSelect: true})
	if err != nil {
		return nil, err
	}
	for _, r := range t.Races {
		id, err := tr.Add(rid, r.node(&kin.Race{Names: r.Names}))
		if err != nil {
			return nil, fmt.Errorf("race %q: %w", r.Name, err)
		}
		if err := addNodes(tr, id, r.Children); err != nil {
			return nil, fmt.Errorf("race %q: %w", r.Name, err)
		}
	}

	aid, err := category(kin.AgePath, option.Node{IsChoice: true})
	if err != nil {
		return nil, err
	}
	for _, a := range t.Ages {
		bracket := a.AgeBracket
		if _, err := tr.Add(aid, a.node(&bracket)); err != nil {
			return nil, fmt.Errorf("age %q: %w", a.Name, err)
		}
	}

	tid, err := category(kin.TraitsPath, option.Node{})
	if err != nil {
		return nil, err
	}
	if err := addNodes(tr, tid, t.Traits); err != nil {
		return nil, fmt.Errorf("traits: %w", err)
	}
	return tr, nil
}

// Catalog builds the relationship catalog.
func (t *Template) Catalog() (*relations.Catalog, error) {
	c := relations.NewCatalog()
	var add func(parent option.NodeID, specs []RelationshipSpec) error
	add = func(parent option.NodeID, specs []RelationshipSpec) error {
		for _, s := range specs {
			def := s.Definition
			node := option.Node{Name: s.Name, Weight: weightOf(s.Weight), Modifiers: s.Modifiers}
			id, err := c.Add(parent, node, &def)
			if err != nil {
				return fmt.Errorf("relationship %q: %w", s.Name, err)
			}
			if err := add(id, s.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(c.Root(), t.Relationships); err != nil {
		return nil, err
	}

	// Reciprocal paths must resolve, or relations would silently go one-way.
	var bad error
	c.Tree().Walk(c.Root(), func(id option.NodeID) bool {
		if r := c.Definition(id).Reciprocal; r != "" && bad == nil {
			if _, ok := c.Lookup(r); !ok {
				bad = fmt.Errorf("relationship %q: reciprocal %q: %w", c.Path(id), r, option.ErrUnknownPath)
			}
		}
		return bad == nil
	})
	if bad != nil {
		return nil, bad
	}
	return c, nil
}

// Matcher indexes the template's genders.
func (t *Template) Matcher() *gender.Matcher {
	infos := make([]gender.Info, 0, len(t.Genders))
	for _, g := range t.Genders {
		infos = append(infos, gender.Info{Name: g.Name, Archetype: g.Archetype, Opposite: g.Opposite})
	}
	return gender.NewMatcher(infos)
}

// Blueprint builds everything the family generator draws from.
func (t *Template) Blueprint() (family.Blueprint, error) {
	opts, err := t.Options()
	if err != nil {
		return family.Blueprint{}, fmt.Errorf("build options: %w", err)
	}
	cat, err := t.Catalog()
	if err != nil {
		return family.Blueprint{}, fmt.Errorf("build catalog: %w", err)
	}
	return family.Blueprint{Options: opts, Catalog: cat, Genders: t.Matcher()}, nil
}
