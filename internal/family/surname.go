// Surname resolution for new relatives.
package family

import (
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/relations"
)

// sharedSurname returns the surname a holder of rule takes from src, if the rule's
// sharing flags apply to src.
func sharedSurname(rule relations.Rule, src *kin.Character) (string, bool) {
	if rule.SharesFamily() {
		name := src.Name.FamilyName()
		return name, name != ""
	}
	name := src.Name.Surname
	if name == "" {
		return "", false
	}
	if rule.SharesAlways() {
		return name, true
	}
	info, _ := src.Gender()
	switch {
	case rule.SharesMasculine() && info.Archetype == gender.ArchetypeMan:
		return name, true
	case rule.SharesFeminine() && info.Archetype == gender.ArchetypeWoman:
		return name, true
	}
	return "", false
}

// resolveSurname names rel, anchor's new relative holding rule.
//
// The relative first tries to share a surname with each source in order (the anchor
// when none are given); a non-blood relative that takes one keeps a fresh birth name.
// Otherwise it draws a fresh surname. An anchor without a surname may take the
// relative's through the reciprocal relationship: outright when the new link is its
// only relationship, else over a fresh birth name of its own.
func (g *Generator) resolveSurname(anchor, rel *kin.Character, rule relations.Rule, sources []*kin.Character) error {
	if len(sources) == 0 {
		sources = []*kin.Character{anchor}
	}
	for _, src := range sources {
		name, ok := sharedSurname(rule, src)
		if !ok {
			continue
		}
		rel.Name.Surname = name
		if !rule.Blood() {
			birth, err := g.freshSurname(rel)
			if err != nil {
				return err
			}
			rel.Name.BirthName = birth
		}
		return nil
	}

	fresh, err := g.freshSurname(rel)
	if err != nil {
		return err
	}
	rel.Name.Surname = fresh

	if anchor.Name.Surname != "" || fresh == "" {
		return nil
	}
	ag, _ := anchor.Gender()
	rid, ok := g.bp.Catalog.Reciprocal(rel.Relationship, ag.Name, ag.Archetype)
	if !ok {
		return nil
	}
	if _, ok := sharedSurname(g.bp.Catalog.Rule(rid), rel); !ok {
		return nil
	}
	if len(g.graph.Relations(anchor.ID)) > 1 {
		birth, err := g.freshSurname(anchor)
		if err != nil {
			return err
		}
		anchor.Name.BirthName = birth
	}
	anchor.Name.Surname = fresh
	return nil
}
