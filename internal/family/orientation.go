// Gender and orientation matching between a new relative and its partner.
package family

import (
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

// pairing says how a new relative is matched against its partner.
type pairing struct {
	spousal bool // subject to the opposite-gender convention
	match   bool // gender restricted by the partner's orientation
}

func pairingFor(rule relations.Rule, req request) pairing {
	return pairing{
		spousal: rule.Spousal() || req.partner != nil,
		match:   rule.NeedsOrientationMatch() || req.partner != nil,
	}
}

// genderCandidates returns the gender names a relative of partner may have.
// restricted is false when a plain weighted draw applies.
func (g *Generator) genderCandidates(partner *kin.Character, p pairing) ([]string, bool) {
	pg, ok := partner.Gender()
	if !ok {
		return nil, false
	}
	if p.spousal && g.rng.Percent(g.settings.ConventionChance) {
		if opp, ok := g.bp.Genders.Opposite(pg); ok {
			return []string{opp.Name}, true
		}
	}
	if !p.match {
		return nil, false
	}
	o, _ := partner.Orientation()
	return g.bp.Genders.Compatible(pg, o)
}

// chooseGender selects the relative's gender, restricted by its partner when the
// relationship calls for it.
func (g *Generator) chooseGender(c, partner *kin.Character, p pairing) error {
	root, ok := c.Options.Lookup(kin.GenderPath)
	if !ok {
		return nil
	}
	names, restricted := g.genderCandidates(partner, p)
	if !restricted {
		g.sel.Choose(c.Options, root, c.Subject())
		return nil
	}

	var ids []option.NodeID
	for _, name := range names {
		if id, ok := c.Options.Child(root, name); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ErrNoRelationshipSlot
	}
	if _, ok := g.sel.ChooseAmong(c.Options, ids, c.Subject()); !ok {
		// Every candidate weighs zero in this context; the match still wins.
		g.sel.Resolve(c.Options, ids[g.rng.Intn(len(ids))], c.Subject())
	}
	return nil
}

// reconcile makes each party's orientation admit the other's gender.
func (g *Generator) reconcile(a, b *kin.Character) {
	g.admit(a, b)
	g.admit(b, a)
}

// admit force-selects a replacement orientation for self when the current one does not
// admit other's gender. Nothing changes when no orientation would.
func (g *Generator) admit(self, other *kin.Character) {
	o, _ := self.Orientation()
	sg, ok := self.Gender()
	if !ok || o == nil {
		return
	}
	og, ok := other.Gender()
	if !ok || g.bp.Genders.Admits(o, sg, og) {
		return
	}

	tr := self.Options
	root, ok := tr.Lookup(kin.OrientationPath)
	if !ok {
		return
	}
	var fits []option.NodeID
	for _, id := range tr.Children(root) {
		if cand := gender.OrientationOf(tr, id); cand != nil && g.bp.Genders.Admits(cand, sg, og) {
			fits = append(fits, id)
		}
	}
	if len(fits) == 0 {
		return
	}
	tr.Clear(root)
	if _, ok := g.sel.ChooseAmong(tr, fits, self.Subject()); !ok {
		g.sel.Resolve(tr, fits[g.rng.Intn(len(fits))], self.Subject())
	}
}
