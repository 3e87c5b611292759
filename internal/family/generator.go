// Package family generates characters and grows family trees around them.
//
// Each new relative is a note under the character it was generated for. The generator
// draws every attribute through the option selector, so template weights and modifiers
// shape the result, and it rolls back a relative whose constraints cannot be met.
package family

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/kinforge/internal/entropy"
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

var (
	ErrNoAgeWindow        = errors.New("no valid age window")
	ErrNoRelationshipSlot = errors.New("no compatible gender for relationship")
)

// Blueprint is the template data the generator draws from.
type Blueprint struct {
	Options *option.Tree // character option prototype, cloned per character
	Catalog *relations.Catalog
	Genders *gender.Matcher
}

// Generator builds characters into one note graph.
type Generator struct {
	bp       Blueprint
	graph    *kin.Graph
	names    *names.Library
	rng      *entropy.Source
	sel      *option.Selector
	settings Settings
}

// New creates a generator with an empty graph.
func New(bp Blueprint, lib *names.Library, rng *entropy.Source, settings Settings) *Generator {
	return &Generator{
		bp:       bp,
		graph:    kin.NewGraph(bp.Catalog),
		names:    lib,
		rng:      rng,
		sel:      option.NewSelector(rng),
		settings: settings,
	}
}

// Graph returns the note graph holding every generated character.
func (g *Generator) Graph() *kin.Graph { return g.graph }

// NewSubject generates a standalone character: gender, age, race, orientation, traits
// and names.
func (g *Generator) NewSubject() (*kin.Character, error) {
	c := g.graph.AddRoot(g.bp.Options.Clone())
	g.choose(c, kin.GenderPath)
	g.choose(c, kin.AgePath)
	if b, ok := c.AgeBracket(); ok {
		c.SetAge(g.rng.Between(b.Min, b.Max), g.rng.Intn(12))
	}
	g.choose(c, kin.RacePath)
	g.choose(c, kin.OrientationPath)
	g.choose(c, kin.TraitsPath)

	if err := g.nameFirst(c); err != nil {
		return nil, err
	}
	surname, err := g.freshSurname(c)
	if err != nil {
		return nil, err
	}
	c.Name.Surname = surname
	slog.Debug("subject generated", "name", c.Name.Full(), "age", c.AgeYears)
	return c, nil
}

// choose runs the selector on the top-level category at path.
func (g *Generator) choose(c *kin.Character, path string) {
	if id, ok := c.Options.Lookup(path); ok {
		g.sel.Choose(c.Options, id, c.Subject())
	}
}

// request describes one relative to add.
type request struct {
	kind     option.NodeID
	partner  *kin.Character // orientation partner when it is not the anchor
	bounds   []Window
	taken    []int          // ages already used by siblings
	twinOf   *kin.Character // share this sibling's birth
	surnames []*kin.Character
}

// AddRelative adds one relative of the given relationship kind to anchor, skipping the
// occurrence draw. The relative is removed again when no age window fits or its name
// lists cannot be read.
func (g *Generator) AddRelative(anchor kin.ID, kind option.NodeID) (*kin.Character, error) {
	return g.addRelative(anchor, request{kind: kind})
}

func (g *Generator) addRelative(anchorID kin.ID, req request) (*kin.Character, error) {
	x := g.graph.Get(anchorID)
	if x == nil {
		return nil, fmt.Errorf("add relative to %d: %w", anchorID, kin.ErrNoCharacter)
	}
	rule := g.bp.Catalog.Rule(req.kind)
	partner := x
	if req.partner != nil {
		partner = req.partner
	}

	c, err := g.graph.AddChild(x.ID, g.bp.Options.Clone(), req.kind)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", rule.Path, err)
	}
	pair := pairingFor(rule, req)
	if err := g.chooseGender(c, partner, pair); err != nil {
		g.discard(c, rule, err)
		return nil, fmt.Errorf("add %s to %s: %w", rule.Path, x.Name.Full(), err)
	}
	if info, ok := c.Gender(); ok {
		c.Relationship = g.bp.Catalog.Variant(req.kind, info.Name, info.Archetype)
	}

	if err := g.assignAge(x, c, partner, rule, req); err != nil {
		g.discard(c, rule, err)
		return nil, fmt.Errorf("add %s to %s: %w", rule.Path, x.Name.Full(), err)
	}

	if !rule.Blood() || !c.CopyRaces(x) {
		g.choose(c, kin.RacePath)
	}
	g.choose(c, kin.OrientationPath)
	if pair.match {
		g.reconcile(partner, c)
	}
	g.choose(c, kin.TraitsPath)

	if err := g.nameFirst(c); err != nil {
		g.discard(c, rule, err)
		return nil, fmt.Errorf("add %s to %s: %w", rule.Path, x.Name.Full(), err)
	}
	if err := g.resolveSurname(x, c, rule, req.surnames); err != nil {
		g.discard(c, rule, err)
		return nil, fmt.Errorf("add %s to %s: %w", rule.Path, x.Name.Full(), err)
	}
	slog.Debug("relative added",
		"anchor", x.Name.Full(),
		"relationship", g.bp.Catalog.Path(c.Relationship),
		"name", c.Name.Full(),
		"age", c.AgeYears,
	)
	return c, nil
}

// discard removes a half-built relative.
func (g *Generator) discard(c *kin.Character, rule relations.Rule, cause error) {
	slog.Debug("relative discarded", "relationship", rule.Path, "reason", cause)
	if err := g.graph.Remove(c.ID); err != nil {
		slog.Warn("rollback failed", "relationship", rule.Path, "error", err)
	}
}

// assignAge sets an exact age inside the relative's window and syncs the age bracket.
// Romantic partners of the anchor, and of an explicit partner, get the partner window.
func (g *Generator) assignAge(x, c, partner *kin.Character, rule relations.Rule, req request) error {
	bounds := append([]Window(nil), req.bounds...)
	if (rule.Role == relations.RoleSignificantOther || req.partner != nil) && partner.HasAge {
		pg, _ := partner.Gender()
		cg, _ := c.Gender()
		bounds = append(bounds, PartnerWindow(g.rng, partner.AgeYears, pg, cg, g.settings.MajorityAge))
	}
	if !x.HasAge {
		rule.MinAgeOffset, rule.MaxAgeOffset = nil, nil
	}
	w := RuleWindow(rule, x.AgeYears, g.settings.MaxAge, bounds...)

	if t := req.twinOf; t != nil && t.HasAge && w.Contains(t.AgeYears) {
		c.SetAge(t.AgeYears, t.AgeMonths)
		c.SyncAgeBracket()
		return nil
	}
	years, ok := pickAge(g.rng, w, req.taken)
	if !ok {
		return ErrNoAgeWindow
	}
	c.SetAge(years, g.rng.Intn(12))
	c.SyncAgeBracket()
	return nil
}

// nameFirst draws a first name from the character's race lists. Missing lists leave it unset.
func (g *Generator) nameFirst(c *kin.Character) error {
	files, ok := c.NameFiles()
	if !ok {
		return nil
	}
	info, _ := c.Gender()
	name, _, err := g.names.First(g.rng, files, info.Archetype)
	if err != nil {
		return fmt.Errorf("first name: %w", err)
	}
	c.Name.First = name
	return nil
}

// freshSurname draws a new surname from the character's race lists, "" when there is none.
func (g *Generator) freshSurname(c *kin.Character) (string, error) {
	files, ok := c.NameFiles()
	if !ok {
		return "", nil
	}
	name, _, err := g.names.Surname(g.rng, files)
	if err != nil {
		return "", fmt.Errorf("surname: %w", err)
	}
	return name, nil
}
