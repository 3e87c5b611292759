// Package kin provides generated characters and the note graph that holds them.
// Each character is a note under the character that generated it; extra links record
// relationships that do not follow the note hierarchy.
package kin

import (
	"strings"

	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/option"
)

// Top-level categories of a character's option tree.
const (
	GenderPath      = "Gender"
	OrientationPath = "Orientation"
	RacePath        = "Race"
	AgePath         = "Age"
	TraitsPath      = "Traits"
)

// ID addresses a character inside its Graph.
type ID int

// NoID is the absent character.
const NoID ID = -1

// Name holds the parts of a character's name.
type Name struct {
	Title     string `json:"title,omitempty"`
	First     string `json:"first,omitempty"`
	Surname   string `json:"surname,omitempty"`
	BirthName string `json:"birth_name,omitempty"` // surname before a non-blood name change
	Suffix    string `json:"suffix,omitempty"`
}

// FamilyName is the original, non-married surname.
func (n Name) FamilyName() string {
	if n.BirthName != "" {
		return n.BirthName
	}
	return n.Surname
}

// Full joins the set name parts, noting a differing birth name as "née".
func (n Name) Full() string {
	var parts []string
	for _, p := range []string{n.Title, n.First, n.Surname, n.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	full := strings.Join(parts, " ")
	if n.BirthName != "" && n.BirthName != n.Surname {
		full += " (née " + n.BirthName + ")"
	}
	return full
}

// Character is one generated person.
type Character struct {
	ID   ID
	Name Name

	AgeYears  int
	AgeMonths int
	HasAge    bool

	// Options is the character's own copy of the template tree: gender, orientation,
	// race, age bracket and traits.
	Options *option.Tree

	// Relationship is what this character is to its note parent, as a catalog node.
	Relationship option.NodeID

	parent   ID
	children []ID
}

// Parent returns the note parent, NoID for a root.
func (c *Character) Parent() ID { return c.parent }

// Children returns the note children. The slice must not be modified.
func (c *Character) Children() []ID { return c.children }

// SetAge sets the age in years and months.
func (c *Character) SetAge(years, months int) {
	c.AgeYears, c.AgeMonths, c.HasAge = years, months, true
}

// PathChecked implements option.Context over the character's option tree.
func (c *Character) PathChecked(path string) bool {
	return c.Options != nil && c.Options.PathChecked(path)
}

// Age returns the age in years and whether it is known.
func (c *Character) Age() (int, bool) {
	return c.AgeYears, c.HasAge
}

// Gender returns the checked gender, ok false when none is selected.
func (c *Character) Gender() (gender.Info, bool) {
	id, ok := c.checkedUnder(GenderPath)
	if !ok {
		return gender.Info{}, false
	}
	return gender.FromNode(c.Options, id)
}

// Orientation returns the checked orientation payload and node, nil when unresolved.
func (c *Character) Orientation() (*gender.Orientation, option.NodeID) {
	id, ok := c.checkedUnder(OrientationPath)
	if !ok {
		return nil, option.None
	}
	return gender.OrientationOf(c.Options, id), id
}

// Races returns the names of every checked race.
func (c *Character) Races() []string {
	var out []string
	if c.Options == nil {
		return nil
	}
	root, ok := c.Options.Lookup(RacePath)
	if !ok {
		return nil
	}
	for _, id := range c.Options.CheckedLeaves(root) {
		out = append(out, c.Options.Node(id).Name)
	}
	return out
}

// HasRace reports whether race is checked.
func (c *Character) HasRace(name string) bool {
	for _, r := range c.Races() {
		if r == name {
			return true
		}
	}
	return false
}

// HasGender matches the checked gender by name or archetype.
func (c *Character) HasGender(name string) bool {
	g, ok := c.Gender()
	return ok && (g.Name == name || g.Archetype == name)
}

// Traits returns the paths of every checked trait leaf.
func (c *Character) Traits() []string {
	if c.Options == nil {
		return nil
	}
	root, ok := c.Options.Lookup(TraitsPath)
	if !ok {
		return nil
	}
	var out []string
	for _, id := range c.Options.CheckedLeaves(root) {
		out = append(out, strings.TrimPrefix(c.Options.PathString(id), TraitsPath+option.PathSeparator))
	}
	return out
}

func (c *Character) checkedUnder(path string) (option.NodeID, bool) {
	if c.Options == nil {
		return option.None, false
	}
	root, ok := c.Options.Lookup(path)
	if !ok {
		return option.None, false
	}
	leaves := c.Options.CheckedLeaves(root)
	if len(leaves) == 0 {
		return option.None, false
	}
	return leaves[0], true
}

// subject adapts a character to option.Subject.
type subject struct{ *Character }

func (s subject) AgeYears() (int, bool) { return s.Age() }

// Subject returns the character as a modifier evaluation context.
func (c *Character) Subject() option.Subject { return subject{c} }
