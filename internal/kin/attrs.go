// Race and age bracket payloads of a character's option tree.
package kin

import (
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/option"
)

// Race is the payload of a race option node.
type Race struct {
	Names names.Files `yaml:"names,omitempty"`
}

// Kind implements option.Attrs.
func (*Race) Kind() option.Kind { return option.KindRace }

// AgeBracket is the payload of an age option node, inclusive years.
type AgeBracket struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Kind implements option.Attrs.
func (*AgeBracket) Kind() option.Kind { return option.KindAge }

// Contains reports whether years falls inside the bracket.
func (b *AgeBracket) Contains(years int) bool {
	return years >= b.Min && years <= b.Max
}

// NameFiles returns the name lists of the first checked race that declares any.
func (c *Character) NameFiles() (names.Files, bool) {
	if c.Options == nil {
		return names.Files{}, false
	}
	root, ok := c.Options.Lookup(RacePath)
	if !ok {
		return names.Files{}, false
	}
	for _, id := range c.Options.CheckedLeaves(root) {
		for cur := id; cur != root && cur != option.None; cur = c.Options.Parent(cur) {
			if r, ok := c.Options.Node(cur).Attrs.(*Race); ok && r.Names != (names.Files{}) {
				return r.Names, true
			}
		}
	}
	return names.Files{}, false
}

// AgeBracket returns the checked age bracket.
func (c *Character) AgeBracket() (*AgeBracket, bool) {
	id, ok := c.checkedUnder(AgePath)
	if !ok {
		return nil, false
	}
	b, ok := c.Options.Node(id).Attrs.(*AgeBracket)
	return b, ok
}

// SyncAgeBracket checks the bracket containing the exact age so that modifiers targeting
// an age path see it. Returns false when no bracket fits.
func (c *Character) SyncAgeBracket() bool {
	if c.Options == nil || !c.HasAge {
		return false
	}
	root, ok := c.Options.Lookup(AgePath)
	if !ok {
		return false
	}
	var match option.NodeID = option.None
	c.Options.Walk(root, func(id option.NodeID) bool {
		if b, ok := c.Options.Node(id).Attrs.(*AgeBracket); ok && match == option.None && b.Contains(c.AgeYears) {
			match = id
		}
		return match == option.None
	})
	if match == option.None {
		return false
	}
	c.Options.Clear(root)
	c.Options.SetChecked(match, true)
	return true
}

// CopyRaces checks the same race paths as other.
func (c *Character) CopyRaces(other *Character) bool {
	if c.Options == nil || other.Options == nil {
		return false
	}
	root, ok := other.Options.Lookup(RacePath)
	if !ok {
		return false
	}
	copied := false
	for _, id := range other.Options.CheckedLeaves(root) {
		if mine, ok := c.Options.Lookup(other.Options.PathString(id)); ok {
			c.Options.CheckExtra(mine)
			copied = true
		}
	}
	return copied
}
