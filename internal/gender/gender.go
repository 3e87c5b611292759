// Package gender resolves which genders are compatible between two parties given
// their orientation flags.
package gender

import (
	"github.com/talgya/kinforge/internal/option"
)

// Canonical archetypes used for "similar" comparisons.
const (
	ArchetypeMan   = "Man"
	ArchetypeWoman = "Woman"
)

// Attrs is the payload of a gender option node.
type Attrs struct {
	Archetype string `yaml:"archetype,omitempty"`
	Opposite  string `yaml:"opposite,omitempty"`
}

// Kind implements option.Attrs.
func (*Attrs) Kind() option.Kind { return option.KindGender }

// Orientation is the payload of an orientation option node.
type Orientation struct {
	IncludesSame              bool `yaml:"same,omitempty"`
	IncludesSimilar           bool `yaml:"similar,omitempty"`
	IncludesOpposite          bool `yaml:"opposite,omitempty"`
	IncludesSimilarToOpposite bool `yaml:"similarToOpposite,omitempty"`
	IncludesAny               bool `yaml:"any,omitempty"`
}

// Kind implements option.Attrs.
func (*Orientation) Kind() option.Kind { return option.KindOrientation }

// Info is a named gender with its archetype and declared opposite.
type Info struct {
	Name      string
	Archetype string
	Opposite  string
}

// FromNode reads gender info from an option node; ok is false for non-gender nodes.
func FromNode(t *option.Tree, id option.NodeID) (Info, bool) {
	n := t.Node(id)
	a, ok := n.Attrs.(*Attrs)
	if !ok {
		return Info{}, false
	}
	return Info{Name: n.Name, Archetype: a.Archetype, Opposite: a.Opposite}, true
}

// OrientationOf reads the orientation payload of a node, nil for other nodes.
func OrientationOf(t *option.Tree, id option.NodeID) *Orientation {
	o, _ := t.Node(id).Attrs.(*Orientation)
	return o
}
