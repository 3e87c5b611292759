// Package relations provides the relationship catalog: a tree of relationship
// definitions whose unset attributes inherit from the nearest ancestor definition.
package relations

import (
	"github.com/talgya/kinforge/internal/option"
)

// Role groups relationship kinds by how the family generator creates them.
type Role string

const (
	RoleNone             Role = ""
	RoleSignificantOther Role = "significant-other"
	RoleChild            Role = "child"
	RoleParent           Role = "parent"
	RoleSibling          Role = "sibling"
)

// Definition is the relationship payload of a catalog node. Nil fields inherit.
type Definition struct {
	Role Role `yaml:"role,omitempty"`

	// Absolute bounds on the relative's age.
	MinAge *int `yaml:"minAge,omitempty"`
	MaxAge *int `yaml:"maxAge,omitempty"`
	// Bounds relative to the anchor's age.
	MinAgeOffset *int `yaml:"minAgeOffset,omitempty"`
	MaxAgeOffset *int `yaml:"maxAgeOffset,omitempty"`

	IsFamily        *bool `yaml:"family,omitempty"`
	IsBloodRelative *bool `yaml:"blood,omitempty"`
	IsSpousal       *bool `yaml:"spousal,omitempty"`
	IsFormer        *bool `yaml:"former,omitempty"`

	Reciprocal string `yaml:"reciprocal,omitempty"`

	AlwaysSharesSurname    *bool `yaml:"sharesSurname,omitempty"`
	SharesMasculineSurname *bool `yaml:"sharesMasculineSurname,omitempty"`
	SharesFeminineSurname  *bool `yaml:"sharesFeminineSurname,omitempty"`
	SharesFamilySurname    *bool `yaml:"sharesFamilySurname,omitempty"`

	RequiresOrientationMatch *bool `yaml:"orientationMatch,omitempty"`

	Max          *int `yaml:"max,omitempty"`
	SecondWeight *int `yaml:"secondWeight,omitempty"`
	ThirdWeight  *int `yaml:"thirdWeight,omitempty"`

	// Genders the relative may have for this node; set on gendered variants such as Mother.
	Genders []string `yaml:"genders,omitempty"`

	Incompatible []string `yaml:"incompatible,omitempty"`
	Required     []string `yaml:"required,omitempty"`
}

// Kind implements option.Attrs.
func (d *Definition) Kind() option.Kind { return option.KindRelationship }

// inherit fills every unset field of d from parent.
func (d *Definition) inherit(parent *Definition) {
	if d.Role == RoleNone {
		d.Role = parent.Role
	}
	inheritInt(&d.MinAge, parent.MinAge)
	inheritInt(&d.MaxAge, parent.MaxAge)
	inheritInt(&d.MinAgeOffset, parent.MinAgeOffset)
	inheritInt(&d.MaxAgeOffset, parent.MaxAgeOffset)
	inheritBool(&d.IsFamily, parent.IsFamily)
	inheritBool(&d.IsBloodRelative, parent.IsBloodRelative)
	inheritBool(&d.IsSpousal, parent.IsSpousal)
	inheritBool(&d.IsFormer, parent.IsFormer)
	if d.Reciprocal == "" {
		d.Reciprocal = parent.Reciprocal
	}
	inheritBool(&d.AlwaysSharesSurname, parent.AlwaysSharesSurname)
	inheritBool(&d.SharesMasculineSurname, parent.SharesMasculineSurname)
	inheritBool(&d.SharesFeminineSurname, parent.SharesFeminineSurname)
	inheritBool(&d.SharesFamilySurname, parent.SharesFamilySurname)
	inheritBool(&d.RequiresOrientationMatch, parent.RequiresOrientationMatch)
	inheritInt(&d.Max, parent.Max)
	inheritInt(&d.SecondWeight, parent.SecondWeight)
	inheritInt(&d.ThirdWeight, parent.ThirdWeight)
	if len(d.Incompatible) == 0 {
		d.Incompatible = parent.Incompatible
	}
	if len(d.Required) == 0 {
		d.Required = parent.Required
	}
}

func inheritInt(dst **int, src *int) {
	if *dst == nil {
		*dst = src
	}
}

func inheritBool(dst **bool, src *bool) {
	if *dst == nil {
		*dst = src
	}
}

// Rule is a fully inherited definition for one catalog node.
type Rule struct {
	Definition

	ID   option.NodeID
	Path string
	// KindID is the generated relationship kind this node belongs to (itself, or the
	// parent of a gendered variant).
	KindID option.NodeID
}

func flag(b *bool) bool { return b != nil && *b }

func (r Rule) Blood() bool { return flag(r.IsBloodRelative) }
func (r Rule) Family() bool { return flag(r.IsFamily) }
func (r Rule) Spousal() bool { return flag(r.IsSpousal) }
func (r Rule) Former() bool { return flag(r.IsFormer) }
func (r Rule) SharesAlways() bool { return flag(r.AlwaysSharesSurname) }
func (r Rule) SharesMasculine() bool { return flag(r.SharesMasculineSurname) }
func (r Rule) SharesFeminine() bool { return flag(r.SharesFeminineSurname) }
func (r Rule) SharesFamily() bool { return flag(r.SharesFamilySurname) }
func (r Rule) NeedsOrientationMatch() bool { return flag(r.RequiresOrientationMatch) }

// MaxCount returns the occurrence limit and whether one is set.
func (r Rule) MaxCount() (int, bool) {
	if r.Max == nil {
		return 0, false
	}
	return *r.Max, true
}

// OccurrenceWeight returns the percent weight for a new instance when n instances
// already exist: SecondWeight for n=1, ThirdWeight for n=2 when set, else base.
func (r Rule) OccurrenceWeight(n, base int) int {
	switch {
	case n == 1 && r.SecondWeight != nil:
		return *r.SecondWeight
	case n == 2 && r.ThirdWeight != nil:
		return *r.ThirdWeight
	}
	return base
}

// AgeAllowed reports whether age fits the absolute bounds.
func (r Rule) AgeAllowed(age int) bool {
	if r.MinAge != nil && age < *r.MinAge {
		return false
	}
	if r.MaxAge != nil && age > *r.MaxAge {
		return false
	}
	return true
}
