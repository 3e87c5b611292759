// Modifiers: context-conditional overrides of a node's weight and force flag.
package option

import (
	"math"
	"slices"
)

// Context answers the path predicate of a modifier.
type Context interface {
	PathChecked(path string) bool
}

// Subject is a Context that also knows character attributes, for modifiers gated on
// age, gender or race.
type Subject interface {
	Context
	AgeYears() (int, bool)
	HasGender(name string) bool
	HasRace(name string) bool
}

// Modifier overrides a node's weight when its predicates hold.
// A modifier with no predicate always applies.
type Modifier struct {
	TargetPath string   `yaml:"target,omitempty"`
	MinAge     *int     `yaml:"minAge,omitempty"`
	MaxAge     *int     `yaml:"maxAge,omitempty"`
	Genders    []string `yaml:"genders,omitempty"`
	Races      []string `yaml:"races,omitempty"`

	Weight   int  `yaml:"weight"`
	Priority int  `yaml:"priority,omitempty"` // lower wins
	Force    bool `yaml:"force,omitempty"`

	Modifiers []Modifier `yaml:"modifiers,omitempty"`
}

// Applies reports whether every predicate of m holds in ctx.
func (m *Modifier) Applies(ctx Context) bool {
	if m.TargetPath != "" && (ctx == nil || !ctx.PathChecked(m.TargetPath)) {
		return false
	}
	if m.MinAge == nil && m.MaxAge == nil && len(m.Genders) == 0 && len(m.Races) == 0 {
		return true
	}

	subj, ok := ctx.(Subject)
	if !ok {
		return false
	}
	if m.MinAge != nil || m.MaxAge != nil {
		age, known := subj.AgeYears()
		if !known {
			return false
		}
		if m.MinAge != nil && age < *m.MinAge {
			return false
		}
		if m.MaxAge != nil && age > *m.MaxAge {
			return false
		}
	}
	if len(m.Genders) > 0 && !slices.ContainsFunc(m.Genders, subj.HasGender) {
		return false
	}
	if len(m.Races) > 0 && !slices.ContainsFunc(m.Races, subj.HasRace) {
		return false
	}
	return true
}

// Resolve returns the effective weight and force of m, refined by its applicable
// sub-modifiers.
func (m *Modifier) Resolve(ctx Context) (weight int, force bool) {
	w, f, ok := resolveModifiers(m.Modifiers, ctx)
	if !ok {
		return m.Weight, m.Force
	}
	return w, f || m.Force
}

// resolveModifiers keeps the applicable modifiers at the lowest priority present and
// averages their resolved weights. ok is false when none apply.
func resolveModifiers(mods []Modifier, ctx Context) (weight int, force bool, ok bool) {
	best := math.MaxInt
	var sum, count int
	for i := range mods {
		m := &mods[i]
		if !m.Applies(ctx) {
			continue
		}
		if m.Priority > best {
			continue
		}
		w, f := m.Resolve(ctx)
		if m.Priority < best {
			best = m.Priority
			sum, count, force = 0, 0, false
		}
		sum += w
		count++
		force = force || f
	}
	if count == 0 {
		return 0, false, false
	}
	return int(math.Round(float64(sum) / float64(count))), force, true
}

// EffectiveWeight resolves the weight and force flag of id in ctx. A nil ctx
// evaluates target paths against the tree itself.
func (t *Tree) EffectiveWeight(id NodeID, ctx Context) (weight int, force bool) {
	if ctx == nil {
		ctx = t
	}
	n := &t.nodes[id]
	if w, f, ok := resolveModifiers(n.Modifiers, ctx); ok {
		return w, f
	}
	return n.Weight, false
}
