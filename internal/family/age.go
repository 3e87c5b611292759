// Age windows: the range of ages a new relative may have.
package family

import (
	"github.com/talgya/kinforge/internal/entropy"
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/relations"
)

// Window is an inclusive range of ages in years.
type Window struct {
	Min, Max int
}

// Empty reports whether no age fits.
func (w Window) Empty() bool { return w.Min > w.Max }

// Contains reports whether age fits.
func (w Window) Contains(age int) bool { return age >= w.Min && age <= w.Max }

// Intersect narrows w to the ages also inside o.
func (w Window) Intersect(o Window) Window {
	return Window{Min: max(w.Min, o.Min), Max: min(w.Max, o.Max)}
}

// RuleWindow intersects the rule's absolute bounds, its offsets applied to anchorAge and
// every secondary bound, starting from [0, maxAge].
func RuleWindow(rule relations.Rule, anchorAge, maxAge int, secondary ...Window) Window {
	w := Window{Min: 0, Max: maxAge}
	if rule.MinAge != nil {
		w.Min = max(w.Min, *rule.MinAge)
	}
	if rule.MaxAge != nil {
		w.Max = min(w.Max, *rule.MaxAge)
	}
	if rule.MinAgeOffset != nil {
		w.Min = max(w.Min, anchorAge+*rule.MinAgeOffset)
	}
	if rule.MaxAgeOffset != nil {
		w.Max = min(w.Max, anchorAge+*rule.MaxAgeOffset)
	}
	for _, s := range secondary {
		w = w.Intersect(s)
	}
	return w
}

// partnerGap is one entry of the age gap table, in years from the point of view of a
// masculine partner pairing with a feminine one.
type partnerGap struct {
	weight  int
	younger int
	older   int
}

var partnerGaps = []partnerGap{
	{weight: 45, younger: 4, older: 2},
	{weight: 30, younger: 8, older: 4},
	{weight: 15, younger: 15, older: 8},
	{weight: 10, younger: 30, older: 15},
}

func drawGap(rng *entropy.Source) partnerGap {
	total := 0
	for _, g := range partnerGaps {
		total += g.weight
	}
	r := rng.Intn(total)
	for _, g := range partnerGaps {
		if r < g.weight {
			return g
		}
		r -= g.weight
	}
	return partnerGaps[len(partnerGaps)-1]
}

// PartnerWindow bounds the age of a romantic partner for an anchor of the given age.
//
// The baseline is half the anchor's age plus seven up to its inverse, narrowed by one
// draw from the gap table. A masculine anchor's feminine partner skews younger, the
// reverse pairing skews older, and any other pairing gets the wider side both ways.
// Partners never pair across the age of majority.
func PartnerWindow(rng *entropy.Source, anchorAge int, anchor, partner gender.Info, majority int) Window {
	w := Window{Min: anchorAge/2 + 7, Max: (anchorAge - 7) * 2}

	gap := drawGap(rng)
	younger, older := gap.younger, gap.older
	switch {
	case anchor.Archetype == gender.ArchetypeMan && partner.Archetype == gender.ArchetypeWoman:
	case anchor.Archetype == gender.ArchetypeWoman && partner.Archetype == gender.ArchetypeMan:
		younger, older = older, younger
	default:
		younger = max(younger, older)
		older = younger
	}
	w = w.Intersect(Window{Min: anchorAge - younger, Max: anchorAge + older})

	if anchorAge >= majority {
		w.Min = max(w.Min, majority)
	} else {
		w.Max = min(w.Max, majority-1)
	}
	return w
}

// pickAge draws a year inside w, skipping taken years. ok is false when every year is taken.
func pickAge(rng *entropy.Source, w Window, taken []int) (int, bool) {
	if w.Empty() {
		return 0, false
	}
	var free []int
	for age := w.Min; age <= w.Max; age++ {
		used := false
		for _, t := range taken {
			if t == age {
				used = true
				break
			}
		}
		if !used {
			free = append(free, age)
		}
	}
	if len(free) == 0 {
		return 0, false
	}
	return free[rng.Intn(len(free))], true
}

// ages returns the known ages of ids.
func ages(g *kin.Graph, ids []kin.ID) []int {
	var out []int
	for _, id := range ids {
		if c := g.Get(id); c != nil && c.HasAge {
			out = append(out, c.AgeYears)
		}
	}
	return out
}
