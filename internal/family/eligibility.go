// Relationship eligibility and the occurrence loop.
package family

import (
	"errors"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

// OccurrenceChance is the percent chance of another instance when n already exist:
// the instance weight decayed geometrically by n.
func OccurrenceChance(rule relations.Rule, n, base int, decay float64) float64 {
	return float64(rule.OccurrenceWeight(n, base)) * math.Pow(decay, float64(n))
}

// Eligible reports whether x may gain another relative of rule's kind given n existing
// ones. The anchor must fit the absolute bounds of the role it plays toward the new
// relative, hold none of the incompatible relationships and all of the required ones.
func (g *Generator) Eligible(x *kin.Character, rule relations.Rule, n int) bool {
	if limit, ok := rule.MaxCount(); ok && n >= limit {
		return false
	}
	if x.HasAge {
		info, _ := x.Gender()
		if rid, ok := g.bp.Catalog.Reciprocal(rule.ID, info.Name, info.Archetype); ok {
			if !g.bp.Catalog.Rule(rid).AgeAllowed(x.AgeYears) {
				return false
			}
		}
	}
	for _, path := range rule.Incompatible {
		if g.graph.Holds(x.ID, path) {
			return false
		}
	}
	for _, path := range rule.Required {
		if !g.graph.Holds(x.ID, path) {
			return false
		}
	}
	return true
}

// occur adds relatives of one kind to x while the kind stays eligible and the decayed
// occurrence draw succeeds. A candidate that cannot be placed ends the loop for this
// kind without failing the generation.
func (g *Generator) occur(x *kin.Character, kind option.NodeID, add func(n int) (*kin.Character, error)) ([]*kin.Character, error) {
	rule := g.bp.Catalog.Rule(kind)
	base, _ := g.bp.Catalog.Tree().EffectiveWeight(kind, x.Subject())

	var out []*kin.Character
	for {
		n := g.graph.Count(x.ID, kind)
		if !g.Eligible(x, rule, n) {
			break
		}
		if !g.rng.Percent(OccurrenceChance(rule, n, base, g.settings.Decay)) {
			break
		}
		c, err := add(n)
		if errors.Is(err, ErrNoAgeWindow) || errors.Is(err, ErrNoRelationshipSlot) {
			slog.Debug("no slot for relative",
				"anchor", x.Name.Full(),
				"relationship", rule.Path,
				"instance", humanize.Ordinal(n+1),
				"reason", err,
			)
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}
