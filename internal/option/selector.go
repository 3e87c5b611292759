// Weighted selection: turns a node's children into a random or forced selection.
package option

import (
	"github.com/talgya/kinforge/internal/entropy"
)

// Selector runs Choose against a tree with an injected random source.
type Selector struct {
	rng *entropy.Source
}

// NewSelector creates a selector drawing from rng.
func NewSelector(rng *entropy.Source) *Selector {
	return &Selector{rng: rng}
}

type weighted struct {
	id     NodeID
	weight int
	force  bool
}

// Choose selects within the subtree of id.
//
// A category node with a zero effective weight (and no force) stays unselected with its
// subtree. A category leaf is checked, a category with children activates every child.
// A choice node checks its forced children, then either draws one child by weight
// (single-select) or runs an independent percent trial per child (multi-select).
func (s *Selector) Choose(t *Tree, id NodeID, ctx Context) {
	if ctx == nil {
		ctx = t
	}
	n := &t.nodes[id]
	if !n.IsChoice {
		w, force := t.EffectiveWeight(id, ctx)
		if !force && w <= 0 {
			return
		}
		if len(n.children) == 0 {
			t.SetChecked(id, true)
			return
		}
		for _, c := range n.children {
			s.Choose(t, c, ctx)
		}
		return
	}
	s.chooseAmongChildren(t, id, ctx)
}

// Reroll clears the subtree of id and chooses it again.
func (s *Selector) Reroll(t *Tree, id NodeID, ctx Context) {
	t.Clear(id)
	s.Choose(t, id, ctx)
}

// Resolve checks id and chooses inside it. Used when a caller picks a node directly.
func (s *Selector) Resolve(t *Tree, id NodeID, ctx Context) {
	if ctx == nil {
		ctx = t
	}
	t.SetChecked(id, true)
	if len(t.nodes[id].children) > 0 {
		if t.nodes[id].IsChoice {
			s.chooseAmongChildren(t, id, ctx)
		} else {
			for _, c := range t.nodes[id].children {
				s.Choose(t, c, ctx)
			}
		}
	}
}

// ChooseAmong draws one of candidates by effective weight, forced candidates first,
// checks it and resolves its subtree. ok is false when every candidate weighs zero.
func (s *Selector) ChooseAmong(t *Tree, candidates []NodeID, ctx Context) (NodeID, bool) {
	if ctx == nil {
		ctx = t
	}
	entries := s.weigh(t, candidates, ctx)
	var forced []weighted
	for _, e := range entries {
		if e.force {
			forced = append(forced, e)
		}
	}
	if len(forced) > 0 {
		entries = forced
	}
	id, ok := s.draw(entries, 0)
	if !ok {
		return None, false
	}
	s.Resolve(t, id, ctx)
	return id, true
}

func (s *Selector) chooseAmongChildren(t *Tree, id NodeID, ctx Context) {
	n := &t.nodes[id]
	entries := s.weigh(t, n.children, ctx)

	if !n.IsMultiSelect {
		var forced []weighted
		for _, e := range entries {
			if e.force {
				forced = append(forced, e)
			}
		}
		if len(forced) > 0 {
			// At most one child survives an exclusive node; pick among the forced ones.
			if pick, ok := s.draw(forced, 0); ok {
				s.Resolve(t, pick, ctx)
			} else {
				s.Resolve(t, forced[s.rng.Intn(len(forced))].id, ctx)
			}
			return
		}
		none := 0
		if n.AllowsNone {
			none = n.NoneWeight
		}
		if pick, ok := s.draw(entries, none); ok {
			s.Resolve(t, pick, ctx)
		}
		return
	}

	picked := false
	for _, e := range entries {
		if e.force || s.rng.Intn(100) < e.weight {
			s.Resolve(t, e.id, ctx)
			picked = true
		}
	}
	if picked || n.AllowsNone {
		return
	}
	// Fallback covers the children only, NoneWeight never applies here.
	if pick, ok := s.draw(entries, 0); ok {
		s.Resolve(t, pick, ctx)
	}
}

func (s *Selector) weigh(t *Tree, ids []NodeID, ctx Context) []weighted {
	out := make([]weighted, 0, len(ids))
	for _, c := range ids {
		w, f := t.EffectiveWeight(c, ctx)
		if w < 0 {
			w = 0
		}
		out = append(out, weighted{id: c, weight: w, force: f})
	}
	return out
}

// draw picks one entry from the cumulative weight distribution. A noneWeight slot is
// appended at the end; landing in it selects nothing.
func (s *Selector) draw(entries []weighted, noneWeight int) (NodeID, bool) {
	total := noneWeight
	for _, e := range entries {
		total += e.weight
	}
	if total <= 0 {
		return None, false
	}
	r := s.rng.Intn(total)
	for _, e := range entries {
		if r < e.weight {
			return e.id, true
		}
		r -= e.weight
	}
	return None, false
}

// Draw picks one of ids by effective weight without checking anything.
func (s *Selector) Draw(t *Tree, ids []NodeID, ctx Context) (NodeID, bool) {
	if ctx == nil {
		ctx = t
	}
	return s.draw(s.weigh(t, ids, ctx), 0)
}
