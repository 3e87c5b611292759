// Gender/orientation matching.
package gender

// Matcher knows a template's genders so that opposites can be resolved by name.
type Matcher struct {
	genders map[string]Info
	order   []string
}

// NewMatcher indexes infos; the order is kept for candidate lists.
func NewMatcher(infos []Info) *Matcher {
	m := &Matcher{genders: make(map[string]Info, len(infos))}
	for _, g := range infos {
		if _, dup := m.genders[g.Name]; !dup {
			m.order = append(m.order, g.Name)
		}
		m.genders[g.Name] = g
	}
	return m
}

// Info looks up a gender by name.
func (m *Matcher) Info(name string) (Info, bool) {
	g, ok := m.genders[name]
	return g, ok
}

// Names returns every known gender in template order.
func (m *Matcher) Names() []string {
	return append([]string(nil), m.order...)
}

// Opposite returns the declared opposite of g.
func (m *Matcher) Opposite(g Info) (Info, bool) {
	if g.Opposite == "" {
		return Info{}, false
	}
	return m.Info(g.Opposite)
}

func sameArchetype(a, b Info) bool {
	return a.Archetype != "" && a.Archetype == b.Archetype
}

// Admits reports whether orientation o, held by self, admits a partner of gender other.
//
// Similar overrides Same, SimilarToOpposite overrides Opposite and Any overrides all.
// A nil orientation admits everyone.
func (m *Matcher) Admits(o *Orientation, self, other Info) bool {
	if o == nil || o.IncludesAny {
		return true
	}
	switch {
	case o.IncludesSimilar:
		if self.Name == other.Name || sameArchetype(self, other) {
			return true
		}
	case o.IncludesSame:
		if self.Name == other.Name {
			return true
		}
	}
	switch {
	case o.IncludesSimilarToOpposite:
		if opp, ok := m.Opposite(self); ok && (other.Name == opp.Name || sameArchetype(other, opp)) {
			return true
		}
	case o.IncludesOpposite:
		if self.Opposite != "" && other.Name == self.Opposite {
			return true
		}
	}
	return false
}

// Compatible lists the genders a partner of self may have under self's orientation.
// restricted is false when no restriction applies (nil orientation or Any), in which
// case callers fall back to a plain weighted gender draw.
func (m *Matcher) Compatible(self Info, o *Orientation) (names []string, restricted bool) {
	if o == nil || o.IncludesAny {
		return nil, false
	}
	for _, name := range m.order {
		if m.Admits(o, self, m.genders[name]) {
			names = append(names, name)
		}
	}
	return names, true
}
