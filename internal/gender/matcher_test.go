package gender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kinforge/internal/option"
)

var (
	man      = Info{Name: "Man", Archetype: ArchetypeMan, Opposite: "Woman"}
	woman    = Info{Name: "Woman", Archetype: ArchetypeWoman, Opposite: "Man"}
	transMan = Info{Name: "Trans Man", Archetype: ArchetypeMan, Opposite: "Woman"}
	enby     = Info{Name: "Nonbinary"}
)

func testMatcher() *Matcher {
	return NewMatcher([]Info{man, woman, transMan, enby})
}

func TestCompatibleOpposite(t *testing.T) {
	m := testMatcher()
	names, restricted := m.Compatible(man, &Orientation{IncludesOpposite: true})
	assert.True(t, restricted)
	assert.Equal(t, []string{"Woman"}, names)
}

func TestCompatibleSimilarOverridesSame(t *testing.T) {
	m := testMatcher()
	names, _ := m.Compatible(man, &Orientation{IncludesSame: true})
	assert.Equal(t, []string{"Man"}, names)

	names, _ = m.Compatible(man, &Orientation{IncludesSame: true, IncludesSimilar: true})
	assert.Equal(t, []string{"Man", "Trans Man"}, names)
}

func TestCompatibleSimilarToOpposite(t *testing.T) {
	m := testMatcher()
	names, _ := m.Compatible(woman, &Orientation{IncludesOpposite: true, IncludesSimilarToOpposite: true})
	assert.Equal(t, []string{"Man", "Trans Man"}, names)
}

func TestAnyOrMissingIsUnrestricted(t *testing.T) {
	m := testMatcher()
	names, restricted := m.Compatible(man, &Orientation{IncludesAny: true, IncludesSame: true})
	assert.False(t, restricted)
	assert.Nil(t, names)

	_, restricted = m.Compatible(man, nil)
	assert.False(t, restricted)
	assert.True(t, m.Admits(nil, man, enby))
}

func TestAdmitsWithoutArchetype(t *testing.T) {
	m := testMatcher()
	similar := &Orientation{IncludesSimilar: true}
	assert.True(t, m.Admits(similar, enby, enby), "same name always counts as similar")
	assert.False(t, m.Admits(similar, enby, man))

	opposite := &Orientation{IncludesOpposite: true}
	assert.False(t, m.Admits(opposite, enby, man), "no declared opposite")
}

func TestFromNode(t *testing.T) {
	tr := option.NewTree("Character")
	g := tr.MustAdd(tr.Root(), option.Node{Name: "Gender", IsChoice: true})
	w := tr.MustAdd(g, option.Node{Name: "Woman", Weight: 1, Attrs: &Attrs{Archetype: ArchetypeWoman, Opposite: "Man"}})
	o := tr.MustAdd(tr.Root(), option.Node{Name: "Straight", Attrs: &Orientation{IncludesOpposite: true}})

	info, ok := FromNode(tr, w)
	require.True(t, ok)
	assert.Equal(t, woman, info)

	_, ok = FromNode(tr, g)
	assert.False(t, ok)
	assert.NotNil(t, OrientationOf(tr, o))
	assert.Nil(t, OrientationOf(tr, w))
}
