package kin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

type fixture struct {
	catalog *relations.Catalog
	ids     map[string]option.NodeID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := relations.NewCatalog()
	f := &fixture{catalog: c, ids: make(map[string]option.NodeID)}
	add := func(parent option.NodeID, name string, def *relations.Definition) option.NodeID {
		id, err := c.Add(parent, option.Node{Name: name, Weight: 1}, def)
		require.NoError(t, err)
		f.ids[name] = id
		return id
	}
	yes := true
	fam := add(c.Root(), "Family", &relations.Definition{IsFamily: &yes, IsBloodRelative: &yes})
	kinds := []struct {
		name, reciprocal string
		role             relations.Role
		man, woman       string
	}{
		{"Parent", "Family/Child", relations.RoleParent, "Father", "Mother"},
		{"Child", "Family/Parent", relations.RoleChild, "Son", "Daughter"},
		{"Sibling", "Family/Sibling", relations.RoleSibling, "Brother", "Sister"},
	}
	for _, k := range kinds {
		id := add(fam, k.name, &relations.Definition{Role: k.role, Reciprocal: k.reciprocal})
		add(id, k.man, &relations.Definition{Genders: []string{gender.ArchetypeMan}})
		add(id, k.woman, &relations.Definition{Genders: []string{gender.ArchetypeWoman}})
	}
	so := add(c.Root(), "Significant Other", &relations.Definition{Role: relations.RoleSignificantOther})
	spouse := add(so, "Spouse", &relations.Definition{IsSpousal: &yes, Reciprocal: "Significant Other/Spouse"})
	add(spouse, "Husband", &relations.Definition{Genders: []string{gender.ArchetypeMan}})
	add(spouse, "Wife", &relations.Definition{Genders: []string{gender.ArchetypeWoman}})
	return f
}

func gendered(name string) *option.Tree {
	tr := option.NewTree("Character")
	g := tr.MustAdd(tr.Root(), option.Node{Name: GenderPath, IsChoice: true, Weight: 1})
	man := tr.MustAdd(g, option.Node{Name: "Man", Weight: 1, Attrs: &gender.Attrs{Archetype: gender.ArchetypeMan, Opposite: "Woman"}})
	woman := tr.MustAdd(g, option.Node{Name: "Woman", Weight: 1, Attrs: &gender.Attrs{Archetype: gender.ArchetypeWoman, Opposite: "Man"}})
	if name == "Man" {
		tr.SetChecked(man, true)
	} else {
		tr.SetChecked(woman, true)
	}
	return tr
}

func TestRelationsIncludeReciprocal(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	a := g.AddRoot(gendered("Man"))
	b, err := g.AddChild(a.ID, gendered("Woman"), f.ids["Wife"])
	require.NoError(t, err)

	rel, ok := g.RelationTo(a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, f.ids["Wife"], rel)

	rel, ok = g.RelationTo(b.ID, a.ID)
	require.True(t, ok)
	assert.Equal(t, f.ids["Husband"], rel)
}

func TestLinksResolveBothWays(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	a := g.AddRoot(gendered("Woman"))
	b := g.AddRoot(gendered("Man"))
	g.Link(a.ID, b.ID, f.ids["Son"])
	g.Link(a.ID, b.ID, f.ids["Son"])
	assert.Len(t, g.Links(), 1)

	rel, ok := g.RelationTo(b.ID, a.ID)
	require.True(t, ok)
	assert.Equal(t, f.ids["Mother"], rel)
}

func TestSiblingsAndParentsAreInferred(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	x := g.AddRoot(gendered("Man"))
	mother, err := g.AddChild(x.ID, gendered("Woman"), f.ids["Mother"])
	require.NoError(t, err)
	brother, err := g.AddChild(mother.ID, gendered("Man"), f.ids["Son"])
	require.NoError(t, err)
	sister, err := g.AddChild(x.ID, gendered("Woman"), f.ids["Sister"])
	require.NoError(t, err)

	assert.ElementsMatch(t, []ID{sister.ID, brother.ID}, g.Siblings(x.ID))
	assert.ElementsMatch(t, []ID{x.ID, sister.ID}, g.Siblings(brother.ID))
	assert.Equal(t, []ID{mother.ID}, g.Parents(sister.ID), "a sibling's parent is a parent")

	assert.True(t, g.Holds(brother.ID, "Family/Sibling"))
	assert.True(t, g.Holds(sister.ID, "Family/Parent"))
	assert.False(t, g.Holds(sister.ID, "Significant Other"))
	assert.Equal(t, 2, g.Count(brother.ID, f.ids["Sibling"]))

	rel, ok := g.RelationTo(brother.ID, x.ID)
	require.True(t, ok)
	assert.Equal(t, f.ids["Brother"], rel)
}

func TestChildrenAreInferredThroughSiblingGroup(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	x := g.AddRoot(gendered("Man"))
	father, err := g.AddChild(x.ID, gendered("Man"), f.ids["Father"])
	require.NoError(t, err)
	var sibs []ID
	for _, name := range []string{"Brother", "Sister", "Sister"} {
		gn := "Woman"
		if name == "Brother" {
			gn = "Man"
		}
		s, err := g.AddChild(x.ID, gendered(gn), f.ids[name])
		require.NoError(t, err)
		sibs = append(sibs, s.ID)
	}

	assert.ElementsMatch(t, append([]ID{x.ID}, sibs...), g.Children(father.ID))
	assert.Equal(t, 4, g.Count(father.ID, f.ids["Child"]))
	assert.True(t, g.Holds(father.ID, "Family/Child/Daughter"))

	rel, ok := g.RelationTo(father.ID, sibs[1])
	require.True(t, ok)
	assert.Equal(t, f.ids["Daughter"], rel)

	for _, s := range sibs {
		assert.Equal(t, []ID{father.ID}, g.Parents(s))
		assert.Len(t, g.Siblings(s), 3, "a sibling of x knows x's other siblings")
		assert.Equal(t, 3, g.Count(s, f.ids["Sibling"]))
	}
}

func TestRemoveRollsBackLeavesOnly(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	x := g.AddRoot(gendered("Man"))
	wife, err := g.AddChild(x.ID, gendered("Woman"), f.ids["Wife"])
	require.NoError(t, err)
	son, err := g.AddChild(wife.ID, gendered("Man"), f.ids["Son"])
	require.NoError(t, err)
	g.Link(x.ID, son.ID, f.ids["Son"])

	assert.ErrorIs(t, g.Remove(wife.ID), ErrHasChildren)
	require.NoError(t, g.Remove(son.ID))
	assert.Nil(t, g.Get(son.ID))
	assert.Empty(t, g.Links())
	assert.Empty(t, wife.Children())
	assert.Equal(t, 2, g.Len())
	assert.ErrorIs(t, g.Remove(son.ID), ErrNoCharacter)
}

func TestMoveUnderDescendantPanics(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	x := g.AddRoot(gendered("Man"))
	a, _ := g.AddChild(x.ID, gendered("Woman"), f.ids["Wife"])
	b, _ := g.AddChild(a.ID, gendered("Man"), f.ids["Son"])

	assert.Panics(t, func() { g.Move(x.ID, b.ID) })
	assert.Panics(t, func() { g.Move(a.ID, a.ID) })

	g.Move(b.ID, x.ID)
	assert.Equal(t, x.ID, b.Parent())
	assert.Empty(t, a.Children())
	assert.Equal(t, []ID{x.ID}, g.Ancestors(b.ID))
}

func TestWalkReportsDepth(t *testing.T) {
	f := newFixture(t)
	g := NewGraph(f.catalog)
	x := g.AddRoot(gendered("Man"))
	a, _ := g.AddChild(x.ID, gendered("Woman"), f.ids["Wife"])
	_, _ = g.AddChild(a.ID, gendered("Man"), f.ids["Son"])

	var depths []int
	g.Walk(x.ID, func(_ *Character, depth int) { depths = append(depths, depth) })
	assert.Equal(t, []int{0, 1, 2}, depths)
	assert.Len(t, g.Descendants(x.ID), 2)
}

func TestNameFull(t *testing.T) {
	n := Name{Title: "Dr.", First: "Ada", Surname: "Vance", BirthName: "Holt"}
	assert.Equal(t, "Dr. Ada Vance (née Holt)", n.Full())
	assert.Equal(t, "Holt", n.FamilyName())
	assert.Equal(t, "Vance", Name{Surname: "Vance"}.FamilyName())
}
