package option

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hairTree builds Traits/Hair{Red,Black,Blond} and Traits/Eyes{Blue,Green}.
func hairTree(t *testing.T) *Tree {
	t.Helper()
	tr := NewTree("Character")
	traits := tr.MustAdd(tr.Root(), Node{Name: "Traits", Weight: 1})
	hair := tr.MustAdd(traits, Node{Name: "Hair", Weight: 1, IsChoice: true})
	for _, name := range []string{"Red", "Black", "Blond"} {
		tr.MustAdd(hair, Node{Name: name, Weight: 1})
	}
	eyes := tr.MustAdd(traits, Node{Name: "Eyes", Weight: 1, IsChoice: true, IsMultiSelect: true})
	tr.MustAdd(eyes, Node{Name: "Blue", Weight: 50})
	tr.MustAdd(eyes, Node{Name: "Green", Weight: 50})
	return tr
}

func TestPathsAndLookup(t *testing.T) {
	tr := hairTree(t)

	id, ok := tr.Lookup("Traits/Hair/Red")
	require.True(t, ok)
	assert.Equal(t, "Red", tr.Node(id).Name)
	assert.Equal(t, []string{"Traits", "Hair", "Red"}, tr.Path(id))
	assert.Equal(t, "Traits/Hair/Red", tr.PathString(id))

	same, ok := tr.LookupParts("Traits", "Hair", "Red")
	require.True(t, ok)
	assert.Equal(t, id, same)

	_, ok = tr.Lookup("Traits/Hair/Purple")
	assert.False(t, ok)
	_, err := tr.MustLookup("Nope")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestAddRejectsDuplicateSibling(t *testing.T) {
	tr := hairTree(t)
	hair, _ := tr.Lookup("Traits/Hair")
	_, err := tr.Add(hair, Node{Name: "Red"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = tr.Add(hair, Node{})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestCheckingCascadesUpAndClearsSiblings(t *testing.T) {
	tr := hairTree(t)
	red, _ := tr.Lookup("Traits/Hair/Red")
	black, _ := tr.Lookup("Traits/Hair/Black")
	hair, _ := tr.Lookup("Traits/Hair")
	traits, _ := tr.Lookup("Traits")

	tr.SetChecked(red, true)
	assert.True(t, tr.Checked(red))
	assert.True(t, tr.Checked(hair))
	assert.True(t, tr.Node(hair).Expanded())
	assert.True(t, tr.Checked(traits))

	tr.SetChecked(black, true)
	assert.True(t, tr.Checked(black))
	assert.False(t, tr.Checked(red), "single-select choice keeps one child")

	tr.SetChecked(traits, false)
	assert.False(t, tr.Checked(hair))
	assert.False(t, tr.Checked(black))
}

func TestMultiSelectKeepsSiblings(t *testing.T) {
	tr := hairTree(t)
	blue, _ := tr.Lookup("Traits/Eyes/Blue")
	green, _ := tr.Lookup("Traits/Eyes/Green")
	tr.SetChecked(blue, true)
	tr.SetChecked(green, true)
	assert.True(t, tr.Checked(blue))
	assert.True(t, tr.Checked(green))
}

func TestManualMultiSelectCheckExtra(t *testing.T) {
	tr := NewTree("Character")
	race := tr.MustAdd(tr.Root(), Node{Name: "Race", IsChoice: true, IsManualMultiSelect: true, Weight: 1})
	elf := tr.MustAdd(race, Node{Name: "Elf", Weight: 1})
	human := tr.MustAdd(race, Node{Name: "Human", Weight: 1})

	tr.SetChecked(elf, true)
	tr.CheckExtra(human)
	assert.True(t, tr.Checked(elf))
	assert.True(t, tr.Checked(human))
	assert.ElementsMatch(t, []NodeID{elf, human}, tr.CheckedChildren(race))
}

func TestCloneIsIndependent(t *testing.T) {
	tr := hairTree(t)
	red, _ := tr.Lookup("Traits/Hair/Red")
	c := tr.Clone()
	c.SetChecked(red, true)
	assert.True(t, c.Checked(red))
	assert.False(t, tr.Checked(red))

	hair, _ := c.Lookup("Traits/Hair")
	c.MustAdd(hair, Node{Name: "Grey", Weight: 1})
	_, ok := tr.Lookup("Traits/Hair/Grey")
	assert.False(t, ok)
}

func TestGraftCopiesSubtree(t *testing.T) {
	src := hairTree(t)
	hair, _ := src.Lookup("Traits/Hair")
	dst := NewTree("Other")
	looks := dst.MustAdd(dst.Root(), Node{Name: "Looks"})

	id, err := dst.Graft(looks, src, hair)
	require.NoError(t, err)
	assert.Equal(t, "Looks/Hair", dst.PathString(id))
	_, ok := dst.Lookup("Looks/Hair/Blond")
	assert.True(t, ok)
}

func TestCheckedLeavesAndWithin(t *testing.T) {
	tr := hairTree(t)
	red, _ := tr.Lookup("Traits/Hair/Red")
	blue, _ := tr.Lookup("Traits/Eyes/Blue")
	traits, _ := tr.Lookup("Traits")
	tr.SetChecked(red, true)
	tr.SetChecked(blue, true)

	assert.ElementsMatch(t, []NodeID{red, blue}, tr.CheckedLeaves(traits))
	assert.True(t, tr.IsWithin(red, traits))
	assert.False(t, tr.IsWithin(traits, red))
}
