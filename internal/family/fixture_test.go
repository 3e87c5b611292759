package family

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/kinforge/internal/entropy"
	"github.com/talgya/kinforge/internal/gender"
	"github.com/talgya/kinforge/internal/kin"
	"github.com/talgya/kinforge/internal/names"
	"github.com/talgya/kinforge/internal/option"
	"github.com/talgya/kinforge/internal/relations"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

// testBlueprint builds a small human template. ids maps catalog node names to ids.
func testBlueprint(t *testing.T) (Blueprint, map[string]option.NodeID) {
	t.Helper()
	opts := option.NewTree("Character")
	gen := opts.MustAdd(opts.Root(), option.Node{Name: kin.GenderPath, Weight: 1, IsChoice: true})
	opts.MustAdd(gen, option.Node{Name: "Man", Weight: 1, Attrs: &gender.Attrs{Archetype: gender.ArchetypeMan, Opposite: "Woman"}})
	opts.MustAdd(gen, option.Node{Name: "Woman", Weight: 1, Attrs: &gender.Attrs{Archetype: gender.ArchetypeWoman, Opposite: "Man"}})

	ori := opts.MustAdd(opts.Root(), option.Node{Name: kin.OrientationPath, Weight: 1, IsChoice: true})
	opts.MustAdd(ori, option.Node{Name: "Heterosexual", Weight: 8, Attrs: &gender.Orientation{IncludesOpposite: true}})
	opts.MustAdd(ori, option.Node{Name: "Homosexual", Weight: 1, Attrs: &gender.Orientation{IncludesSimilar: true}})
	opts.MustAdd(ori, option.Node{Name: "Bisexual", Weight: 1, Attrs: &gender.Orientation{IncludesAny: true}})

	race := opts.MustAdd(opts.Root(), option.Node{Name: kin.RacePath, Weight: 1, IsChoice: true, IsManualMultiSelect: true})
	opts.MustAdd(race, option.Node{Name: "Human", Weight: 1, Attrs: &kin.Race{Names: names.Files{
		Masculine: "m.txt", Feminine: "f.txt", Surname: "s.txt",
	}}})

	age := opts.MustAdd(opts.Root(), option.Node{Name: kin.AgePath, Weight: 1, IsChoice: true})
	opts.MustAdd(age, option.Node{Name: "Child", Weight: 1, Attrs: &kin.AgeBracket{Min: 0, Max: 12}})
	opts.MustAdd(age, option.Node{Name: "Teen", Weight: 1, Attrs: &kin.AgeBracket{Min: 13, Max: 17}})
	opts.MustAdd(age, option.Node{Name: "Adult", Weight: 3, Attrs: &kin.AgeBracket{Min: 18, Max: 59}})
	opts.MustAdd(age, option.Node{Name: "Elder", Weight: 1, Attrs: &kin.AgeBracket{Min: 60, Max: 90}})

	traits := opts.MustAdd(opts.Root(), option.Node{Name: kin.TraitsPath, Weight: 1})
	hair := opts.MustAdd(traits, option.Node{Name: "Hair", Weight: 1, IsChoice: true})
	opts.MustAdd(hair, option.Node{Name: "Dark", Weight: 1})
	opts.MustAdd(hair, option.Node{Name: "Grey", Weight: 0, Modifiers: []option.Modifier{
		{TargetPath: "Age/Elder", Weight: 1, Force: true},
	}})

	cat := relations.NewCatalog()
	ids := make(map[string]option.NodeID)
	add := func(parent option.NodeID, name string, weight int, def *relations.Definition) option.NodeID {
		id, err := cat.Add(parent, option.Node{Name: name, Weight: weight}, def)
		require.NoError(t, err)
		ids[name] = id
		return id
	}
	variants := func(kind option.NodeID, man, woman string) {
		add(kind, man, 1, &relations.Definition{Genders: []string{gender.ArchetypeMan}})
		add(kind, woman, 1, &relations.Definition{Genders: []string{gender.ArchetypeWoman}})
	}

	fam := add(cat.Root(), "Family", 1, &relations.Definition{IsFamily: boolp(true), IsBloodRelative: boolp(true)})
	variants(add(fam, "Parent", 100, &relations.Definition{
		Role: relations.RoleParent, Reciprocal: "Family/Child", MinAge: intp(16),
		MinAgeOffset: intp(16), MaxAgeOffset: intp(45), Max: intp(2), AlwaysSharesSurname: boolp(true),
	}), "Father", "Mother")
	variants(add(fam, "Child", 60, &relations.Definition{
		Role: relations.RoleChild, Reciprocal: "Family/Parent",
		MinAgeOffset: intp(-45), MaxAgeOffset: intp(-16), Max: intp(4), AlwaysSharesSurname: boolp(true),
	}), "Son", "Daughter")
	variants(add(fam, "Adopted Child", 10, &relations.Definition{
		Role: relations.RoleChild, Reciprocal: "Family/Parent", IsBloodRelative: boolp(false),
		MinAgeOffset: intp(-45), MaxAgeOffset: intp(-16), Max: intp(1), AlwaysSharesSurname: boolp(true),
	}), "Adopted Son", "Adopted Daughter")
	variants(add(fam, "Sibling", 50, &relations.Definition{
		Role: relations.RoleSibling, Reciprocal: "Family/Sibling",
		MinAgeOffset: intp(-20), MaxAgeOffset: intp(20), Max: intp(3), SharesFamilySurname: boolp(true),
	}), "Brother", "Sister")

	so := add(cat.Root(), "Significant Other", 1, &relations.Definition{
		Role: relations.RoleSignificantOther, IsFamily: boolp(false), IsBloodRelative: boolp(false),
		RequiresOrientationMatch: boolp(true), MinAge: intp(16),
	})
	variants(add(so, "Spouse", 50, &relations.Definition{
		IsSpousal: boolp(true), Reciprocal: "Significant Other/Spouse", Max: intp(1),
		SharesMasculineSurname: boolp(true),
	}), "Husband", "Wife")
	variants(add(so, "Ex-Spouse", 20, &relations.Definition{
		IsSpousal: boolp(true), IsFormer: boolp(true), Reciprocal: "Significant Other/Ex-Spouse", Max: intp(2),
	}), "Ex-Husband", "Ex-Wife")

	matcher := gender.NewMatcher([]gender.Info{
		{Name: "Man", Archetype: gender.ArchetypeMan, Opposite: "Woman"},
		{Name: "Woman", Archetype: gender.ArchetypeWoman, Opposite: "Man"},
	})
	return Blueprint{Options: opts, Catalog: cat, Genders: matcher}, ids
}

func testLibrary(t *testing.T) *names.Library {
	t.Helper()
	lib := names.NewLibrary(t.TempDir())
	put := func(path string, entries ...string) {
		tbl := &names.Table{}
		for _, e := range entries {
			tbl.Add(e, 1)
		}
		lib.Put(path, tbl)
	}
	put("m.txt", "Aldric", "Bram", "Corwin")
	put("f.txt", "Della", "Elin", "Fenna")
	put("s.txt", "Ashdown", "Brightwater", "Crane", "Dunmore")
	return lib
}

func newTestGenerator(t *testing.T, seed int64, s Settings) (*Generator, map[string]option.NodeID) {
	t.Helper()
	bp, ids := testBlueprint(t)
	return New(bp, testLibrary(t), entropy.New(seed), s), ids
}

// person adds a root character with fixed attributes.
func person(t *testing.T, g *Generator, genderName, orientation string, age int, surname string) *kin.Character {
	t.Helper()
	c := g.Graph().AddRoot(g.bp.Options.Clone())
	for _, path := range []string{"Gender/" + genderName, "Orientation/" + orientation, "Race/Human"} {
		id, ok := c.Options.Lookup(path)
		require.True(t, ok, path)
		c.Options.SetChecked(id, true)
	}
	c.SetAge(age, 0)
	require.True(t, c.SyncAgeBracket())
	c.Name.First = "Anchor"
	c.Name.Surname = surname
	return c
}
