package hierarchy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/testhelpers"
)

func buildChain(t *testing.T) (*model.Model, *hierarchy.Navigator) {
	t.Helper()
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.C1")
	b.Class("com.app.C2").Extends("C1")
	b.Class("com.app.C3").Extends("C2")
	b.Class("com.app.Other")
	m := b.Build()
	return m, hierarchy.New(m)
}

func TestAncestorsNearestFirst(t *testing.T) {
	m, nav := buildChain(t)
	c1 := m.ClassByName("C1")
	c2 := m.ClassByName("C2")
	c3 := m.ClassByName("C3")

	assert.Equal(t, []model.ClassID{c2, c1}, nav.AncestorsOf(c3))
	assert.Equal(t, []model.ClassID{c1}, nav.AncestorsOf(c2))
	assert.Empty(t, nav.AncestorsOf(c1))
	assert.Empty(t, nav.AncestorsOf(m.ClassByName("Other")))
}

func TestAncestorsDeterministic(t *testing.T) {
	m, nav := buildChain(t)
	c3 := m.ClassByName("C3")

	first := nav.AncestorsOf(c3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, nav.AncestorsOf(c3))
	}
}

func TestDescendantsBreadthFirst(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Base")
	b.Class("com.app.MidA").Extends("Base")
	b.Class("com.app.MidB").Extends("Base")
	b.Class("com.app.LeafA").Extends("MidA")
	b.Class("com.app.LeafB").Extends("MidB")
	m := b.Build()
	nav := hierarchy.New(m)

	want := []model.ClassID{
		m.ClassByName("MidA"),
		m.ClassByName("MidB"),
		m.ClassByName("LeafA"),
		m.ClassByName("LeafB"),
	}
	assert.Equal(t, want, nav.DescendantsOf(m.ClassByName("Base")))
	assert.Equal(t, []model.ClassID{m.ClassByName("LeafA")}, nav.DescendantsOf(m.ClassByName("MidA")))
	assert.Empty(t, nav.DescendantsOf(m.ClassByName("LeafB")))
}

func TestIsAncestor(t *testing.T) {
	m, nav := buildChain(t)
	c1 := m.ClassByName("C1")
	c2 := m.ClassByName("C2")
	c3 := m.ClassByName("C3")
	other := m.ClassByName("Other")

	assert.True(t, nav.IsAncestor(c1, c3))
	assert.True(t, nav.IsAncestor(c2, c3))
	assert.True(t, nav.IsAncestor(c1, c2))
	assert.False(t, nav.IsAncestor(c3, c1))
	assert.False(t, nav.IsAncestor(c1, c1))
	assert.False(t, nav.IsAncestor(other, c3))
	assert.False(t, nav.IsAncestor(model.NoClass, c3))
}

func TestPathBetween(t *testing.T) {
	m, nav := buildChain(t)
	c1 := m.ClassByName("C1")
	c2 := m.ClassByName("C2")
	c3 := m.ClassByName("C3")

	require.Equal(t, []model.ClassID{c2}, nav.PathBetween(c3, c1))
	assert.Empty(t, nav.PathBetween(c3, c2), "direct supertype has no intermediates")
	assert.Empty(t, nav.PathBetween(c2, c3), "reversed direction is not a path")
	assert.Empty(t, nav.PathBetween(c3, m.ClassByName("Other")))
}

func TestCyclicChainTerminates(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.A").Extends("B")
	b.Class("com.app.B").Extends("A")
	m := b.Build()
	nav := hierarchy.New(m)

	a := m.ClassByName("A")
	bID := m.ClassByName("B")

	assert.Equal(t, []model.ClassID{bID}, nav.AncestorsOf(a))
	assert.True(t, nav.IsAncestor(bID, a))
	assert.True(t, nav.IsAncestor(a, bID))
	assert.NotPanics(t, func() { nav.DescendantsOf(a) })
}

func TestChildrenIsACopy(t *testing.T) {
	m, nav := buildChain(t)
	c1 := m.ClassByName("C1")

	kids := nav.Children(c1)
	require.Len(t, kids, 1)
	kids[0] = model.NoClass
	assert.Equal(t, []model.ClassID{m.ClassByName("C2")}, nav.Children(c1))
}
