package hierarchy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/testhelpers"
)

func TestIsSubtypeName(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Animal")
	b.Class("com.app.Dog").Extends("Animal")
	b.Class("com.app.Cat").Extends("Animal")
	m := b.Build()
	nav := hierarchy.New(m)

	cases := []struct {
		sub, super string
		want       bool
	}{
		{"Dog", "Animal", true},
		{"Cat", "Animal", true},
		{"Animal", "Dog", false},
		{"Dog", "Cat", false},
		{"Dog", "Dog", true},
		{"Dog", "Object", true},
		{"Dog", "java.lang.Object", true},
		{"int", "Object", false},
		{"int[]", "Object", true},
		{"int", "int", true},
		{"int", "long", false},
		{"List<Dog>", "List<Animal>", true}, // generics erased before comparison
		{"com.app.Dog", "Animal", true},
		{"Unknown", "Animal", false},
		{"Unknown", "Object", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, nav.IsSubtypeName(tc.sub, tc.super), "%s <: %s", tc.sub, tc.super)
	}
}

func TestNamedSuper(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Animal")
	b.Class("com.app.Dog").Extends("Animal")
	b.Class("com.app.Robot").Extends("MachineBase")
	m := b.Build()
	nav := hierarchy.New(m)

	assert.Equal(t, "Animal", nav.NamedSuper("Dog"))
	assert.Equal(t, "", nav.NamedSuper("Animal"))
	assert.Equal(t, "MachineBase", nav.NamedSuper("Robot"), "unlinked supertype keeps its written name")
	assert.Equal(t, "", nav.NamedSuper("NotInModel"))
}
