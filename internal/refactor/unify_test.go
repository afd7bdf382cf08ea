package refactor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/refactor"
	"github.com/standardbeagle/pullup/testhelpers"
)

func animalModel() *model.Model {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Animal")
	b.Class("com.app.Dog").Extends("Animal")
	b.Class("com.app.Cat").Extends("Animal")
	b.Class("com.app.Puppy").Extends("Dog")
	b.Class("com.app.Rock")
	return b.Build()
}

func TestUnifyAncestorWins(t *testing.T) {
	m := animalModel()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), nil)

	// an ancestor already covers its descendant, in either order
	assert.Equal(t, "Animal", u.Unify("Animal", []string{"Dog"}))
	assert.Equal(t, "Animal", u.Unify("Dog", []string{"Animal"}))
	assert.Equal(t, "Dog", u.Unify("Dog", []string{"Puppy", "Dog"}))
}

func TestUnifyWalksToCommonAncestor(t *testing.T) {
	m := animalModel()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), nil)

	assert.Equal(t, "Animal", u.Unify("Dog", []string{"Cat"}))
	assert.Equal(t, "Animal", u.Unify("Puppy", []string{"Cat"}))
}

func TestUnifyFallsBackToUniversalTop(t *testing.T) {
	m := animalModel()
	warn := refactor.NewWarnings()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), warn)

	assert.Equal(t, "Object", u.Unify("Dog", []string{"Rock"}))
	assert.Equal(t, 1, warn.Len())
	assert.Contains(t, warn.List()[0], "no supertype")
}

func TestUnifyNeverNarrows(t *testing.T) {
	m := animalModel()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), nil)

	// once widened to Object, later narrower types change nothing
	assert.Equal(t, "Object", u.Unify("Object", []string{"Dog", "Cat", "Rock"}))
}

func TestUnifyPrimitivesMeetAtTop(t *testing.T) {
	m := animalModel()
	warn := refactor.NewWarnings()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), warn)

	assert.Equal(t, "Object", u.Unify("int", []string{"String"}))
	assert.Equal(t, "int", u.Unify("int", []string{"int"}))
}

func TestUnifyEmptyAndIdentical(t *testing.T) {
	m := animalModel()
	u := refactor.NewTypeUnifier(m, hierarchy.New(m), nil)

	assert.Equal(t, "Dog", u.Unify("Dog", nil))
	assert.Equal(t, "Dog", u.Unify("Dog", []string{"", "Dog"}))
	assert.Equal(t, "Dog", u.Unify("", []string{"Dog"}))
}
