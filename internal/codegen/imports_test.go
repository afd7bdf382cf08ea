package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/testhelpers"
)

func TestAddMissingImportsFromModelClasses(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("total", "Price"))
	b.Class("com.billing.Price").Public()
	m := b.Build()

	id := m.ClassByName("com.app.Document")
	added := AddMissingImports(m, id)

	assert.Equal(t, []string{"com.billing.Price"}, added)
	assert.Contains(t, m.Class(id).Imports, "com.billing.Price")
}

func TestAddMissingImportsSamePackage(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("total", "Price"))
	b.Class("com.app.Price").Public()
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Empty(t, added)
}

func TestAddMissingImportsPrimitivesAndJavaLang(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("describe", "String").
			Param("count", "int").
			Throws("RuntimeException"))
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Empty(t, added)
}

func TestAddMissingImportsQualifiedUse(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("lines", "java.util.List"))
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Empty(t, added)
}

func TestAddMissingImportsAlreadyImported(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		Imports("com.billing.Price").
		WithMethod(testhelpers.Method("total", "Price"))
	b.Class("com.billing.Price").Public()
	m := b.Build()

	id := m.ClassByName("com.app.Document")
	added := AddMissingImports(m, id)
	assert.Empty(t, added)
	assert.Equal(t, []string{"com.billing.Price"}, m.Class(id).Imports)
}

func TestAddMissingImportsWildcardCovers(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		Imports("com.billing.*").
		WithMethod(testhelpers.Method("total", "Price"))
	b.Class("com.billing.Price").Public()
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Empty(t, added)
}

func TestAddMissingImportsGenericArguments(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		Imports("java.util.List").
		WithMethod(testhelpers.Method("totals", "List<Price>"))
	b.Class("com.billing.Price").Public()
	m := b.Build()

	id := m.ClassByName("com.app.Document")
	added := AddMissingImports(m, id)

	assert.Equal(t, []string{"com.billing.Price"}, added)
	assert.Equal(t, []string{"java.util.List", "com.billing.Price"}, m.Class(id).Imports)
}

func TestAddMissingImportsConstructorCalls(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("audit", "void").Constructs("Ledger", 0))
	b.Class("com.billing.Ledger").Public()
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Equal(t, []string{"com.billing.Ledger"}, added)
}

func TestAddMissingImportsLocalVariableTypes(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("audit", "void").
			Body("{\n    Ledger l = open();\n}").
			DeclaresLocal("Ledger", model.Span{Start: 6, End: 12}))
	b.Class("com.billing.Ledger").Public()
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Equal(t, []string{"com.billing.Ledger"}, added)
}

func TestAddMissingImportsBorrowsFromOtherFiles(t *testing.T) {
	// Price is outside the parsed tree, but another class already
	// imports it, so its qualified name is known.
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("total", "Price"))
	b.Class("com.app.Invoice").Public().
		Imports("com.billing.Price")
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Equal(t, []string{"com.billing.Price"}, added)
}

func TestAddMissingImportsUnknownTypeStays(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithMethod(testhelpers.Method("total", "Mystery"))
	m := b.Build()

	id := m.ClassByName("com.app.Document")
	added := AddMissingImports(m, id)
	assert.Empty(t, added)
	assert.Empty(t, m.Class(id).Imports)
}

func TestAddMissingImportsFieldTypes(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Document").Public().
		WithField("ledger", "Ledger", model.VisibilityProtected)
	b.Class("com.billing.Ledger").Public()
	m := b.Build()

	added := AddMissingImports(m, m.ClassByName("com.app.Document"))
	assert.Equal(t, []string{"com.billing.Ledger"}, added)
}

func TestCollectTypeNamesSplitsCompoundTypes(t *testing.T) {
	out := map[string]bool{}
	collectTypeNames("Map<String, ? extends Price>[]", out)

	assert.True(t, out["Map"])
	assert.True(t, out["String"])
	assert.True(t, out["Price"])
	assert.False(t, out["extends"])
	assert.Len(t, out, 3)
}
