package refactor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/model"
	"github.com/standardbeagle/pullup/internal/refactor"
	"github.com/standardbeagle/pullup/testhelpers"
)

func billingModel() *model.Model {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.OrderService").InFile("src/com/app/OrderService.java")
	b.Class("com.app.BulkOrderService").Extends("OrderService").
		InFile("src/com/app/BulkOrderService.java").
		WithField("discount", "int", model.VisibilityPrivate).
		WithMethod(testhelpers.Method("calculateTotal", "int").
			Body("{ return base() - discount; }").
			Calls("base", 0).
			ReadsField("discount")).
		WithMethod(testhelpers.Method("base", "int").Body("{ return 100; }"))
	return b.Build()
}

func TestPullUpMethodEndToEnd(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	res, err := o.PullUpMethod("BulkOrderService", "calculateTotal", "OrderService")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "pulled up calculateTotal()")
	assert.Contains(t, res.Message, "OrderService")
	assert.Equal(t, []string{
		"src/com/app/BulkOrderService.java",
		"src/com/app/OrderService.java",
	}, res.ModifiedFiles)
	assert.NotEmpty(t, res.Warnings, "the private field dependency reports its widening")

	dest := m.ClassByName("OrderService")
	assert.NotEqual(t, model.NoMethod, m.FindMethod(dest, "calculateTotal", nil))
	assert.NotEqual(t, model.NoField, m.FieldByName(dest, "discount"))
}

func TestDefaultDestinationIsDirectSuper(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	res, err := o.PullUpMethod("BulkOrderService", "base", "")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "to com.app.OrderService")
	assert.NotEqual(t, model.NoMethod, m.FindMethod(m.ClassByName("OrderService"), "base", nil))
}

func TestUnknownClassSuggestsCloseMatches(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	_, err := o.PullUpMethod("OrdrService", "calculateTotal", "")
	require.Error(t, err)
	re, ok := errors.AsRefactor(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeClassNotFound, re.Type)
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "OrderService")
}

func TestUnknownMethodSuggestsCloseMatches(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	_, err := o.PullUpMethod("BulkOrderService", "calcualteTotal", "")
	require.Error(t, err)
	re, ok := errors.AsRefactor(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeMethodNotFound, re.Type)
	assert.Contains(t, err.Error(), "calculateTotal")
}

func TestNoSuperclassHasNoDefaultDestination(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Lone").
		WithMethod(testhelpers.Method("work", "void").Body("{ }"))
	m := b.Build()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	// nothing above Lone except the implicit top type
	_, err := o.PullUpMethod("Lone", "work", "")
	require.Error(t, err)
	re, ok := errors.AsRefactor(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNotAnAncestor, re.Type)
}

func TestCheckIsReadOnly(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	report, err := o.Check("BulkOrderService", "calculateTotal", "OrderService")
	require.NoError(t, err)

	assert.Equal(t, "com.app.BulkOrderService", report.Origin)
	assert.Equal(t, "com.app.OrderService", report.Destination)
	assert.Equal(t, "calculateTotal()", report.Method)
	assert.Equal(t, "clear", report.Outcome)
	assert.False(t, report.Fatal)
	assert.False(t, report.CrossModule)

	kinds := make(map[string]string)
	for _, f := range report.Findings {
		kinds[f.Name] = f.Kind
		assert.Equal(t, "origin", f.Ownership)
	}
	assert.Equal(t, "call", kinds["base"])
	assert.Equal(t, "field", kinds["discount"])

	assert.Empty(t, m.ModifiedClasses(), "a dry run never mutates")
	origin := m.ClassByName("BulkOrderService")
	assert.NotEqual(t, model.NoMethod, m.FindMethod(origin, "calculateTotal", nil))
}

func TestCheckReportsFatalConflict(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Base").
		WithMethod(testhelpers.Method("work", "void").Body("{ stop(); }"))
	b.Class("com.app.Child").Extends("Base").
		WithMethod(testhelpers.Method("work", "void").Body("{ go(); }"))
	m := b.Build()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	report, err := o.Check("Child", "work", "Base")
	require.NoError(t, err, "a dry run reports conflicts instead of failing")
	assert.Equal(t, "signature-conflict", report.Outcome)
	assert.True(t, report.Fatal)
}

func TestPullUpOverloadPicksByParamTypes(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Base").InFile("src/com/app/Base.java")
	b.Class("com.app.Child").Extends("Base").InFile("src/com/app/Child.java").
		WithMethod(testhelpers.Method("scale", "int").
			Param("factor", "int").Body("{ return factor; }")).
		WithMethod(testhelpers.Method("scale", "int").
			Param("factor", "double").Body("{ return (int) factor; }"))
	m := b.Build()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	res, err := o.PullUpOverload("Child", "scale", []string{"double"}, "Base")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "scale(double)")

	dest := m.ClassByName("Base")
	assert.NotEqual(t, model.NoMethod, m.FindMethod(dest, "scale", []string{"double"}))
	assert.Equal(t, model.NoMethod, m.FindMethod(dest, "scale", []string{"int"}),
		"the int overload stays on the child")
}

func TestPullUpOverloadUnknownSignature(t *testing.T) {
	m := billingModel()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	_, err := o.PullUpOverload("BulkOrderService", "calculateTotal", []string{"long"}, "")
	require.Error(t, err)
	re, ok := errors.AsRefactor(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeMethodNotFound, re.Type)
	assert.Contains(t, err.Error(), "calculateTotal(long)")
}

func TestDestinationMustBeNamedAncestor(t *testing.T) {
	b := testhelpers.NewModelBuilder()
	b.Class("com.app.Base")
	b.Class("com.app.Child").Extends("Base").
		WithMethod(testhelpers.Method("work", "void").Body("{ }"))
	b.Class("com.app.Elsewhere")
	m := b.Build()
	o := refactor.NewOrchestrator(m, refactor.Options{})

	_, err := o.PullUpMethod("Child", "work", "Elsewhere")
	require.Error(t, err)
	re, ok := errors.AsRefactor(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNotAnAncestor, re.Type)
}
