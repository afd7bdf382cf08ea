package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/model"
)

// parseMethod wraps a body in a minimal class and returns the one
// extracted method.
func parseMethod(t *testing.T, signature, body string) MethodDecl {
	t.Helper()
	source := "class Host {\n    " + signature + " " + body + "\n}\n"
	file := parseSource(t, source)
	host := findClass(t, file, "Host")
	require.NotEmpty(t, host.Methods)
	return host.Methods[0]
}

func refsOf(m MethodDecl, kind model.RefKind) []model.MemberRef {
	var out []model.MemberRef
	for _, r := range m.Refs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestImplicitCallAndFieldRefs(t *testing.T) {
	m := parseMethod(t, "int use()", "{ base(); return shared; }")

	calls := refsOf(m, model.RefMethodCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "base", calls[0].Name)
	assert.Equal(t, 0, calls[0].Arity)
	assert.Equal(t, model.ReceiverImplicit, calls[0].Receiver)

	fields := refsOf(m, model.RefField)
	require.Len(t, fields, 1)
	assert.Equal(t, "shared", fields[0].Name)
	assert.Equal(t, model.ReceiverImplicit, fields[0].Receiver)
}

func TestThisQualifiedFieldRef(t *testing.T) {
	m := parseMethod(t, "void set(int v)", "{ this.count = v; }")

	fields := refsOf(m, model.RefField)
	require.Len(t, fields, 1)
	assert.Equal(t, "count", fields[0].Name)
	assert.Equal(t, model.ReceiverThis, fields[0].Receiver)
}

func TestLocalsSuppressFieldRefs(t *testing.T) {
	m := parseMethod(t, "void tick()", "{ int counter = 0; counter++; }")
	assert.Empty(t, refsOf(m, model.RefField))
}

func TestParametersSuppressFieldRefs(t *testing.T) {
	m := parseMethod(t, "int add(int a, int b)", "{ return a + b; }")
	assert.Empty(t, m.Refs)
}

func TestCallOnLocalKeepsReceiverOther(t *testing.T) {
	m := parseMethod(t, "int len(String s)", "{ return s.length(); }")

	calls := refsOf(m, model.RefMethodCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "length", calls[0].Name)
	assert.Equal(t, model.ReceiverOther, calls[0].Receiver)
	assert.Empty(t, refsOf(m, model.RefField))
}

func TestConstructorRef(t *testing.T) {
	m := parseMethod(t, "Object make()", "{ return new Helper(1, 2); }")

	news := refsOf(m, model.RefConstructorCall)
	require.Len(t, news, 1)
	assert.Equal(t, "Helper", news[0].TypeName)
	assert.Equal(t, 2, news[0].Arity)
}

func TestSuperCallStatementSpans(t *testing.T) {
	m := parseMethod(t, "void work()", "{ super.work(); }")

	require.Len(t, m.SuperCalls, 1)
	sc := m.SuperCalls[0]
	assert.Equal(t, "work", sc.Name)
	assert.Equal(t, 0, sc.Arity)
	assert.Empty(t, sc.ArgsText)
	assert.True(t, sc.IsStatement)
	assert.Equal(t, model.Span{Start: 2, End: 14}, sc.CallSpan)
	assert.Equal(t, model.Span{Start: 2, End: 15}, sc.StmtSpan)
	assert.Equal(t, "super.work()", m.Body[sc.CallSpan.Start:sc.CallSpan.End])
	assert.Equal(t, "super.work();", m.Body[sc.StmtSpan.Start:sc.StmtSpan.End])

	calls := refsOf(m, model.RefMethodCall)
	require.Len(t, calls, 1)
	assert.Equal(t, model.ReceiverSuper, calls[0].Receiver)
}

func TestSuperCallInExpression(t *testing.T) {
	m := parseMethod(t, "int area()", "{ return super.area() * 2; }")

	require.Len(t, m.SuperCalls, 1)
	sc := m.SuperCalls[0]
	assert.False(t, sc.IsStatement)
	assert.Equal(t, sc.CallSpan, sc.StmtSpan)
	assert.Equal(t, "super.area()", m.Body[sc.CallSpan.Start:sc.CallSpan.End])
}

func TestSuperCallArgsText(t *testing.T) {
	m := parseMethod(t, "void save(int id, String name)", "{ super.save(id, name); }")

	require.Len(t, m.SuperCalls, 1)
	sc := m.SuperCalls[0]
	assert.Equal(t, "save", sc.Name)
	assert.Equal(t, 2, sc.Arity)
	assert.Equal(t, "id, name", sc.ArgsText)
}

func TestConstructorSuperIsNotASuperCall(t *testing.T) {
	file := parseSource(t, `class Host extends Base {
    Host(int id) {
        super(id);
    }
}
`)
	host := findClass(t, file, "Host")
	ctor := findMethod(t, host, "Host")
	assert.Empty(t, ctor.SuperCalls)
}

func TestThisArgumentSpan(t *testing.T) {
	m := parseMethod(t, "void hook()", "{ attach(this); }")

	require.Len(t, m.ThisArgs, 1)
	ta := m.ThisArgs[0]
	assert.Equal(t, "attach", ta.CallName)
	assert.Equal(t, 1, ta.Arity)
	assert.Equal(t, 0, ta.ArgIndex)
	assert.Equal(t, model.Span{Start: 9, End: 13}, ta.Span)
	assert.Equal(t, "this", m.Body[ta.Span.Start:ta.Span.End])
}

func TestThisArgumentIndex(t *testing.T) {
	m := parseMethod(t, "void hook()", "{ register(1, this, name); }")

	require.Len(t, m.ThisArgs, 1)
	ta := m.ThisArgs[0]
	assert.Equal(t, "register", ta.CallName)
	assert.Equal(t, 3, ta.Arity)
	assert.Equal(t, 1, ta.ArgIndex)
	assert.Equal(t, "this", m.Body[ta.Span.Start:ta.Span.End])
}

func TestLocalVarTypeSpans(t *testing.T) {
	m := parseMethod(t, "int run()", "{ Price p = base(); return p.total; }")

	require.Len(t, m.LocalVarTypes, 1)
	ts := m.LocalVarTypes[0]
	assert.Equal(t, "Price", ts.TypeName)
	assert.Equal(t, "Price", m.Body[ts.Span.Start:ts.Span.End])
}

func TestLambdaParametersAreLocals(t *testing.T) {
	m := parseMethod(t, "void each()", "{ items.forEach(x -> use(x)); }")

	for _, r := range refsOf(m, model.RefField) {
		assert.NotEqual(t, "x", r.Name)
	}
	calls := refsOf(m, model.RefMethodCall)
	var names []string
	for _, c := range calls {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "use")
	assert.Contains(t, names, "forEach")
}

func TestEnhancedForVariableIsLocal(t *testing.T) {
	m := parseMethod(t, "void sum()", "{ for (String line : lines) { use(line); } }")

	fields := refsOf(m, model.RefField)
	require.Len(t, fields, 1)
	assert.Equal(t, "lines", fields[0].Name)
}

func TestCatchParameterIsLocal(t *testing.T) {
	m := parseMethod(t, "void guard()", "{ try { run(); } catch (Exception e) { use(e); } }")

	assert.Empty(t, refsOf(m, model.RefField))
}

func TestFieldAccessOnOtherReceiver(t *testing.T) {
	m := parseMethod(t, "int peek(Box b)", "{ return b.value; }")

	fields := refsOf(m, model.RefField)
	require.Len(t, fields, 1)
	assert.Equal(t, "value", fields[0].Name)
	assert.Equal(t, model.ReceiverOther, fields[0].Receiver)
}
