package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pullup/internal/model"
)

func parseSource(t *testing.T, source string) *JavaFile {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	t.Cleanup(p.Close)
	file, err := p.ParseSource("Test.java", []byte(source))
	require.NoError(t, err)
	return file
}

func findClass(t *testing.T, file *JavaFile, name string) ClassDecl {
	t.Helper()
	for _, c := range file.Classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %s not found in %v", name, file.Classes)
	return ClassDecl{}
}

func findMethod(t *testing.T, class ClassDecl, name string) MethodDecl {
	t.Helper()
	for _, m := range class.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("method %s not found on %s", name, class.Name)
	return MethodDecl{}
}

func findField(t *testing.T, class ClassDecl, name string) FieldDecl {
	t.Helper()
	for _, f := range class.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not found on %s", name, class.Name)
	return FieldDecl{}
}

func TestParseClassDeclaration(t *testing.T) {
	file := parseSource(t, `package com.shop.billing;

import java.util.List;
import java.math.BigDecimal;
import static java.util.Collections.emptyList;
import java.util.concurrent.*;

public abstract class Invoice extends Document implements Printable, Comparable<Invoice> {

    private static final int MAX_LINES = 50;
    protected List<String> lines, notes;

    public Invoice(String id) {
        super();
        this.id = id;
    }

    @Override
    public BigDecimal total() throws BillingException {
        BigDecimal sum = BigDecimal.ZERO;
        for (String line : lines) {
            sum = sum.add(parse(line));
        }
        return sum;
    }

    protected abstract BigDecimal parse(String line);

    static void audit(Invoice inv) {
    }
}

class Draft {
}
`)

	assert.Equal(t, "com.shop.billing", file.Package)
	assert.Equal(t, []string{
		"java.util.List",
		"java.math.BigDecimal",
		"static java.util.Collections.emptyList",
		"java.util.concurrent.*",
	}, file.Imports)
	require.Len(t, file.Classes, 2)

	invoice := findClass(t, file, "Invoice")
	assert.True(t, invoice.IsAbstract)
	assert.False(t, invoice.IsInterface)
	assert.Equal(t, "Document", invoice.SuperName)
	assert.Equal(t, []string{"Printable", "Comparable<Invoice>"}, invoice.Interfaces)

	draft := findClass(t, file, "Draft")
	assert.Empty(t, draft.SuperName)
	assert.False(t, draft.IsAbstract)
}

func TestParseFields(t *testing.T) {
	file := parseSource(t, `package com.shop;

public class Invoice {
    private static final int MAX_LINES = 50;
    protected java.util.List<String> lines, notes;
    int doubled = base * 2;
}
`)
	invoice := findClass(t, file, "Invoice")
	require.Len(t, invoice.Fields, 4)

	maxLines := findField(t, invoice, "MAX_LINES")
	assert.Equal(t, "int", maxLines.Type)
	assert.Equal(t, model.VisibilityPrivate, maxLines.Visibility)
	assert.True(t, maxLines.IsStatic)
	assert.True(t, maxLines.IsFinal)
	assert.Equal(t, "50", maxLines.Initializer)

	lines := findField(t, invoice, "lines")
	notes := findField(t, invoice, "notes")
	assert.Equal(t, "java.util.List<String>", lines.Type)
	assert.Equal(t, lines.Type, notes.Type)
	assert.Equal(t, model.VisibilityProtected, lines.Visibility)
	assert.False(t, lines.IsStatic)

	doubled := findField(t, invoice, "doubled")
	assert.Equal(t, model.VisibilityPackage, doubled.Visibility)
	require.Len(t, doubled.Refs, 1)
	assert.Equal(t, model.RefField, doubled.Refs[0].Kind)
	assert.Equal(t, "base", doubled.Refs[0].Name)
}

func TestParseMethods(t *testing.T) {
	file := parseSource(t, `package com.shop;

public class Invoice {
    public Invoice(String id) {
    }

    @Override
    public java.math.BigDecimal total() throws BillingException, java.io.IOException {
        return null;
    }

    protected abstract String parse(String line);

    static void log(String fmt, Object... args) {
    }
}
`)
	invoice := findClass(t, file, "Invoice")

	ctor := findMethod(t, invoice, "Invoice")
	assert.True(t, ctor.IsConstructor)
	assert.Empty(t, ctor.ReturnType)
	assert.True(t, ctor.HasBody)
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, model.Param{Name: "id", Type: "String"}, ctor.Params[0])

	total := findMethod(t, invoice, "total")
	assert.Equal(t, "java.math.BigDecimal", total.ReturnType)
	assert.Equal(t, model.VisibilityPublic, total.Visibility)
	assert.Equal(t, []string{"@Override"}, total.Annotations)
	assert.Equal(t, []string{"BillingException", "java.io.IOException"}, total.Throws)
	assert.True(t, total.HasBody)
	assert.False(t, total.IsAbstract)

	parse := findMethod(t, invoice, "parse")
	assert.True(t, parse.IsAbstract)
	assert.False(t, parse.HasBody)
	assert.Empty(t, parse.Body)
	assert.Equal(t, model.VisibilityProtected, parse.Visibility)

	log := findMethod(t, invoice, "log")
	assert.True(t, log.IsStatic)
	assert.Equal(t, "void", log.ReturnType)
	require.Len(t, log.Params, 2)
	assert.Equal(t, model.Param{Name: "args", Type: "Object..."}, log.Params[1])
}

func TestParseInterface(t *testing.T) {
	file := parseSource(t, `package com.shop;

public interface Printable {
    String HEADER = "p";

    void print();

    default void printTwice() {
        print();
        print();
    }
}
`)
	printable := findClass(t, file, "Printable")
	assert.True(t, printable.IsInterface)
	assert.True(t, printable.IsAbstract)

	header := findField(t, printable, "HEADER")
	assert.Equal(t, model.VisibilityPublic, header.Visibility)
	assert.True(t, header.IsStatic)
	assert.True(t, header.IsFinal)

	print := findMethod(t, printable, "print")
	assert.True(t, print.IsAbstract)
	assert.False(t, print.HasBody)
	assert.Equal(t, model.VisibilityPublic, print.Visibility)

	twice := findMethod(t, printable, "printTwice")
	assert.False(t, twice.IsAbstract)
	assert.True(t, twice.HasBody)
	assert.Len(t, twice.Refs, 2)
}

func TestParseInterfaceExtends(t *testing.T) {
	file := parseSource(t, `package com.shop;

interface Exportable extends Printable, java.io.Serializable {
}
`)
	exportable := findClass(t, file, "Exportable")
	assert.Equal(t, []string{"Printable", "java.io.Serializable"}, exportable.Interfaces)
	assert.Empty(t, exportable.SuperName)
}

func TestParseEnumMembers(t *testing.T) {
	file := parseSource(t, `package com.shop;

public enum Color {
    RED, GREEN;

    private int code;

    public int code() {
        return code;
    }
}
`)
	color := findClass(t, file, "Color")
	assert.False(t, color.IsInterface)
	findField(t, color, "code")
	method := findMethod(t, color, "code")
	assert.Equal(t, "int", method.ReturnType)
}

func TestNestedClassesAreNotTopLevel(t *testing.T) {
	file := parseSource(t, `package com.shop;

public class Outer {
    class Inner {
        void hidden() {
        }
    }
}
`)
	require.Len(t, file.Classes, 1)
	assert.Equal(t, "Outer", file.Classes[0].Name)
}

func TestParseSurvivesSyntaxErrors(t *testing.T) {
	file := parseSource(t, `package com.shop;

public class Broken {
    void ok() {
    }

    ???
}
`)
	broken := findClass(t, file, "Broken")
	findMethod(t, broken, "ok")
}

func TestParseFileMissing(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ParseFile("/nonexistent/Missing.java")
	require.Error(t, err)
}

func TestDefaultPackage(t *testing.T) {
	file := parseSource(t, `public class Plain {
}
`)
	assert.Empty(t, file.Package)
	assert.Equal(t, "Plain", findClass(t, file, "Plain").Name)
}
