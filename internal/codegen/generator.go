// Package codegen serializes mutated classes back to Java source.
// Whole files are regenerated: every class sharing a rewritten file is
// rendered, modified or not, so multi-class files stay intact.
package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/pullup/internal/debug"
	"github.com/standardbeagle/pullup/internal/errors"
	"github.com/standardbeagle/pullup/internal/model"
)

// Generator renders classes from the model. Indent is the unit applied
// per nesting level.
type Generator struct {
	model  *model.Model
	indent string
}

func New(m *model.Model, indent string) *Generator {
	if indent == "" {
		indent = "    "
	}
	return &Generator{model: m, indent: indent}
}

// WriteModified regenerates every file containing a modified class.
// With outputDir empty, files are rewritten in place; otherwise they
// land under outputDir at their source-root-relative paths. Returns
// the written paths sorted.
func (g *Generator) WriteModified(outputDir string) ([]string, error) {
	for _, id := range g.model.ModifiedClasses() {
		AddMissingImports(g.model, id)
	}

	files := map[string]bool{}
	for _, id := range g.model.ModifiedClasses() {
		if c := g.model.Class(id); c != nil && c.FilePath != "" {
			files[c.FilePath] = true
		}
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var written []string
	for _, path := range paths {
		content := g.renderFile(g.classesInFile(path))
		target := path
		if outputDir != "" {
			target = filepath.Join(outputDir, g.relPath(path))
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return written, errors.NewFileError(errors.ErrorTypeWrite, "mkdir", target, err)
			}
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return written, errors.NewFileError(errors.ErrorTypeWrite, "write", target, err)
		}
		debug.Log("codegen", "wrote %s", target)
		written = append(written, target)
	}
	sort.Strings(written)
	return written, nil
}

// FileContent renders the complete source file owning one class,
// co-resident classes included.
func (g *Generator) FileContent(id model.ClassID) (string, error) {
	c := g.model.Class(id)
	if c == nil {
		return "", fmt.Errorf("unknown class %d", id)
	}
	if c.FilePath == "" {
		return g.renderFile([]model.ClassID{id}), nil
	}
	return g.renderFile(g.classesInFile(c.FilePath)), nil
}

// classesInFile returns every class declared in one file, in
// registration order, which follows declaration order.
func (g *Generator) classesInFile(path string) []model.ClassID {
	var ids []model.ClassID
	for _, id := range g.model.AllClasses() {
		if c := g.model.Class(id); c != nil && c.FilePath == path {
			ids = append(ids, id)
		}
	}
	return ids
}

// renderFile emits package declaration, imports, then each class.
func (g *Generator) renderFile(ids []model.ClassID) string {
	var b strings.Builder
	if len(ids) == 0 {
		return ""
	}
	first := g.model.Class(ids[0])
	if first.Package != "" {
		fmt.Fprintf(&b, "package %s;\n\n", first.Package)
	}

	imports := g.fileImports(ids)
	for _, imp := range imports {
		fmt.Fprintf(&b, "import %s;\n", imp)
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}

	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		g.renderClass(&b, g.model.Class(id))
	}
	return b.String()
}

// fileImports unions the import lists of co-resident classes,
// preserving first-seen order. Import fixup appends per class, so the
// union is what the file needs.
func (g *Generator) fileImports(ids []model.ClassID) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		c := g.model.Class(id)
		if c == nil {
			continue
		}
		for _, imp := range c.Imports {
			if !seen[imp] {
				seen[imp] = true
				out = append(out, imp)
			}
		}
	}
	return out
}

func (g *Generator) renderClass(b *strings.Builder, c *model.ClassNode) {
	if c == nil {
		return
	}
	var mods []string
	if c.IsPublic {
		mods = append(mods, "public")
	}
	if c.IsAbstract && !c.IsInterface {
		mods = append(mods, "abstract")
	}
	keyword := "class"
	if c.IsInterface {
		keyword = "interface"
	}
	mods = append(mods, keyword, c.SimpleName)
	b.WriteString(strings.Join(mods, " "))

	if c.IsInterface {
		if len(c.Interfaces) > 0 {
			b.WriteString(" extends " + strings.Join(c.Interfaces, ", "))
		}
	} else {
		if c.SuperName != "" {
			b.WriteString(" extends " + c.SuperName)
		}
		if len(c.Interfaces) > 0 {
			b.WriteString(" implements " + strings.Join(c.Interfaces, ", "))
		}
	}
	b.WriteString(" {\n")

	for _, fid := range c.Fields {
		b.WriteString("\n")
		g.renderField(b, c, g.model.Field(fid))
	}
	for _, mid := range c.Methods {
		b.WriteString("\n")
		g.renderMethod(b, c, g.model.Method(mid))
	}
	b.WriteString("}\n")
}

func (g *Generator) renderField(b *strings.Builder, c *model.ClassNode, f *model.FieldNode) {
	if f == nil {
		return
	}
	b.WriteString(g.indent)
	var mods []string
	if kw := f.Visibility.Keyword(); kw != "" {
		mods = append(mods, kw)
	}
	if f.IsStatic {
		mods = append(mods, "static")
	}
	if f.IsFinal {
		mods = append(mods, "final")
	}
	mods = append(mods, f.Type, f.Name)
	b.WriteString(strings.Join(mods, " "))
	if f.Initializer != "" {
		b.WriteString(" = " + f.Initializer)
	}
	b.WriteString(";\n")
}

func (g *Generator) renderMethod(b *strings.Builder, c *model.ClassNode, m *model.MethodNode) {
	if m == nil {
		return
	}
	for _, ann := range m.Annotations {
		b.WriteString(g.indent + ann + "\n")
	}
	b.WriteString(g.indent)

	if mods := methodModifiers(c, m); mods != "" {
		b.WriteString(mods + " ")
	}
	if !m.IsConstructor && m.ReturnType != "" {
		b.WriteString(m.ReturnType + " ")
	}

	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = strings.TrimSpace(p.Type + " " + p.Name)
	}
	fmt.Fprintf(b, "%s(%s)", m.Name, strings.Join(params, ", "))

	if len(m.Throws) > 0 {
		b.WriteString(" throws " + strings.Join(m.Throws, ", "))
	}

	if !m.HasBody || m.Body == "" {
		b.WriteString(";\n")
		return
	}
	b.WriteString(" " + g.renderBody(m.Body) + "\n")
}

// methodModifiers assembles the keyword prefix for one declaration.
// Interface members leave the implicit public and abstract unwritten;
// a body on a non-static interface method means default.
func methodModifiers(c *model.ClassNode, m *model.MethodNode) string {
	var mods []string
	if c.IsInterface {
		if m.Visibility == model.VisibilityPrivate {
			mods = append(mods, "private")
		}
		if m.IsStatic {
			mods = append(mods, "static")
		} else if m.HasBody {
			mods = append(mods, "default")
		}
		return strings.Join(mods, " ")
	}
	if kw := m.Visibility.Keyword(); kw != "" {
		mods = append(mods, kw)
	}
	if m.IsAbstract {
		mods = append(mods, "abstract")
	}
	if m.IsStatic {
		mods = append(mods, "static")
	}
	if m.IsFinal {
		mods = append(mods, "final")
	}
	return strings.Join(mods, " ")
}

// renderBody re-indents a stored body to the member level. The common
// leading whitespace of the inner lines is replaced by the generator's
// indent; deeper nesting keeps its relative depth.
func (g *Generator) renderBody(body string) string {
	lines := strings.Split(body, "\n")
	if len(lines) == 1 {
		return body
	}
	common := commonIndent(lines[1:])
	var b strings.Builder
	b.WriteString(lines[0])
	for _, line := range lines[1:] {
		b.WriteString("\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(g.indent)
		b.WriteString(strings.TrimPrefix(line, common))
	}
	return b.String()
}

// commonIndent finds the whitespace prefix shared by every non-empty
// line.
func commonIndent(lines []string) string {
	common := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			common = ws
			first = false
			continue
		}
		limit := len(common)
		if len(ws) < limit {
			limit = len(ws)
		}
		i := 0
		for i < limit && common[i] == ws[i] {
			i++
		}
		common = common[:i]
	}
	return common
}

// relPath maps an absolute source path to its path under the source
// root, for output-directory redirection.
func (g *Generator) relPath(path string) string {
	for _, root := range g.model.SourceRoots {
		if rel, err := filepath.Rel(root, path); err == nil &&
			!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) {
			return rel
		}
	}
	return filepath.Base(path)
}
