// Package display renders hierarchy queries and class listings as
// text shared by the CLI and the MCP tools.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/pullup/internal/hierarchy"
	"github.com/standardbeagle/pullup/internal/model"
)

// TreeFormatter renders a class's place in the inheritance tree.
type TreeFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls tree formatting
type FormatterOptions struct {
	ShowFiles bool   // Append the declaring file path to each class
	MaxDepth  int    // Maximum descendant depth to display, 0 = unlimited
	Indent    string // Indentation string
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(options FormatterOptions) *TreeFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &TreeFormatter{options: options}
}

// Format renders the ancestor chain of one class followed by its
// descendant subtree.
func (tf *TreeFormatter) Format(m *model.Model, nav *hierarchy.Navigator, id model.ClassID) string {
	var sb strings.Builder

	sb.WriteString(tf.describe(m, id) + "\n")

	indent := tf.options.Indent
	chain := nav.AncestorsOf(id)
	for _, ancestor := range chain {
		sb.WriteString(indent + "extends " + tf.describe(m, ancestor) + "\n")
		indent += tf.options.Indent
	}

	// The chain stops at the last parsed class; name what it extends.
	top := id
	if len(chain) > 0 {
		top = chain[len(chain)-1]
	}
	if tc := m.Class(top); tc != nil && !tc.IsInterface {
		switch tc.SuperName {
		case "", "Object", model.ObjectClassName:
			sb.WriteString(indent + "extends " + model.ObjectClassName + "\n")
		default:
			sb.WriteString(indent + "extends " + tc.SuperName + " (outside the parsed roots)\n")
		}
	}

	if len(nav.Children(id)) > 0 {
		sb.WriteString("Descendants:\n")
		tf.formatSubtree(&sb, m, nav, id, "", 1)
	}
	return sb.String()
}

// formatSubtree recursively renders the children of id as branch art.
func (tf *TreeFormatter) formatSubtree(sb *strings.Builder, m *model.Model, nav *hierarchy.Navigator, id model.ClassID, prefix string, depth int) {
	if tf.options.MaxDepth > 0 && depth > tf.options.MaxDepth {
		return
	}

	children := nav.Children(id)
	sort.Slice(children, func(i, j int) bool {
		return m.Class(children[i]).QualifiedName < m.Class(children[j]).QualifiedName
	})

	for i, child := range children {
		branch := "├─→ "
		childPrefix := prefix + "│ "
		if i == len(children)-1 {
			branch = "└─→ "
			childPrefix = prefix + "  "
		}
		sb.WriteString(prefix + branch + tf.describe(m, child) + "\n")
		tf.formatSubtree(sb, m, nav, child, childPrefix, depth+1)
	}
}

// describe renders one class reference with its kind qualifier.
func (tf *TreeFormatter) describe(m *model.Model, id model.ClassID) string {
	c := m.Class(id)
	if c == nil {
		return "?"
	}
	name := c.QualifiedName
	if c.IsInterface {
		name = "interface " + name
	} else if c.IsAbstract {
		name = "abstract " + name
	}
	if tf.options.ShowFiles && c.FilePath != "" {
		name += fmt.Sprintf(" [%s]", c.FilePath)
	}
	return name
}

// classLister accumulates one listing line per visited node.
type classLister struct {
	sb strings.Builder
}

// VisitClass implements model.Visitor
func (l *classLister) VisitClass(c *model.ClassNode) bool {
	kind := "class"
	if c.IsInterface {
		kind = "interface"
	}
	fmt.Fprintf(&l.sb, "%s %s\n", kind, c.QualifiedName)
	return true
}

// VisitField implements model.Visitor; field names stay out of the listing.
func (l *classLister) VisitField(f *model.FieldNode) {}

// VisitMethod implements model.Visitor
func (l *classLister) VisitMethod(mn *model.MethodNode) {
	l.sb.WriteString("  " + model.SignatureOf(mn).String() + "\n")
}

// FormatClassList renders every parsed type with its method
// signatures, sorted by qualified name.
func FormatClassList(m *model.Model) string {
	ids := m.AllClasses()
	if len(ids) == 0 {
		return "no classes found\n"
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.Class(ids[i]).QualifiedName < m.Class(ids[j]).QualifiedName
	})

	lister := &classLister{}
	fmt.Fprintf(&lister.sb, "%d classes\n", len(ids))
	for _, id := range ids {
		m.Walk(id, lister)
	}
	return lister.sb.String()
}
