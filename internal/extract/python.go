package extract

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// PythonLanguageParser parses Python source via tree-sitter.
type PythonLanguageParser struct {
	parser *sitter.Parser
}

// NewPythonLanguageParser constructs a tree-sitter-backed Python parser.
func NewPythonLanguageParser() *PythonLanguageParser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonLanguageParser{parser: p}
}

func (p *PythonLanguageParser) SupportsFile(filePath string) bool {
	return strings.HasSuffix(filePath, ".py") || strings.HasSuffix(filePath, ".pyi")
}

// pythonTree wraps a tree-sitter tree plus the source it was parsed from,
// since node text lookups require the original bytes.
type pythonTree struct {
	tree    *sitter.Tree
	content []byte
}

func (t *pythonTree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

func (p *PythonLanguageParser) Parse(source []byte, filePath string) (Tree, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		logging.ExtractError("python parse failed: %s: %v", filePath, err)
		return nil, nil
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, nil
	}
	return &pythonTree{tree: tree, content: source}, nil
}

// PythonSymbolExtractor walks a parsed tree and collects classes, functions,
// methods, and top-level constants.
type PythonSymbolExtractor struct{}

func NewPythonSymbolExtractor() *PythonSymbolExtractor { return &PythonSymbolExtractor{} }

func (e *PythonSymbolExtractor) Extract(tree Tree, filePath string) []models.SymbolRecord {
	pt, ok := tree.(*pythonTree)
	if !ok || pt == nil || pt.tree == nil {
		return nil
	}
	v := &pyVisitor{content: pt.content}
	v.walk(pt.tree.RootNode(), "")
	return v.symbols
}

type pyVisitor struct {
	content []byte
	symbols []models.SymbolRecord
	seen    map[string]bool // top-level constant names already bound
}

func (v *pyVisitor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(v.content[n.StartByte():n.EndByte()])
}

// walk recurses through the module/class/function body, tracking the
// enclosing class name (empty at module scope) so functions become methods.
func (v *pyVisitor) walk(node *sitter.Node, currentClass string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			v.visitClass(child, currentClass)
		case "function_definition", "async_function_definition":
			v.visitFunction(child, currentClass)
		case "decorated_definition":
			v.visitDecorated(child, currentClass)
		case "expression_statement":
			if currentClass == "" {
				v.visitAssign(child)
			}
		default:
			v.walk(child, currentClass)
		}
	}
}

func (v *pyVisitor) decoratorsOf(decorated *sitter.Node) []string {
	var out []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		c := decorated.NamedChild(i)
		if c.Type() != "decorator" {
			continue
		}
		// decorator := "@" expression
		if c.NamedChildCount() > 0 {
			out = append(out, strings.TrimSpace(v.text(c.NamedChild(0))))
		}
	}
	return out
}

func (v *pyVisitor) visitDecorated(decorated *sitter.Node, currentClass string) {
	decorators := v.decoratorsOf(decorated)
	startLine := int(decorated.StartPoint().Row) + 1
	var inner *sitter.Node
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		c := decorated.NamedChild(i)
		if c.Type() == "function_definition" || c.Type() == "async_function_definition" || c.Type() == "class_definition" {
			inner = c
			break
		}
	}
	if inner == nil {
		return
	}
	before := len(v.symbols)
	if inner.Type() == "class_definition" {
		v.visitClass(inner, currentClass)
	} else {
		v.visitFunction(inner, currentClass)
	}
	if len(v.symbols) > before {
		v.symbols[before].Decorators = decorators
		v.symbols[before].LineStart = startLine
	}
}

func (v *pyVisitor) docstringOf(body *sitter.Node) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	strNode := first.NamedChild(0)
	if strNode.Type() != "string" {
		return ""
	}
	return stripStringLiteral(v.text(strNode))
}

func stripStringLiteral(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return s
}

func (v *pyVisitor) visitClass(node *sitter.Node, currentClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := v.text(nameNode)
	body := node.ChildByFieldName("body")
	v.symbols = append(v.symbols, models.SymbolRecord{
		Name:      name,
		Kind:      models.KindClass,
		LineStart: int(node.StartPoint().Row) + 1,
		LineEnd:   int(node.EndPoint().Row) + 1,
		Signature: name,
		Docstring: v.docstringOf(body),
	})
	v.walk(body, name)
}

func (v *pyVisitor) visitFunction(node *sitter.Node, currentClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := v.text(nameNode)
	params := node.ChildByFieldName("parameters")
	sig := name + formatParams(params, v.content)
	if node.Type() == "async_function_definition" {
		sig = "async " + sig
	}
	kind := models.KindFunction
	if currentClass != "" {
		kind = models.KindMethod
	}
	body := node.ChildByFieldName("body")
	v.symbols = append(v.symbols, models.SymbolRecord{
		Name:        name,
		Kind:        kind,
		LineStart:   int(node.StartPoint().Row) + 1,
		LineEnd:     int(node.EndPoint().Row) + 1,
		Signature:   sig,
		Docstring:   v.docstringOf(body),
		ParentClass: currentClass,
	})
}

// visitAssign records a top-level "name = expr" assignment as a Constant,
// the first time each name is bound.
func (v *pyVisitor) visitAssign(exprStmt *sitter.Node) {
	if exprStmt.NamedChildCount() == 0 {
		return
	}
	assign := exprStmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := v.text(left)
	if v.seen == nil {
		v.seen = make(map[string]bool)
	}
	if v.seen[name] {
		return
	}
	v.seen[name] = true
	v.symbols = append(v.symbols, models.SymbolRecord{
		Name:      name,
		Kind:      models.KindConstant,
		LineStart: int(exprStmt.StartPoint().Row) + 1,
		LineEnd:   int(exprStmt.EndPoint().Row) + 1,
		Signature: name,
	})
}

// formatParams renders a tree-sitter "parameters" node into the canonical
// signature form: "(a, b, /, c, *args, d, **kwargs)". Tree-sitter preserves
// the parameters in source order, which already encodes the positional-only
// / positional / vararg / keyword-only / kwarg arrangement Python enforces,
// so a single left-to-right walk reproduces the canonical ordering.
func formatParams(params *sitter.Node, content []byte) string {
	if params == nil {
		return "()"
	}
	text := func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		return string(content[n.StartByte():n.EndByte()])
	}
	var names []string
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		switch c.Type() {
		case "identifier":
			names = append(names, text(c))
		case "typed_parameter":
			if n := c.Child(0); n != nil && n.Type() == "identifier" {
				names = append(names, text(n))
			}
		case "default_parameter", "typed_default_parameter":
			if n := c.ChildByFieldName("name"); n != nil {
				names = append(names, nameOf(n, text))
			}
		case "list_splat_pattern":
			if n := c.NamedChild(0); n != nil {
				names = append(names, "*"+nameOf(n, text))
			}
		case "dictionary_splat_pattern":
			if n := c.NamedChild(0); n != nil {
				names = append(names, "**"+nameOf(n, text))
			}
		case "positional_separator":
			names = append(names, "/")
		case "keyword_separator":
			names = append(names, "*")
		case "(", ")", ",":
			// punctuation, skip
		}
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// nameOf handles both plain identifiers and typed_parameter wrappers nested
// inside default_parameter's "name" field.
func nameOf(n *sitter.Node, text func(*sitter.Node) string) string {
	if n.Type() == "typed_parameter" {
		if inner := n.Child(0); inner != nil {
			return text(inner)
		}
	}
	return text(n)
}
