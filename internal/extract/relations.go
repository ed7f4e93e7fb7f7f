package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Relations exposes the same-file structural facts the graph builder needs
// beyond the flat symbol list: base classes, call-site names, and imports.
// It is a separate pass over the same tree (mirroring the reference
// implementation's two-pass approach: one pass for symbols, one for
// relationships) rather than folded into Extract, since not every caller of
// Extract needs them.
type Relations struct {
	// ClassBases maps a class name to its declared base-class names
	// (simple names or dotted attribute forms), in source order.
	ClassBases map[string][]string
	// Calls maps a function/method name to the simple or dotted call names
	// found in its body, in source order.
	Calls map[string][]string
	// Imports lists every imported name or dotted module path, in source order.
	Imports []string
}

// ExtractRelations walks a parsed tree once and collects class bases, calls,
// and imports. Returns nil for a non-Python tree.
func ExtractRelations(tree Tree) *Relations {
	pt, ok := tree.(*pythonTree)
	if !ok || pt == nil || pt.tree == nil {
		return nil
	}
	r := &Relations{ClassBases: map[string][]string{}, Calls: map[string][]string{}}
	walkRelations(pt.tree.RootNode(), pt.content, r)
	return r
}

func walkRelations(node *sitter.Node, content []byte, r *Relations) {
	if node == nil {
		return
	}
	text := func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		return string(content[n.StartByte():n.EndByte()])
	}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := text(nameNode)
				if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
					for i := 0; i < int(superclasses.NamedChildCount()); i++ {
						arg := superclasses.NamedChild(i)
						if arg.Type() == "identifier" || arg.Type() == "attribute" {
							r.ClassBases[name] = append(r.ClassBases[name], text(arg))
						}
					}
				}
			}
		case "function_definition", "async_function_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := text(nameNode)
				var calls []string
				collectCalls(n, content, &calls)
				r.Calls[name] = calls
			}
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				switch c.Type() {
				case "dotted_name":
					r.Imports = append(r.Imports, text(c))
				case "aliased_import":
					if dn := c.ChildByFieldName("name"); dn != nil {
						r.Imports = append(r.Imports, text(dn))
					}
				}
			}
		case "import_from_statement":
			moduleNode := n.ChildByFieldName("module_name")
			module := text(moduleNode)
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				name := ""
				switch c.Type() {
				case "dotted_name":
					if c == moduleNode {
						continue
					}
					name = text(c)
				case "aliased_import":
					if dn := c.ChildByFieldName("name"); dn != nil {
						name = text(dn)
					}
				case "wildcard_import":
					name = ""
				default:
					continue
				}
				if module != "" && name != "" {
					r.Imports = append(r.Imports, module+"."+name)
				} else if module != "" {
					r.Imports = append(r.Imports, module)
				} else if name != "" {
					r.Imports = append(r.Imports, name)
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(node)
}

// collectCalls walks fnNode's body collecting call-site names (simple
// identifiers and dotted attribute forms), same-file resolution only.
func collectCalls(fnNode *sitter.Node, content []byte, out *[]string) {
	text := func(n *sitter.Node) string {
		if n == nil {
			return ""
		}
		return string(content[n.StartByte():n.EndByte()])
	}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				switch fn.Type() {
				case "identifier", "attribute":
					*out = append(*out, text(fn))
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	body := fnNode.ChildByFieldName("body")
	visit(body)
}
