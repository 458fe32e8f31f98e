package language

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/infrastructure/extractor"
)

// CPP implements Analyzer for C++ code, reusing the C analyzer's function and
// preceding-comment handling.
type CPP struct {
	C
}

// NewCPP creates a new C++ analyzer.
func NewCPP(language extractor.Language) *CPP {
	return &CPP{C: C{Base: NewBase(language)}}
}

// ModulePath builds the module path from the file path.
func (c *CPP) ModulePath(file extractor.ParsedFile) string {
	return c.BuildModulePathFromPath(file.Path(), ".cpp")
}

// Classes extracts class/struct definitions including their methods.
func (c *CPP) Classes(tree *sitter.Tree, source []byte) []extractor.ClassDefinition {
	if tree == nil {
		return nil
	}

	classNodes := c.Walker().CollectNodes(tree.RootNode(), []string{"class_specifier", "struct_specifier"})
	classes := make([]extractor.ClassDefinition, 0, len(classNodes))
	for _, node := range classNodes {
		classes = append(classes, c.extractClass(node, source))
	}
	return classes
}

func (c *CPP) extractClass(node *sitter.Node, source []byte) extractor.ClassDefinition {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = c.NodeText(nameNode, source)
	}

	return extractor.NewClassDefinition(
		"", node, node.StartByte(), node.EndByte(),
		name, name, true,
		c.Docstring(node, source),
		c.extractBases(node, source),
		c.extractMethods(node, source, name),
		nil,
	)
}

func (c *CPP) extractBases(node *sitter.Node, source []byte) []string {
	baseClause := node.ChildByFieldName("base_clause")
	if baseClause == nil {
		return nil
	}

	var bases []string
	c.Walker().Walk(baseClause, func(n *sitter.Node) bool {
		if n.Type() == "type_identifier" {
			bases = append(bases, c.NodeText(n, source))
		}
		return true
	})
	return bases
}

func (c *CPP) extractMethods(classNode *sitter.Node, source []byte, className string) []extractor.FunctionDefinition {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	funcNodes := c.Walker().CollectNodes(body, []string{"function_definition", "declaration"})
	methods := make([]extractor.FunctionDefinition, 0, len(funcNodes))

	for _, funcNode := range funcNodes {
		name := c.FunctionName(funcNode, source)
		if name == "" {
			continue
		}

		methods = append(methods, extractor.NewFunctionDefinition(
			"", funcNode, funcNode.StartByte(), funcNode.EndByte(),
			className+"::"+name, name, true, true,
			c.Docstring(funcNode, source),
			c.ExtractParameters(funcNode, source),
			c.ExtractReturnType(funcNode, source),
		))
	}

	return methods
}

// Types extracts type alias declarations.
func (c *CPP) Types(tree *sitter.Tree, source []byte) []extractor.TypeDefinition {
	if tree == nil {
		return nil
	}

	aliasNodes := c.Walker().CollectNodes(tree.RootNode(), []string{"type_definition", "alias_declaration"})
	types := make([]extractor.TypeDefinition, 0, len(aliasNodes))

	for _, node := range aliasNodes {
		var name string

		if node.Type() == "alias_declaration" {
			if nameNode := node.ChildByFieldName("name"); nameNode != nil {
				name = c.NodeText(nameNode, source)
			}
		} else if declarator := node.ChildByFieldName("declarator"); declarator != nil {
			c.Walker().Walk(declarator, func(n *sitter.Node) bool {
				if n.Type() == "type_identifier" || n.Type() == "identifier" {
					name = c.NodeText(n, source)
					return false
				}
				return true
			})
		}

		if name == "" {
			continue
		}

		types = append(types, extractor.NewTypeDefinition(
			"", node, node.StartByte(), node.EndByte(),
			name, name, "alias",
			c.Docstring(node, source),
			nil,
		))
	}

	return types
}
