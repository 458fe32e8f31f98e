package language

import (
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/infrastructure/extractor"
)

// Go implements Analyzer for Go code.
type Go struct {
	Base
}

// NewGo creates a new Go analyzer.
func NewGo(language extractor.Language) *Go {
	return &Go{Base: NewBase(language)}
}

// FunctionName extracts the function name from a function or method declaration.
func (g *Go) FunctionName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return g.NodeText(nameNode, source)
	}
	return ""
}

// IsPublic returns true if the name starts with an uppercase letter.
func (g *Go) IsPublic(_ *sitter.Node, name string, _ []byte) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

// IsMethod returns true if the node is a method_declaration.
func (g *Go) IsMethod(node *sitter.Node) bool {
	return node != nil && node.Type() == "method_declaration"
}

// Docstring extracts the documentation comment preceding a function.
func (g *Go) Docstring(node *sitter.Node, source []byte) string {
	return g.ExtractPrecedingComment(node, source)
}

// ModulePath builds the module path from the package clause.
func (g *Go) ModulePath(file extractor.ParsedFile) string {
	tree := file.Tree()
	if tree == nil {
		return ""
	}

	packageNodes := g.Walker().CollectNodes(tree.RootNode(), []string{"package_clause"})
	if len(packageNodes) == 0 {
		return filepath.Base(filepath.Dir(file.Path()))
	}

	if nameNode := packageNodes[0].ChildByFieldName("name"); nameNode != nil {
		return g.NodeText(nameNode, file.SourceCode())
	}

	return filepath.Base(filepath.Dir(file.Path()))
}

// Classes returns nil for Go (Go has no class construct; structs surface via Types).
func (g *Go) Classes(_ *sitter.Tree, _ []byte) []extractor.ClassDefinition { return nil }

// Types extracts type declarations from the AST.
func (g *Go) Types(tree *sitter.Tree, source []byte) []extractor.TypeDefinition {
	if tree == nil {
		return nil
	}

	typeNodes := g.Walker().CollectNodes(tree.RootNode(), []string{"type_declaration", "type_spec"})
	types := make([]extractor.TypeDefinition, 0, len(typeNodes))

	for _, node := range typeNodes {
		if node.Type() == "type_declaration" {
			for i := uint32(0); i < node.ChildCount(); i++ {
				if child := node.Child(int(i)); child != nil && child.Type() == "type_spec" {
					types = append(types, g.extractTypeSpec(child, source))
				}
			}
			continue
		}
		types = append(types, g.extractTypeSpec(node, source))
	}

	return types
}

func (g *Go) extractTypeSpec(node *sitter.Node, source []byte) extractor.TypeDefinition {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = g.NodeText(nameNode, source)
	}

	return extractor.NewTypeDefinition(
		"", node, node.StartByte(), node.EndByte(),
		name, name,
		g.determineTypeKind(node),
		g.Docstring(node, source),
		g.extractStructFields(node, source),
	)
}

func (g *Go) determineTypeKind(node *sitter.Node) string {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return "alias"
	}

	switch typeNode.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	case "map_type":
		return "map"
	case "channel_type":
		return "channel"
	case "function_type":
		return "func"
	case "slice_type", "array_type":
		return "slice"
	case "pointer_type":
		return "pointer"
	default:
		return "alias"
	}
}

func (g *Go) extractStructFields(node *sitter.Node, source []byte) []string {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil || typeNode.Type() != "struct_type" {
		return nil
	}

	var fields []string
	for _, fieldNode := range g.Walker().CollectDescendants(typeNode, "field_declaration") {
		nameNode := fieldNode.ChildByFieldName("name")
		typeFieldNode := fieldNode.ChildByFieldName("type")
		if nameNode != nil && typeFieldNode != nil {
			fields = append(fields, g.NodeText(nameNode, source)+" "+g.NodeText(typeFieldNode, source))
		}
	}

	return fields
}

// ExtractParameters extracts function parameters.
func (g *Go) ExtractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var result []string
	for i := uint32(0); i < params.ChildCount(); i++ {
		child := params.Child(int(i))
		if child == nil || child.Type() != "parameter_declaration" {
			continue
		}

		nameNode := child.ChildByFieldName("name")
		typeNode := child.ChildByFieldName("type")
		switch {
		case nameNode != nil && typeNode != nil:
			result = append(result, strings.TrimSpace(g.NodeText(nameNode, source)+" "+g.NodeText(typeNode, source)))
		case typeNode != nil:
			result = append(result, g.NodeText(typeNode, source))
		}
	}

	return result
}

// ExtractReturnType extracts the result type(s) of a function.
func (g *Go) ExtractReturnType(node *sitter.Node, source []byte) string {
	result := node.ChildByFieldName("result")
	if result == nil {
		return ""
	}
	return g.NodeText(result, source)
}
