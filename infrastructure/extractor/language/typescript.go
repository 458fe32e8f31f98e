package language

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/infrastructure/extractor"
)

// TypeScript implements Analyzer for TypeScript and TSX code, reusing the
// JavaScript analyzer for everything but type aliases/interfaces and module
// path extension handling.
type TypeScript struct {
	JavaScript
	extension string
}

// NewTypeScript creates a new TypeScript (.ts) analyzer.
func NewTypeScript(language extractor.Language) *TypeScript {
	return &TypeScript{
		JavaScript: JavaScript{Base: NewBase(language)},
		extension:  ".ts",
	}
}

// NewTSX creates a new TSX (.tsx) analyzer.
func NewTSX(language extractor.Language) *TypeScript {
	return &TypeScript{
		JavaScript: JavaScript{Base: NewBase(language)},
		extension:  ".tsx",
	}
}

// ModulePath builds the module path from the file path.
func (t *TypeScript) ModulePath(file extractor.ParsedFile) string {
	return t.BuildModulePathFromPath(file.Path(), t.extension)
}

// Types extracts type alias and interface definitions from the AST.
func (t *TypeScript) Types(tree *sitter.Tree, source []byte) []extractor.TypeDefinition {
	if tree == nil {
		return nil
	}

	typeNodes := t.Walker().CollectNodes(tree.RootNode(), []string{"type_alias_declaration", "interface_declaration"})
	types := make([]extractor.TypeDefinition, 0, len(typeNodes))
	for _, node := range typeNodes {
		types = append(types, t.extractTypeDef(node, source))
	}
	return types
}

func (t *TypeScript) extractTypeDef(node *sitter.Node, source []byte) extractor.TypeDefinition {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = t.NodeText(nameNode, source)
	}

	kind := "alias"
	if node.Type() == "interface_declaration" {
		kind = "interface"
	}

	return extractor.NewTypeDefinition(
		"", node, node.StartByte(), node.EndByte(),
		name, name, kind,
		t.Docstring(node, source),
		nil,
	)
}

// ExtractTypeReferences extracts non-builtin type names referenced in a node.
func (t *TypeScript) ExtractTypeReferences(node *sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}

	seen := make(map[string]struct{})
	for _, typeNode := range t.Walker().CollectDescendants(node, "type_identifier") {
		name := t.NodeText(typeNode, source)
		if name != "" && !isBuiltinTSType(name) {
			seen[name] = struct{}{}
		}
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	return result
}

func isBuiltinTSType(name string) bool {
	switch name {
	case "string", "number", "boolean", "void", "null", "undefined", "any", "never",
		"unknown", "object", "symbol", "bigint", "Array", "Promise", "Map", "Set",
		"Function", "Object", "String", "Number", "Boolean":
		return true
	default:
		return false
	}
}
