package language

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/infrastructure/extractor"
)

// JavaScript implements Analyzer for JavaScript code.
type JavaScript struct {
	Base
}

// NewJavaScript creates a new JavaScript analyzer.
func NewJavaScript(language extractor.Language) *JavaScript {
	return &JavaScript{Base: NewBase(language)}
}

// FunctionName extracts the function name from various function node shapes.
func (j *JavaScript) FunctionName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return j.NodeText(nameNode, source)
	}

	if node.Type() == "arrow_function" || node.Type() == "function_expression" {
		parent := node.Parent()
		if parent != nil && parent.Type() == "variable_declarator" {
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
				return j.NodeText(nameNode, source)
			}
		}
		if parent != nil && parent.Type() == "assignment_expression" {
			if left := parent.ChildByFieldName("left"); left != nil && j.Walker().IsIdentifier(left) {
				return j.NodeText(left, source)
			}
		}
	}

	return ""
}

// IsPublic always returns true for JavaScript (no visibility convention).
func (j *JavaScript) IsPublic(_ *sitter.Node, _ string, _ []byte) bool { return true }

// IsMethod returns true if the node is a method_definition.
func (j *JavaScript) IsMethod(node *sitter.Node) bool {
	return node != nil && node.Type() == "method_definition"
}

// Docstring extracts JSDoc comments preceding a function.
func (j *JavaScript) Docstring(node *sitter.Node, source []byte) string {
	return j.ExtractPrecedingComment(node, source)
}

// ModulePath builds the module path from the file path.
func (j *JavaScript) ModulePath(file extractor.ParsedFile) string {
	return j.BuildModulePathFromPath(file.Path(), ".js")
}

// Classes extracts class definitions from the AST.
func (j *JavaScript) Classes(tree *sitter.Tree, source []byte) []extractor.ClassDefinition {
	if tree == nil {
		return nil
	}

	classNodes := j.Walker().CollectNodes(tree.RootNode(), []string{"class_declaration"})
	classes := make([]extractor.ClassDefinition, 0, len(classNodes))
	for _, node := range classNodes {
		classes = append(classes, j.extractClass(node, source))
	}
	return classes
}

// Types returns nil for JavaScript (no standalone type definitions).
func (j *JavaScript) Types(_ *sitter.Tree, _ []byte) []extractor.TypeDefinition { return nil }

func (j *JavaScript) extractClass(node *sitter.Node, source []byte) extractor.ClassDefinition {
	name := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = j.NodeText(nameNode, source)
	}

	return extractor.NewClassDefinition(
		"", node, node.StartByte(), node.EndByte(),
		name, name, true,
		j.Docstring(node, source),
		j.extractBases(node, source),
		j.extractMethods(node, source, name),
		nil,
	)
}

func (j *JavaScript) extractBases(node *sitter.Node, source []byte) []string {
	heritage := node.ChildByFieldName("heritage")
	if heritage == nil {
		return nil
	}

	var bases []string
	j.Walker().Walk(heritage, func(n *sitter.Node) bool {
		if j.Walker().IsIdentifier(n) {
			bases = append(bases, j.NodeText(n, source))
		}
		return true
	})
	return bases
}

func (j *JavaScript) extractMethods(classNode *sitter.Node, source []byte, className string) []extractor.FunctionDefinition {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	methodNodes := j.Walker().CollectNodes(body, []string{"method_definition"})
	methods := make([]extractor.FunctionDefinition, 0, len(methodNodes))

	for _, methodNode := range methodNodes {
		nameNode := methodNode.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		name := j.NodeText(nameNode, source)
		methods = append(methods, extractor.NewFunctionDefinition(
			"", methodNode, methodNode.StartByte(), methodNode.EndByte(),
			className+"."+name, name,
			!strings.HasPrefix(name, "_"), true,
			j.Docstring(methodNode, source),
			j.extractParameters(methodNode, source),
			"",
		))
	}

	return methods
}

func (j *JavaScript) extractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var result []string
	for i := uint32(0); i < params.ChildCount(); i++ {
		if child := params.Child(int(i)); child != nil && j.Walker().IsIdentifier(child) {
			result = append(result, j.NodeText(child, source))
		}
	}
	return result
}
