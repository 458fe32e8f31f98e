package language

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/infrastructure/extractor"
)

// Java implements Analyzer for Java code.
type Java struct {
	Base
}

// NewJava creates a new Java analyzer.
func NewJava(language extractor.Language) *Java {
	return &Java{Base: NewBase(language)}
}

// FunctionName extracts the method name from a method_declaration node.
func (j *Java) FunctionName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return j.NodeText(nameNode, source)
	}
	return ""
}

// IsPublic always returns true for Java (all methods are indexed).
func (j *Java) IsPublic(_ *sitter.Node, _ string, _ []byte) bool { return true }

// IsMethod returns false for Java (methods are handled within class extraction).
func (j *Java) IsMethod(_ *sitter.Node) bool { return false }

// Docstring extracts Javadoc comments preceding a method.
func (j *Java) Docstring(node *sitter.Node, source []byte) string {
	return j.ExtractPrecedingComment(node, source)
}

// ModulePath builds the module path from the package declaration.
func (j *Java) ModulePath(file extractor.ParsedFile) string {
	tree := file.Tree()
	if tree == nil {
		return ""
	}

	packageNodes := j.Walker().CollectNodes(tree.RootNode(), []string{"package_declaration"})
	if len(packageNodes) == 0 {
		return j.BuildModulePathFromPath(file.Path(), ".java")
	}

	packageNode := packageNodes[0]
	if scopedID := j.Walker().FindDescendant(packageNode, "scoped_identifier"); scopedID != nil {
		return j.NodeText(scopedID, file.SourceCode())
	}
	if idNode := j.Walker().FindDescendant(packageNode, "identifier"); idNode != nil {
		return j.NodeText(idNode, file.SourceCode())
	}

	return j.BuildModulePathFromPath(file.Path(), ".java")
}

// Classes extracts class, interface, and enum definitions.
func (j *Java) Classes(tree *sitter.Tree, source []byte) []extractor.ClassDefinition {
	if tree == nil {
		return nil
	}

	classNodes := j.Walker().CollectNodes(tree.RootNode(), []string{"class_declaration", "interface_declaration", "enum_declaration"})
	classes := make([]extractor.ClassDefinition, 0, len(classNodes))
	for _, node := range classNodes {
		classes = append(classes, j.extractClass(node, source))
	}
	return classes
}

// Types returns nil for Java (types are modeled as classes).
func (j *Java) Types(_ *sitter.Tree, _ []byte) []extractor.TypeDefinition { return nil }

func (j *Java) extractClass(node *sitter.Node, source []byte) extractor.ClassDefinition {
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

func (j *Java) extractBases(node *sitter.Node, source []byte) []string {
	var bases []string

	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		j.Walker().Walk(superclass, func(n *sitter.Node) bool {
			if n.Type() == "type_identifier" {
				bases = append(bases, j.NodeText(n, source))
			}
			return true
		})
	}

	if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
		j.Walker().Walk(interfaces, func(n *sitter.Node) bool {
			if n.Type() == "type_identifier" {
				bases = append(bases, j.NodeText(n, source))
			}
			return true
		})
	}

	return bases
}

func (j *Java) extractMethods(classNode *sitter.Node, source []byte, className string) []extractor.FunctionDefinition {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	methodNodes := j.Walker().CollectNodes(body, []string{"method_declaration", "constructor_declaration"})
	methods := make([]extractor.FunctionDefinition, 0, len(methodNodes))

	for _, methodNode := range methodNodes {
		name := j.FunctionName(methodNode, source)
		if name == "" {
			if methodNode.Type() == "constructor_declaration" {
				name = className
			} else {
				continue
			}
		}

		methods = append(methods, extractor.NewFunctionDefinition(
			"", methodNode, methodNode.StartByte(), methodNode.EndByte(),
			className+"."+name, name, true, true,
			j.Docstring(methodNode, source),
			j.extractParameters(methodNode, source),
			j.extractReturnType(methodNode, source),
		))
	}

	return methods
}

func (j *Java) extractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var result []string
	for _, paramNode := range j.Walker().CollectNodes(params, []string{"formal_parameter", "spread_parameter"}) {
		typeNode := paramNode.ChildByFieldName("type")
		nameNode := paramNode.ChildByFieldName("name")
		if typeNode != nil && nameNode != nil {
			result = append(result, j.NodeText(typeNode, source)+" "+j.NodeText(nameNode, source))
		}
	}
	return result
}

func (j *Java) extractReturnType(node *sitter.Node, source []byte) string {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	return j.NodeText(typeNode, source)
}
