package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Analyzer extracts code elements from a parsed AST tree for one language.
type Analyzer interface {
	// Language returns the language configuration the analyzer was built for.
	Language() Language

	// FunctionName extracts the function name from a function or method node.
	FunctionName(node *sitter.Node, source []byte) string

	// IsPublic determines if a definition is externally visible based on the
	// language's naming or modifier conventions.
	IsPublic(node *sitter.Node, name string, source []byte) bool

	// IsMethod determines if a node is a receiver-bound function.
	IsMethod(node *sitter.Node) bool

	// Docstring extracts documentation text preceding or inside a node.
	Docstring(node *sitter.Node, source []byte) string

	// ModulePath builds the enclosing module/package path for a parsed file.
	ModulePath(file ParsedFile) string

	// Classes extracts class, struct, or interface definitions from the AST.
	Classes(tree *sitter.Tree, source []byte) []ClassDefinition

	// Types extracts standalone type definitions from the AST.
	Types(tree *sitter.Tree, source []byte) []TypeDefinition
}

// ParsedFile is a source file after tree-sitter parsing.
type ParsedFile struct {
	path       string
	tree       *sitter.Tree
	sourceCode []byte
}

// NewParsedFile creates a new ParsedFile.
func NewParsedFile(path string, tree *sitter.Tree, sourceCode []byte) ParsedFile {
	code := make([]byte, len(sourceCode))
	copy(code, sourceCode)

	return ParsedFile{
		path:       path,
		tree:       tree,
		sourceCode: code,
	}
}

// Path returns the file path relative to the repository root.
func (p ParsedFile) Path() string { return p.path }

// Tree returns the parsed AST.
func (p ParsedFile) Tree() *sitter.Tree { return p.tree }

// SourceCode returns a copy of the source bytes.
func (p ParsedFile) SourceCode() []byte {
	code := make([]byte, len(p.sourceCode))
	copy(code, p.sourceCode)
	return code
}

// FunctionDefinition is an extracted function or method.
type FunctionDefinition struct {
	filePath      string
	node          *sitter.Node
	startByte     uint32
	endByte       uint32
	qualifiedName string
	simpleName    string
	isPublic      bool
	isMethod      bool
	docstring     string
	parameters    []string
	returnType    string
}

// NewFunctionDefinition creates a new FunctionDefinition.
func NewFunctionDefinition(
	filePath string,
	node *sitter.Node,
	startByte, endByte uint32,
	qualifiedName, simpleName string,
	isPublic, isMethod bool,
	docstring string,
	parameters []string,
	returnType string,
) FunctionDefinition {
	params := make([]string, len(parameters))
	copy(params, parameters)

	return FunctionDefinition{
		filePath:      filePath,
		node:          node,
		startByte:     startByte,
		endByte:       endByte,
		qualifiedName: qualifiedName,
		simpleName:    simpleName,
		isPublic:      isPublic,
		isMethod:      isMethod,
		docstring:     docstring,
		parameters:    params,
		returnType:    returnType,
	}
}

func (f FunctionDefinition) FilePath() string           { return f.filePath }
func (f FunctionDefinition) Node() *sitter.Node          { return f.node }
func (f FunctionDefinition) StartByte() uint32           { return f.startByte }
func (f FunctionDefinition) EndByte() uint32             { return f.endByte }
func (f FunctionDefinition) Span() (uint32, uint32)      { return f.startByte, f.endByte }
func (f FunctionDefinition) QualifiedName() string       { return f.qualifiedName }
func (f FunctionDefinition) SimpleName() string          { return f.simpleName }
func (f FunctionDefinition) IsPublic() bool              { return f.isPublic }
func (f FunctionDefinition) IsMethod() bool              { return f.isMethod }
func (f FunctionDefinition) Docstring() string           { return f.docstring }
func (f FunctionDefinition) ReturnType() string          { return f.returnType }

// Parameters returns a copy of the function parameters.
func (f FunctionDefinition) Parameters() []string {
	params := make([]string, len(f.parameters))
	copy(params, f.parameters)
	return params
}

// ClassDefinition is an extracted class, struct, or interface.
type ClassDefinition struct {
	filePath          string
	node              *sitter.Node
	startByte         uint32
	endByte           uint32
	qualifiedName     string
	simpleName        string
	isPublic          bool
	docstring         string
	bases             []string
	methods           []FunctionDefinition
	constructorParams []string
}

// NewClassDefinition creates a new ClassDefinition.
func NewClassDefinition(
	filePath string,
	node *sitter.Node,
	startByte, endByte uint32,
	qualifiedName, simpleName string,
	isPublic bool,
	docstring string,
	bases []string,
	methods []FunctionDefinition,
	constructorParams []string,
) ClassDefinition {
	basesCopy := make([]string, len(bases))
	copy(basesCopy, bases)

	methodsCopy := make([]FunctionDefinition, len(methods))
	copy(methodsCopy, methods)

	paramsCopy := make([]string, len(constructorParams))
	copy(paramsCopy, constructorParams)

	return ClassDefinition{
		filePath:          filePath,
		node:              node,
		startByte:         startByte,
		endByte:           endByte,
		qualifiedName:     qualifiedName,
		simpleName:        simpleName,
		isPublic:          isPublic,
		docstring:         docstring,
		bases:             basesCopy,
		methods:           methodsCopy,
		constructorParams: paramsCopy,
	}
}

func (c ClassDefinition) FilePath() string      { return c.filePath }
func (c ClassDefinition) Node() *sitter.Node    { return c.node }
func (c ClassDefinition) StartByte() uint32     { return c.startByte }
func (c ClassDefinition) EndByte() uint32       { return c.endByte }
func (c ClassDefinition) QualifiedName() string { return c.qualifiedName }
func (c ClassDefinition) SimpleName() string    { return c.simpleName }
func (c ClassDefinition) IsPublic() bool        { return c.isPublic }
func (c ClassDefinition) Docstring() string     { return c.docstring }

// Bases returns a copy of the base class/interface names.
func (c ClassDefinition) Bases() []string {
	bases := make([]string, len(c.bases))
	copy(bases, c.bases)
	return bases
}

// Methods returns a copy of the class's methods.
func (c ClassDefinition) Methods() []FunctionDefinition {
	methods := make([]FunctionDefinition, len(c.methods))
	copy(methods, c.methods)
	return methods
}

// ConstructorParams returns a copy of the constructor parameters.
func (c ClassDefinition) ConstructorParams() []string {
	params := make([]string, len(c.constructorParams))
	copy(params, c.constructorParams)
	return params
}

// TypeDefinition is an extracted standalone type alias, struct, or interface.
type TypeDefinition struct {
	filePath          string
	node              *sitter.Node
	startByte         uint32
	endByte           uint32
	qualifiedName     string
	simpleName        string
	kind              string
	docstring         string
	constructorParams []string
}

// NewTypeDefinition creates a new TypeDefinition.
func NewTypeDefinition(
	filePath string,
	node *sitter.Node,
	startByte, endByte uint32,
	qualifiedName, simpleName, kind, docstring string,
	constructorParams []string,
) TypeDefinition {
	paramsCopy := make([]string, len(constructorParams))
	copy(paramsCopy, constructorParams)

	return TypeDefinition{
		filePath:          filePath,
		node:              node,
		startByte:         startByte,
		endByte:           endByte,
		qualifiedName:     qualifiedName,
		simpleName:        simpleName,
		kind:              kind,
		docstring:         docstring,
		constructorParams: paramsCopy,
	}
}

func (t TypeDefinition) FilePath() string      { return t.filePath }
func (t TypeDefinition) Node() *sitter.Node    { return t.node }
func (t TypeDefinition) StartByte() uint32     { return t.startByte }
func (t TypeDefinition) EndByte() uint32       { return t.endByte }
func (t TypeDefinition) QualifiedName() string { return t.qualifiedName }
func (t TypeDefinition) SimpleName() string    { return t.simpleName }
func (t TypeDefinition) Kind() string          { return t.kind }
func (t TypeDefinition) Docstring() string     { return t.docstring }

// ConstructorParams returns a copy of the struct fields / constructor parameters.
func (t TypeDefinition) ConstructorParams() []string {
	params := make([]string, len(t.constructorParams))
	copy(params, t.constructorParams)
	return params
}

// Base provides functionality shared by every language-specific Analyzer.
type Base struct {
	language Language
	walker   Walker
}

// NewBase creates a new Base analyzer.
func NewBase(language Language) Base {
	return Base{
		language: language,
		walker:   NewWalker(),
	}
}

// Language returns the language configuration.
func (b Base) Language() Language { return b.language }

// Walker returns the AST walker.
func (b Base) Walker() Walker { return b.walker }

// NodeText extracts text from a node.
func (b Base) NodeText(node *sitter.Node, source []byte) string {
	return b.walker.NodeText(node, source)
}

// ExtractIdentifier extracts an identifier from a node using the language's name field.
func (b Base) ExtractIdentifier(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	nameField := b.language.Nodes().NameField()
	if nameField == "" {
		nameField = "name"
	}

	nameNode := node.ChildByFieldName(nameField)
	if nameNode != nil {
		return b.NodeText(nameNode, source)
	}

	if b.walker.IsIdentifier(node) {
		return b.NodeText(node, source)
	}

	return ""
}

// ExtractPrecedingComment extracts comment text from nodes preceding the given node.
func (b Base) ExtractPrecedingComment(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	var comments []string
	prev := node.PrevSibling()

	for prev != nil && b.walker.IsComment(prev) {
		text := cleanComment(b.NodeText(prev, source))
		if text != "" {
			comments = append([]string{text}, comments...)
		}
		prev = prev.PrevSibling()
	}

	return joinLines(comments)
}

// ExtractFirstChildComment extracts the first child comment/string (for Python-style docstrings).
func (b Base) ExtractFirstChildComment(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return ""
	}

	for i := uint32(0); i < body.ChildCount(); i++ {
		child := body.Child(int(i))
		if child == nil {
			continue
		}

		if child.Type() == "expression_statement" {
			if child.ChildCount() > 0 {
				expr := child.Child(0)
				if expr != nil && b.walker.IsString(expr) {
					return cleanDocstring(b.NodeText(expr, source))
				}
			}
		}

		if !b.walker.IsComment(child) {
			break
		}
	}

	return ""
}

// BuildQualifiedName builds a qualified name from a module path and simple name.
func (b Base) BuildQualifiedName(modulePath, simpleName string) string {
	return buildQualified(modulePath, simpleName)
}

// BuildModulePathFromPath builds a module path from a file path, stripping the extension.
func (b Base) BuildModulePathFromPath(filePath, extension string) string {
	return buildModulePathFromPath(filePath, extension)
}
