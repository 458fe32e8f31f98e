// Package extractor parses source files with tree-sitter and turns their
// function, method, and type definitions into domain/entity CodeEntity and
// CodeRelationship records.
package extractor

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sourcelore/sourcelore/domain/entity"
)

// Extractor extracts code entities and relationships from source files
// using AST parsing.
type Extractor struct {
	config          LanguageConfig
	analyzerFactory AnalyzerFactory
	walker          Walker
}

// AnalyzerFactory creates analyzers for different languages.
type AnalyzerFactory interface {
	ByExtension(ext string) (Analyzer, bool)
}

// NewExtractor creates a new Extractor.
func NewExtractor(config LanguageConfig, factory AnalyzerFactory) *Extractor {
	return &Extractor{
		config:          config,
		analyzerFactory: factory,
		walker:          NewWalker(),
	}
}

// File is a single source file to extract entities from.
type File struct {
	path    string
	content []byte
}

// NewFile creates a new File input.
func NewFile(path string, content []byte) File {
	c := make([]byte, len(content))
	copy(c, content)
	return File{path: path, content: c}
}

// Path returns the file path relative to the repository root.
func (f File) Path() string { return f.path }

// Content returns a copy of the file content.
func (f File) Content() []byte {
	c := make([]byte, len(f.content))
	copy(c, f.content)
	return c
}

// Config configures code entity extraction behavior.
type Config struct {
	MaxDependencyDepth int
	MaxDependencyCount int
	IncludePrivate     bool
	MinimumConfidence  int
}

// DefaultConfig returns sensible extraction defaults.
func DefaultConfig() Config {
	return Config{
		MaxDependencyDepth: 2,
		MaxDependencyCount: 8,
		IncludePrivate:     false,
		MinimumConfidence:  0,
	}
}

// Result contains the code entities and relationships extracted from a
// set of files.
type Result struct {
	entities      []entity.CodeEntity
	relationships []entity.CodeRelationship
	callGraph     *CallGraph
}

// Entities returns the extracted code entities.
func (r Result) Entities() []entity.CodeEntity { return r.entities }

// Relationships returns the extracted, merged code relationships.
func (r Result) Relationships() []entity.CodeRelationship { return r.relationships }

// CallGraph returns the function call graph built during extraction.
func (r Result) CallGraph() *CallGraph { return r.callGraph }

// state holds parsing state accumulated while walking a repository's files.
type state struct {
	files       []ParsedFile
	defIndex    map[string]FunctionDefinition
	typeIndex   map[string]TypeDefinition
	entityIDs   map[string]string // qualifiedName -> derived entity ID
	callGraph   *CallGraph
	importIndex map[string]map[string]string
}

// Extract parses the given files and derives code entities and relationships
// for the given repository.
func (e *Extractor) Extract(ctx context.Context, repositoryID int64, files []File, cfg Config) (Result, error) {
	st := &state{
		files:       make([]ParsedFile, 0, len(files)),
		defIndex:    make(map[string]FunctionDefinition),
		typeIndex:   make(map[string]TypeDefinition),
		entityIDs:   make(map[string]string),
		callGraph:   NewCallGraph(),
		importIndex: make(map[string]map[string]string),
	}

	for _, file := range files {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		parsed, err := e.parseFile(file)
		if err != nil || parsed.tree == nil {
			continue
		}

		st.files = append(st.files, parsed)
	}

	for _, parsed := range st.files {
		e.extractDefinitions(parsed, st, cfg)
	}

	for _, parsed := range st.files {
		e.buildCallGraph(parsed, st)
	}

	result := Result{callGraph: st.callGraph}

	for qualifiedName, funcDef := range st.defIndex {
		if !funcDef.IsPublic() && !cfg.IncludePrivate {
			continue
		}

		kind := entity.KindFunction
		if funcDef.IsMethod() {
			kind = entity.KindMethod
		}

		ent, err := e.buildEntity(repositoryID, qualifiedName, funcDef.simpleName, kind, funcDef.FilePath(), funcDef.StartByte(), funcDef.EndByte())
		if err != nil {
			continue
		}

		st.entityIDs[qualifiedName] = ent.EntityID()
		result.entities = append(result.entities, ent)
	}

	for qualifiedName, typeDef := range st.typeIndex {
		if !isPublicName(typeDef.SimpleName()) && !cfg.IncludePrivate {
			continue
		}

		ent, err := e.buildEntity(repositoryID, qualifiedName, typeDef.SimpleName(), kindForTypeDefinition(typeDef.Kind()), typeDef.FilePath(), typeDef.StartByte(), typeDef.EndByte())
		if err != nil {
			continue
		}

		st.entityIDs[qualifiedName] = ent.EntityID()
		result.entities = append(result.entities, ent)
	}

	result.relationships = entity.MergeRelationships(e.buildRelationships(st, cfg), cfg.MinimumConfidence)

	return result, nil
}

func (e *Extractor) parseFile(file File) (ParsedFile, error) {
	ext := filepath.Ext(file.Path())

	lang, ok := e.config.ByExtension(ext)
	if !ok {
		return ParsedFile{}, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.SitterLanguage())

	source := file.Content()
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return ParsedFile{}, err
	}

	return NewParsedFile(file.Path(), tree, source), nil
}

func (e *Extractor) buildEntity(repositoryID int64, qualifiedName, name string, kind entity.Kind, filePath string, startByte, endByte uint32) (entity.CodeEntity, error) {
	loc := NewLocation(0, 0, int(startByte), int(endByte))
	language := extToLanguage(filepath.Ext(filePath))

	ent, err := entity.NewCodeEntity(repositoryID, name, qualifiedName, kind, filePath, language, loc, "")
	if err != nil {
		return entity.CodeEntity{}, err
	}

	return ent, nil
}

// NewLocation adapts byte-offset spans into an entity.Location. Line
// information is not tracked by the AST walker, so only column offsets
// (byte positions within the file) are populated.
func NewLocation(startLine, endLine, startCol, endCol int) entity.Location {
	return entity.NewLocation(startLine, endLine, startCol, endCol)
}

func kindForTypeDefinition(kind string) entity.Kind {
	switch kind {
	case "struct":
		return entity.KindStruct
	case "interface":
		return entity.KindInterface
	case "class":
		return entity.KindClass
	case "enum":
		return entity.KindEnum
	default:
		return entity.KindStruct
	}
}

func (e *Extractor) extractDefinitions(parsed ParsedFile, st *state, cfg Config) {
	ext := filepath.Ext(parsed.Path())
	analyzer, ok := e.analyzerFactory.ByExtension(ext)
	if !ok {
		return
	}

	modulePath := analyzer.ModulePath(parsed)
	source := parsed.SourceCode()
	tree := parsed.Tree()
	root := tree.RootNode()

	langNodes := analyzer.Language().Nodes()
	funcTypes := append(append([]string{}, langNodes.FunctionNodes()...), langNodes.MethodNodes()...)
	funcNodes := e.walker.CollectNodes(root, funcTypes)

	for _, node := range funcNodes {
		name := analyzer.FunctionName(node, source)
		if name == "" {
			continue
		}

		qualifiedName := buildQualified(modulePath, name)

		if analyzer.IsMethod(node) {
			if receiver := e.extractReceiverName(node, source); receiver != "" {
				qualifiedName = buildQualified(modulePath, receiver+"."+name)
			}
		}

		st.defIndex[qualifiedName] = NewFunctionDefinition(
			parsed.Path(),
			node,
			node.StartByte(),
			node.EndByte(),
			qualifiedName,
			name,
			analyzer.IsPublic(node, name, source),
			analyzer.IsMethod(node),
			analyzer.Docstring(node, source),
			nil,
			"",
		)
	}

	for _, class := range analyzer.Classes(tree, source) {
		qualifiedClass := buildQualified(modulePath, class.SimpleName())
		st.typeIndex[qualifiedClass] = NewTypeDefinition(
			parsed.Path(),
			class.Node(),
			class.StartByte(),
			class.EndByte(),
			qualifiedClass,
			class.SimpleName(),
			"class",
			class.Docstring(),
			class.ConstructorParams(),
		)

		for _, method := range class.Methods() {
			if !method.IsPublic() && !cfg.IncludePrivate {
				continue
			}
			st.defIndex[method.QualifiedName()] = method
		}
	}

	for _, typeDef := range analyzer.Types(tree, source) {
		name := typeDef.SimpleName()
		if name == "" {
			continue
		}

		qualified := buildQualified(modulePath, name)
		st.typeIndex[qualified] = NewTypeDefinition(
			parsed.Path(),
			typeDef.Node(),
			typeDef.StartByte(),
			typeDef.EndByte(),
			qualified,
			name,
			typeDef.Kind(),
			typeDef.Docstring(),
			typeDef.ConstructorParams(),
		)
	}
}

func (e *Extractor) extractReceiverName(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}

	var typeName string
	e.walker.Walk(receiver, func(n *sitter.Node) bool {
		if n.Type() == "type_identifier" {
			typeName = e.walker.NodeText(n, source)
			return false
		}
		return true
	})

	return typeName
}

func (e *Extractor) buildCallGraph(parsed ParsedFile, st *state) {
	ext := filepath.Ext(parsed.Path())
	analyzer, ok := e.analyzerFactory.ByExtension(ext)
	if !ok {
		return
	}

	modulePath := analyzer.ModulePath(parsed)
	source := parsed.SourceCode()
	tree := parsed.Tree()
	root := tree.RootNode()

	langNodes := analyzer.Language().Nodes()
	funcTypes := append(append([]string{}, langNodes.FunctionNodes()...), langNodes.MethodNodes()...)
	funcNodes := e.walker.CollectNodes(root, funcTypes)

	for _, funcNode := range funcNodes {
		funcName := analyzer.FunctionName(funcNode, source)
		if funcName == "" {
			continue
		}

		callerQualified := buildQualified(modulePath, funcName)
		if analyzer.IsMethod(funcNode) {
			if receiver := e.extractReceiverName(funcNode, source); receiver != "" {
				callerQualified = buildQualified(modulePath, receiver+"."+funcName)
			}
		}

		callNodes := e.walker.CollectDescendants(funcNode, langNodes.CallNode())
		for _, callNode := range callNodes {
			calleeName := e.extractCalleeName(callNode, source)
			if calleeName == "" {
				continue
			}

			calleeQualified := e.resolveCallee(calleeName, modulePath, st)
			st.callGraph.AddCall(callerQualified, calleeQualified)
		}
	}
}

func (e *Extractor) extractCalleeName(node *sitter.Node, source []byte) string {
	if funcNode := node.ChildByFieldName("function"); funcNode != nil {
		return e.walker.NodeText(funcNode, source)
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return e.walker.NodeText(nameNode, source)
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		if child := node.Child(int(i)); child != nil && e.walker.IsIdentifier(child) {
			return e.walker.NodeText(child, source)
		}
	}

	return ""
}

func (e *Extractor) resolveCallee(name, modulePath string, st *state) string {
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		name = parts[len(parts)-1]
	}

	qualified := buildQualified(modulePath, name)
	if _, ok := st.defIndex[qualified]; ok {
		return qualified
	}

	for qname := range st.defIndex {
		if strings.HasSuffix(qname, "."+name) {
			return qname
		}
	}

	return name
}

// buildRelationships converts the call graph into code relationships,
// resolved when both ends are known entities and unresolved otherwise.
func (e *Extractor) buildRelationships(st *state, cfg Config) []entity.CodeRelationship {
	var relationships []entity.CodeRelationship

	callers := make([]string, 0, len(st.entityIDs))
	for qualifiedName := range st.entityIDs {
		callers = append(callers, qualifiedName)
	}
	sort.Strings(callers)

	for _, callerName := range callers {
		sourceID, ok := st.entityIDs[callerName]
		if !ok {
			continue
		}

		callees := st.callGraph.Callees(callerName)
		sort.Strings(callees)

		for _, calleeName := range callees {
			targetID, resolved := st.entityIDs[calleeName]
			if !resolved || targetID == sourceID {
				if !resolved {
					if rel, err := entity.NewUnresolvedRelationship(sourceID, calleeName, entity.RelationshipCalls, []string{callerName}); err == nil {
						relationships = append(relationships, rel)
					}
				}
				continue
			}

			meta := entity.NewRelationshipMetadata(100, []string{callerName}, nil)
			if rel, err := entity.NewCodeRelationship(sourceID, targetID, entity.RelationshipCalls, 0.8, meta); err == nil {
				relationships = append(relationships, rel)
			}
		}
	}

	return relationships
}

func isPublicName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

func buildQualified(modulePath, name string) string {
	if modulePath == "" {
		return name
	}
	return modulePath + "." + name
}

func buildModulePathFromPath(path, extension string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, extension)

	dir := filepath.Dir(path)
	parts := strings.Split(dir, string(filepath.Separator))

	var moduleParts []string
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			moduleParts = append(moduleParts, part)
		}
	}
	moduleParts = append(moduleParts, name)

	return strings.Join(moduleParts, ".")
}

func extToLanguage(ext string) string {
	languages := map[string]string{
		".py":   "python",
		".go":   "go",
		".java": "java",
		".c":    "c",
		".cpp":  "cpp",
		".cc":   "cpp",
		".cxx":  "cpp",
		".rs":   "rust",
		".js":   "javascript",
		".ts":   "typescript",
		".tsx":  "tsx",
		".cs":   "csharp",
	}

	if lang, ok := languages[ext]; ok {
		return lang
	}
	return ""
}

func cleanComment(text string) string {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	case strings.HasPrefix(text, "#"):
		text = strings.TrimPrefix(text, "#")
	case strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}

	return strings.TrimSpace(text)
}

func cleanDocstring(text string) string {
	text = strings.TrimSpace(text)

	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(text, quote) && strings.HasSuffix(text, quote) {
			text = strings.TrimSuffix(strings.TrimPrefix(text, quote), quote)
			break
		}
	}

	return strings.TrimSpace(text)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
