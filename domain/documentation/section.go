package documentation

// SectionType identifies the kind of documentation section. At most one
// section of each type may exist per Documentation (checked by
// Documentation.Generate).
type SectionType string

// SectionType values.
const (
	SectionOverview       SectionType = "overview"
	SectionGettingStarted SectionType = "getting_started"
	SectionInstallation   SectionType = "installation"
	SectionUsage          SectionType = "usage"
	SectionConfiguration  SectionType = "configuration"
	SectionArchitecture   SectionType = "architecture"
	SectionAPIReference   SectionType = "api_reference"
	SectionExamples       SectionType = "examples"
	SectionTesting        SectionType = "testing"
	SectionDeployment     SectionType = "deployment"
	SectionContributing   SectionType = "contributing"
	SectionTroubleshooting SectionType = "troubleshooting"
	SectionChangelog      SectionType = "changelog"
	SectionLicense        SectionType = "license"
)

// RenderOrder is the canonical rendering order for known section types.
// Any section type not listed here renders after all of these, in the
// order it appears in the Documentation's section slice — never an
// implicit sort key derived from, say, map iteration.
var RenderOrder = []SectionType{
	SectionOverview,
	SectionGettingStarted,
	SectionInstallation,
	SectionUsage,
	SectionConfiguration,
	SectionArchitecture,
	SectionAPIReference,
	SectionExamples,
	SectionTesting,
	SectionDeployment,
	SectionContributing,
	SectionTroubleshooting,
	SectionChangelog,
	SectionLicense,
}

var renderRank = func() map[SectionType]int {
	ranks := make(map[SectionType]int, len(RenderOrder))
	for i, t := range RenderOrder {
		ranks[t] = i
	}
	return ranks
}()

// rank returns the section's position in RenderOrder, or len(RenderOrder)
// for unknown types so they sort after every known type.
func (t SectionType) rank() int {
	if r, ok := renderRank[t]; ok {
		return r
	}
	return len(RenderOrder)
}

// CodeReference links a documentation section to the code it describes.
type CodeReference struct {
	filePath  string
	startLine int
	endLine   int
	entityID  string
}

// NewCodeReference creates a CodeReference.
func NewCodeReference(filePath string, startLine, endLine int, entityID string) CodeReference {
	return CodeReference{filePath: filePath, startLine: startLine, endLine: endLine, entityID: entityID}
}

func (r CodeReference) FilePath() string { return r.filePath }
func (r CodeReference) StartLine() int   { return r.startLine }
func (r CodeReference) EndLine() int     { return r.endLine }
func (r CodeReference) EntityID() string { return r.entityID }

// key identifies a CodeReference for deduplication purposes: references to
// the same (filePath, startLine, endLine) are the same reference regardless
// of which section or generation pass produced them.
func (r CodeReference) key() [3]any {
	return [3]any{r.filePath, r.startLine, r.endLine}
}

// dedupeCodeReferences removes duplicate references by (filePath,
// startLine, endLine), keeping the first occurrence.
func dedupeCodeReferences(refs []CodeReference) []CodeReference {
	seen := make(map[[3]any]struct{}, len(refs))
	result := make([]CodeReference, 0, len(refs))
	for _, r := range refs {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, r)
	}
	return result
}

// Section is a single generated documentation section.
type Section struct {
	sectionType SectionType
	title       string
	content     string
	references  []CodeReference
}

// NewSection creates a Section, deduplicating its code references.
func NewSection(sectionType SectionType, title, content string, references []CodeReference) Section {
	return Section{
		sectionType: sectionType,
		title:       title,
		content:     content,
		references:  dedupeCodeReferences(references),
	}
}

func (s Section) Type() SectionType { return s.sectionType }
func (s Section) Title() string     { return s.title }
func (s Section) Content() string   { return s.content }
func (s Section) References() []CodeReference {
	result := make([]CodeReference, len(s.references))
	copy(result, s.references)
	return result
}

// sortedSections returns a copy of sections ordered per RenderOrder,
// stable within equal ranks.
func sortedSections(sections []Section) []Section {
	result := make([]Section, len(sections))
	copy(result, sections)
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].sectionType.rank() < result[j-1].sectionType.rank(); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result
}
