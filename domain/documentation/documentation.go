package documentation

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for Documentation construction and mutation.
var (
	ErrEmptyRepositoryID  = errors.New("documentation: repository id is empty")
	ErrDuplicateSection   = errors.New("documentation: at most one section per type")
)

// Documentation is the aggregate root for a repository's generated
// documentation: a version-stamped, ordered set of sections plus the
// lifecycle status driving their generation.
type Documentation struct {
	id           int64
	repositoryID int64
	status       Status
	version      string
	sections     []Section
	qualityScore float64
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewDocumentation creates a Documentation in the NotStarted state at
// version "0.1.0" for the given repository.
func NewDocumentation(repositoryID int64) (Documentation, error) {
	if repositoryID == 0 {
		return Documentation{}, ErrEmptyRepositoryID
	}
	now := time.Now().UTC()
	return Documentation{
		repositoryID: repositoryID,
		status:       StatusNotStarted,
		version:      "0.1.0",
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructDocumentation rebuilds a Documentation from persistence.
func ReconstructDocumentation(
	id, repositoryID int64,
	status Status,
	version string,
	sections []Section,
	qualityScore float64,
	errorMessage string,
	createdAt, updatedAt time.Time,
) Documentation {
	return Documentation{
		id:           id,
		repositoryID: repositoryID,
		status:       status,
		version:      version,
		sections:     sections,
		qualityScore: qualityScore,
		errorMessage: errorMessage,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (d Documentation) ID() int64           { return d.id }
func (d Documentation) RepositoryID() int64 { return d.repositoryID }
func (d Documentation) Status() Status      { return d.status }
func (d Documentation) Version() string     { return d.version }
func (d Documentation) QualityScore() float64 { return d.qualityScore }
func (d Documentation) ErrorMessage() string  { return d.errorMessage }
func (d Documentation) CreatedAt() time.Time  { return d.createdAt }
func (d Documentation) UpdatedAt() time.Time  { return d.updatedAt }

// Sections returns the documentation's sections in render order.
func (d Documentation) Sections() []Section {
	return sortedSections(d.sections)
}

// Section finds a single section by type.
func (d Documentation) Section(t SectionType) (Section, bool) {
	for _, s := range d.sections {
		if s.Type() == t {
			return s, true
		}
	}
	return Section{}, false
}

// WithID attaches a persistence-assigned ID; used by the store mapper.
func (d Documentation) WithID(id int64) Documentation {
	d.id = id
	return d
}

// Analyze transitions NotStarted|Error|UpdateRequired -> Analyzing, the
// entry point of every (re)generation run. A Completed Documentation must
// go through MarkUpdateRequired first.
func (d Documentation) Analyze() (Documentation, error) {
	next, err := d.status.apply(eventAnalyze)
	if err != nil {
		return d, err
	}
	d.status = next
	d.errorMessage = ""
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// Generate transitions Analyzing -> GeneratingContent and replaces the
// section set, rejecting duplicate section types within the new set.
func (d Documentation) Generate(sections []Section) (Documentation, error) {
	next, err := d.status.apply(eventGenerate)
	if err != nil {
		return d, err
	}
	seen := make(map[SectionType]struct{}, len(sections))
	for _, s := range sections {
		if _, ok := seen[s.Type()]; ok {
			return d, fmt.Errorf("%w: %s", ErrDuplicateSection, s.Type())
		}
		seen[s.Type()] = struct{}{}
	}
	d.status = next
	d.sections = append([]Section{}, sections...)
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// Enrich transitions GeneratingContent -> Enriching, recording the enriched
// (LLM-postprocessed) replacement sections.
func (d Documentation) Enrich(sections []Section) (Documentation, error) {
	next, err := d.status.apply(eventEnrich)
	if err != nil {
		return d, err
	}
	d.status = next
	d.sections = append([]Section{}, sections...)
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// SkipEnrichment transitions GeneratingContent -> Indexing directly, used
// when no LLM provider is configured (task.PrescribedOperations gates the
// Enriching step on that).
func (d Documentation) SkipEnrichment() (Documentation, error) {
	next, err := d.status.apply(eventSkipEnrichment)
	if err != nil {
		return d, err
	}
	d.status = next
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// Index transitions Enriching -> Indexing.
func (d Documentation) Index() (Documentation, error) {
	next, err := d.status.apply(eventIndex)
	if err != nil {
		return d, err
	}
	d.status = next
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// Complete transitions Indexing -> Completed, computing the quality score
// from the given inputs and auto-incrementing the semver patch version.
func (d Documentation) Complete(in QualityInputs) (Documentation, error) {
	next, err := d.status.apply(eventComplete)
	if err != nil {
		return d, err
	}
	d.status = next
	d.qualityScore = score(d.sections, in)
	d.version = bumpPatch(d.version)
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// Fail transitions Analyzing|GeneratingContent|Enriching|Indexing -> Error.
func (d Documentation) Fail(message string) (Documentation, error) {
	next, err := d.status.apply(eventError)
	if err != nil {
		return d, err
	}
	d.status = next
	d.errorMessage = message
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// MarkUpdateRequired transitions Completed -> UpdateRequired, e.g. when the
// Ingestion Orchestrator reports the underlying repository changed.
func (d Documentation) MarkUpdateRequired() (Documentation, error) {
	next, err := d.status.apply(eventRepoChange)
	if err != nil {
		return d, err
	}
	d.status = next
	d.updatedAt = time.Now().UTC()
	return d, nil
}

// bumpPatch increments the patch component of a "major.minor.patch" string.
// Falls back to leaving the version unchanged if it isn't in that shape.
func bumpPatch(version string) string {
	var major, minor, patch int
	if _, err := fmt.Sscanf(version, "%d.%d.%d", &major, &minor, &patch); err != nil {
		return version
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}
