package documentation

// QualityWeights controls how the four quality inputs combine into the
// overall qualityScore. Chosen so section coverage and length compliance
// (the two inputs computable without any further LLM call) dominate the
// score, with reference density and self-consistency as lighter checks on
// top. Recorded as an Open Question decision: spec.md leaves the exact
// composition to the implementer.
type QualityWeights struct {
	SectionCoverage     float64
	LengthCompliance    float64
	ReferenceDensity    float64
	SelfConsistency     float64
}

// DefaultQualityWeights returns the weights Documentation.Complete uses
// when QualityInputs.Weights is left zero.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		SectionCoverage:  0.35,
		LengthCompliance: 0.25,
		ReferenceDensity: 0.15,
		SelfConsistency:  0.25,
	}
}

// LengthBounds constrains a section's acceptable content length in bytes.
type LengthBounds struct {
	Min int
	Max int
}

// DefaultLengthBounds returns sensible bounds for a generated section: long
// enough to be substantive, short enough to stay within a single prompt
// context window.
func DefaultLengthBounds() LengthBounds {
	return LengthBounds{Min: 200, Max: 12000}
}

// targetReferenceDensity is the references-per-1000-chars rate considered
// "fully referenced"; densities at or above this score 1.0 on that input.
const targetReferenceDensity = 2.0

// QualityInputs carries the externally-supplied components of the quality
// score that Documentation itself cannot compute: which section types were
// requested (to measure coverage) and the LLM self-consistency check result
// (a final call asking "does this section accurately describe the provided
// evidence?", scored 0-1 by the caller).
type QualityInputs struct {
	RequestedSections []SectionType
	SelfConsistency   float64
	Bounds            LengthBounds
	Weights           QualityWeights
}

// score computes the documentation quality score in [0, 1] from the given
// sections and inputs.
func score(sections []Section, in QualityInputs) float64 {
	weights := in.Weights
	if weights == (QualityWeights{}) {
		weights = DefaultQualityWeights()
	}
	bounds := in.Bounds
	if bounds == (LengthBounds{}) {
		bounds = DefaultLengthBounds()
	}

	coverage := sectionCoverage(sections, in.RequestedSections)
	length := lengthCompliance(sections, bounds)
	density := referenceDensity(sections)
	selfConsistency := clamp01(in.SelfConsistency)

	return weights.SectionCoverage*coverage +
		weights.LengthCompliance*length +
		weights.ReferenceDensity*density +
		weights.SelfConsistency*selfConsistency
}

func sectionCoverage(sections []Section, requested []SectionType) float64 {
	if len(requested) == 0 {
		return 1
	}
	present := make(map[SectionType]struct{}, len(sections))
	for _, s := range sections {
		present[s.Type()] = struct{}{}
	}
	found := 0
	for _, t := range requested {
		if _, ok := present[t]; ok {
			found++
		}
	}
	return float64(found) / float64(len(requested))
}

func lengthCompliance(sections []Section, bounds LengthBounds) float64 {
	if len(sections) == 0 {
		return 0
	}
	compliant := 0
	for _, s := range sections {
		n := len(s.Content())
		if n >= bounds.Min && n <= bounds.Max {
			compliant++
		}
	}
	return float64(compliant) / float64(len(sections))
}

func referenceDensity(sections []Section) float64 {
	var totalRefs, totalChars int
	for _, s := range sections {
		totalRefs += len(s.References())
		totalChars += len(s.Content())
	}
	if totalChars == 0 {
		return 0
	}
	density := float64(totalRefs) / (float64(totalChars) / 1000.0)
	return clamp01(density / targetReferenceDensity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
