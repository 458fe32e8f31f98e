package search

// Intent classifies what a conversational query is trying to accomplish,
// used both to steer the LLM's response style (C9) and to bias retrieval
// ranking toward the kind of evidence that intent needs (C8).
type Intent string

// Intent values.
const (
	IntentExplainConcept     Intent = "explain_concept"
	IntentFindImplementation Intent = "find_implementation"
	IntentCompareApproaches  Intent = "compare_approaches"
	IntentTroubleshoot       Intent = "troubleshoot"
	IntentProvideExample     Intent = "provide_example"
	IntentArchitecturalQuery Intent = "architectural_query"
	IntentCodeReview         Intent = "code_review"
	IntentDocumentation      Intent = "documentation"
	IntentTesting            Intent = "testing"
)

// Intents lists every recognized Intent value, in the order the
// classifier's fixed enum presents them.
func Intents() []Intent {
	return []Intent{
		IntentExplainConcept,
		IntentFindImplementation,
		IntentCompareApproaches,
		IntentTroubleshoot,
		IntentProvideExample,
		IntentArchitecturalQuery,
		IntentCodeReview,
		IntentDocumentation,
		IntentTesting,
	}
}

// EvidenceType classifies a piece of retrieved evidence for the purpose of
// intent-dependent rank boosting; it mirrors domain/documentation.SectionType
// for documentation evidence and adds a catch-all for source code.
type EvidenceType string

// EvidenceType values.
const (
	EvidenceOverview     EvidenceType = "overview"
	EvidenceUsage        EvidenceType = "usage"
	EvidenceAPIReference EvidenceType = "api_reference"
	EvidenceExamples     EvidenceType = "examples"
	EvidenceSourceCode   EvidenceType = "source_code"
)

// typeBoosts maps each Intent to the EvidenceType it favors and the boost
// applied when evidence matches. Unlisted combinations get no boost.
var typeBoosts = map[Intent]map[EvidenceType]float64{
	IntentExplainConcept:     {EvidenceOverview: 1.0},
	IntentFindImplementation: {EvidenceSourceCode: 1.0, EvidenceAPIReference: 0.5},
	IntentCompareApproaches:  {EvidenceOverview: 0.5, EvidenceSourceCode: 0.5},
	IntentTroubleshoot:       {EvidenceSourceCode: 1.0},
	IntentProvideExample:     {EvidenceExamples: 1.0},
	IntentArchitecturalQuery: {EvidenceOverview: 1.0, EvidenceSourceCode: 0.5},
	IntentCodeReview:         {EvidenceSourceCode: 1.0},
	IntentDocumentation:      {EvidenceOverview: 0.5, EvidenceUsage: 1.0},
	IntentTesting:            {EvidenceSourceCode: 0.5, EvidenceExamples: 0.5},
}

// TypeBoost returns the intent-dependent boost for a piece of evidence of
// the given type, in [0, 1]. It is the third term of the C8 reranking
// formula (0.6*vector + 0.3*lexical + 0.1*typeBoost).
func TypeBoost(intent Intent, evidence EvidenceType) float64 {
	boosts, ok := typeBoosts[intent]
	if !ok {
		return 0
	}
	return boosts[evidence]
}
