package entity

import "testing"

func TestNewCodeRelationship_RejectsSelfRelationship(t *testing.T) {
	_, err := NewCodeRelationship("a", "a", RelationshipCalls, 1.0, RelationshipMetadata{})
	if err != ErrSelfRelationship {
		t.Errorf("err = %v, want %v", err, ErrSelfRelationship)
	}
}

func TestNewCodeRelationship_ClampsWeight(t *testing.T) {
	high, _ := NewCodeRelationship("a", "b", RelationshipCalls, 5.0, RelationshipMetadata{})
	if high.Weight() != 1.0 {
		t.Errorf("Weight() = %v, want 1.0", high.Weight())
	}

	low, _ := NewCodeRelationship("a", "b", RelationshipCalls, -5.0, RelationshipMetadata{})
	if low.Weight() != 0.0 {
		t.Errorf("Weight() = %v, want 0.0", low.Weight())
	}
}

func TestNewUnresolvedRelationship_CapsWeightAndConfidence(t *testing.T) {
	rel, err := NewUnresolvedRelationship("a", "b", RelationshipCalls, []string{"import a.b"})
	if err != nil {
		t.Fatalf("NewUnresolvedRelationship: %v", err)
	}
	if rel.Weight() > unresolvedWeightCap {
		t.Errorf("Weight() = %v, want <= %v", rel.Weight(), unresolvedWeightCap)
	}
	if rel.Metadata().Confidence() > unresolvedConfidenceCap {
		t.Errorf("Confidence() = %v, want <= %v", rel.Metadata().Confidence(), unresolvedConfidenceCap)
	}
}

func TestMergeRelationships_DeduplicatesByKey(t *testing.T) {
	low, _ := NewCodeRelationship("a", "b", RelationshipCalls, 0.3, NewRelationshipMetadata(50, []string{"ref1"}, nil))
	high, _ := NewCodeRelationship("a", "b", RelationshipCalls, 0.9, NewRelationshipMetadata(80, []string{"ref2"}, nil))

	merged := MergeRelationships([]CodeRelationship{low, high}, 0)

	if len(merged) != 1 {
		t.Fatalf("merged length = %d, want 1", len(merged))
	}
	if merged[0].Weight() != 0.9 {
		t.Errorf("Weight() = %v, want max 0.9", merged[0].Weight())
	}
	if len(merged[0].Metadata().SourceReferences()) != 2 {
		t.Errorf("SourceReferences() length = %d, want 2 (union)", len(merged[0].Metadata().SourceReferences()))
	}
}

func TestMergeRelationships_DropsBelowMinimumConfidence(t *testing.T) {
	rel, _ := NewCodeRelationship("a", "b", RelationshipCalls, 0.5, NewRelationshipMetadata(10, nil, nil))

	merged := MergeRelationships([]CodeRelationship{rel}, 50)
	if len(merged) != 0 {
		t.Errorf("merged length = %d, want 0 (below minimum confidence)", len(merged))
	}
}

func TestMergeRelationships_KeepsDistinctKeys(t *testing.T) {
	rel1, _ := NewCodeRelationship("a", "b", RelationshipCalls, 0.5, RelationshipMetadata{})
	rel2, _ := NewCodeRelationship("a", "c", RelationshipCalls, 0.5, RelationshipMetadata{})
	rel3, _ := NewCodeRelationship("a", "b", RelationshipUses, 0.5, RelationshipMetadata{})

	merged := MergeRelationships([]CodeRelationship{rel1, rel2, rel3}, 0)
	if len(merged) != 3 {
		t.Errorf("merged length = %d, want 3 (distinct source/target/type keys)", len(merged))
	}
}

func TestCodeRelationship_Key(t *testing.T) {
	rel, _ := NewCodeRelationship("a", "b", RelationshipCalls, 0.5, RelationshipMetadata{})
	key := rel.Key()

	if key.Source != "a" || key.Target != "b" || key.Type != RelationshipCalls {
		t.Errorf("Key() = %+v, unexpected", key)
	}
}
