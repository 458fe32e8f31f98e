package graph

import (
	"testing"

	"github.com/sourcelore/sourcelore/domain/entity"
)

func mustEntity(t *testing.T, repositoryID int64, name string, kind entity.Kind) entity.CodeEntity {
	t.Helper()
	e, err := entity.NewCodeEntity(repositoryID, name, name, kind, "main.go", "go", entity.NewLocation(1, 2, 0, 0), "body")
	if err != nil {
		t.Fatalf("NewCodeEntity(%s) error = %v", name, err)
	}
	return e
}

func mustRelationship(t *testing.T, source, target string, relType entity.RelationshipType) entity.CodeRelationship {
	t.Helper()
	r, err := entity.NewCodeRelationship(source, target, relType, 1, entity.NewRelationshipMetadata(90, nil, nil))
	if err != nil {
		t.Fatalf("NewCodeRelationship(%s,%s) error = %v", source, target, err)
	}
	return r
}

func TestDetectCreational(t *testing.T) {
	factory := mustEntity(t, 1, "NewWidget", entity.KindFunction)
	product := mustEntity(t, 1, "Widget", entity.KindStruct)
	entities := []entity.CodeEntity{factory, product}
	rel := mustRelationship(t, factory.EntityID(), product.EntityID(), entity.RelationshipCreates)

	patterns := DetectCreational(entities, []entity.CodeRelationship{rel})
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if patterns[0].Type() != PatternTypeCreational {
		t.Errorf("Type() = %v, want %v", patterns[0].Type(), PatternTypeCreational)
	}
	roles := patterns[0].ParticipantRoles()
	if roles[factory.EntityID()] != "factory" || roles[product.EntityID()] != "product" {
		t.Errorf("roles = %v, want factory/product", roles)
	}
}

func TestDetectCreational_NoMatch(t *testing.T) {
	helper := mustEntity(t, 1, "helperFunc", entity.KindFunction)
	patterns := DetectCreational([]entity.CodeEntity{helper}, nil)
	if len(patterns) != 0 {
		t.Errorf("got %d patterns, want 0", len(patterns))
	}
}

func TestDetectBehavioral_Strategy(t *testing.T) {
	iface := mustEntity(t, 1, "Sorter", entity.KindInterface)
	implA := mustEntity(t, 1, "BubbleSort", entity.KindStruct)
	implB := mustEntity(t, 1, "QuickSort", entity.KindStruct)
	entities := []entity.CodeEntity{iface, implA, implB}
	relationships := []entity.CodeRelationship{
		mustRelationship(t, implA.EntityID(), iface.EntityID(), entity.RelationshipImplementation),
		mustRelationship(t, implB.EntityID(), iface.EntityID(), entity.RelationshipImplementation),
	}

	patterns := DetectBehavioral(entities, relationships)
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if len(patterns[0].ParticipantRoles()) != 3 {
		t.Errorf("ParticipantRoles() len = %d, want 3", len(patterns[0].ParticipantRoles()))
	}
}

func TestDetectPatterns_ConfidenceFilter(t *testing.T) {
	factory := mustEntity(t, 1, "NewWidget", entity.KindFunction)
	product := mustEntity(t, 1, "Widget", entity.KindStruct)
	entities := []entity.CodeEntity{factory, product}
	rel := mustRelationship(t, factory.EntityID(), product.EntityID(), entity.RelationshipCreates)

	patterns := DetectPatterns(entities, []entity.CodeRelationship{rel}, []Detector{DetectCreational}, 0.99)
	if len(patterns) != 0 {
		t.Errorf("got %d patterns above the confidence floor, want 0", len(patterns))
	}

	patterns = DetectPatterns(entities, []entity.CodeRelationship{rel}, []Detector{DetectCreational}, 0.1)
	if len(patterns) != 1 {
		t.Errorf("got %d patterns below the confidence floor, want 1", len(patterns))
	}
}

func TestArchitecturalPattern_ValidateParticipants(t *testing.T) {
	known := mustEntity(t, 1, "Known", entity.KindClass)
	pattern, err := NewArchitecturalPattern("Test", PatternTypeDDD, 1, 0.5, map[string]string{known.EntityID(): "role"}, nil, nil)
	if err != nil {
		t.Fatalf("NewArchitecturalPattern() error = %v", err)
	}
	if err := pattern.ValidateParticipants([]entity.CodeEntity{known}); err != nil {
		t.Errorf("ValidateParticipants() error = %v, want nil", err)
	}

	unknown := mustEntity(t, 1, "Unknown", entity.KindClass)
	pattern2, err := NewArchitecturalPattern("Test2", PatternTypeDDD, 1, 0.5, map[string]string{unknown.EntityID(): "role"}, nil, nil)
	if err != nil {
		t.Fatalf("NewArchitecturalPattern() error = %v", err)
	}
	if err := pattern2.ValidateParticipants([]entity.CodeEntity{known}); err == nil {
		t.Error("ValidateParticipants() error = nil, want error for missing participant")
	}
}

func TestNewArchitecturalPattern_Validation(t *testing.T) {
	if _, err := NewArchitecturalPattern("", PatternTypeDDD, 1, 0.5, map[string]string{"a": "b"}, nil, nil); err != ErrEmptyPatternName {
		t.Errorf("error = %v, want %v", err, ErrEmptyPatternName)
	}
	if _, err := NewArchitecturalPattern("x", PatternTypeDDD, 1, 0.5, nil, nil, nil); err != ErrNoParticipants {
		t.Errorf("error = %v, want %v", err, ErrNoParticipants)
	}
	if _, err := NewArchitecturalPattern("x", PatternTypeDDD, 1, 1.5, map[string]string{"a": "b"}, nil, nil); err != ErrConfidenceOutOfRange {
		t.Errorf("error = %v, want %v", err, ErrConfidenceOutOfRange)
	}
}
