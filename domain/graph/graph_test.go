package graph

import "testing"

func TestNewKnowledgeGraph(t *testing.T) {
	g, err := NewKnowledgeGraph([]int64{1, 2}, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("NewKnowledgeGraph() error = %v", err)
	}
	if g.Status() != StatusNotBuilt {
		t.Errorf("Status() = %v, want %v", g.Status(), StatusNotBuilt)
	}
	if len(g.RepositoryIDs()) != 2 {
		t.Errorf("RepositoryIDs() = %v, want len 2", g.RepositoryIDs())
	}
}

func TestNewKnowledgeGraph_Empty(t *testing.T) {
	if _, err := NewKnowledgeGraph(nil, nil); err != ErrNoRepositories {
		t.Errorf("error = %v, want %v", err, ErrNoRepositories)
	}
}

func TestNewKnowledgeGraph_Duplicate(t *testing.T) {
	if _, err := NewKnowledgeGraph([]int64{1, 1}, nil); err != ErrDuplicateRepoID {
		t.Errorf("error = %v, want %v", err, ErrDuplicateRepoID)
	}
}

func TestKnowledgeGraph_HappyPath(t *testing.T) {
	g, _ := NewKnowledgeGraph([]int64{1}, nil)

	g, err := g.Build()
	if err != nil || g.Status() != StatusBuilding {
		t.Fatalf("Build() = %v, %v; want Building, nil", g.Status(), err)
	}

	g, err = g.Extract(10, 20)
	if err != nil || g.Status() != StatusAnalyzing {
		t.Fatalf("Extract() = %v, %v; want Analyzing, nil", g.Status(), err)
	}
	if g.Statistics().EntityCount != 10 || g.Statistics().RelationshipCount != 20 {
		t.Errorf("Statistics() = %+v, want entity/rel counts 10/20", g.Statistics())
	}

	g, err = g.Finalize(3)
	if err != nil || g.Status() != StatusComplete {
		t.Fatalf("Finalize() = %v, %v; want Complete, nil", g.Status(), err)
	}
	if g.Statistics().PatternCount != 3 {
		t.Errorf("Statistics().PatternCount = %d, want 3", g.Statistics().PatternCount)
	}
}

func TestKnowledgeGraph_InvalidTransition(t *testing.T) {
	g, _ := NewKnowledgeGraph([]int64{1}, nil)

	if _, err := g.Extract(1, 1); err != ErrInvalidGraphTransition {
		t.Errorf("Extract() from NotBuilt error = %v, want %v", err, ErrInvalidGraphTransition)
	}
	if _, err := g.Finalize(1); err != ErrInvalidGraphTransition {
		t.Errorf("Finalize() from NotBuilt error = %v, want %v", err, ErrInvalidGraphTransition)
	}
	if _, err := g.MarkUpdateRequired(); err != ErrInvalidGraphTransition {
		t.Errorf("MarkUpdateRequired() from NotBuilt error = %v, want %v", err, ErrInvalidGraphTransition)
	}
}

func TestKnowledgeGraph_ErrorAndRetry(t *testing.T) {
	g, _ := NewKnowledgeGraph([]int64{1}, nil)
	g, _ = g.Build()

	g, err := g.Fail("boom")
	if err != nil || g.Status() != StatusError {
		t.Fatalf("Fail() = %v, %v; want Error, nil", g.Status(), err)
	}
	if g.ErrorMessage() != "boom" {
		t.Errorf("ErrorMessage() = %q, want %q", g.ErrorMessage(), "boom")
	}

	g, err = g.Build()
	if err != nil || g.Status() != StatusBuilding {
		t.Fatalf("Build() from Error = %v, %v; want Building, nil", g.Status(), err)
	}
	if g.ErrorMessage() != "" {
		t.Errorf("ErrorMessage() after retry = %q, want empty", g.ErrorMessage())
	}
}

func TestKnowledgeGraph_UpdateRequiredCycle(t *testing.T) {
	g, _ := NewKnowledgeGraph([]int64{1}, nil)
	g, _ = g.Build()
	g, _ = g.Extract(1, 1)
	g, _ = g.Finalize(0)

	g, err := g.MarkUpdateRequired()
	if err != nil || g.Status() != StatusUpdateRequired {
		t.Fatalf("MarkUpdateRequired() = %v, %v; want UpdateRequired, nil", g.Status(), err)
	}

	g, err = g.Build()
	if err != nil || g.Status() != StatusBuilding {
		t.Fatalf("Build() from UpdateRequired = %v, %v; want Building, nil", g.Status(), err)
	}
}
