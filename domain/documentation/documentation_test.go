package documentation

import "testing"

func TestNewDocumentation(t *testing.T) {
	d, err := NewDocumentation(1)
	if err != nil {
		t.Fatalf("NewDocumentation() error = %v", err)
	}
	if d.Status() != StatusNotStarted {
		t.Errorf("Status() = %v, want %v", d.Status(), StatusNotStarted)
	}
	if d.Version() != "0.1.0" {
		t.Errorf("Version() = %q, want 0.1.0", d.Version())
	}
}

func TestNewDocumentation_EmptyRepositoryID(t *testing.T) {
	if _, err := NewDocumentation(0); err != ErrEmptyRepositoryID {
		t.Errorf("error = %v, want %v", err, ErrEmptyRepositoryID)
	}
}

func TestDocumentation_HappyPathWithEnrichment(t *testing.T) {
	d, _ := NewDocumentation(1)

	d, err := d.Analyze()
	if err != nil || d.Status() != StatusAnalyzing {
		t.Fatalf("Analyze() = %v, %v; want Analyzing, nil", d.Status(), err)
	}

	sections := []Section{
		NewSection(SectionUsage, "Usage", "how to use this thing", nil),
		NewSection(SectionOverview, "Overview", "what this thing is", nil),
	}
	d, err = d.Generate(sections)
	if err != nil || d.Status() != StatusGeneratingContent {
		t.Fatalf("Generate() = %v, %v; want GeneratingContent, nil", d.Status(), err)
	}

	// Render order must put Overview before Usage regardless of input order.
	rendered := d.Sections()
	if rendered[0].Type() != SectionOverview || rendered[1].Type() != SectionUsage {
		t.Errorf("Sections() order = %v, %v; want Overview, Usage", rendered[0].Type(), rendered[1].Type())
	}

	d, err = d.Enrich(sections)
	if err != nil || d.Status() != StatusEnriching {
		t.Fatalf("Enrich() = %v, %v; want Enriching, nil", d.Status(), err)
	}

	d, err = d.Index()
	if err != nil || d.Status() != StatusIndexing {
		t.Fatalf("Index() = %v, %v; want Indexing, nil", d.Status(), err)
	}

	d, err = d.Complete(QualityInputs{
		RequestedSections: []SectionType{SectionOverview, SectionUsage},
		SelfConsistency:   0.9,
	})
	if err != nil || d.Status() != StatusCompleted {
		t.Fatalf("Complete() = %v, %v; want Completed, nil", d.Status(), err)
	}
	if d.QualityScore() <= 0 {
		t.Errorf("QualityScore() = %v, want > 0", d.QualityScore())
	}
	if d.Version() != "0.1.1" {
		t.Errorf("Version() = %q, want 0.1.1 after Complete", d.Version())
	}
}

func TestDocumentation_SkipEnrichmentPath(t *testing.T) {
	d, _ := NewDocumentation(1)
	d, _ = d.Analyze()
	d, _ = d.Generate(nil)

	d, err := d.SkipEnrichment()
	if err != nil || d.Status() != StatusIndexing {
		t.Fatalf("SkipEnrichment() = %v, %v; want Indexing, nil", d.Status(), err)
	}
}

func TestDocumentation_DuplicateSectionType(t *testing.T) {
	d, _ := NewDocumentation(1)
	d, _ = d.Analyze()

	dup := []Section{
		NewSection(SectionOverview, "A", "a", nil),
		NewSection(SectionOverview, "B", "b", nil),
	}
	if _, err := d.Generate(dup); err == nil {
		t.Error("Generate() with duplicate section types, want error")
	}
}

func TestDocumentation_InvalidTransition(t *testing.T) {
	d, _ := NewDocumentation(1)
	if _, err := d.Index(); err != ErrInvalidTransition {
		t.Errorf("Index() from NotStarted error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestDocumentation_FailAndRetry(t *testing.T) {
	d, _ := NewDocumentation(1)
	d, _ = d.Analyze()

	d, err := d.Fail("boom")
	if err != nil || d.Status() != StatusError {
		t.Fatalf("Fail() = %v, %v; want Error, nil", d.Status(), err)
	}
	if d.ErrorMessage() != "boom" {
		t.Errorf("ErrorMessage() = %q, want boom", d.ErrorMessage())
	}

	d, err = d.Analyze()
	if err != nil || d.Status() != StatusAnalyzing {
		t.Fatalf("Analyze() after Fail = %v, %v; want Analyzing, nil", d.Status(), err)
	}
}

func TestCodeReference_Dedup(t *testing.T) {
	refs := []CodeReference{
		NewCodeReference("a.go", 1, 10, "e1"),
		NewCodeReference("a.go", 1, 10, "e1"),
		NewCodeReference("b.go", 1, 10, "e2"),
	}
	s := NewSection(SectionOverview, "Overview", "content", refs)
	if len(s.References()) != 2 {
		t.Errorf("References() len = %d, want 2", len(s.References()))
	}
}
