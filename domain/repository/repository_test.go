package repository

import (
	"errors"
	"testing"
)

func TestNewRepository_FullName(t *testing.T) {
	r, err := NewRepository("acme", "svc", "https://host/acme/svc")
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if r.FullName() != "acme/svc" {
		t.Errorf("FullName() = %q, want %q", r.FullName(), "acme/svc")
	}
	if r.CloneURL() != "https://host/acme/svc.git" {
		t.Errorf("CloneURL() = %q, want suffix .git", r.CloneURL())
	}
	if r.Status() != StatusConnecting {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusConnecting)
	}
}

func TestNewRepository_CloneURLAlreadyHasGitSuffix(t *testing.T) {
	r, err := NewRepository("acme", "svc", "https://host/acme/svc.git")
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if r.CloneURL() != "https://host/acme/svc.git" {
		t.Errorf("CloneURL() = %q", r.CloneURL())
	}
}

func TestNewRepository_RejectsEmptyURL(t *testing.T) {
	_, err := NewRepository("acme", "svc", "")
	if !errors.Is(err, ErrEmptyURL) {
		t.Errorf("error = %v, want ErrEmptyURL", err)
	}
}

func TestNewRepository_RejectsNonAbsoluteURL(t *testing.T) {
	_, err := NewRepository("acme", "svc", "not-a-url")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("error = %v, want ErrInvalidURL", err)
	}
}

func TestNewRepository_RejectsEmptyOwnerOrName(t *testing.T) {
	if _, err := NewRepository("", "svc", "https://host/x"); !errors.Is(err, ErrEmptyOwnerOrName) {
		t.Errorf("error = %v, want ErrEmptyOwnerOrName", err)
	}
	if _, err := NewRepository("acme", "", "https://host/x"); !errors.Is(err, ErrEmptyOwnerOrName) {
		t.Errorf("error = %v, want ErrEmptyOwnerOrName", err)
	}
}

func TestRepository_TransitionTo_HappyPath(t *testing.T) {
	r, _ := NewRepository("acme", "svc", "https://host/acme/svc")

	for _, next := range []Status{StatusConnected, StatusAnalyzing, StatusReady} {
		var err error
		r, err = r.TransitionTo(next)
		if err != nil {
			t.Fatalf("TransitionTo(%s) error = %v", next, err)
		}
		if r.Status() != next {
			t.Errorf("Status() = %q, want %q", r.Status(), next)
		}
	}
}

func TestRepository_TransitionTo_Reindex(t *testing.T) {
	r, _ := NewRepository("acme", "svc", "https://host/acme/svc")
	r, _ = r.TransitionTo(StatusConnected)
	r, _ = r.TransitionTo(StatusAnalyzing)
	r, _ = r.TransitionTo(StatusReady)

	r, err := r.TransitionTo(StatusAnalyzing)
	if err != nil {
		t.Fatalf("Ready -> Analyzing should be legal, got %v", err)
	}
	if r.Status() != StatusAnalyzing {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusAnalyzing)
	}
}

func TestRepository_TransitionTo_DisconnectedFromAnyState(t *testing.T) {
	for _, from := range []Status{StatusConnecting, StatusConnected, StatusAnalyzing, StatusReady, StatusError} {
		r := Repository{status: from}
		r, err := r.TransitionTo(StatusDisconnected)
		if err != nil {
			t.Errorf("%s -> Disconnected should be legal, got %v", from, err)
		}
		if r.Status() != StatusDisconnected {
			t.Errorf("Status() = %q, want Disconnected", r.Status())
		}
	}
}

func TestRepository_TransitionTo_DisconnectedOnlyReachesConnecting(t *testing.T) {
	r := Repository{status: StatusDisconnected}
	if _, err := r.TransitionTo(StatusReady); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
	if _, err := r.TransitionTo(StatusConnecting); err != nil {
		t.Errorf("Disconnected -> Connecting should be legal, got %v", err)
	}
}

func TestRepository_TransitionTo_InvalidEdge(t *testing.T) {
	r, _ := NewRepository("acme", "svc", "https://host/acme/svc")
	if _, err := r.TransitionTo(StatusReady); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
}

func TestRepository_WithBranches_RejectsMultipleDefaults(t *testing.T) {
	r, _ := NewRepository("acme", "svc", "https://host/acme/svc")
	branches := []Branch{
		NewBranch("main", true, 1),
		NewBranch("develop", true, 1),
	}
	if _, err := r.WithBranches(branches); err == nil {
		t.Error("expected error for multiple default branches")
	}
}

func TestRepository_WithBranches_AllowsSingleDefault(t *testing.T) {
	r, _ := NewRepository("acme", "svc", "https://host/acme/svc")
	branches := []Branch{
		NewBranch("main", true, 1),
		NewBranch("develop", false, 1),
	}
	r, err := r.WithBranches(branches)
	if err != nil {
		t.Fatalf("WithBranches() error = %v", err)
	}
	if len(r.Branches()) != 2 {
		t.Errorf("Branches() len = %d, want 2", len(r.Branches()))
	}
}

func TestStatistics_PercentageSum(t *testing.T) {
	stats, err := NewStatistics(10, 1000, map[string]LanguageStat{
		"go":     NewLanguageStat(8, 800, 80),
		"python": NewLanguageStat(2, 200, 20),
	})
	if err != nil {
		t.Fatalf("NewStatistics() error = %v", err)
	}
	if sum := stats.PercentageSum(); sum < 99.5 || sum > 100.5 {
		t.Errorf("PercentageSum() = %v, want ~100", sum)
	}
}

func TestStatistics_RejectsNegativeCounts(t *testing.T) {
	if _, err := NewStatistics(-1, 0, nil); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("error = %v, want ErrNegativeCount", err)
	}
}
