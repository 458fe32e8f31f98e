package repository

import "time"

// Branch is a named ref within a tracked Repository.
type Branch struct {
	name         string
	isDefault    bool
	repositoryID int64
	createdAt    time.Time
	lastCommit   string
}

// NewBranch creates a new Branch.
func NewBranch(name string, isDefault bool, repositoryID int64) Branch {
	return Branch{
		name:         name,
		isDefault:    isDefault,
		repositoryID: repositoryID,
		createdAt:    time.Now().UTC(),
	}
}

// ReconstructBranch rebuilds a Branch from persisted fields.
func ReconstructBranch(name string, isDefault bool, repositoryID int64, createdAt time.Time, lastCommit string) Branch {
	return Branch{
		name:         name,
		isDefault:    isDefault,
		repositoryID: repositoryID,
		createdAt:    createdAt,
		lastCommit:   lastCommit,
	}
}

// Name returns the branch name.
func (b Branch) Name() string { return b.name }

// IsDefault reports whether this is the repository's default branch.
func (b Branch) IsDefault() bool { return b.isDefault }

// RepositoryID returns the owning repository's ID.
func (b Branch) RepositoryID() int64 { return b.repositoryID }

// CreatedAt returns when the branch was first observed.
func (b Branch) CreatedAt() time.Time { return b.createdAt }

// LastCommit returns the SHA of the branch's head commit, if known.
func (b Branch) LastCommit() string { return b.lastCommit }

// WithLastCommit returns a copy with the head commit SHA updated.
func (b Branch) WithLastCommit(sha string) Branch {
	b.lastCommit = sha
	return b
}
