package repository

import (
	"strings"
	"time"
)

const defaultCommitMessage = "No commit message"

// Commit is a single revision within a tracked Repository.
type Commit struct {
	id              int64
	hash            string
	repositoryID    int64
	message         string
	author          Author
	committer       Author
	timestamp       time.Time
	parentCommitSHA string
}

// NewCommit creates a new Commit. An empty message is replaced with the
// default placeholder per spec.md's Commit invariant.
func NewCommit(hash string, repositoryID int64, message string, author, committer Author, authoredAt, committedAt time.Time) Commit {
	return NewCommitWithParent(hash, repositoryID, message, author, committer, authoredAt, committedAt, "")
}

// NewCommitWithParent creates a new Commit that records its parent SHA.
func NewCommitWithParent(hash string, repositoryID int64, message string, author, committer Author, _, committedAt time.Time, parentCommitSHA string) Commit {
	if strings.TrimSpace(message) == "" {
		message = defaultCommitMessage
	}
	return Commit{
		hash:            hash,
		repositoryID:    repositoryID,
		message:         message,
		author:          author,
		committer:       committer,
		timestamp:       committedAt,
		parentCommitSHA: parentCommitSHA,
	}
}

// ReconstructCommit rebuilds a Commit from persisted fields, bypassing the
// blank-message default (the row already holds the resolved message).
func ReconstructCommit(
	id int64,
	hash string,
	repositoryID int64,
	message string,
	author, committer Author,
	timestamp time.Time,
	parentCommitSHA string,
) Commit {
	return Commit{
		id:              id,
		hash:            hash,
		repositoryID:    repositoryID,
		message:         message,
		author:          author,
		committer:       committer,
		timestamp:       timestamp,
		parentCommitSHA: parentCommitSHA,
	}
}

// ID returns the commit's persisted ID.
func (c Commit) ID() int64 { return c.id }

// Hash returns the full commit SHA.
func (c Commit) Hash() string { return c.hash }

// RepositoryID returns the owning repository's ID.
func (c Commit) RepositoryID() int64 { return c.repositoryID }

// Message returns the commit message.
func (c Commit) Message() string { return c.message }

// Author returns the commit author.
func (c Commit) Author() Author { return c.author }

// Committer returns the commit committer.
func (c Commit) Committer() Author { return c.committer }

// Timestamp returns the commit timestamp.
func (c Commit) Timestamp() time.Time { return c.timestamp }

// ParentCommitSHA returns the parent commit's SHA, if any.
func (c Commit) ParentCommitSHA() string { return c.parentCommitSHA }

// WithID returns a copy with the persisted ID set.
func (c Commit) WithID(id int64) Commit {
	c.id = id
	return c
}

// ShortHash returns the first 7 characters of the hash, or the whole hash if shorter.
func (c Commit) ShortHash() string {
	if len(c.hash) <= 7 {
		return c.hash
	}
	return c.hash[:7]
}

// ShortMessage returns the first line of the commit message.
func (c Commit) ShortMessage() string {
	if idx := strings.IndexByte(c.message, '\n'); idx >= 0 {
		return c.message[:idx]
	}
	return c.message
}
