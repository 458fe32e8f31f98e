// Package service provides domain service interfaces.
package service

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// ScannedFile describes a single file entry found at a commit. It is a
// transient scan result, not a persisted aggregate — the ingestion pipeline
// reads its Content separately (from the adapter, by path) to feed the code
// entity extractor, rather than storing file rows directly.
type ScannedFile struct {
	Path      string
	BlobSHA   string
	MimeType  string
	Extension string
	Language  string
	Size      int64
}

// ScanCommitResult holds the result of scanning a single commit.
type ScanCommitResult struct {
	commit repository.Commit
	files  []ScannedFile
}

// NewScanCommitResult creates a new ScanCommitResult.
func NewScanCommitResult(commit repository.Commit, files []ScannedFile) ScanCommitResult {
	f := make([]ScannedFile, len(files))
	copy(f, files)
	return ScanCommitResult{
		commit: commit,
		files:  f,
	}
}

// Commit returns the scanned commit.
func (r ScanCommitResult) Commit() repository.Commit { return r.commit }

// Files returns the scanned files.
func (r ScanCommitResult) Files() []ScannedFile {
	result := make([]ScannedFile, len(r.files))
	copy(result, r.files)
	return result
}

// Scanner extracts data from Git repositories without mutation.
type Scanner interface {
	// ScanCommit scans a specific commit and returns commit with its files.
	ScanCommit(ctx context.Context, clonedPath string, commitSHA string, repoID int64) (ScanCommitResult, error)

	// ScanBranch scans all commits on a branch.
	ScanBranch(ctx context.Context, clonedPath string, branchName string, repoID int64) ([]repository.Commit, error)

	// ScanAllBranches scans metadata for all branches.
	ScanAllBranches(ctx context.Context, clonedPath string, repoID int64) ([]repository.Branch, error)

	// FilesForCommitsBatch processes files for a batch of commits.
	FilesForCommitsBatch(ctx context.Context, clonedPath string, commitSHAs []string) ([]ScannedFile, error)
}
