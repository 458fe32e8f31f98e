package git

import (
	"context"
	"errors"
	"time"
)

// ErrBranchNotFound indicates the requested branch was not found.
var ErrBranchNotFound = errors.New("branch not found")

// Adapter abstracts the low-level git operations needed to pull a
// repository's tree and history onto local disk so the ingestion pipeline
// can walk it. GiteaAdapter backs it with the native git binary via Gitea's
// git module; GoGitAdapter backs it with the pure-Go go-git implementation
// for environments where no git binary is available.
type Adapter interface {
	CloneRepository(ctx context.Context, remoteURI string, localPath string) error
	CheckoutCommit(ctx context.Context, localPath string, commitSHA string) error
	CheckoutBranch(ctx context.Context, localPath string, branchName string) error
	FetchRepository(ctx context.Context, localPath string) error
	PullRepository(ctx context.Context, localPath string) error
	AllBranches(ctx context.Context, localPath string) ([]BranchInfo, error)
	BranchCommits(ctx context.Context, localPath string, branchName string) ([]CommitInfo, error)
	AllCommitsBulk(ctx context.Context, localPath string, since *time.Time) (map[string]CommitInfo, error)
	BranchCommitSHAs(ctx context.Context, localPath string, branchName string) ([]string, error)
	AllBranchHeadSHAs(ctx context.Context, localPath string, branchNames []string) (map[string]string, error)
	CommitFiles(ctx context.Context, localPath string, commitSHA string) ([]FileInfo, error)
	RepositoryExists(ctx context.Context, localPath string) (bool, error)
	CommitDetails(ctx context.Context, localPath string, commitSHA string) (CommitInfo, error)
	EnsureRepository(ctx context.Context, remoteURI string, localPath string) error
	FileContent(ctx context.Context, localPath string, commitSHA string, filePath string) ([]byte, error)
	DefaultBranch(ctx context.Context, localPath string) (string, error)
	LatestCommitSHA(ctx context.Context, localPath string, branchName string) (string, error)
	AllTags(ctx context.Context, localPath string) ([]TagInfo, error)
	CommitDiff(ctx context.Context, localPath string, commitSHA string) (string, error)
}

// BranchInfo describes a branch discovered on the remote or local clone.
type BranchInfo struct {
	Name      string
	HeadSHA   string
	IsDefault bool
}

// CommitInfo describes a single commit's metadata.
type CommitInfo struct {
	SHA            string
	Message        string
	AuthorName     string
	AuthorEmail    string
	AuthoredAt     time.Time
	CommitterName  string
	CommitterEmail string
	CommittedAt    time.Time
	ParentSHA      string
}

// FileInfo describes a single file entry at a given commit.
type FileInfo struct {
	Path     string
	BlobSHA  string
	Size     int64
	MimeType string
}

// TagInfo describes a tag, annotated or lightweight.
type TagInfo struct {
	Name            string
	TargetCommitSHA string
	TaggerName      string
	TaggerEmail     string
	TaggedAt        time.Time
	Message         string
}
