package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrEmptyURL indicates a repository was constructed with no remote URL.
var ErrEmptyURL = errors.New("repository: url cannot be empty")

// ErrInvalidURL indicates the remote URL is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("repository: url must be an absolute http(s) url")

// ErrEmptyOwnerOrName indicates owner or name was left blank.
var ErrEmptyOwnerOrName = errors.New("repository: owner and name cannot be empty")

// Repository is the aggregate root for a tracked source repository.
type Repository struct {
	id              int64
	name            string
	owner           string
	url             string
	cloneURL        string
	primaryLanguage string
	description     string
	defaultBranch   string
	isPrivate       bool
	isFork          bool
	isArchived      bool
	createdAt       time.Time
	updatedAt       time.Time
	lastPushedAt    time.Time
	status          Status
	branches        []Branch
	statistics      Statistics
	trackingConfig  TrackingConfig
}

// NewRepository creates a new Repository in the initial Connecting status.
func NewRepository(owner, name, remoteURL string) (Repository, error) {
	if owner == "" || name == "" {
		return Repository{}, ErrEmptyOwnerOrName
	}
	if remoteURL == "" {
		return Repository{}, ErrEmptyURL
	}
	if !isAbsoluteHTTPURL(remoteURL) {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidURL, remoteURL)
	}

	now := time.Now().UTC()
	return Repository{
		name:      name,
		owner:     owner,
		url:       remoteURL,
		cloneURL:  toCloneURL(remoteURL),
		status:    StatusConnecting,
		createdAt: now,
		updatedAt: now,
		branches:  []Branch{},
	}, nil
}

// ReconstructRepository rebuilds a Repository from persisted fields, bypassing
// validation (the row was valid when it was saved).
func ReconstructRepository(
	id int64,
	name, owner, remoteURL, cloneURL, primaryLanguage, description, defaultBranch string,
	isPrivate, isFork, isArchived bool,
	createdAt, updatedAt, lastPushedAt time.Time,
	status Status,
	branches []Branch,
	statistics Statistics,
	trackingConfig TrackingConfig,
) Repository {
	if branches == nil {
		branches = []Branch{}
	}
	return Repository{
		id:              id,
		name:            name,
		owner:           owner,
		url:             remoteURL,
		cloneURL:        cloneURL,
		primaryLanguage: primaryLanguage,
		description:     description,
		defaultBranch:   defaultBranch,
		isPrivate:       isPrivate,
		isFork:          isFork,
		isArchived:      isArchived,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		lastPushedAt:    lastPushedAt,
		status:          status,
		branches:        branches,
		statistics:      statistics,
		trackingConfig:  trackingConfig,
	}
}

// ID returns the repository's persisted ID (0 if not yet persisted).
func (r Repository) ID() int64 { return r.id }

// Name returns the repository name (without owner).
func (r Repository) Name() string { return r.name }

// Owner returns the repository owner.
func (r Repository) Owner() string { return r.owner }

// FullName returns "owner/name".
func (r Repository) FullName() string { return r.owner + "/" + r.name }

// URL returns the remote URL.
func (r Repository) URL() string { return r.url }

// CloneURL returns the URL used to clone the repository; always ends in ".git".
func (r Repository) CloneURL() string { return r.cloneURL }

// PrimaryLanguage returns the dominant language, if known.
func (r Repository) PrimaryLanguage() string { return r.primaryLanguage }

// Description returns the repository description.
func (r Repository) Description() string { return r.description }

// DefaultBranch returns the name of the default branch.
func (r Repository) DefaultBranch() string { return r.defaultBranch }

// IsPrivate reports whether the repository is private.
func (r Repository) IsPrivate() bool { return r.isPrivate }

// IsFork reports whether the repository is a fork.
func (r Repository) IsFork() bool { return r.isFork }

// IsArchived reports whether the repository is archived.
func (r Repository) IsArchived() bool { return r.isArchived }

// CreatedAt returns when the repository was first tracked.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the repository was last modified.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// LastPushedAt returns the upstream last-push timestamp, if known.
func (r Repository) LastPushedAt() time.Time { return r.lastPushedAt }

// Status returns the current lifecycle status.
func (r Repository) Status() Status { return r.status }

// Branches returns the tracked branches.
func (r Repository) Branches() []Branch {
	result := make([]Branch, len(r.branches))
	copy(result, r.branches)
	return result
}

// Statistics returns the repository's structural statistics.
func (r Repository) Statistics() Statistics { return r.statistics }

// TrackingConfig returns the configured branch/tag/commit tracking policy.
func (r Repository) TrackingConfig() TrackingConfig { return r.trackingConfig }

// WithID returns a copy with the persisted ID set.
func (r Repository) WithID(id int64) Repository {
	r.id = id
	return r
}

// WithMetadata returns a copy with connect-time metadata populated, as
// returned by the Source Adapter's connectRepository call.
func (r Repository) WithMetadata(primaryLanguage, description, defaultBranch string, isPrivate, isFork, isArchived bool, lastPushedAt time.Time) Repository {
	r.primaryLanguage = primaryLanguage
	r.description = description
	r.defaultBranch = defaultBranch
	r.isPrivate = isPrivate
	r.isFork = isFork
	r.isArchived = isArchived
	r.lastPushedAt = lastPushedAt
	r.updatedAt = time.Now().UTC()
	return r
}

// WithBranches returns a copy with the given branches, enforcing that at
// most one is marked default when any branches are present.
func (r Repository) WithBranches(branches []Branch) (Repository, error) {
	defaults := 0
	for _, b := range branches {
		if b.IsDefault() {
			defaults++
		}
	}
	if len(branches) > 0 && defaults > 1 {
		return Repository{}, fmt.Errorf("repository: at most one default branch allowed, got %d", defaults)
	}
	r.branches = append([]Branch{}, branches...)
	r.updatedAt = time.Now().UTC()
	return r, nil
}

// WithStatistics returns a copy with updated structural statistics.
func (r Repository) WithStatistics(stats Statistics) Repository {
	r.statistics = stats
	r.updatedAt = time.Now().UTC()
	return r
}

// WithTrackingConfig returns a copy with the given tracking policy.
func (r Repository) WithTrackingConfig(tc TrackingConfig) Repository {
	r.trackingConfig = tc
	r.updatedAt = time.Now().UTC()
	return r
}

// TransitionTo moves the repository to next if the edge is legal, otherwise
// returns ErrInvalidTransition. Disconnected is reachable from any state, per
// spec.md's "inverse → Disconnected from any state" rule.
func (r Repository) TransitionTo(next Status) (Repository, error) {
	if next == StatusDisconnected || r.status.CanTransitionTo(next) {
		r.status = next
		r.updatedAt = time.Now().UTC()
		return r, nil
	}
	return Repository{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, next)
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func toCloneURL(remoteURL string) string {
	if strings.HasSuffix(remoteURL, ".git") {
		return remoteURL
	}
	return strings.TrimSuffix(remoteURL, "/") + ".git"
}
