package repository

// WithName filters by the "name" column.
func WithName(name string) Option {
	return WithCondition("name", name)
}

// WithOwner filters by the "owner" column.
func WithOwner(owner string) Option {
	return WithCondition("owner", owner)
}

// WithFullName filters repositories by "owner/name".
func WithFullName(fullName string) Option {
	return WithCondition("full_name", fullName)
}

// WithURL filters by the "url" column.
func WithURL(url string) Option {
	return WithCondition("url", url)
}

// WithStatus filters repositories by their lifecycle status.
func WithStatus(status Status) Option {
	return WithCondition("status", string(status))
}

// WithDefault filters for the default branch (is_default = true).
func WithDefault() Option {
	return WithCondition("is_default", true)
}

// WithHash filters commits by the "hash" column.
func WithHash(hash string) Option {
	return WithCondition("hash", hash)
}

// WithHashIn filters commits by the "hash" column using IN.
func WithHashIn(hashes []string) Option {
	return WithConditionIn("hash", hashes)
}

// WithBranchName filters by the "name" column on the branch table.
func WithBranchName(name string) Option {
	return WithCondition("name", name)
}
