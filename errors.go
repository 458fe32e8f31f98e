package sourcelore

import "errors"

// ErrNoDatabase indicates no database option (WithSQLite, WithPostgresVectorchord)
// was supplied to New.
var ErrNoDatabase = errors.New("sourcelore: no database configured, use WithSQLite or WithPostgresVectorchord")

// ErrClientClosed indicates an operation was attempted on a Client after Close.
var ErrClientClosed = errors.New("sourcelore: client is closed")
