package ports

import "io"

// FileStore persists received payloads.
// Implementations must never expose a partially written payload under its
// final name: data goes to a staging location first and becomes visible
// only on Commit.
type FileStore interface {
	// Create opens a staging file for the given sender-supplied name.
	// The name is sanitized by the store; an unusable name returns an error
	// wrapping domain.ErrInvalidName.
	Create(name string) (StagedFile, error)
}

// StagedFile is a destination file that has not been committed yet.
type StagedFile interface {
	io.Writer

	// Name returns the sanitized base name the file will be committed as.
	Name() string

	// Commit flushes the data and moves it to its final path, replacing any
	// existing file of the same name. Returns the final path.
	Commit() (string, error)

	// Abort discards the staged data. Safe to call after Commit, in which
	// case it does nothing.
	Abort() error
}
