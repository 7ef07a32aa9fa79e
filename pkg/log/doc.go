// Package log provides the logging abstraction used by dropship components.
//
// Library code logs through the Logger interface so that embedding
// applications decide where output goes. Two implementations ship with the
// package: a zerolog adapter used by the dropship command, and a no-op logger
// that library callers get by default.
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	listener, err := dropship.Bind(5001, "received_files", dropship.WithLogger(logger))
//
// Implement Logger to route records into an existing logging setup.
package log
