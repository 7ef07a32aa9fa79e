// Package domain contains the core domain entities and value objects for dropship.
//
// This package represents the innermost layer of the application. It has
// no dependencies on infrastructure concerns (sockets, file system, logging)
// and contains only the values exchanged between the layers above it.
//
// # Entities
//
//   - [Header]: The name and payload size that precede every payload on the wire
//   - [Transfer]: The record of one completed receive
//
// # Errors
//
// All error conditions surfaced by the sender and the receiver are sentinel
// values declared in errors.go and are meant to be checked with errors.Is.
package domain
