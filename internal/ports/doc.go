// Package ports defines the interfaces that connect the dropship application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Logger]: Structured logging abstraction
//   - [FileStore]: Staged, atomically committed destination files
//   - [Dialer]: Outbound stream connections
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// types, which keeps the sender and listener testable without a real disk
// or network where that matters.
package ports
