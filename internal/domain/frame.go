package domain

import "time"

// DefaultPort is the TCP port a receiver listens on unless configured otherwise.
const DefaultPort = 5001

// Header is the fixed part of a frame: everything that precedes the payload.
// A header is always built in full before the first byte reaches the socket.
type Header struct {
	// Name is the base file name, UTF-8 encoded on the wire
	Name string

	// Size is the exact number of payload bytes that follow the header
	Size uint64
}

// EncodedLen returns the number of bytes the header occupies on the wire.
func (h Header) EncodedLen() int {
	return 4 + len(h.Name) + 8
}

// Transfer is the record of one completed receive.
type Transfer struct {
	// ID uniquely identifies the transfer in logs and staging file names
	ID string

	// SourceAddress is the remote address of the sending peer
	SourceAddress string

	// Name is the sanitized file name the payload was stored under
	Name string

	// SavedPath is the final location of the payload on disk
	SavedPath string

	// ByteCount is the number of payload bytes written
	ByteCount uint64

	// StartedAt is when the connection was accepted
	StartedAt time.Time

	// CompletedAt is when the file was committed to SavedPath
	CompletedAt time.Time
}

// Duration returns how long the transfer took from accept to commit.
func (t Transfer) Duration() time.Duration {
	return t.CompletedAt.Sub(t.StartedAt)
}
