// Package codec implements the dropship wire format.
//
// A frame is a header followed by the payload, all integers big-endian:
//
//	[4 bytes]    name length (uint32)
//	[n bytes]    name (UTF-8)
//	[8 bytes]    payload size (uint64)
//	[size bytes] payload
//
// Readers in this package consume exactly the declared lengths and never
// read ahead, so the caller can hand the raw connection in directly.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/bft-labs/dropship/internal/domain"
)

const (
	// ChunkSize is the default buffer size for streaming payloads.
	ChunkSize = 4096

	// MaxNameLength bounds the name field so a bogus length prefix cannot
	// make the receiver allocate gigabytes.
	MaxNameLength = 4096
)

// EncodeHeader returns the wire encoding of a header for the given name and
// payload size.
func EncodeHeader(h domain.Header) ([]byte, error) {
	if err := validateName(h.Name); err != nil {
		return nil, err
	}
	buf := make([]byte, h.EncodedLen())
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(h.Name)))
	n := copy(buf[4:], h.Name)
	binary.BigEndian.PutUint64(buf[4+n:], h.Size)
	return buf, nil
}

// WriteHeader encodes the header and writes it with a single Write call.
func WriteHeader(w io.Writer, h domain.Header) error {
	buf, err := EncodeHeader(h)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadHeader consumes exactly one header from r.
func ReadHeader(r io.Reader) (domain.Header, error) {
	var lenBuf [4]byte
	if err := readFull(r, lenBuf[:], "name length"); err != nil {
		return domain.Header{}, err
	}
	nameLen := binary.BigEndian.Uint32(lenBuf[:])
	if nameLen == 0 || nameLen > MaxNameLength {
		return domain.Header{}, fmt.Errorf("%w: name length %d", domain.ErrInvalidName, nameLen)
	}

	name := make([]byte, nameLen)
	if err := readFull(r, name, "name"); err != nil {
		return domain.Header{}, err
	}
	if !utf8.Valid(name) {
		return domain.Header{}, fmt.Errorf("%w: name is not valid UTF-8", domain.ErrInvalidName)
	}

	var sizeBuf [8]byte
	if err := readFull(r, sizeBuf[:], "payload size"); err != nil {
		return domain.Header{}, err
	}

	return domain.Header{
		Name: string(name),
		Size: binary.BigEndian.Uint64(sizeBuf[:]),
	}, nil
}

// Decode reads a header from r and returns it together with a reader over
// exactly Size payload bytes. Reading that payload reader past a premature
// end of stream returns domain.ErrShortRead.
func Decode(r io.Reader) (domain.Header, io.Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return domain.Header{}, nil, err
	}
	return h, &payloadReader{r: r, remaining: h.Size}, nil
}

// CopyPayload copies exactly size bytes from r to dst using buf as the chunk
// buffer. It returns the number of bytes written to dst. If r ends before
// size bytes were read the error wraps domain.ErrShortRead; errors from dst
// are returned as they are.
func CopyPayload(dst io.Writer, r io.Reader, size uint64, buf []byte) (uint64, error) {
	if len(buf) == 0 {
		buf = make([]byte, ChunkSize)
	}
	var written uint64
	for written < size {
		chunk := buf
		if rest := size - written; rest < uint64(len(chunk)) {
			chunk = chunk[:rest]
		}
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return written, werr
			}
			written += uint64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, fmt.Errorf("%w: payload ended after %d of %d bytes", domain.ErrShortRead, written, size)
			}
			return written, fmt.Errorf("%w: %w", domain.ErrShortRead, err)
		}
	}
	return written, nil
}

// payloadReader limits reads to the declared payload size and turns an early
// end of stream into domain.ErrShortRead.
type payloadReader struct {
	r         io.Reader
	remaining uint64
}

func (p *payloadReader) Read(b []byte) (int, error) {
	if p.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(b)) > p.remaining {
		b = b[:p.remaining]
	}
	n, err := p.r.Read(b)
	p.remaining -= uint64(n)
	if err == io.EOF && p.remaining > 0 {
		return n, fmt.Errorf("%w: %d payload bytes missing", domain.ErrShortRead, p.remaining)
	}
	if err == io.EOF {
		err = nil
		if n == 0 {
			err = io.EOF
		}
	}
	return n, err
}

func readFull(r io.Reader, buf []byte, field string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: reading %s: %w", domain.ErrShortRead, field, err)
	}
	return nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", domain.ErrInvalidName)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: name longer than %d bytes", domain.ErrInvalidName, MaxNameLength)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: name is not valid UTF-8", domain.ErrInvalidName)
	}
	return nil
}
