package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

const stagingPrefix = ".dropship-"

// StagingStore implements ports.FileStore on a local directory.
// Payloads are written to a hidden staging file in the same directory and
// renamed into place on commit, so a reader never observes a truncated file
// under its final name.
type StagingStore struct {
	dir string
}

// NewStagingStore creates the directory if needed and returns a store for it.
func NewStagingStore(dir string) (*StagingStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create save dir: %w", domain.ErrIO, err)
	}
	return &StagingStore{dir: dir}, nil
}

// Dir returns the directory files are committed to.
func (s *StagingStore) Dir() string {
	return s.dir
}

// Create opens a staging file for the given sender-supplied name.
func (s *StagingStore) Create(name string) (ports.StagedFile, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	tmp := filepath.Join(s.dir, stagingPrefix+uuid.NewString()+".part")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create staging file: %w", domain.ErrIO, err)
	}

	return &stagedFile{
		f:     f,
		tmp:   tmp,
		final: filepath.Join(s.dir, clean),
		name:  clean,
	}, nil
}

// SanitizeName reduces a peer-supplied name to a single path element.
// Both slash and backslash count as separators; only the last element is
// kept. Names that reduce to nothing, "." or "..", and names in the
// staging file namespace are rejected.
func SanitizeName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", domain.ErrInvalidName, name)
	}
	n := strings.ReplaceAll(name, `\`, "/")
	n = strings.TrimRight(n, "/")
	if i := strings.LastIndex(n, "/"); i >= 0 {
		n = n[i+1:]
	}
	if vol := filepath.VolumeName(n); vol != "" {
		n = strings.TrimPrefix(n, vol)
	}
	switch {
	case n == "", n == ".", n == "..":
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	case IsStagingFile(n):
		// Would be swept as a leftover by the next Bind
		return "", fmt.Errorf("%w: %q is reserved for staging files", domain.ErrInvalidName, name)
	}
	return n, nil
}

// IsStagingFile reports whether a base name belongs to an in-flight transfer.
func IsStagingFile(name string) bool {
	return strings.HasPrefix(name, stagingPrefix) && strings.HasSuffix(name, ".part")
}

// RemoveStale deletes staging files left behind by an interrupted receiver
// and returns how many were removed. Call it before the store is in use.
func (s *StagingStore) RemoveStale() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: read save dir: %w", domain.ErrIO, err)
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsStagingFile(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("%w: remove stale staging file: %w", domain.ErrIO, err)
		}
		removed++
	}
	return removed, nil
}

type stagedFile struct {
	f     *os.File
	tmp   string
	final string
	name  string
	done  bool
}

func (s *stagedFile) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: write staging file: %w", domain.ErrIO, err)
	}
	return n, nil
}

func (s *stagedFile) Name() string {
	return s.name
}

func (s *stagedFile) Commit() (string, error) {
	if s.done {
		return s.final, nil
	}
	if err := s.f.Sync(); err != nil {
		_ = s.Abort()
		return "", fmt.Errorf("%w: sync staging file: %w", domain.ErrIO, err)
	}
	if err := s.f.Close(); err != nil {
		_ = os.Remove(s.tmp)
		s.done = true
		return "", fmt.Errorf("%w: close staging file: %w", domain.ErrIO, err)
	}
	s.done = true

	// Atomic rename, replaces an existing file of the same name
	if err := os.Rename(s.tmp, s.final); err != nil {
		_ = os.Remove(s.tmp)
		return "", fmt.Errorf("%w: commit %s: %w", domain.ErrIO, s.name, err)
	}
	return s.final, nil
}

func (s *stagedFile) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	_ = s.f.Close()
	if err := os.Remove(s.tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove staging file: %w", domain.ErrIO, err)
	}
	return nil
}

var _ ports.FileStore = (*StagingStore)(nil)
