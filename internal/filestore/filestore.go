// Package filestore implements a durable key-to-bytes store for serialized
// snapshots and snapshot info. Grounded on ledger.go's WAL/snapshot
// persistence pattern: os.OpenFile with O_CREATE, explicit fsync on every
// write, a gzip-backed archive path, adapted from block-log durability to
// write-once blob storage keyed by content hash.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// IOError wraps an underlying filesystem failure, matching the shape of
// the snapshot core's SnapshotIOError/SnapshotInfoIOError error kinds.
type IOError struct {
	Op    string
	Key   string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("filestore: %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// ErrKeyExists is returned by Write when key already exists and replace was
// not requested: overwriting an existing key is an error unless the
// caller explicitly asks to replace it.
var ErrKeyExists = errors.New("filestore: key already exists")

// Store is a durable key->bytes store rooted at a base directory. Keys are
// snapshot hashes; values are opaque serialized blobs. One Store instance
// should own a given base directory.
type Store struct {
	logger *log.Logger

	mu      sync.Mutex
	baseDir string
}

// New returns a Store rooted at baseDir, creating it if necessary.
func New(baseDir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Key: baseDir, Cause: err}
	}
	return &Store{logger: logger, baseDir: baseDir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.baseDir, key)
}

// Write durably stores value under key. Writes are fsynced before Write
// returns. Overwriting an existing key is an error unless replace is true.
func (s *Store) Write(key string, value []byte, replace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.path(key)
	if !replace {
		if _, err := os.Stat(p); err == nil {
			return ErrKeyExists
		} else if !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Op: "stat", Key: key, Cause: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &IOError{Op: "mkdir", Key: key, Cause: err}
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return &IOError{Op: "open", Key: key, Cause: err}
	}
	defer f.Close()

	if _, err := f.Write(value); err != nil {
		return &IOError{Op: "write", Key: key, Cause: err}
	}
	if err := f.Sync(); err != nil {
		return &IOError{Op: "fsync", Key: key, Cause: err}
	}
	return nil
}

// Read returns the bytes stored under key.
func (s *Store) Read(key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, &IOError{Op: "read", Key: key, Cause: err}
	}
	return b, nil
}

// List returns all keys currently stored.
func (s *Store) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "readdir", Key: s.baseDir, Cause: err}
	}
	return out, nil
}

// GetUsableSpace returns bytes available to an unprivileged writer on the
// filesystem backing the store's base directory.
func (s *Store) GetUsableSpace() (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.baseDir, &stat); err != nil {
		return 0, &IOError{Op: "statfs", Key: s.baseDir, Cause: err}
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// GetOccupiedSpace returns the total size in bytes of every value currently
// stored.
func (s *Store) GetOccupiedSpace() (uint64, error) {
	keys, err := s.List()
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, k := range keys {
		info, err := os.Stat(s.path(k))
		if err != nil {
			return 0, &IOError{Op: "stat", Key: k, Cause: err}
		}
		total += uint64(info.Size())
	}
	return total, nil
}
