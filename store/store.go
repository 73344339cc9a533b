// Package store loads and saves localization documents on a billy filesystem.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/locsync"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Codec converts between a document tree and its file representation.
type Codec interface {
	Decode(data []byte) (*locsync.Node, error)
	Encode(n *locsync.Node) ([]byte, error)
}

// CodecFor picks a codec from the file extension.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON{}, nil
	case ".yaml", ".yml":
		return YAML{}, nil
	default:
		return nil, &locsync.ConfigurationError{Message: fmt.Sprintf("unsupported file type %q", name)}
	}
}

// Store reads and writes documents. Missing files load as empty documents and
// saves replace the file in one rename.
type Store struct {
	fs       billy.Filesystem
	logger   *slog.Logger
	absolute bool // resolve relative names against the working directory
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on fs.
func New(fs billy.Filesystem, opts ...Option) *Store {
	s := &Store{
		fs:     fs,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a Store on the host filesystem. Paths are resolved against
// the working directory.
func NewOS(opts ...Option) *Store {
	s := New(osfs.New("/"), opts...)
	s.absolute = true
	return s
}

// Filesystem returns the underlying filesystem.
func (s *Store) Filesystem() billy.Filesystem {
	return s.fs
}

// Exists reports whether a file exists at name.
func (s *Store) Exists(name string) (bool, error) {
	_, err := s.fs.Stat(s.resolve(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Load reads the document at name. A missing file yields an empty document.
func (s *Store) Load(name string) (*locsync.Node, error) {
	codec, err := CodecFor(name)
	if err != nil {
		return nil, err
	}

	data, err := s.read(name)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("document not found, starting empty", "path", name)
		return locsync.NewNode(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	n, err := codec.Decode(data)
	if err != nil {
		return nil, &locsync.SerializationError{Path: name, Cause: err}
	}
	s.logger.Debug("loaded document", "path", name, "leaves", locsync.CountLeaves(n))
	return n, nil
}

// Save writes tree to name, creating parent directories as needed. The data is
// written to a temporary file first and renamed over name.
func (s *Store) Save(name string, tree *locsync.Node) error {
	codec, err := CodecFor(name)
	if err != nil {
		return err
	}
	if tree == nil {
		tree = locsync.NewNode()
	}

	data, err := codec.Encode(tree)
	if err != nil {
		return &locsync.SerializationError{Path: name, Cause: err}
	}

	target := s.resolve(name)
	dir := path.Dir(filepath.ToSlash(target))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := s.fs.TempFile(dir, ".locsync-")
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.fs.Rename(tmpName, target)
	}
	if err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}

	s.logger.Debug("saved document", "path", name, "bytes", len(data))
	return nil
}

func (s *Store) read(name string) ([]byte, error) {
	f, err := s.fs.Open(s.resolve(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Store) resolve(name string) string {
	if !s.absolute || filepath.IsAbs(name) {
		return name
	}
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return name
}
