// Package store keeps a document snapshot in a YAML or JSON file so the
// query engine has something to run against from the command line.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arthur-debert/nanoquery/internal/logging"
	"github.com/arthur-debert/nanoquery/internal/validation"
	"github.com/arthur-debert/nanoquery/types"
)

// ErrLockTimeout is returned when the snapshot file lock can't be acquired
var ErrLockTimeout = errors.New("timed out acquiring snapshot lock")

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// Option configures a Store
type Option func(*Store)

// WithFileSystem replaces the os backed file system
func WithFileSystem(fs FileSystem) Option {
	return func(s *Store) { s.fs = fs }
}

// WithFileLockFactory replaces the flock backed lock factory
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *Store) { s.lockFactory = factory }
}

// WithLogger sets the store logger
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// Store is an in-memory document set backed by a snapshot file
type Store struct {
	path        string
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	logger      logging.Logger

	mu   sync.RWMutex
	docs map[string]*types.MutableDocument
}

// Open loads the snapshot at path. A missing or empty file opens an empty
// store.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logging.Nop(),
		docs:   make(map[string]*types.MutableDocument),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	s.fileLock = s.lockFactory.New(path + ".lock")

	if err := s.withLock(true, s.load); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	s.logger.Debug("snapshot loaded", "path", path, "documents", len(s.docs))
	return s, nil
}

// Path returns the snapshot file path
func (s *Store) Path() string { return s.path }

// withLock runs fn holding the file lock, shared or exclusive
func (s *Store) withLock(shared bool, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx, shared); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return fn()
}

func (s *Store) acquireLock(ctx context.Context, shared bool) error {
	for i := 0; i < lockMaxRetries; i++ {
		var locked bool
		var err error
		if shared {
			locked, err = s.fileLock.TryRLockContext(ctx, lockRetryDelay)
		} else {
			locked, err = s.fileLock.TryLockContext(ctx, lockRetryDelay)
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return fmt.Errorf("%w: %v", ErrLockTimeout, err)
			}
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrLockTimeout, lockMaxRetries)
}

// load reads the snapshot file; the caller holds the file lock
func (s *Store) load() error {
	if _, err := s.fs.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	snap, err := unmarshalSnapshot(s.path, data)
	if err != nil {
		return err
	}

	docs := make(map[string]*types.MutableDocument, len(snap.Documents))
	for i, sd := range snap.Documents {
		doc, err := decodeDocument(sd)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		docs[doc.Key().String()] = doc
	}

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	return nil
}

func decodeDocument(sd snapshotDocument) (*types.MutableDocument, error) {
	key, err := types.ParseDocumentKey(sd.Path)
	if err != nil {
		return nil, err
	}
	if sd.Missing {
		return types.NewMissingDocument(key), nil
	}

	fields := make(map[string]types.Value, len(sd.Fields))
	for name, raw := range sd.Fields {
		if err := validation.ValidateFieldName(name); err != nil {
			return nil, fmt.Errorf("%s: %w", sd.Path, err)
		}
		v, err := DecodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", sd.Path, name, err)
		}
		fields[name] = v
	}
	return types.NewFoundDocument(key, fields), nil
}

// Add stores a document under collection. An empty id gets a random one.
// It returns the new document's key.
func (s *Store) Add(collection, id string, fields map[string]interface{}) (types.DocumentKey, error) {
	collPath, err := validation.ValidateCollectionPath(collection)
	if err != nil {
		return types.DocumentKey{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}
	if err := validation.ValidateDocumentID(id); err != nil {
		return types.DocumentKey{}, err
	}

	data := make(map[string]types.Value, len(fields))
	for name, raw := range fields {
		if err := validation.ValidateFieldName(name); err != nil {
			return types.DocumentKey{}, err
		}
		if err := validation.ValidateFieldValue(raw, name); err != nil {
			return types.DocumentKey{}, err
		}
		v, err := DecodeValue(raw)
		if err != nil {
			return types.DocumentKey{}, fmt.Errorf("field %q: %w", name, err)
		}
		data[name] = v
	}

	key, err := types.NewDocumentKey(collPath.Append(id))
	if err != nil {
		return types.DocumentKey{}, err
	}
	s.Put(types.NewFoundDocument(key, data))
	return key, nil
}

// Put stores doc, replacing any document with the same key. Missing
// documents are kept as tombstones.
func (s *Store) Put(doc *types.MutableDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Key().String()] = doc
}

// Delete replaces the document at key with a tombstone. It returns false if
// no document existed.
func (s *Store) Delete(key types.DocumentKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[key.String()]
	s.docs[key.String()] = types.NewMissingDocument(key)
	return ok && existing.Exists()
}

// Get returns the document at key
func (s *Store) Get(key types.DocumentKey) (*types.MutableDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key.String()]
	return doc, ok
}

// Documents returns every document, tombstones included, in key order
func (s *Store) Documents() []types.Document {
	s.mu.RLock()
	out := make([]types.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b types.Document) int {
		return a.Key().Compare(b.Key())
	})
	return out
}

// Save writes the snapshot atomically under an exclusive file lock
func (s *Store) Save() error {
	return s.withLock(false, s.save)
}

func (s *Store) save() error {
	docs := s.Documents()
	snap := &snapshotFile{Documents: make([]snapshotDocument, 0, len(docs))}
	for _, d := range docs {
		md := d.(*types.MutableDocument)
		sd := snapshotDocument{Path: md.Key().String()}
		if !md.Exists() {
			sd.Missing = true
		} else {
			sd.Fields = EncodeValue(md.Data()).(map[string]interface{})
		}
		snap.Documents = append(snap.Documents, sd)
	}

	data, err := marshalSnapshot(s.path, snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := s.fs.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.path); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	s.logger.Debug("snapshot saved", "path", s.path, "documents", len(docs))
	return nil
}
