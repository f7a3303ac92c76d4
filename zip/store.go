// Package zip provides an Archive implementation backed by a zip file on
// disk. Zip headers cannot carry a creation timestamp, so the store keeps a
// JSON manifest entry inside the archive with per-entry creation and
// modification times plus a content hash.
package zip

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jciesla/mediavault"
)

// manifestName is the reserved entry holding per-entry metadata.
const manifestName = ".mediavault.json"

// manifestEntry is the persisted metadata for one archive entry.
type manifestEntry struct {
	Size       int64     `json:"size"`
	Hash       string    `json:"hash"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Ensure Store implements mediavault.Archive at compile time.
var _ mediavault.Archive = (*Store)(nil)

// Store is a zip-backed Archive. Mutations are staged in memory and made
// durable by Commit, which rewrites the zip atomically (temp file + rename)
// copying unchanged entries raw, without recompression. The zip format is
// not safe for concurrent structural modification, so all access is
// serialized with a mutex.
type Store struct {
	mu   sync.RWMutex
	path string

	// rc is nil until an archive exists on disk.
	rc *zip.ReadCloser

	// files holds committed entries by name; index is the authoritative
	// metadata, including staged changes; pending holds staged bytes for
	// new or replaced entries.
	files   map[string]*zip.File
	index   map[string]*mediavault.ArchiveEntry
	pending map[string][]byte
	dirty   bool
}

// NewStore creates a Store for the archive at path. The file does not need
// to exist; Open creates an empty store for a missing archive.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		files:   make(map[string]*zip.File),
		index:   make(map[string]*mediavault.ArchiveEntry),
		pending: make(map[string][]byte),
	}
}

// Open reads the existing archive's entries and manifest, if any.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	return s.load()
}

// load opens the zip reader and rebuilds the entry index. Callers must hold
// the write lock.
func (s *Store) load() error {
	rc, err := zip.OpenReader(s.path)
	if err != nil {
		return fmt.Errorf("open archive %q: %w", s.path, err)
	}

	manifest := make(map[string]manifestEntry)
	files := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		if f.Name == manifestName {
			r, err := f.Open()
			if err != nil {
				rc.Close()
				return fmt.Errorf("open manifest: %w", err)
			}
			err = json.NewDecoder(r).Decode(&manifest)
			r.Close()
			if err != nil {
				rc.Close()
				return fmt.Errorf("decode manifest: %w", err)
			}
			continue
		}
		files[f.Name] = f
	}

	index := make(map[string]*mediavault.ArchiveEntry, len(files))
	for name, f := range files {
		entry := &mediavault.ArchiveEntry{
			Filename:   name,
			Size:       int64(f.UncompressedSize64),
			CreatedAt:  f.Modified,
			ModifiedAt: f.Modified,
		}
		if m, ok := manifest[name]; ok {
			entry.Size = m.Size
			entry.Hash = m.Hash
			entry.CreatedAt = m.CreatedAt
			entry.ModifiedAt = m.ModifiedAt
		}
		index[name] = entry
	}

	s.rc = rc
	s.files = files
	s.index = index
	s.pending = make(map[string][]byte)
	s.dirty = false
	return nil
}

// Close releases the underlying zip reader. Staged, uncommitted changes are
// discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rc != nil {
		err := s.rc.Close()
		s.rc = nil
		return err
	}
	return nil
}

// Len returns the number of entries, including staged ones.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Entry returns the stored entry for a filename, if any.
func (s *Store) Entry(filename string) (*mediavault.ArchiveEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.index[filename]
	if !ok {
		return nil, false
	}
	e := *entry
	return &e, true
}

// Upsert stages a write or overwrite of the named entry. Re-inserting an
// entry with identical bytes and timestamps is a no-op, keeping repeated
// runs from rewriting an unchanged archive.
func (s *Store) Upsert(ctx context.Context, filename string, data []byte, createdAt, modifiedAt time.Time) error {
	if filename == "" || filename == manifestName {
		return mediavault.Errorf(mediavault.EINVALID, "invalid archive entry name %q", filename)
	}

	hash := fmt.Sprintf("%x", xxhash.Sum64(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.index[filename]; ok &&
		existing.Hash == hash && existing.Current(createdAt, modifiedAt) {
		return nil
	}

	s.index[filename] = &mediavault.ArchiveEntry{
		Filename:   filename,
		Size:       int64(len(data)),
		Hash:       hash,
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
	}
	s.pending[filename] = data
	s.dirty = true
	return nil
}

// PatchTimestamps stages a timestamp-only correction of an existing entry.
func (s *Store) PatchTimestamps(ctx context.Context, filename string, createdAt, modifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index[filename]
	if !ok {
		return mediavault.Errorf(mediavault.ENOTFOUND, "archive entry %q not found", filename)
	}
	if entry.Current(createdAt, modifiedAt) {
		return nil
	}
	entry.CreatedAt = createdAt
	entry.ModifiedAt = modifiedAt
	s.dirty = true
	return nil
}

// Commit rewrites the archive with all staged changes and reopens it. A
// clean store commits as a no-op. The rewrite goes to a temp file in the
// archive's directory and replaces the original with a rename, so a failed
// commit never corrupts previously committed state.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mediavault-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if s.rc != nil {
		if err := s.rc.Close(); err != nil {
			return fmt.Errorf("close old archive: %w", err)
		}
		s.rc = nil
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}

	return s.load()
}

// write streams the staged state to w: staged entries compressed fresh,
// unchanged entries copied raw, manifest last.
func (s *Store) write(w io.Writer) error {
	zw := zip.NewWriter(w)

	manifest := make(map[string]manifestEntry, len(s.index))
	for name, entry := range s.index {
		manifest[name] = manifestEntry{
			Size:       entry.Size,
			Hash:       entry.Hash,
			CreatedAt:  entry.CreatedAt,
			ModifiedAt: entry.ModifiedAt,
		}

		if data, ok := s.pending[name]; ok {
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name,
				Method:   zip.Deflate,
				Modified: entry.ModifiedAt,
			})
			if err != nil {
				return fmt.Errorf("create entry %q: %w", name, err)
			}
			if _, err := fw.Write(data); err != nil {
				return fmt.Errorf("write entry %q: %w", name, err)
			}
			continue
		}

		f, ok := s.files[name]
		if !ok {
			return mediavault.Errorf(mediavault.EINTERNAL, "archive entry %q has no content", name)
		}
		hdr := f.FileHeader
		hdr.Modified = entry.ModifiedAt
		fw, err := zw.CreateRaw(&hdr)
		if err != nil {
			return fmt.Errorf("copy entry %q: %w", name, err)
		}
		fr, err := f.OpenRaw()
		if err != nil {
			return fmt.Errorf("open entry %q: %w", name, err)
		}
		if _, err := io.Copy(fw, fr); err != nil {
			return fmt.Errorf("copy entry %q: %w", name, err)
		}
	}

	mw, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := json.NewEncoder(mw).Encode(manifest); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
