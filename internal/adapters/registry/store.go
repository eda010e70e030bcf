// Package registry persists annotation records as a single JSON document on
// local disk. The whole document is rewritten atomically on every mutation,
// so a crash at any point leaves either the old registry or the new one.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/pkg/metrics"
)

// FileStore implements ports.AnnotationRepository on top of one JSON file.
// A single mutex serializes every read-modify-write cycle; the in-memory
// slice only advances after the new document has reached disk.
type FileStore struct {
	path string

	mu      sync.Mutex
	records []domain.AnnotationRecord
	index   map[string]int
}

// Open loads the registry document at path, creating parent directories as
// needed. A missing or empty file yields an empty registry.
func Open(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.RegistryError{Op: "open", Err: err}
	}

	s := &FileStore{path: path, records: []domain.AnnotationRecord{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run: the document appears on the first mutation.
	case err != nil:
		return nil, &domain.RegistryError{Op: "open", Err: err}
	case len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, &domain.RegistryError{Op: "open", Err: fmt.Errorf("parse %s: %w", path, err)}
		}
		if s.records == nil {
			s.records = []domain.AnnotationRecord{}
		}
	}

	s.replaceLocked(s.records)
	return s, nil
}

// Upsert inserts record, replacing any existing record with the same ID.
func (s *FileStore) Upsert(ctx context.Context, record *domain.AnnotationRecord) error {
	if err := ctx.Err(); err != nil {
		return &domain.RegistryError{Op: "upsert", Err: err}
	}
	if record == nil {
		return &domain.RegistryError{Op: "upsert", Err: errors.New("nil record")}
	}
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.records)
	rec := copyRecord(*record)
	if i, ok := s.index[rec.ID]; ok {
		next[i] = rec
	} else {
		next = append(next, rec)
	}

	if err := s.flushLocked(next); err != nil {
		return &domain.RegistryError{Op: "upsert", Err: err}
	}
	s.replaceLocked(next)
	return nil
}

// Get returns a copy of the record with the given ID, or
// domain.ErrRecordNotFound.
func (s *FileStore) Get(ctx context.Context, id string) (*domain.AnnotationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RegistryError{Op: "get", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrRecordNotFound)
	}
	rec := copyRecord(s.records[i])
	return &rec, nil
}

// List returns copies of every record in insertion order.
func (s *FileStore) List(ctx context.Context) ([]domain.AnnotationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RegistryError{Op: "list", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AnnotationRecord, len(s.records))
	for i, r := range s.records {
		out[i] = copyRecord(r)
	}
	return out, nil
}

// UpdateFields patches the category and/or visible fields of a record. Nil
// pointers leave the corresponding field untouched.
func (s *FileStore) UpdateFields(ctx context.Context, id string, category *string, visible *bool) error {
	if err := ctx.Err(); err != nil {
		return &domain.RegistryError{Op: "update", Err: err}
	}
	if category == nil && visible == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, domain.ErrRecordNotFound)
	}

	next := slices.Clone(s.records)
	rec := copyRecord(next[i])
	if category != nil {
		rec.Category = *category
	}
	if visible != nil {
		rec.Visible = *visible
	}
	next[i] = rec

	if err := s.flushLocked(next); err != nil {
		return &domain.RegistryError{Op: "update", Err: err}
	}
	s.replaceLocked(next)
	return nil
}

// Delete removes the record with the given ID.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return &domain.RegistryError{Op: "delete", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, domain.ErrRecordNotFound)
	}

	next := slices.Delete(slices.Clone(s.records), i, i+1)

	if err := s.flushLocked(next); err != nil {
		return &domain.RegistryError{Op: "delete", Err: err}
	}
	s.replaceLocked(next)
	return nil
}

// flushLocked writes next to disk. The caller holds s.mu.
func (s *FileStore) flushLocked(next []domain.AnnotationRecord) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}

// replaceLocked installs next as the current in-memory state. The caller
// holds s.mu (or is the constructor).
func (s *FileStore) replaceLocked(next []domain.AnnotationRecord) {
	s.records = next
	s.index = make(map[string]int, len(next))
	for i, r := range next {
		s.index[r.ID] = i
	}
	metrics.RegistryRecords.Set(float64(len(next)))
}

// copyRecord returns a copy that shares no slice memory with r.
func copyRecord(r domain.AnnotationRecord) domain.AnnotationRecord {
	r.Polygon = slices.Clone(r.Polygon)
	r.PixelsTopLeft = slices.Clone(r.PixelsTopLeft)
	r.PixelsBottomLeft = slices.Clone(r.PixelsBottomLeft)
	return r
}
