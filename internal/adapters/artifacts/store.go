// Package artifacts stores capture outputs on local disk: the stitched
// raster as {id}_z{zoom}.png and the sidecar document as {id}.json, both
// under a single captures directory.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samirrijal/annotile/internal/core/domain"
)

// Store implements ports.ArtifactStore.
type Store struct {
	dir string
}

// New creates the captures directory if needed and returns a Store rooted
// there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create captures dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ImagePath returns the path the raster for (id, zoom) is stored at.
func (s *Store) ImagePath(id string, zoom int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_z%d.png", id, zoom))
}

// SidecarPath returns the path the sidecar document for id is stored at.
func (s *Store) SidecarPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// WriteImage encodes img as PNG. A partially written file is removed on
// error.
func (s *Store) WriteImage(ctx context.Context, id string, zoom int, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.ImagePath(id, zoom)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// WriteSidecar marshals doc next to the raster.
func (s *Store) WriteSidecar(ctx context.Context, id string, doc *domain.Sidecar) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sidecar: %w", err)
	}

	path := s.SidecarPath(id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// UpdateSidecarCategory rewrites the category field of an existing sidecar.
func (s *Store) UpdateSidecarCategory(ctx context.Context, id, category string) error {
	path := s.SidecarPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc domain.Sidecar
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Category = category

	out, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Remove deletes every artifact belonging to id. Missing files are not an
// error, so Remove is safe to call after a partial capture.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := os.Remove(s.SidecarPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove sidecar: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read captures dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, id+"_z") || !strings.HasSuffix(name, ".png") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove raster: %w", err)
		}
	}
	return nil
}

// ListIDs returns the distinct annotation IDs that have at least one
// artifact on disk.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read captures dir: %w", err)
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := idFromArtifact(e.Name())
		if !ok {
			continue
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// idFromArtifact recovers the annotation ID from an artifact filename.
// Raster names embed the zoom level, so the split has to find the last
// "_z<digits>" run rather than the last underscore: IDs themselves may
// contain "_z".
func idFromArtifact(name string) (string, bool) {
	if id, ok := strings.CutSuffix(name, ".json"); ok {
		return id, id != ""
	}

	base, ok := strings.CutSuffix(name, ".png")
	if !ok {
		return "", false
	}
	i := strings.LastIndex(base, "_z")
	if i <= 0 {
		return "", false
	}
	suffix := base[i+2:]
	if suffix == "" {
		return "", false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return base[:i], true
}
