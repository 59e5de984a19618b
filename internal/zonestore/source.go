// Package zonestore owns the static zone database: loading it from a
// source-of-truth document or store, holding a hot-swappable in-memory
// snapshot, and matching coordinates against it.
package zonestore

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/zeropenalty/riskzone/internal/model"
)

// Sentinel errors for snapshot loading.
var (
	// ErrNotFound means the snapshot source does not exist.
	ErrNotFound = eris.New("zonestore: source not found")
	// ErrInvalidFormat means the source exists but is not a valid zone database.
	ErrInvalidFormat = eris.New("zonestore: invalid snapshot format")
)

// Source loads the full zone list from a backing document or store.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.Zone, error)
}

// zonesDocument is the on-disk snapshot shape. The pointer distinguishes a
// missing zones key from an empty list.
type zonesDocument struct {
	Zones *[]model.Zone `json:"zones"`
}

// FileSource loads zones from a JSON document with a top-level zones array.
type FileSource struct {
	Path string
}

// NewFileSource creates a Source reading the given JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file:" + s.Path }

// Load implements Source. It fails with ErrNotFound when the file is absent
// and ErrInvalidFormat when the document cannot be parsed, lacks a top-level
// zones array, or a record fails validation.
func (s *FileSource) Load(_ context.Context) ([]model.Zone, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "%s", s.Path)
		}
		return nil, eris.Wrapf(err, "zonestore: read %s", s.Path)
	}

	var doc zonesDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(ErrInvalidFormat, "parse %s: %v", s.Path, err)
	}
	if doc.Zones == nil {
		return nil, eris.Wrapf(ErrInvalidFormat, "%s: missing top-level zones array", s.Path)
	}

	zones := *doc.Zones
	for i := range zones {
		if err := zones[i].Validate(); err != nil {
			return nil, eris.Wrapf(ErrInvalidFormat, "%s: %v", s.Path, err)
		}
	}
	return zones, nil
}
