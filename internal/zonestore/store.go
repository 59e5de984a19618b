package zonestore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zeropenalty/riskzone/internal/model"
)

// Store owns the live zone snapshot. Reads are lock-free pointer loads;
// reloads go through a single writer lock and swap the snapshot atomically,
// so readers always see either the old or the new zone set in full.
type Store struct {
	source Source

	mu   sync.Mutex // serializes writers; readers never take it
	snap atomic.Pointer[model.Snapshot]
}

// New creates a Store backed by the given source. No snapshot is loaded
// until Load or Reload succeeds.
func New(source Source) *Store {
	return &Store{source: source}
}

// Current returns the latest successfully loaded snapshot, or nil if no load
// has ever succeeded. It never blocks on a reload in progress.
func (s *Store) Current() *model.Snapshot {
	return s.snap.Load()
}

// Load performs the initial snapshot load. It is equivalent to Reload and
// exists for readability at process start.
func (s *Store) Load(ctx context.Context) (int, error) {
	return s.Reload(ctx)
}

// Reload loads a fresh snapshot from the source and atomically replaces the
// live one on success. On failure the previous snapshot stays active and the
// source error is returned verbatim.
func (s *Store) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zones, err := s.source.Load(ctx)
	if err != nil {
		zap.L().Error("zonestore: reload failed, keeping previous snapshot",
			zap.String("source", s.source.Name()),
			zap.Error(err),
		)
		return 0, err
	}

	s.snap.Store(&model.Snapshot{
		Zones:    zones,
		Source:   s.source.Name(),
		LoadedAt: time.Now().UTC(),
	})

	zap.L().Info("zonestore: snapshot loaded",
		zap.String("source", s.source.Name()),
		zap.Int("zones", len(zones)),
	)
	return len(zones), nil
}
