// Package snapshots keeps the history of portfolio snapshots in a
// write-ahead log and turns it into chartable series.
package snapshots

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/etnz/cryptofolio"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	segmentLimit = 1000
	maxSegments  = 100
	keyPrefix    = "portfolio_snapshot_"
)

// Record is a snapshot with its position in the log.
type Record struct {
	Index    uint64
	Snapshot cryptofolio.PortfolioSnapshot
}

// WALStore persists portfolio snapshots in a WAL. Snapshots are only ever
// appended.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens, or creates, a snapshot log in dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create snapshot directory")
	}
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init portfolio snapshot WAL")
	}
	return &WALStore{wal: wal}, nil
}

// Append writes a snapshot and returns its index.
func (s *WALStore) Append(snap cryptofolio.PortfolioSnapshot) (uint64, error) {
	if snap.ID == "" {
		return 0, errors.New("portfolio snapshot id is required")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, errors.Wrap(err, "marshal portfolio snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(index, keyPrefix+snap.ID, payload); err != nil {
		return 0, errors.Wrap(err, "write portfolio snapshot")
	}
	return index, nil
}

// After returns the snapshots written after index, oldest first.
func (s *WALStore) After(index uint64) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}
	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var snap cryptofolio.PortfolioSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, errors.Wrapf(err, "decode portfolio snapshot %d", idx)
		}
		records = append(records, Record{Index: idx, Snapshot: snap})
	}
	return records, nil
}

// All returns every snapshot, oldest first.
func (s *WALStore) All() ([]Record, error) { return s.After(0) }

// Latest returns the last snapshot written.
func (s *WALStore) Latest() (Record, bool, error) {
	records, err := s.After(0)
	if err != nil || len(records) == 0 {
		return Record{}, false, err
	}
	return records[len(records)-1], true, nil
}

// CurrentIndex returns the latest index stored.
func (s *WALStore) CurrentIndex() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.wal.Close(), "close portfolio snapshot WAL")
}
