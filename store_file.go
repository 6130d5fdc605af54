package cryptofolio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// FileStore persists a ledger in a JSONL file. Writes are appended, so the
// file is an append-only log: corrections are stored as `correct` lines
// rather than by rewriting the line they fix.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the file at path. The file is created
// on the first write.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Path returns the location of the ledger file.
func (s *FileStore) Path() string { return s.path }

// Load decodes the ledger file and returns a ledger that appends its future
// writes to it. A missing file yields an empty ledger.
func (s *FileStore) Load(opts ...Option) (*Ledger, error) {
	l, err := s.decode(opts...)
	if err != nil {
		return nil, err
	}
	l.store = s
	return l, nil
}

func (s *FileStore) decode(opts ...Option) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewLedger(opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger file: %w", err)
	}
	defer f.Close()
	l, err := DecodeLedger(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger file %q: %w", s.path, err)
	}
	return l, nil
}

func (s *FileStore) appendLine(encode func(w io.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open ledger file for writing: %w", err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) Insert(tx Transaction) error {
	return s.appendLine(func(w io.Writer) error { return EncodeTransaction(w, tx) })
}

func (s *FileStore) DeclareAsset(a Asset) error {
	return s.appendLine(func(w io.Writer) error { return EncodeAsset(w, a) })
}

func (s *FileStore) Correct(rec CorrectionRecord) error {
	return s.appendLine(func(w io.Writer) error { return EncodeCorrection(w, rec) })
}

// Update records a correction without a reason.
func (s *FileStore) Update(id TransactionID, tx Transaction) error {
	tx.ID = id
	return s.Correct(CorrectionRecord{At: time.Now(), After: tx})
}

// Query decodes the file and returns the transactions with their corrections
// applied.
func (s *FileStore) Query(asset string) ([]Transaction, error) {
	l, err := s.decode()
	if err != nil {
		return nil, err
	}
	if asset == "" {
		return l.All(), nil
	}
	return l.ListByAsset(asset), nil
}

func (s *FileStore) Assets() ([]Asset, error) {
	l, err := s.decode()
	if err != nil {
		return nil, err
	}
	return l.Assets(), nil
}
