package store

import (
	"context"
	"sync"
	"time"

	"idverify/internal/document/models"
	"idverify/pkg/platform/secrets"
	"idverify/pkg/platform/sentinel"
)

// InMemoryStore keeps sealed records in a map. Suitable for a single
// instance and for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*sealedRecord
	codec   codec
}

func NewInMemoryStore(sealer *secrets.Sealer) *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*sealedRecord),
		codec:   codec{sealer: sealer},
	}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.VerificationRecord) error {
	sealed, err := s.codec.seal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.RequestID] = sealed
	return nil
}

// FindByRequestID returns sentinel.ErrNotFound for unknown IDs and
// sentinel.ErrExpired once the record is past its expiry at now.
func (s *InMemoryStore) FindByRequestID(_ context.Context, requestID string, now time.Time) (*models.VerificationRecord, error) {
	s.mu.RLock()
	sealed, ok := s.records[requestID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !now.Before(sealed.ExpiresAt) {
		return nil, sentinel.ErrExpired
	}
	return s.codec.open(sealed)
}

func (s *InMemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, r := range s.records {
		if !now.Before(r.ExpiresAt) {
			delete(s.records, id)
			purged++
		}
	}
	return purged, nil
}

func (s *InMemoryStore) Delete(_ context.Context, requestIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range requestIDs {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}
