// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"fmt"
	"sync"

	"github.com/riskpad/riskpad/internal/util"
	"github.com/riskpad/riskpad/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing and sessions that should not outlive the process.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string][]byte)}
}

func (r *Repository) Put(bucket, recordID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[bucket]; !ok {
		r.data[bucket] = make(map[string][]byte)
	}
	// Copy in so later caller mutations cannot reach the stored record.
	r.data[bucket][recordID] = util.CopyBytes(data)
	return nil
}

func (r *Repository) Get(bucket, recordID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[bucket]
	if !ok {
		return nil, fmt.Errorf("%s: %w", bucket, storage.ErrBucketNotFound)
	}
	data, ok := b[recordID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, recordID, storage.ErrNotFound)
	}
	return util.CopyBytes(data), nil
}

func (r *Repository) Delete(bucket, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[bucket]
	if !ok {
		return fmt.Errorf("%s: %w", bucket, storage.ErrBucketNotFound)
	}
	if _, ok := b[recordID]; !ok {
		return fmt.Errorf("%s/%s: %w", bucket, recordID, storage.ErrNotFound)
	}
	delete(b, recordID)
	return nil
}

func (r *Repository) List(bucket string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[bucket]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	return ids, nil
}
