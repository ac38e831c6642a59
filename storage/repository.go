// Package storage provides the persistence abstraction for client-side
// records, keyed by bucket and record ID.
package storage

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrBucketNotFound is returned when a bucket has never been written to.
var ErrBucketNotFound = errors.New("bucket not found")

// Repository defines the interface for durable record storage.
type Repository interface {
	Put(bucket string, recordID string, data []byte) error
	Get(bucket string, recordID string) ([]byte, error)
	Delete(bucket string, recordID string) error
	List(bucket string) ([]string, error)
}
