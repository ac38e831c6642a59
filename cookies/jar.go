// Package cookies manages the client-side auth cookie set: the server-set
// CSRF tokens and the encrypted bookkeeping cookies owned by this process.
package cookies

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/riskpad/riskpad/storage"
)

// Jar stores named cookies with an expiration instant. An expired cookie is
// indistinguishable from an absent one. Writes are best-effort, matching
// browser cookie semantics.
type Jar interface {
	// Get returns the cookie value, or false if absent or expired.
	Get(name string) (string, bool)
	// Set stores a cookie. A zero expires means session-scoped (no expiry).
	Set(name, value string, expires time.Time)
	// Delete removes a cookie. Deleting an absent cookie is a no-op.
	Delete(name string)
	// Names lists the stored cookie names, expired ones included.
	Names() []string
}

type cookieRecord struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

func (c cookieRecord) expired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// MemoryJar is an in-process Jar. The Now field may be overridden in tests.
type MemoryJar struct {
	mu   sync.Mutex
	data map[string]cookieRecord

	Now func() time.Time
}

var _ Jar = (*MemoryJar)(nil)

// NewMemoryJar creates an empty in-memory jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{
		data: make(map[string]cookieRecord),
		Now:  time.Now,
	}
}

func (j *MemoryJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.data[name]
	if !ok {
		return "", false
	}
	if rec.expired(j.Now()) {
		delete(j.data, name)
		return "", false
	}
	return rec.Value, true
}

func (j *MemoryJar) Set(name, value string, expires time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.data[name] = cookieRecord{Value: value, Expires: expires}
}

func (j *MemoryJar) Delete(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.data, name)
}

func (j *MemoryJar) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, 0, len(j.data))
	for name := range j.data {
		names = append(names, name)
	}
	return names
}

const jarBucket = "cookies"

// PersistentJar stores cookies in a storage.Repository so they survive
// process restarts, the way browser cookies survive page reloads.
type PersistentJar struct {
	repo storage.Repository
	now  func() time.Time
}

var _ Jar = (*PersistentJar)(nil)

// NewPersistentJar creates a jar backed by the given repository.
func NewPersistentJar(repo storage.Repository) *PersistentJar {
	return &PersistentJar{repo: repo, now: time.Now}
}

func (j *PersistentJar) Get(name string) (string, bool) {
	data, err := j.repo.Get(jarBucket, name)
	if err != nil {
		return "", false
	}
	var rec cookieRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt entry — remove it.
		_ = j.repo.Delete(jarBucket, name)
		return "", false
	}
	if rec.expired(j.now()) {
		_ = j.repo.Delete(jarBucket, name)
		return "", false
	}
	return rec.Value, true
}

func (j *PersistentJar) Set(name, value string, expires time.Time) {
	data, err := json.Marshal(cookieRecord{Value: value, Expires: expires})
	if err != nil {
		return
	}
	_ = j.repo.Put(jarBucket, name, data)
}

func (j *PersistentJar) Delete(name string) {
	_ = j.repo.Delete(jarBucket, name)
}

func (j *PersistentJar) Names() []string {
	names, err := j.repo.List(jarBucket)
	if err != nil {
		return nil
	}
	return names
}
