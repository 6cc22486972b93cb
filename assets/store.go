// Package assets abstracts the external image host the storefront stores
// product and review images on.
package assets

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Image is a stored object reference: the ID needed to delete it later and
// the URL clients load it from.
type Image struct {
	StorageID string
	URL       string
}

// ErrNotFound is returned when a storage ID does not exist.
var ErrNotFound = errors.New("asset not found")

// Store is the put/delete surface of the asset host.
type Store interface {
	Put(data []byte, folder string) (Image, error)
	Delete(storageID string) error
}

// Memory is an in-process Store used in tests and local development.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (m *Memory) Put(data []byte, folder string) (Image, error) {
	id := folder + "/" + uuid.NewString()
	m.mu.Lock()
	m.objects[id] = data
	m.mu.Unlock()
	return Image{StorageID: id, URL: m.baseURL + "/" + id}, nil
}

// Delete is idempotent; removing an absent object is not an error.
func (m *Memory) Delete(storageID string) error {
	m.mu.Lock()
	delete(m.objects, storageID)
	m.mu.Unlock()
	return nil
}

// Has reports whether an object is stored; used by tests.
func (m *Memory) Has(storageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[storageID]
	return ok
}

// Len returns the number of stored objects; used by tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
