// file: jsbridge/snapshot/arena.go
package snapshot

import (
	"errors"
	"fmt"
	"sync"
)

var ErrBlobExists = errors.New("snapshot: blob already present")

// BlobID names a blob. IDs are stable across snapshot and restore.
type BlobID string

// Blob is one fixed byte sequence held by an image.
type Blob struct {
	ID   BlobID `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// Arena holds immutable blobs keyed by id in insertion order.
type Arena struct {
	mu    sync.RWMutex
	order []BlobID
	data  map[BlobID][]byte
}

func NewArena() *Arena {
	return &Arena{data: make(map[BlobID][]byte)}
}

// Put stores a copy of data under id. Each id can be set once.
func (a *Arena) Put(id BlobID, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.data[id]; ok {
		return fmt.Errorf("%w: %s", ErrBlobExists, id)
	}
	a.data[id] = append(make([]byte, 0, len(data)), data...)
	a.order = append(a.order, id)
	return nil
}

// Get returns a copy of the blob.
func (a *Arena) Get(id BlobID) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.data[id]
	if !ok {
		return nil, false
	}
	return append(make([]byte, 0, len(b)), b...), true
}

// IDs lists blob ids in insertion order.
func (a *Arena) IDs() []BlobID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]BlobID(nil), a.order...)
}

func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// Blobs copies the arena out in insertion order.
func (a *Arena) Blobs() []Blob {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Blob, 0, len(a.order))
	for _, id := range a.order {
		b := a.data[id]
		out = append(out, Blob{ID: id, Data: append(make([]byte, 0, len(b)), b...)})
	}
	return out
}
