package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (i memoryItem) expired() bool {
	return !i.expiresAt.IsZero() && time.Now().After(i.expiresAt)
}

// MemoryBackend keeps values in process memory and fans change notifications
// out to all watchers in the same process. Several store instances sharing
// one MemoryBackend model independent execution contexts over shared storage.
type MemoryBackend struct {
	mu       sync.RWMutex
	items    map[string]memoryItem
	watchers map[string]*broadcast.Memory[[]byte]
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items:    make(map[string]memoryItem),
		watchers: make(map[string]*broadcast.Memory[[]byte]),
	}
}

func (b *MemoryBackend) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	b.mu.Lock()
	b.items[key] = memoryItem{value: stored, expiresAt: expiresAt}
	watcher := b.watchers[key]
	b.mu.Unlock()

	if watcher != nil {
		watcher.Publish(stored)
	}
	return nil
}

func (b *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	item, ok := b.items[key]
	b.mu.RUnlock()

	if !ok || item.expired() {
		return nil, ErrNotFound
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	_, existed := b.items[key]
	delete(b.items, key)
	watcher := b.watchers[key]
	b.mu.Unlock()

	if existed && watcher != nil {
		watcher.Publish(nil)
	}
	return nil
}

// Watch returns a channel of raw values written under the key (nil on
// delete). The subscription ends when ctx is canceled.
func (b *MemoryBackend) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	b.mu.Lock()
	watcher, ok := b.watchers[key]
	if !ok {
		watcher = broadcast.NewMemory[[]byte](16)
		b.watchers[key] = watcher
	}
	b.mu.Unlock()

	return watcher.Subscribe(ctx).Receive(), nil
}

// Close shuts down all watcher fan-outs.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.watchers {
		_ = w.Close()
	}
	clear(b.watchers)
	return nil
}
