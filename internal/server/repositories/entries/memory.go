package entries

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// memorySlot holds one stored entry together with its own lock, so mutations
// serialize per address without a store-wide lock.
type memorySlot struct {
	mu    sync.Mutex
	entry keydir.Entry
}

// MemoryRepository is an in-memory entry store used in tests and for running
// the server without external storage. Create wins or loses atomically via
// sync.Map's LoadOrStore; Mutate locks only the target slot.
type MemoryRepository struct {
	slots sync.Map // address bytes -> *memorySlot
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Exists(ctx context.Context, addr keydir.Address) (bool, error) {
	_, ok := r.slots.Load(addr)
	return ok, nil
}

func (r *MemoryRepository) Get(ctx context.Context, addr keydir.Address) (*keydir.Entry, error) {
	v, ok := r.slots.Load(addr)
	if !ok {
		return nil, common.ErrorNotFound
	}
	slot := v.(*memorySlot)
	slot.mu.Lock()
	entry := slot.entry
	slot.mu.Unlock()
	return &entry, nil
}

func (r *MemoryRepository) Create(ctx context.Context, addr keydir.Address, entry *keydir.Entry) error {
	slot := &memorySlot{entry: *entry}
	if _, loaded := r.slots.LoadOrStore(addr, slot); loaded {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *MemoryRepository) Mutate(ctx context.Context, addr keydir.Address, f func(*keydir.Entry) error) error {
	v, ok := r.slots.Load(addr)
	if !ok {
		return common.ErrorNotFound
	}
	slot := v.(*memorySlot)

	slot.mu.Lock()
	defer slot.mu.Unlock()

	// f works on a copy so a failed transformation leaves the slot untouched.
	candidate := slot.entry
	if err := f(&candidate); err != nil {
		return err
	}
	slot.entry = candidate
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*keydir.Entry, error) {
	var result []*keydir.Entry
	r.slots.Range(func(_, v any) bool {
		slot := v.(*memorySlot)
		slot.mu.Lock()
		entry := slot.entry
		slot.mu.Unlock()
		result = append(result, &entry)
		return true
	})
	return result, nil
}
