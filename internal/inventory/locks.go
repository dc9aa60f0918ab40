package inventory

import (
	"sort"
	"sync"
)

// productLocks serializes mutations per product. Operations on different
// products proceed in parallel; multi-product acquisition is ordered by
// product id so two bookings can never deadlock each other.
type productLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[int64]*sync.Mutex)}
}

func (pl *productLocks) get(productID int64) *sync.Mutex {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	l, ok := pl.locks[productID]
	if !ok {
		l = &sync.Mutex{}
		pl.locks[productID] = l
	}
	return l
}

// lockAll acquires the locks for every listed product in ascending id
// order and returns the unlock function.
func (pl *productLocks) lockAll(productIDs []int64) func() {
	ids := make([]int64, 0, len(productIDs))
	seen := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		l := pl.get(id)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
