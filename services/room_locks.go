package services

import (
	"sort"
	"sync"
)

// roomLocks hands out one mutex per room so the conflict check and the write
// that follows it cannot interleave with another writer for the same room.
// Entries are reference counted and dropped when unused.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// lock acquires every listed room in a stable order and returns the release func.
func (l *roomLocks) lock(roomIDs ...string) func() {
	ids := uniqueSorted(roomIDs)
	held := make([]*roomLock, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		rl, ok := l.locks[id]
		if !ok {
			rl = &roomLock{}
			l.locks[id] = rl
		}
		rl.refs++
		l.mu.Unlock()

		rl.mu.Lock()
		held = append(held, rl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, id := range ids {
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, id)
			}
		}
		l.mu.Unlock()
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
