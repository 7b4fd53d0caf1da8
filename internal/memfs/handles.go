package memfs

import (
	"sync"

	"swapfs/internal/vfs"
)

// HandleID is the identity of an open handle within one store.
type HandleID uint64

// openHandle is the per-handle state: the shared content it pins, the
// cursor, and the access mode it was opened with. cursorMu serializes
// cursor movement between concurrent reads, which only share the store
// read lock.
type openHandle struct {
	id       HandleID
	content  *content
	opts     vfs.OpenOptions
	cursorMu sync.Mutex
	cursor   int64
	dirty    bool
	closed   bool
}

// handleManager tracks the open handles of a store. Handle IDs start at 1
// and are never reused, so a stale ID can not alias a new handle. All
// methods require the store lock: handle lifetime and content refcounts
// change together with tree state, under the one critical section per
// operation.
type handleManager struct {
	handles map[HandleID]*openHandle
	next    HandleID
}

func newHandleManager() *handleManager {
	return &handleManager{
		handles: make(map[HandleID]*openHandle),
		next:    1,
	}
}

// allocate opens a handle on c, pinning its content.
func (hm *handleManager) allocate(c *content, opts vfs.OpenOptions) *openHandle {
	h := &openHandle{
		id:      hm.next,
		content: c,
		opts:    opts,
	}
	hm.next++
	hm.handles[h.id] = h
	c.retain()
	return h
}

// release closes a handle and unpins its content. The caller guards
// double close.
func (hm *handleManager) release(h *openHandle) {
	delete(hm.handles, h.id)
	h.content.release()
}

// openCount reports the number of live handles.
func (hm *handleManager) openCount() int {
	return len(hm.handles)
}
