package sync2

import (
	"context"
	"sync/atomic"
)

// fakeHolder is the minimal Holder used by this package's own unit tests,
// standing in for internal/thread.Thread so sync2 can be tested without
// importing its only client (which in turn imports sync2).
type fakeHolder struct {
	id               uint64
	priority         int32
	originalPriority int32
}

func newFakeHolder(id uint64, priority int) *fakeHolder {
	return &fakeHolder{id: id, priority: int32(priority), originalPriority: int32(priority)}
}

func (h *fakeHolder) ID() uint64    { return h.id }
func (h *fakeHolder) Priority() int { return int(atomic.LoadInt32(&h.priority)) }

func (h *fakeHolder) Prioritize(p int) {
	if int32(p) > atomic.LoadInt32(&h.priority) {
		atomic.StoreInt32(&h.priority, int32(p))
	}
}

func (h *fakeHolder) RestoreOriginalPriority() {
	atomic.StoreInt32(&h.priority, h.originalPriority)
}

// ctxFor returns a context carrying h as the calling goroutine's identity.
func ctxFor(h Holder) context.Context {
	return WithHolder(context.Background(), h)
}


