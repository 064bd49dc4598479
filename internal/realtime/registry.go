package realtime

import (
	"errors"
	"hash/fnv"
	"sync"

	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
)

// ErrNotConnected is returned by Send when no connection is registered for
// the identity.
var ErrNotConnected = errors.New("identity not connected")

// Handle is a live transport endpoint that can accept a directed message.
// Deliver must not block on the network; implementations queue.
type Handle interface {
	Deliver(msg any) error
}

const registryShards = 32

type registryShard struct {
	mu    sync.RWMutex
	conns map[auth.Identity]Handle
}

// Registry is the process-wide map from authenticated identity to its single
// active connection. Lookups and mutations for different identities never
// contend on a common lock; each identity hashes to one of a fixed set of
// shards.
type Registry struct {
	shards [registryShards]registryShard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].conns = make(map[auth.Identity]Handle)
	}
	return r
}

func (r *Registry) shard(id auth.Identity) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%registryShards]
}

// Register inserts or replaces the entry for identity. A replaced handle is
// not closed here; its transport owns that. It simply stops being reachable
// for directed sends (last-writer-wins on duplicate logins).
func (r *Registry) Register(id auth.Identity, h Handle) {
	sh := r.shard(id)
	sh.mu.Lock()
	sh.conns[id] = h
	sh.mu.Unlock()
}

// Unregister removes the entry for identity, but only while it still maps to
// h: a stale connection unwinding after being replaced must not evict its
// replacement. Absent identities and mismatched handles are no-ops.
func (r *Registry) Unregister(id auth.Identity, h Handle) {
	sh := r.shard(id)
	sh.mu.Lock()
	if sh.conns[id] == h {
		delete(sh.conns, id)
	}
	sh.mu.Unlock()
}

// Send delivers msg to the identity's registered connection. Delivery
// failure is reported to the caller and never unregisters the entry;
// unregistration only happens on explicit disconnect.
func (r *Registry) Send(id auth.Identity, msg any) error {
	sh := r.shard(id)
	sh.mu.RLock()
	h, ok := sh.conns[id]
	sh.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	// Deliver outside the shard lock so a slow consumer cannot stall
	// unrelated identities on the same shard.
	return h.Deliver(msg)
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		n += len(r.shards[i].conns)
		r.shards[i].mu.RUnlock()
	}
	return n
}
