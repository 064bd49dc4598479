package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Suraj127-git/genai-coach-backend/internal/auth"
)

type recordingHandle struct {
	mu   sync.Mutex
	msgs []any
	err  error
}

func (h *recordingHandle) Deliver(msg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *recordingHandle) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func TestRegistrySendDeliversToRegisteredHandle(t *testing.T) {
	reg := NewRegistry()
	h := &recordingHandle{}
	reg.Register("user-1", h)

	if err := reg.Send("user-1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if h.count() != 1 {
		t.Fatalf("delivered = %d, want 1", h.count())
	}
}

func TestRegistrySendUnknownIdentity(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Send("nobody", "hello"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send() error = %v, want ErrNotConnected", err)
	}
}

func TestRegistryRegisterReplacesPrevious(t *testing.T) {
	reg := NewRegistry()
	first := &recordingHandle{}
	second := &recordingHandle{}

	reg.Register("user-1", first)
	reg.Register("user-1", second)

	if err := reg.Send("user-1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if first.count() != 0 {
		t.Fatalf("replaced handle received %d messages, want 0", first.count())
	}
	if second.count() != 1 {
		t.Fatalf("active handle received %d messages, want 1", second.count())
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistryUnregisterIgnoresStaleHandle(t *testing.T) {
	reg := NewRegistry()
	stale := &recordingHandle{}
	active := &recordingHandle{}

	reg.Register("user-1", stale)
	reg.Register("user-1", active)

	// The stale connection unwinding must not evict its replacement.
	reg.Unregister("user-1", stale)

	if err := reg.Send("user-1", "still here"); err != nil {
		t.Fatalf("Send() after stale unregister error = %v", err)
	}
	if active.count() != 1 {
		t.Fatalf("active handle received %d messages, want 1", active.count())
	}
}

func TestRegistryUnregisterRemovesMatchingHandle(t *testing.T) {
	reg := NewRegistry()
	h := &recordingHandle{}

	reg.Register("user-1", h)
	reg.Unregister("user-1", h)

	if err := reg.Send("user-1", "gone"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send() after unregister error = %v, want ErrNotConnected", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", reg.Len())
	}

	// Repeating the unregister is a no-op.
	reg.Unregister("user-1", h)
}

func TestRegistrySendKeepsEntryOnDeliveryFailure(t *testing.T) {
	reg := NewRegistry()
	h := &recordingHandle{err: errors.New("queue full")}
	reg.Register("user-1", h)

	if err := reg.Send("user-1", "drop me"); err == nil {
		t.Fatalf("Send() error = nil, want delivery error")
	}
	// Failure must not unregister; only explicit disconnect does.
	h.mu.Lock()
	h.err = nil
	h.mu.Unlock()
	if err := reg.Send("user-1", "retry"); err != nil {
		t.Fatalf("Send() after transient failure error = %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := auth.Identity(fmt.Sprintf("user-%d", i))
			h := &recordingHandle{}
			reg.Register(id, h)
			_ = reg.Send(id, i)
			reg.Unregister(id, h)
		}(i)
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after all unregister", reg.Len())
	}
}
