package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type captureEnder struct {
	mu    sync.Mutex
	ended []string
	fail  map[string]bool
}

func (e *captureEnder) EndCall(_ context.Context, callSID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = append(e.ended, callSID)
	if e.fail[callSID] {
		return errors.New("already hung up")
	}
	return nil
}

func TestCascadeSparesExcept(t *testing.T) {
	idx := NewCallIndex()
	idx.Add(&CallRef{CallSID: "s1", BroadcastID: "E"})
	idx.Add(&CallRef{CallSID: "s2", BroadcastID: "E"})
	idx.Add(&CallRef{CallSID: "s3", BroadcastID: "E"})
	idx.Add(&CallRef{CallSID: "x1", BroadcastID: "other"})

	ender := &captureEnder{}
	c := &Cascade{Index: idx, Ender: ender}
	c.TerminateOthers("E", "s2")

	ender.mu.Lock()
	ended := make(map[string]bool, len(ender.ended))
	for _, sid := range ender.ended {
		ended[sid] = true
	}
	ender.mu.Unlock()

	if !ended["s1"] || !ended["s3"] {
		t.Errorf("ended = %v; want s1 and s3", ender.ended)
	}
	if ended["s2"] || ended["x1"] {
		t.Errorf("ended = %v; s2 and x1 must be untouched", ender.ended)
	}
	if _, ok := idx.Lookup("s2"); !ok {
		t.Error("s2 removed from index")
	}
	if _, ok := idx.Lookup("s1"); ok {
		t.Error("s1 still in index")
	}
	if idx.Len() != 2 {
		t.Errorf("index size = %d; want 2 (s2 and x1)", idx.Len())
	}
}

func TestCascadeContinuesPastFailures(t *testing.T) {
	idx := NewCallIndex()
	idx.Add(&CallRef{CallSID: "a", BroadcastID: "E"})
	idx.Add(&CallRef{CallSID: "b", BroadcastID: "E"})
	idx.Add(&CallRef{CallSID: "c", BroadcastID: "E"})

	ender := &captureEnder{fail: map[string]bool{"a": true, "b": true}}
	c := &Cascade{Index: idx, Ender: ender}
	c.TerminateOthers("E", "")

	ender.mu.Lock()
	n := len(ender.ended)
	ender.mu.Unlock()
	if n != 3 {
		t.Errorf("attempted %d hangups; want 3", n)
	}
	if idx.Len() != 0 {
		t.Errorf("index size = %d; want 0", idx.Len())
	}
}

func TestCascadeStopsRelayFirst(t *testing.T) {
	idx := NewCallIndex()
	var order []string
	var mu sync.Mutex
	idx.Add(&CallRef{CallSID: "a", BroadcastID: "E", Stop: func() {
		mu.Lock()
		order = append(order, "stop")
		mu.Unlock()
	}})

	ender := &captureEnder{}
	c := &Cascade{Index: idx, Ender: ender}
	c.TerminateOthers("E", "")

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 1 || order[0] != "stop" {
		t.Errorf("stop hook calls = %v; want one", order)
	}
}

func TestCascadeIdempotent(t *testing.T) {
	idx := NewCallIndex()
	idx.Add(&CallRef{CallSID: "a", BroadcastID: "E"})

	ender := &captureEnder{}
	c := &Cascade{Index: idx, Ender: ender}
	c.TerminateOthers("E", "")
	c.TerminateOthers("E", "")

	ender.mu.Lock()
	defer ender.mu.Unlock()
	if len(ender.ended) != 1 {
		t.Errorf("ended %d times; want 1", len(ender.ended))
	}
}

func TestCallIndexConcurrentAccess(t *testing.T) {
	idx := NewCallIndex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := string(rune('a' + i%26))
			idx.Add(&CallRef{CallSID: sid, BroadcastID: "E"})
			idx.Lookup(sid)
			idx.Remove(sid)
		}(i)
	}
	wg.Wait()
	if idx.Len() != 0 {
		t.Errorf("index size = %d; want 0", idx.Len())
	}
}
