package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CallEnder asks the telephony collaborator to end a call. Implemented by
// telephony dialers.
type CallEnder interface {
	EndCall(ctx context.Context, callSID string) error
}

// CallRef is one live call tracked in the index.
type CallRef struct {
	CallSID     string
	BroadcastID string
	HospitalID  int64

	// Stop, when set, tears down the call's relay locally (cancels its
	// pipeline and marks the session inactive). Invoked by the cascade
	// before the remote hangup is requested.
	Stop func()
}

// CallIndex tracks all live calls across every broadcast. It supports
// concurrent insert, remove, and iteration; the cascade uses it to find the
// calls to terminate.
type CallIndex struct {
	mu    sync.Mutex
	calls map[string]*CallRef
}

// NewCallIndex creates an empty index.
func NewCallIndex() *CallIndex {
	return &CallIndex{calls: make(map[string]*CallRef)}
}

// Add registers a live call, replacing any previous entry with the same SID.
func (x *CallIndex) Add(ref *CallRef) {
	if ref == nil || ref.CallSID == "" {
		return
	}
	x.mu.Lock()
	x.calls[ref.CallSID] = ref
	x.mu.Unlock()
}

// Remove drops a call and reports whether it was present. Removing an
// already-removed call is a no-op.
func (x *CallIndex) Remove(callSID string) bool {
	x.mu.Lock()
	_, ok := x.calls[callSID]
	delete(x.calls, callSID)
	x.mu.Unlock()
	return ok
}

// Lookup returns the tracked call, or false.
func (x *CallIndex) Lookup(callSID string) (*CallRef, bool) {
	x.mu.Lock()
	ref, ok := x.calls[callSID]
	x.mu.Unlock()
	return ref, ok
}

// Len returns the number of tracked calls.
func (x *CallIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.calls)
}

// byBroadcast snapshots the calls belonging to one broadcast.
func (x *CallIndex) byBroadcast(broadcastID string) []*CallRef {
	x.mu.Lock()
	defer x.mu.Unlock()
	var refs []*CallRef
	for _, ref := range x.calls {
		if ref.BroadcastID == broadcastID {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Cascade terminates the remaining live calls of a broadcast once one
// hospital has accepted. Each termination is independent: a failure to end
// one call is logged and the pass continues.
type Cascade struct {
	Index *CallIndex
	Ender CallEnder
	// Log receives termination diagnostics. Defaults to slog.Default().
	Log *slog.Logger
	// EndTimeout bounds each hangup request. Defaults to 10s.
	EndTimeout time.Duration
}

// TerminateOthers ends every live call of the broadcast except
// exceptCallSID. The hangup is fire-and-request: the cascade does not wait
// for confirmation that the remote call actually ended.
func (c *Cascade) TerminateOthers(broadcastID, exceptCallSID string) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	timeout := c.EndTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	for _, ref := range c.Index.byBroadcast(broadcastID) {
		if ref.CallSID == exceptCallSID {
			continue
		}
		// Claim the call first so a concurrent cascade pass or a relay
		// exiting on its own cannot double-terminate.
		if !c.Index.Remove(ref.CallSID) {
			continue
		}
		if ref.Stop != nil {
			ref.Stop()
		}
		if c.Ender == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := c.Ender.EndCall(ctx, ref.CallSID); err != nil {
			log.Warn("failed to end call", "call_sid", ref.CallSID, "broadcast_id", broadcastID, "err", err)
		} else {
			log.Info("call terminated", "call_sid", ref.CallSID, "broadcast_id", broadcastID)
		}
		cancel()
	}
}
