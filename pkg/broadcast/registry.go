// Package broadcast tracks emergency dispatch broadcasts: the per-hospital
// outcomes of one fan-out, the arbitration of concurrent accept/reject
// decisions, the exactly-once result notification, and the termination
// cascade over the remaining live calls once a hospital accepts.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DecideResult signals what the arbitrator did with a decision.
type DecideResult int

const (
	// DecideRecorded means the outcome was recorded as terminal.
	DecideRecorded DecideResult = iota
	// DecideAlreadyProcessed means the broadcast was unknown or finalized,
	// or the hospital's outcome was already terminal. No visible state
	// change was made beyond audit bookkeeping.
	DecideAlreadyProcessed
)

// Terminator ends the other live calls of a broadcast after an acceptance.
// Implemented by Cascade.
type Terminator interface {
	TerminateOthers(broadcastID, exceptCallSID string)
}

// state is one in-flight broadcast. Its mutex serializes every mutation of
// results and the finalized flag; broadcasts never share a lock.
type state struct {
	mu        sync.Mutex
	id        string
	request   Request
	order     []int64
	results   map[int64]Outcome
	finalized bool
}

// Registry is the process-wide store of in-flight broadcasts. It is the only
// owner of Broadcast records: all mutation goes through its methods, and
// mutations for the same broadcast are linearizable.
type Registry struct {
	notifier   Notifier
	terminator Terminator
	log        *slog.Logger

	notifyTimeout time.Duration

	mu   sync.RWMutex
	byID map[string]*state
}

// NewRegistry creates an empty registry. notifier and terminator may be nil,
// in which case finalization and cascades log and do nothing.
func NewRegistry(notifier Notifier, terminator Terminator, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		notifier:      notifier,
		terminator:    terminator,
		log:           log,
		notifyTimeout: 5 * time.Second,
		byID:          make(map[string]*state),
	}
}

// Create allocates a new broadcast with every hospital in the calling state
// and returns its id. Ids are generated, never supplied, so they cannot
// collide.
func (r *Registry) Create(req Request) string {
	st := &state{
		id:      uuid.NewString(),
		request: req,
		order:   make([]int64, 0, len(req.Hospitals)),
		results: make(map[int64]Outcome, len(req.Hospitals)),
	}
	for _, h := range req.Hospitals {
		st.order = append(st.order, h.ID)
		st.results[h.ID] = Outcome{Status: StatusCalling}
	}
	r.mu.Lock()
	r.byID[st.id] = st
	r.mu.Unlock()
	r.log.Info("broadcast created", "broadcast_id", st.id, "hospitals", len(req.Hospitals))
	return st.id
}

// Get returns a snapshot of the broadcast, or false if the id is unknown.
func (r *Registry) Get(id string) (*Snapshot, bool) {
	st := r.lookup(id)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	snap := &Snapshot{
		ID:        st.id,
		Request:   st.request,
		Finalized: st.finalized,
		Results:   make(map[int64]Outcome, len(st.results)),
	}
	for k, v := range st.results {
		snap.Results[k] = v
	}
	return snap, true
}

// RecordFailure marks a hospital as failed because the outbound call could
// not be placed. Returns false if the broadcast or hospital is unknown.
// A failure counts as a terminal outcome for the all-responded check.
func (r *Registry) RecordFailure(id string, hospitalID int64, reason string) bool {
	res := r.Decide(id, hospitalID, "", StatusFailed, reason)
	return res == DecideRecorded
}

// Decide records a hospital's terminal outcome and drives finalization.
//
// The call is a no-op (DecideAlreadyProcessed) when the broadcast is unknown
// or finalized, or when the hospital's outcome is already terminal, so
// re-delivered webhooks and racing decision paths are harmless. A decision
// arriving after finalization is still written into results for audit when
// the hospital had no terminal outcome yet, but it never triggers a second
// notification or another cascade.
//
// On acceptance the other live calls of the broadcast are terminated,
// sparing callSID (the accepting call, when known). On any other terminal
// status, finalization fires once every hospital has a terminal outcome.
func (r *Registry) Decide(id string, hospitalID int64, callSID string, status Status, reason string) DecideResult {
	if !status.Terminal() {
		return DecideAlreadyProcessed
	}
	st := r.lookup(id)
	if st == nil {
		r.log.Debug("decision for unknown broadcast", "broadcast_id", id, "hospital_id", hospitalID)
		return DecideAlreadyProcessed
	}

	st.mu.Lock()
	cur, known := st.results[hospitalID]
	if !known {
		st.mu.Unlock()
		r.log.Debug("decision for unknown hospital", "broadcast_id", id, "hospital_id", hospitalID)
		return DecideAlreadyProcessed
	}
	if st.finalized {
		if !cur.Status.Terminal() {
			// Audit only: the call raced finalization before it was torn
			// down. No notification, no cascade.
			st.results[hospitalID] = Outcome{Status: status, Reason: reason}
		}
		st.mu.Unlock()
		r.log.Info("late decision ignored", "broadcast_id", id, "hospital_id", hospitalID, "status", status)
		return DecideAlreadyProcessed
	}
	if cur.Status.Terminal() {
		st.mu.Unlock()
		r.log.Info("duplicate decision ignored", "broadcast_id", id, "hospital_id", hospitalID, "status", status)
		return DecideAlreadyProcessed
	}
	st.results[hospitalID] = Outcome{Status: status, Reason: reason}
	allTerminal := true
	for _, h := range st.order {
		if !st.results[h].Status.Terminal() {
			allTerminal = false
			break
		}
	}
	st.mu.Unlock()

	r.log.Info("decision recorded", "broadcast_id", id, "hospital_id", hospitalID, "status", status, "reason", reason)

	switch {
	case status == StatusAccepted:
		go r.finalize(st)
		if r.terminator != nil {
			go r.terminator.TerminateOthers(id, callSID)
		}
	case allTerminal:
		go r.finalize(st)
	}
	return DecideRecorded
}

// finalize flips the finalized flag and delivers the aggregated result.
// The check-and-set happens here, under the broadcast's own lock, because an
// acceptance and a final rejection can schedule finalization concurrently;
// only the caller that flips the flag notifies.
func (r *Registry) finalize(st *state) {
	st.mu.Lock()
	if st.finalized {
		st.mu.Unlock()
		return
	}
	st.finalized = true
	result := &Result{
		BroadcastID: st.id,
		PatientID:   st.request.PatientID,
		Results:     make([]HospitalResult, 0, len(st.order)),
	}
	for _, h := range st.order {
		status := st.results[h].Status
		if !status.Terminal() {
			status = StatusNoAnswer
		}
		result.Results = append(result.Results, HospitalResult{HospitalID: h, Status: status})
	}
	callback := st.request.CallbackURL
	st.mu.Unlock()

	if r.notifier == nil {
		r.log.Warn("no notifier configured; dropping result", "broadcast_id", st.id)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.notifyTimeout)
	defer cancel()
	if err := r.notifier.Notify(ctx, callback, result); err != nil {
		// Single attempt: the broadcast stays finalized, no retry.
		r.log.Error("result notification failed", "broadcast_id", st.id, "err", err)
		return
	}
	r.log.Info("result notified", "broadcast_id", st.id, "hospitals", len(result.Results))
}

func (r *Registry) lookup(id string) *state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Remove drops a broadcast from the registry. Decisions that arrive for a
// removed broadcast are silent no-ops.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}
