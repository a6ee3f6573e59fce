// Package relay bridges one telephone call onto one live model session.
//
// Three goroutines cooperate per call: ingress reads media-stream events
// and feeds caller audio to the model, the conversation loop drives the
// model session and its tool calls, and egress writes model speech back to
// the stream. The relay ends when either side hangs up, when the call is
// terminated from outside, or when the session fails.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/voicebridge/dispatch/pkg/aisession"
	"github.com/voicebridge/dispatch/pkg/audio/transcode"
	"github.com/voicebridge/dispatch/pkg/broadcast"
	"github.com/voicebridge/dispatch/pkg/mediastream"
	"github.com/voicebridge/dispatch/pkg/recording"
)

// State is where a call is in its lifecycle. Transitions go one way:
// Idle, then Streaming once the start event arrives, then Terminated.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config wires one relay.
type Config struct {
	Conn     *mediastream.Conn
	Registry *broadcast.Registry
	Calls    *broadcast.CallIndex
	Opener   aisession.Opener

	// Recordings, when set, archives both call directions for audit.
	Recordings recording.Store

	Log *slog.Logger
}

// Relay runs one call.
type Relay struct {
	cfg Config
	log *slog.Logger

	state   atomic.Int32
	cancel  context.CancelFunc
	started chan struct{}

	// Set by ingress before started is closed.
	streamSID   string
	callSID     string
	broadcastID string
	hospitalID  int64

	inAudio  chan []byte // PCM toward the model
	outAudio chan []byte // μ-law toward the phone

	inRec  *recording.Recorder
	outRec *recording.Recorder
}

// New builds a relay for one upgraded media-stream connection.
func New(cfg Config) *Relay {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		cfg:     cfg,
		log:     log,
		started: make(chan struct{}),
		// Frame pacing is 20 ms; a second of headroom absorbs scheduling
		// hiccups without unbounded growth.
		inAudio:  make(chan []byte, 50),
		outAudio: make(chan []byte, 50),
	}
}

// Run drives the call until it ends. It always cleans up the call index
// entry, records a no-answer outcome when the call ended without a
// decision, and closes the connection.
func (r *Relay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	defer cancel()

	errs := make(chan error, 3)
	go func() { errs <- r.ingress(ctx) }()
	go func() { errs <- r.egress(ctx) }()
	go func() { errs <- r.conversation(ctx) }()

	var first error
	for range 3 {
		err := <-errs
		if err != nil && !errors.Is(err, context.Canceled) && first == nil {
			first = err
		}
		// First exit tears the rest down.
		cancel()
		r.cfg.Conn.Close()
	}

	r.teardown()
	return first
}

// ingress consumes media-stream events until the stream stops.
func (r *Relay) ingress(ctx context.Context) error {
	for {
		ev, err := r.cfg.Conn.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch ev.Event {
		case mediastream.EventStart:
			if err := r.handleStart(ev.Start); err != nil {
				return err
			}

		case mediastream.EventMedia:
			frame, err := ev.Audio()
			if err != nil {
				r.log.Warn("bad media frame", "err", err)
				continue
			}
			if r.inRec != nil {
				r.inRec.Append(frame)
			}
			// Drop frames when the model cannot keep up; realtime audio
			// must not back up into the websocket.
			select {
			case r.inAudio <- transcode.TelephonyToModel(frame):
			default:
			}

		case mediastream.EventStop:
			r.log.Info("stream stopped", "call_sid", r.callSID)
			return nil
		}
	}
}

func (r *Relay) handleStart(start *mediastream.StartPayload) error {
	if start == nil {
		return fmt.Errorf("relay: start event without payload")
	}
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateStreaming)) {
		r.log.Warn("duplicate start event", "stream_sid", start.StreamSID)
		return nil
	}
	broadcastID := start.CustomParameters[mediastream.ParamBroadcastID]
	hospitalRaw := start.CustomParameters[mediastream.ParamHospitalID]
	hospitalID, err := strconv.ParseInt(hospitalRaw, 10, 64)
	if broadcastID == "" || err != nil {
		return fmt.Errorf("relay: stream %s missing correlation parameters", start.StreamSID)
	}

	r.streamSID = start.StreamSID
	r.callSID = start.CallSID
	r.broadcastID = broadcastID
	r.hospitalID = hospitalID

	if r.cfg.Recordings != nil {
		r.inRec = recording.NewRecorder(r.cfg.Recordings, r.callSID+"-caller.wav")
		r.outRec = recording.NewRecorder(r.cfg.Recordings, r.callSID+"-agent.wav")
	}

	r.cfg.Calls.Add(&broadcast.CallRef{
		CallSID:     r.callSID,
		BroadcastID: r.broadcastID,
		HospitalID:  r.hospitalID,
		Stop:        r.cancel,
	})

	r.log.Info("stream started",
		"call_sid", r.callSID,
		"broadcast_id", r.broadcastID,
		"hospital_id", r.hospitalID)
	close(r.started)
	return nil
}

// egress writes model speech frames back to the phone.
func (r *Relay) egress(ctx context.Context) error {
	select {
	case <-r.started:
	case <-ctx.Done():
		return nil
	}
	for {
		select {
		case mulaw := <-r.outAudio:
			if err := r.cfg.Conn.WriteMedia(r.streamSID, mulaw); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// conversation opens the model session once the stream starts and runs it
// until the call ends.
func (r *Relay) conversation(ctx context.Context) error {
	select {
	case <-r.started:
	case <-ctx.Done():
		return nil
	}

	snap, ok := r.cfg.Registry.Get(r.broadcastID)
	if !ok {
		return fmt.Errorf("relay: unknown broadcast %s", r.broadcastID)
	}

	sess, err := r.cfg.Opener.Connect(ctx, systemPrompt)
	if err != nil {
		return fmt.Errorf("relay: open session: %w", err)
	}
	defer sess.Close()
	// Receive blocks on the wire; closing the session is the only way to
	// unblock it when the call ends.
	go func() {
		<-ctx.Done()
		sess.Close()
	}()

	if err := sess.SendText(ctx, briefing(&snap.Request)); err != nil {
		return fmt.Errorf("relay: send briefing: %w", err)
	}

	go r.pump(ctx, sess)

	for ev, err := range sess.Events() {
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ev.Interrupted {
			r.discardPending()
		}
		if len(ev.Audio) > 0 {
			mulaw := transcode.ModelToTelephony(ev.Audio)
			if r.outRec != nil {
				r.outRec.Append(mulaw)
			}
			select {
			case r.outAudio <- mulaw:
			case <-ctx.Done():
				return nil
			}
		}
		for _, call := range ev.ToolCalls {
			result := r.handleToolCall(call)
			if err := sess.SendToolResult(ctx, call, result); err != nil {
				r.log.Warn("send tool result", "err", err)
			}
		}
	}
	return nil
}

// pump forwards caller audio into the session.
func (r *Relay) pump(ctx context.Context, sess aisession.Session) {
	for {
		select {
		case pcm := <-r.inAudio:
			if err := sess.SendAudio(ctx, pcm); err != nil {
				if ctx.Err() == nil {
					r.log.Warn("send audio", "err", err)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) handleToolCall(call *aisession.ToolCall) string {
	d, err := aisession.ParseDecision(call)
	if err != nil {
		r.log.Warn("bad tool call", "tool", call.Name, "err", err)
		return "invalid_arguments"
	}

	status := broadcast.StatusRejected
	if d.Status == aisession.DecisionAccepted {
		status = broadcast.StatusAccepted
	}
	r.log.Info("decision received",
		"broadcast_id", r.broadcastID,
		"hospital_id", r.hospitalID,
		"status", status,
		"reason", d.Reason)

	if r.cfg.Registry.Decide(r.broadcastID, r.hospitalID, r.callSID, status, d.Reason) == broadcast.DecideAlreadyProcessed {
		return "already_processed"
	}
	return fmt.Sprintf("%s recorded", status)
}

// discardPending clears audio queued for playback after an interruption.
func (r *Relay) discardPending() {
	for {
		select {
		case <-r.outAudio:
		default:
			return
		}
	}
}

// State reports the call's lifecycle position.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// teardown runs after all loops exit.
func (r *Relay) teardown() {
	defer r.state.Store(int32(StateTerminated))
	select {
	case <-r.started:
	default:
		// Stream never started; nothing registered.
		return
	}

	r.cfg.Calls.Remove(r.callSID)

	// A call that ended without a decision counts as no answer. Decide
	// ignores this when an outcome already exists.
	r.cfg.Registry.Decide(r.broadcastID, r.hospitalID, "", broadcast.StatusNoAnswer, "call_ended_without_decision")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, rec := range []*recording.Recorder{r.inRec, r.outRec} {
		if rec == nil {
			continue
		}
		if err := rec.Close(ctx); err != nil {
			r.log.Error("save recording", "call_sid", r.callSID, "err", err)
		}
	}
}
