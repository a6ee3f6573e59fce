// Package dispatch is the service layer: it accepts broadcast requests,
// places one call per hospital, serves the telephony webhooks, and bridges
// answered calls onto the configured handling variant.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voicebridge/dispatch/pkg/aisession"
	"github.com/voicebridge/dispatch/pkg/broadcast"
	"github.com/voicebridge/dispatch/pkg/mediastream"
	"github.com/voicebridge/dispatch/pkg/recording"
	"github.com/voicebridge/dispatch/pkg/relay"
	"github.com/voicebridge/dispatch/pkg/telephony"
)

// Server handles the HTTP surface.
type Server struct {
	cfg      *Config
	log      *slog.Logger
	registry *broadcast.Registry
	calls    *broadcast.CallIndex
	dialer   telephony.Dialer

	// opener is set for the ai variant.
	opener aisession.Opener

	// recordings is optional.
	recordings recording.Store

	upgrader websocket.Upgrader
}

// NewServer wires the HTTP surface. opener may be nil for the keypad
// variant; recordings may be nil to disable the audio archive.
func NewServer(cfg *Config, log *slog.Logger, registry *broadcast.Registry, calls *broadcast.CallIndex, dialer telephony.Dialer, opener aisession.Opener, recordings recording.Store) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		registry:   registry,
		calls:      calls,
		dialer:     dialer,
		opener:     opener,
		recordings: recordings,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /broadcast", s.handleBroadcast)
	mux.HandleFunc("POST /voice-twiml", s.handleVoiceTwiML)
	mux.HandleFunc("GET /media-stream", s.handleMediaStream)
	mux.HandleFunc("POST /keypad", s.handleKeypad)
	return mux
}

// handleBroadcast accepts a patient case and dials every listed hospital.
// Calls are placed in parallel; hospitals whose call could not be placed
// are recorded as failed before the response goes out.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcast.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Hospitals) == 0 {
		http.Error(w, "at least one hospital is required", http.StatusBadRequest)
		return
	}
	if req.CallbackURL == "" {
		http.Error(w, "callback_url is required", http.StatusBadRequest)
		return
	}

	id := s.registry.Create(req)
	s.log.Info("dialing hospitals", "broadcast_id", id, "hospitals", len(req.Hospitals))

	var wg sync.WaitGroup
	for _, h := range req.Hospitals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.placeCall(r, id, h)
		}()
	}
	wg.Wait()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":      "processing",
		"broadcastId": id,
	})
}

func (s *Server) placeCall(r *http.Request, broadcastID string, h broadcast.Hospital) {
	answerURL := fmt.Sprintf("https://%s/voice-twiml?broadcast_id=%s&hospital_id=%d",
		s.cfg.PublicHost, url.QueryEscape(broadcastID), h.ID)

	callSID, err := s.dialer.PlaceCall(r.Context(), h.Phone, answerURL)
	if err != nil {
		s.log.Error("call placement failed", "broadcast_id", broadcastID, "hospital_id", h.ID, "err", err)
		s.registry.RecordFailure(broadcastID, h.ID, err.Error())
		return
	}
	s.calls.Add(&broadcast.CallRef{
		CallSID:     callSID,
		BroadcastID: broadcastID,
		HospitalID:  h.ID,
	})
}

// handleVoiceTwiML answers the vendor's webhook when a hospital picks up.
func (s *Server) handleVoiceTwiML(w http.ResponseWriter, r *http.Request) {
	broadcastID := r.URL.Query().Get("broadcast_id")
	hospitalID := r.URL.Query().Get("hospital_id")

	snap, ok := s.registry.Get(broadcastID)
	if !ok || snap.Finalized {
		writeTwiML(w, mediastream.SayHangupTwiML("이미 상황이 종료되었습니다."))
		return
	}

	switch s.cfg.Variant {
	case VariantKeypad:
		action := fmt.Sprintf("/keypad?broadcast_id=%s&hospital_id=%s",
			url.QueryEscape(broadcastID), url.QueryEscape(hospitalID))
		writeTwiML(w, mediastream.GatherTwiML(action, keypadScript(&snap.Request)))
	default:
		wsURL := "wss://" + s.cfg.PublicHost + "/media-stream"
		writeTwiML(w, mediastream.ConnectStreamTwiML(wsURL, broadcastID, hospitalID))
	}
}

// handleMediaStream upgrades the vendor's duplex audio connection and runs
// the relay until the call ends.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("media stream upgrade failed", "err", err)
		return
	}
	rl := relay.New(relay.Config{
		Conn:       mediastream.NewConn(ws),
		Registry:   s.registry,
		Calls:      s.calls,
		Opener:     s.opener,
		Recordings: s.recordings,
		Log:        s.log,
	})
	if err := rl.Run(r.Context()); err != nil {
		s.log.Error("relay ended with error", "err", err)
	}
}

// handleKeypad processes the digit a hospital pressed.
func (s *Server) handleKeypad(w http.ResponseWriter, r *http.Request) {
	broadcastID := r.URL.Query().Get("broadcast_id")
	hospitalID, err := strconv.ParseInt(r.URL.Query().Get("hospital_id"), 10, 64)
	if err != nil {
		http.Error(w, "bad hospital_id", http.StatusBadRequest)
		return
	}
	digits := r.PostFormValue("Digits")
	callSID := r.PostFormValue("CallSid")

	snap, ok := s.registry.Get(broadcastID)
	if !ok || snap.Finalized {
		writeTwiML(w, mediastream.SayHangupTwiML("종료된 요청입니다."))
		return
	}

	var say string
	switch digits {
	case "1":
		s.registry.Decide(broadcastID, hospitalID, callSID, broadcast.StatusAccepted, "")
		say = "수용 확정되었습니다. 감사합니다."
	case "2":
		s.registry.Decide(broadcastID, hospitalID, callSID, broadcast.StatusRejected, "")
		say = "거절 처리되었습니다."
	default:
		s.log.Warn("unexpected digit", "broadcast_id", broadcastID, "hospital_id", hospitalID, "digits", digits)
	}
	s.log.Info("keypad decision", "broadcast_id", broadcastID, "hospital_id", hospitalID, "digits", digits)

	// The response ends with a hangup, so the call is done either way.
	if callSID != "" {
		s.calls.Remove(callSID)
	}
	writeTwiML(w, mediastream.SayHangupTwiML(say))
}

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, body)
}

// keypadScript builds the spoken menu for one patient case.
func keypadScript(req *broadcast.Request) string {
	sexKR := "여성"
	if req.Sex == "male" {
		sexKR = "남성"
	}
	return fmt.Sprintf(
		"응급 환자 발생. %s세 %s, 증상은 %s이며 케이티에이에스 %d등급입니다. "+
			"특이사항으로는 %s가 있습니다. "+
			"수용 가능하면 1번, 수용할 수 없으면 2번을 눌러주세요.",
		req.Age, sexKR, req.Symptom, req.Grade, req.Remarks,
	)
}
