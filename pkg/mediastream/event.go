// Package mediastream implements the telephony media-stream wire protocol:
// a websocket carrying JSON events with base64-encoded μ-law audio frames,
// plus the voice-response markup that connects a call to the stream.
//
// The protocol is a sequence of events per call: one start event carrying
// the stream handle and correlation parameters, any number of media events
// in both directions, and a stop event.
package mediastream

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Event kinds on the stream.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventMark      = "mark"
)

// Event is one message on the media stream, inbound or outbound.
type Event struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid,omitempty"`

	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	Stop  *StopPayload  `json:"stop,omitempty"`
}

// StartPayload announces a new stream and carries the correlation
// parameters configured on the <Stream> markup.
type StartPayload struct {
	StreamSID        string            `json:"streamSid"`
	AccountSID       string            `json:"accountSid,omitempty"`
	CallSID          string            `json:"callSid"`
	Tracks           []string          `json:"tracks,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
	MediaFormat      *MediaFormat      `json:"mediaFormat,omitempty"`
}

// MediaFormat describes the audio carried by media events.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one base64-encoded μ-law audio frame.
type MediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// StopPayload closes a stream.
type StopPayload struct {
	AccountSID string `json:"accountSid,omitempty"`
	CallSID    string `json:"callSid,omitempty"`
}

// ParseEvent decodes one wire message.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("mediastream: parse event: %w", err)
	}
	return &ev, nil
}

// Audio decodes the μ-law frame of a media event.
func (e *Event) Audio() ([]byte, error) {
	if e.Media == nil {
		return nil, fmt.Errorf("mediastream: %s event has no media payload", e.Event)
	}
	frame, err := base64.StdEncoding.DecodeString(e.Media.Payload)
	if err != nil {
		return nil, fmt.Errorf("mediastream: decode media payload: %w", err)
	}
	return frame, nil
}

// NewMediaEvent builds an outbound media event addressed to a stream.
func NewMediaEvent(streamSID string, mulaw []byte) *Event {
	return &Event{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media: &MediaPayload{
			Payload: base64.StdEncoding.EncodeToString(mulaw),
		},
	}
}
