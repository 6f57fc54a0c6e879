package relay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EventType tags the recognized inbound stream events.
type EventType string

const (
	EventStart EventType = "start"
	EventMedia EventType = "media"
	EventStop  EventType = "stop"
	EventOther EventType = "other"
)

// streamEnvelope mirrors the wire shape of inbound stream frames.
type streamEnvelope struct {
	Event string `json:"event"`
	Media struct {
		Payload string `json:"payload"` // base64 audio
	} `json:"media"`
	Start struct {
		CallSid   string `json:"callSid"`
		StreamSid string `json:"streamSid"`
	} `json:"start"`
}

// StreamEvent is a validated inbound frame. Audio is populated only for
// media events, already base64-decoded.
type StreamEvent struct {
	Type      EventType
	Audio     []byte
	CallSid   string
	StreamSid string
	// RawEvent preserves the wire tag for unrecognized events.
	RawEvent string
}

// ParseStreamEvent validates a raw inbound frame at the boundary, turning
// shape assumptions into explicit parse failures.
func ParseStreamEvent(msg []byte) (StreamEvent, error) {
	var env streamEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return StreamEvent{}, fmt.Errorf("parse stream frame: %w", err)
	}
	switch env.Event {
	case "start":
		return StreamEvent{
			Type:      EventStart,
			CallSid:   env.Start.CallSid,
			StreamSid: env.Start.StreamSid,
		}, nil
	case "media":
		audio, err := base64.StdEncoding.DecodeString(env.Media.Payload)
		if err != nil {
			return StreamEvent{}, fmt.Errorf("decode media payload: %w", err)
		}
		return StreamEvent{Type: EventMedia, Audio: audio}, nil
	case "stop":
		return StreamEvent{Type: EventStop}, nil
	default:
		return StreamEvent{Type: EventOther, RawEvent: env.Event}, nil
	}
}
