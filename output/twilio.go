package output

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/mrsingh-rishi/voice-relay/queue"
)

// mediaChunkBytes is the raw audio chunk size per outbound media event
// (400ms of ulaw 8kHz audio), well under Twilio's frame size limit.
const mediaChunkBytes = 3200

// WSWriter is the outbound half of the inbound websocket connection.
type WSWriter interface {
	WriteJSON(v interface{}) error
}

// TwilioOutput pushes synthesized audio back to the caller as media events
// over the inbound stream connection, followed by a mark event so the
// telephony provider reports playback completion.
type TwilioOutput struct {
	mu        sync.Mutex
	ws        WSWriter
	streamSid string
	pending   *queue.Queue[string]
}

// NewTwilioOutput builds an output for the given stream SID.
func NewTwilioOutput(streamSid string, ws WSWriter) (*TwilioOutput, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if streamSid == "" {
		return nil, fmt.Errorf("streamSid is required")
	}
	return &TwilioOutput{
		ws:        ws,
		streamSid: streamSid,
		pending:   queue.New[string](),
	}, nil
}

// Deliver splits audio into chunks, base64-encodes each, and writes them as
// media events followed by a single mark event. Writes are serialized so
// concurrent replies do not interleave frames mid-utterance.
func (o *TwilioOutput) Deliver(audio []byte, markName string) error {
	if len(audio) == 0 {
		return fmt.Errorf("no audio to deliver")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for off := 0; off < len(audio); off += mediaChunkBytes {
		end := off + mediaChunkBytes
		if end > len(audio) {
			end = len(audio)
		}
		o.pending.Enqueue(base64.StdEncoding.EncodeToString(audio[off:end]))
	}

	for {
		payload, ok := o.pending.Dequeue()
		if !ok {
			break
		}
		if err := o.sendMediaEvent(payload); err != nil {
			o.pending.Reset()
			return err
		}
	}
	return o.sendMarkEvent(markName)
}

func (o *TwilioOutput) sendMediaEvent(payload string) error {
	msg := map[string]interface{}{
		"event":     "media",
		"streamSid": o.streamSid,
		"media": map[string]string{
			"payload": payload,
		},
	}
	if err := o.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("media write: %w", err)
	}
	return nil
}

func (o *TwilioOutput) sendMarkEvent(name string) error {
	msg := map[string]interface{}{
		"event":     "mark",
		"streamSid": o.streamSid,
		"mark": map[string]string{
			"name": name,
		},
	}
	if err := o.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("mark write: %w", err)
	}
	return nil
}
