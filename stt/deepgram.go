package stt

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	gws "github.com/gorilla/websocket"
)

// TranscriptionMessage represents the JSON event received from Deepgram.
type TranscriptionMessage struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Transcript extracts the first alternative of the first channel.
// The boolean is false when the event carries no usable transcript.
func (m *TranscriptionMessage) Transcript() (string, bool) {
	if len(m.Channel.Alternatives) == 0 {
		return "", false
	}
	text := m.Channel.Alternatives[0].Transcript
	if text == "" {
		return "", false
	}
	return text, true
}

// DefaultEndpoint is the Deepgram live transcription endpoint.
const DefaultEndpoint = "wss://api.deepgram.com/v1/listen"

// Client encapsulates the Deepgram streaming WebSocket connection.
type Client struct {
	conn        *gws.Conn
	logger      *log.Logger
	transcripts chan string
}

// Dial opens the streaming connection, authorizing with the API key as a
// Token header, and starts reading transcription events in the background.
// Query parameters enable punctuation and disable interim results so only
// finalized utterances come back. The endpoint is overridable for tests;
// pass "" for the Deepgram default.
func Dial(endpoint, apiKey string, logger *log.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("deepgram endpoint: %w", err)
	}
	q := u.Query()
	q.Set("model", "nova-2-phonecall")
	q.Set("encoding", "mulaw")
	q.Set("sample_rate", "8000")
	q.Set("channels", "1")
	q.Set("language", "en-US")
	q.Set("punctuate", "true")
	q.Set("interim_results", "false")
	u.RawQuery = q.Encode()

	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", apiKey)},
	}
	conn, _, err := gws.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("deepgram dial: %w", err)
	}

	c := &Client{
		conn:        conn,
		logger:      logger,
		transcripts: make(chan string, 16),
	}
	go c.listen()
	return c, nil
}

// SendAudio forwards a raw audio chunk as a binary frame.
func (c *Client) SendAudio(audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	if err := c.conn.WriteMessage(gws.BinaryMessage, audio); err != nil {
		return fmt.Errorf("deepgram write: %w", err)
	}
	return nil
}

// Transcripts returns the channel of finalized transcript strings. The
// channel is closed when the provider connection ends.
func (c *Client) Transcripts() <-chan string { return c.transcripts }

// listen reads transcription events until the connection closes. Events
// without a usable transcript are dropped; malformed events are logged and
// skipped.
func (c *Client) listen() {
	defer close(c.transcripts)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Printf("deepgram read: %v", err)
			return
		}

		var ev TranscriptionMessage
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.Printf("deepgram parse: %v", err)
			continue
		}
		if text, ok := ev.Transcript(); ok {
			c.transcripts <- text
		}
	}
}

// Close sends a normal closure message and closes the connection.
func (c *Client) Close() error {
	msg := gws.FormatCloseMessage(gws.CloseNormalClosure, "closing connection")
	if err := c.conn.WriteMessage(gws.CloseMessage, msg); err != nil {
		return c.conn.Close()
	}
	return c.conn.Close()
}
