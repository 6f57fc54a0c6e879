package relay

import (
	"context"
	"log"
	"sync"

	"github.com/mrsingh-rishi/voice-relay/metrics"
	"github.com/mrsingh-rishi/voice-relay/output"
)

// InboundConn is the duplex connection to the caller. The gofiber websocket
// connection satisfies it.
type InboundConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Transcriber is the outbound streaming speech-to-text connection.
type Transcriber interface {
	SendAudio(audio []byte) error
	Transcripts() <-chan string
	Close() error
}

// Options tunes session behavior.
type Options struct {
	// StrictDecode terminates the forwarding loop on the first malformed
	// inbound frame. Default is to log and skip.
	StrictDecode bool
	// MaxReplies caps concurrent in-flight reply tasks.
	MaxReplies int
	Logger     *log.Logger
	Metrics    *metrics.Metrics
}

// Session bridges one inbound stream connection to one transcription
// connection and dispatches completed transcripts to the reply pipeline.
type Session struct {
	conn    InboundConn
	stt     Transcriber
	replier *Replier
	conv    *Conversation

	strict bool
	sem    chan struct{}
	logger *log.Logger
	met    *metrics.Metrics

	wg sync.WaitGroup

	mu  sync.Mutex
	out Deliverer

	// newOutput is swapped in tests.
	newOutput func(streamSid string, ws output.WSWriter) (Deliverer, error)
}

// NewSession wires a session for one accepted connection.
func NewSession(conn InboundConn, stt Transcriber, replier *Replier, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.MaxReplies <= 0 {
		opts.MaxReplies = 8
	}
	return &Session{
		conn:    conn,
		stt:     stt,
		replier: replier,
		conv:    NewConversation(),
		strict:  opts.StrictDecode,
		sem:     make(chan struct{}, opts.MaxReplies),
		logger:  opts.Logger,
		met:     opts.Metrics,
		newOutput: func(streamSid string, ws output.WSWriter) (Deliverer, error) {
			return output.NewTwilioOutput(streamSid, ws)
		},
	}
}

// Conversation exposes the session transcript.
func (s *Session) Conversation() *Conversation { return s.conv }

// Run relays until the inbound connection closes, a stop event arrives, or
// (in strict mode) the first decode error. On return the transcription
// connection is closed and all in-flight reply tasks have finished.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.met.SessionsStarted.Inc()
	s.met.ActiveSessions.Inc()
	defer s.met.ActiveSessions.Dec()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatchTranscripts(ctx)
	}()

	s.forwardInbound(ctx)

	cancel()
	if err := s.stt.Close(); err != nil {
		s.logger.Printf("transcriber close: %v", err)
	}
	s.wg.Wait()
}

// forwardInbound reads caller frames and forwards media audio to the
// transcription provider.
func (s *Session) forwardInbound(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Printf("inbound read: %v", err)
			return
		}
		s.met.FramesReceived.Inc()

		ev, err := ParseStreamEvent(msg)
		if err != nil {
			s.met.DecodeErrors.Inc()
			if s.strict {
				s.logger.Printf("inbound frame rejected, terminating: %v", err)
				return
			}
			s.logger.Printf("inbound frame skipped: %v", err)
			continue
		}

		switch ev.Type {
		case EventStart:
			s.logger.Printf("stream started: CallSid=%s StreamSid=%s", ev.CallSid, ev.StreamSid)
			s.setOutput(ev.StreamSid)
		case EventMedia:
			if len(ev.Audio) == 0 {
				continue
			}
			if err := s.stt.SendAudio(ev.Audio); err != nil {
				s.logger.Printf("forward audio: %v", err)
				continue
			}
			s.met.FramesForwarded.Inc()
		case EventStop:
			s.logger.Printf("stream stopped")
			return
		default:
			s.logger.Printf("ignoring event: %s", ev.RawEvent)
		}
	}
}

// dispatchTranscripts spawns one tracked reply task per non-empty transcript.
// Tasks run concurrently, bounded by the semaphore, and may finish out of
// order.
func (s *Session) dispatchTranscripts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case transcript, ok := <-s.stt.Transcripts():
			if !ok {
				return
			}
			if transcript == "" {
				continue
			}
			s.met.TranscriptsDispatched.Inc()
			s.wg.Add(1)
			go s.reply(ctx, transcript)
		}
	}
}

func (s *Session) reply(ctx context.Context, transcript string) {
	defer s.wg.Done()
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return
	}
	if err := s.replier.Respond(ctx, s.conv, transcript, s.currentOutput()); err != nil {
		s.logger.Printf("reply task: %v", err)
	}
}

func (s *Session) setOutput(streamSid string) {
	if streamSid == "" {
		s.logger.Printf("start event without streamSid, replies will not be delivered")
		return
	}
	out, err := s.newOutput(streamSid, s.conn)
	if err != nil {
		s.logger.Printf("create output: %v", err)
		return
	}
	s.mu.Lock()
	s.out = out
	s.mu.Unlock()
}

func (s *Session) currentOutput() Deliverer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}
