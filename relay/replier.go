package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrsingh-rishi/voice-relay/metrics"
	"github.com/mrsingh-rishi/voice-relay/model"
)

// Completer generates one assistant reply from the conversation so far.
type Completer interface {
	Complete(ctx context.Context, turns []model.Turn) (string, error)
}

// Synthesizer turns reply text into audio bytes and persists them.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SaveSpeech(dir string, audio []byte) (string, error)
}

// Deliverer pushes synthesized audio back to the caller.
type Deliverer interface {
	Deliver(audio []byte, markName string) error
}

// Replier runs the per-transcript reply pipeline: record the caller turn,
// generate a streamed completion, record the assistant turn, synthesize the
// reply, persist the audio file, and deliver the audio to the caller.
type Replier struct {
	llm      Completer
	tts      Synthesizer
	audioDir string
	logger   *log.Logger
	met      *metrics.Metrics
}

// NewReplier wires the reply pipeline.
func NewReplier(llm Completer, tts Synthesizer, audioDir string, logger *log.Logger, met *metrics.Metrics) (*Replier, error) {
	if llm == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if tts == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	if met == nil {
		met = metrics.NewNop()
	}
	return &Replier{llm: llm, tts: tts, audioDir: audioDir, logger: logger, met: met}, nil
}

// Respond executes one reply task. The caller turn is appended before
// generation and the assistant turn after, so the conversation grows by
// exactly two entries per completed reply in dispatch order. Failures are
// returned for logging but never reach the session loops.
func (r *Replier) Respond(ctx context.Context, conv *Conversation, transcript string, out Deliverer) error {
	start := time.Now()
	err := r.respond(ctx, conv, transcript, out)
	if err != nil {
		r.met.RepliesFailed.Inc()
		return err
	}
	r.met.RepliesCompleted.Inc()
	r.met.ReplyDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (r *Replier) respond(ctx context.Context, conv *Conversation, transcript string, out Deliverer) error {
	turns := append(conv.Snapshot(), model.Turn{Role: model.RoleCaller, Text: transcript})

	reply, err := r.llm.Complete(ctx, turns)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}
	if reply == "" {
		return fmt.Errorf("generate reply: empty completion")
	}
	// Commit both turns only on success so the transcript stays an
	// alternating caller/assistant sequence.
	conv.Append(model.RoleCaller, transcript)
	conv.Append(model.RoleAssistant, reply)

	audio, err := r.tts.Synthesize(ctx, reply)
	if err != nil {
		return fmt.Errorf("synthesize reply: %w", err)
	}
	path, err := r.tts.SaveSpeech(r.audioDir, audio)
	if err != nil {
		return fmt.Errorf("persist reply audio: %w", err)
	}
	r.logger.Printf("reply audio saved: %s", path)

	if out == nil {
		r.logger.Printf("no active stream for delivery, audio kept at %s", path)
		return nil
	}
	if err := out.Deliver(audio, path); err != nil {
		return fmt.Errorf("deliver reply audio: %w", err)
	}
	return nil
}
