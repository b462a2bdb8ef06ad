package voice

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogSynthesizer records utterances to the log. Audio playback happens on
// the client; server-side the utterance text is what matters, and the
// transport exposes it through the session snapshot.
type LogSynthesizer struct {
	UserID string
	Logger *zap.Logger
}

func (s *LogSynthesizer) Speak(ctx context.Context, text string) error {
	s.Logger.Info("reminder utterance",
		zap.String("user_id", s.UserID),
		zap.String("text", text))
	return nil
}

func (s *LogSynthesizer) Cancel() {}

// PassiveRecognizer never hears anything on its own: spoken responses reach
// the controller as transcripts through the transport's respond endpoint.
// Listen blocks until the session is aborted or the context ends, then
// reports a silent end.
type PassiveRecognizer struct {
	mu   sync.Mutex
	stop chan struct{}
}

func NewPassiveRecognizer() *PassiveRecognizer {
	return &PassiveRecognizer{}
}

func (r *PassiveRecognizer) Listen(ctx context.Context) Recognition {
	r.mu.Lock()
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-stop:
	}
	return Recognition{}
}

func (r *PassiveRecognizer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}
