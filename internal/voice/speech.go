// Package voice implements the voice reminder controller: it watches the
// day's schedule, announces due medicines, listens for a spoken response and
// drives the schedule state machine from the classified intent.
package voice

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned by a Recognizer when the session ended because no
// speech was detected.
var ErrNoSpeech = errors.New("no speech detected")

// Synthesizer plays a spoken utterance. Speak blocks until playback finishes
// or fails; starting a new utterance implicitly cancels any in-progress one.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// Recognition is the outcome of one recognition session. A final transcript,
// ErrNoSpeech, or neither (the session ended silently).
type Recognition struct {
	Transcript string
	Err        error
}

// Recognizer captures a single utterance. Listen blocks until the session
// produces an outcome; Abort halts an in-flight session immediately, causing
// Listen to return a silent-end Recognition.
type Recognizer interface {
	Listen(ctx context.Context) Recognition
	Abort()
}
