// Package narration defines the contract the game controllers use to talk to
// the player. The narration channel is a single shared resource: before every
// new utterance the current one is cancelled, so there is never a mid-utterance
// cancel ambiguity when turns change hands.
package narration

import (
	"context"
	"time"
)

// Speaker plays one utterance to completion. Speak returns once playback has
// ended (or errored); Cancel interrupts the current playback synchronously.
// Implementations must tolerate Cancel with nothing playing.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// SpeakAll narrates each text in order, awaiting completion before moving on,
// with a fixed pause between items. It cancels any prior playback first. The
// first error or context cancellation stops the sequence.
func SpeakAll(ctx context.Context, s Speaker, texts []string, pause time.Duration) error {
	s.Cancel()
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Speak(ctx, text); err != nil {
			return err
		}
		if pause > 0 && i < len(texts)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return nil
}
