// Package recognition owns the lifecycle of a streaming speech-to-text
// session: starting and stopping, debounced auto-restart when the underlying
// session drops, and error classification. It knows nothing about any game.
package recognition

import "context"

// ErrorKind classifies recognition-side failures.
type ErrorKind string

const (
	// ErrPermissionDenied means microphone access was refused. Terminal.
	ErrPermissionDenied ErrorKind = "permission-denied"
	// ErrInsecureContext means the recognizer requires a secure transport. Terminal.
	ErrInsecureContext ErrorKind = "insecure-context"
	// ErrNoSpeech means the session ended without detecting speech. Benign.
	ErrNoSpeech ErrorKind = "no-speech"
	// ErrAudioCapture means the audio input failed mid-session.
	ErrAudioCapture ErrorKind = "audio-capture"
	// ErrUnknown covers everything else the recognizer reports.
	ErrUnknown ErrorKind = "unknown"
)

// Terminal reports whether the error disables further auto-restart until the
// caller re-initiates.
func (k ErrorKind) Terminal() bool {
	return k == ErrPermissionDenied || k == ErrInsecureContext
}

// Benign reports whether the error should be hidden from the user entirely.
func (k ErrorKind) Benign() bool {
	return k == ErrNoSpeech
}

// Message returns a human-readable description for user-visible errors.
func (k ErrorKind) Message() string {
	switch k {
	case ErrPermissionDenied:
		return "Microphone access denied. Please enable microphone permissions."
	case ErrInsecureContext:
		return "Microphone requires a secure (HTTPS) connection."
	case ErrAudioCapture:
		return "Audio capture failed. Check your microphone."
	default:
		return "Speech recognition error."
	}
}

// Event is one incremental recognition update. Final is recognizer-confirmed
// text for the utterance; Interim is a replaceable preview with no durability
// guarantee. Either may be empty.
type Event struct {
	Final   string
	Interim string
}

// Callbacks receive lifecycle notifications from an Engine. An Engine must
// invoke OnStart once when the session actually begins, OnResult per
// incremental update, OnError at most once per failure, and OnEnd exactly
// once when the session terminates for any reason (after any OnError).
type Callbacks struct {
	OnStart  func()
	OnResult func(Event)
	OnError  func(ErrorKind)
	OnEnd    func()
}

// Engine is the underlying one-shot recognition capability. Each Start opens
// a fresh session; overlapping Starts are rejected by real engines, which is
// why the Manager never issues them.
type Engine interface {
	Start(Callbacks) error
	Stop()
}

// PermissionState is the result of a microphone permission query.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

// PermissionQuerier is an optional capability for checking microphone
// permission before the first start. Absence is tolerated: the Manager
// attempts to start anyway.
type PermissionQuerier interface {
	MicrophonePermission(ctx context.Context) PermissionState
}
