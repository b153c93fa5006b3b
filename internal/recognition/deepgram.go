package recognition

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const deepgramWSURL = "wss://api.deepgram.com/v1/listen"

// DeepgramConfig holds configuration for the Deepgram engine.
type DeepgramConfig struct {
	APIKey      string
	Language    string // e.g., "en-US"
	Model       string // e.g., "nova-3"
	SampleRate  int    // e.g., 16000 for browser PCM
	Encoding    string // e.g., "linear16"
	Channels    int
	Punctuate   bool
	Endpointing int // milliseconds of silence for endpointing, 0 for default
	Logger      *log.Logger
}

// DeepgramEngine implements Engine over Deepgram's streaming API. Each Start
// dials a fresh WebSocket session, which is what makes the Manager's
// stop-then-restart cycling work.
type DeepgramEngine struct {
	cfg DeepgramConfig

	mu        sync.Mutex
	conn      *websocket.Conn
	done      chan struct{}
	wg        sync.WaitGroup
	active    bool
	sawSpeech bool
}

// NewDeepgramEngine creates an engine; no connection is made until Start.
func NewDeepgramEngine(cfg DeepgramConfig) *DeepgramEngine {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &DeepgramEngine{cfg: cfg}
}

// deepgramResponse is one streaming result message.
type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

// Start dials Deepgram and begins delivering results through cb.
func (e *DeepgramEngine) Start(cb Callbacks) error {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return fmt.Errorf("deepgram: session already started")
	}

	url := fmt.Sprintf("%s?model=%s&language=%s&encoding=%s&sample_rate=%d&channels=%d&punctuate=%t&interim_results=true",
		deepgramWSURL,
		e.cfg.Model,
		e.cfg.Language,
		e.cfg.Encoding,
		e.cfg.SampleRate,
		e.cfg.Channels,
		e.cfg.Punctuate,
	)
	if e.cfg.Endpointing > 0 {
		url += fmt.Sprintf("&endpointing=%d", e.cfg.Endpointing)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+e.cfg.APIKey)

	conn, resp, err := websocket.DefaultDialer.Dial(url, headers)
	if err != nil {
		e.mu.Unlock()
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("deepgram: %s: %w", ErrPermissionDenied, err)
		}
		return fmt.Errorf("deepgram: dial: %w", err)
	}

	e.conn = conn
	e.done = make(chan struct{})
	e.active = true
	e.sawSpeech = false
	e.wg.Add(1)
	done := e.done
	e.mu.Unlock()

	// OnStart must precede any OnEnd the read loop could report.
	cb.OnStart()
	go e.readLoop(cb, conn, done)
	return nil
}

// Stop closes the current session. The read loop reports OnEnd.
func (e *DeepgramEngine) Stop() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	conn := e.conn
	close(e.done)
	e.mu.Unlock()

	closeMsg := []byte(`{"type": "CloseStream"}`)
	_ = conn.WriteMessage(websocket.TextMessage, closeMsg)
	_ = conn.Close()
	e.wg.Wait()
}

// SendAudio forwards raw audio to the current session. Sends while no session
// is live are dropped silently; the caller cannot observe engine state and a
// few lost frames around a restart are expected.
func (e *DeepgramEngine) SendAudio(audio []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.conn == nil {
		return nil
	}
	return e.conn.WriteMessage(websocket.BinaryMessage, audio)
}

func (e *DeepgramEngine) readLoop(cb Callbacks, conn *websocket.Conn, done chan struct{}) {
	defer e.wg.Done()

	stopped := func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !stopped() {
				e.cfg.Logger.Printf("deepgram: read error: %v", err)
				e.markInactive()
				cb.OnError(e.classifyReadError())
			}
			cb.OnEnd()
			return
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			e.cfg.Logger.Printf("deepgram: failed to parse response: %v", err)
			continue
		}
		if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
			continue
		}

		transcript := resp.Channel.Alternatives[0].Transcript
		if transcript == "" {
			continue
		}

		e.mu.Lock()
		e.sawSpeech = true
		e.mu.Unlock()

		ev := Event{}
		if resp.IsFinal {
			ev.Final = transcript
		} else {
			ev.Interim = transcript
		}
		cb.OnResult(ev)
	}
}

func (e *DeepgramEngine) markInactive() {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
}

// classifyReadError maps a dropped stream onto the error taxonomy: a session
// that never produced speech is reported as no-speech (benign, restartable);
// anything else is an audio-capture failure eligible for restart.
func (e *DeepgramEngine) classifyReadError() ErrorKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sawSpeech {
		return ErrNoSpeech
	}
	return ErrAudioCapture
}
