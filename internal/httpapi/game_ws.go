package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lukasbauer/blabber/internal/eventlog"
	"github.com/lukasbauer/blabber/internal/games/gift"
	"github.com/lukasbauer/blabber/internal/games/sales"
	"github.com/lukasbauer/blabber/internal/games/spelling"
	"github.com/lukasbauer/blabber/internal/games/wrongname"
	"github.com/lukasbauer/blabber/internal/recognition"
	"github.com/lukasbauer/blabber/internal/store"
	"github.com/lukasbauer/blabber/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// markTimeout bounds how long a narration waits for the client's
// playback-finished mark before giving up and moving on.
const markTimeout = 30 * time.Second

// clientMessage is one inbound control message from the browser. Microphone
// audio arrives as separate binary frames, not JSON.
type clientMessage struct {
	Type   string `json:"type"`
	Game   string `json:"game,omitempty"`
	Branch string `json:"branch,omitempty"`
	Text   string `json:"text,omitempty"`
	Name   string `json:"name,omitempty"`
}

// serverMessage is one outbound message to the browser.
type serverMessage struct {
	Type    string `json:"type"`
	Game    string `json:"game,omitempty"`
	State   any    `json:"state,omitempty"`
	Round   any    `json:"round,omitempty"`
	Verdict any    `json:"verdict,omitempty"`
	Final   string `json:"final,omitempty"`
	Interim string `json:"interim,omitempty"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
	Chunk   string `json:"chunk,omitempty"` // base64 narration audio
	Score   *int   `json:"score,omitempty"`
	Message string `json:"message,omitempty"`
}

// gameHandle is the running game's input surface. Only the fields the game
// supports are non-nil.
type gameHandle struct {
	name       string
	transcript func(recognition.Event)
	submitText func(string)
	editText   func(string)
	finish     func()
	cancel     context.CancelFunc
}

// gameSession owns one WebSocket connection: the recognition manager, the
// narration channel, and at most one running game at a time.
type gameSession struct {
	id       string
	playerID string // empty for anonymous play

	conn   *websocket.Conn
	connMu sync.Mutex

	engine   recognitionEngine
	manager  *recognition.Manager
	narrator *wsNarrator

	store    *store.Store
	eventLog *eventlog.Logger
	logger   *log.Logger
	router   *Router

	mu      sync.Mutex
	current *gameHandle

	ctx    context.Context
	cancel context.CancelFunc
}

func (r *Router) handleGameWS(w http.ResponseWriter, req *http.Request) {
	playerID := ""
	if token := req.URL.Query().Get("token"); token != "" {
		player, err := r.playerFromToken(token)
		if err != nil {
			http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
			return
		}
		playerID = player.ID
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("game_ws: upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &gameSession{
		id:       uuid.NewString(),
		playerID: playerID,
		conn:     conn,
		engine:   r.newEngine(),
		store:    r.store,
		eventLog: r.eventLog,
		logger:   r.logger,
		router:   r,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.narrator = &wsNarrator{session: s, tts: r.tts}
	s.manager = recognition.NewManager(recognition.ManagerConfig{
		Engine:     s.engine,
		Continuous: true,
		OnEvent:    s.onRecognition,
		OnError:    s.onRecognitionError,
		Logger:     r.logger,
	})

	s.eventLog.LogAsync(s.id, eventlog.EventSessionStarted, map[string]any{
		"player_id": playerID,
	})
	s.send(serverMessage{Type: "session", Name: s.id})

	s.run()
}

func (s *gameSession) run() {
	defer s.cleanup()

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("game_ws: connection closed for session %s", s.id)
			} else {
				s.logger.Printf("game_ws: read error for session %s: %v", s.id, err)
			}
			return
		}

		if msgType == websocket.BinaryMessage {
			if err := s.engine.SendAudio(msg); err != nil {
				s.logger.Printf("game_ws: audio forward failed: %v", err)
			}
			continue
		}

		var cm clientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			s.logger.Printf("game_ws: failed to parse message: %v", err)
			continue
		}

		switch cm.Type {
		case "start":
			if err := s.startGame(cm.Game, cm.Branch); err != nil {
				s.send(serverMessage{Type: "error", Message: err.Error()})
			}

		case "text":
			s.mu.Lock()
			handle := s.current
			s.mu.Unlock()
			if handle != nil && handle.submitText != nil {
				handle.submitText(cm.Text)
				s.eventLog.LogAsync(s.id, eventlog.EventTextSubmitted, map[string]any{
					"game": handle.name,
				})
			}

		case "edit":
			s.mu.Lock()
			handle := s.current
			s.mu.Unlock()
			if handle != nil && handle.editText != nil {
				handle.editText(cm.Text)
			}

		case "finish":
			s.mu.Lock()
			handle := s.current
			s.mu.Unlock()
			if handle != nil && handle.finish != nil {
				handle.finish()
			}

		case "mark":
			s.narrator.handleMark(cm.Name)

		case "stop":
			s.stopGame(true)
		}
	}
}

// startGame tears down any running game and launches the requested one.
func (s *gameSession) startGame(name, branch string) error {
	s.stopGame(false)

	ctx, cancel := context.WithCancel(s.ctx)
	handle := &gameHandle{name: name, cancel: cancel}

	var runFn func(context.Context) error

	switch name {
	case "spelling":
		// OnRound fires from the run goroutine and runFn reads the tally
		// after Run returns, so no extra locking is needed.
		var successes, played int
		g := spelling.New(spelling.Config{
			Narrator: s.narrator,
			Listener: s.manager,
			OnState: func(snap spelling.Snapshot) {
				s.send(serverMessage{Type: "state", Game: name, State: snap})
			},
			OnRound: func(res spelling.RoundResult) {
				played++
				if res.Success {
					successes++
				}
				s.send(serverMessage{Type: "round", Game: name, Round: res})
				s.eventLog.LogAsync(s.id, eventlog.EventRoundCompleted, map[string]any{
					"game":    name,
					"round":   res.Round,
					"success": res.Success,
				})
			},
			Logger: s.logger,
		})
		handle.transcript = g.HandleTranscript
		handle.submitText = g.SubmitText
		runFn = func(ctx context.Context) error {
			if err := g.Run(ctx); err != nil {
				return err
			}
			s.finishGame(name, successes, played, nil)
			return nil
		}

	case "wrongname":
		g := wrongname.New(wrongname.Config{
			Narrator: s.narrator,
			Listener: s.manager,
			OnState: func(snap wrongname.Snapshot) {
				s.send(serverMessage{Type: "state", Game: name, State: snap})
			},
			Logger: s.logger,
		})
		handle.transcript = g.HandleTranscript
		runFn = func(ctx context.Context) error {
			if err := g.Run(ctx); err != nil {
				return err
			}
			s.finishGame(name, g.Snapshot().Score, 1, nil)
			return nil
		}

	case "sales":
		g := sales.New(sales.Config{
			Narrator:  s.narrator,
			Listener:  s.manager,
			Evaluator: s.router.pitchEvaluator(),
			OnState: func(snap sales.Snapshot) {
				s.send(serverMessage{Type: "state", Game: name, State: snap})
			},
			OnVerdict: func(v *sales.Verdict) {
				s.send(serverMessage{Type: "verdict", Game: name, Verdict: v})
				event := eventlog.EventPitchEvaluated
				if v.Fallback {
					event = eventlog.EventPitchFallback
				}
				s.eventLog.LogAsync(s.id, event, map[string]any{
					"overall": v.OverallScore,
				})
			},
			Logger: s.logger,
		})
		handle.transcript = g.HandleTranscript
		handle.editText = g.EditTranscript
		handle.finish = g.Finish
		runFn = func(ctx context.Context) error {
			if err := g.Run(ctx); err != nil {
				return err
			}
			snap := g.Snapshot()
			score := 0
			var details any
			if snap.Verdict != nil {
				score = snap.Verdict.OverallScore
				details = snap.Verdict
			}
			s.finishGame(name, score, 1, details)
			return nil
		}

	case "gift":
		g := gift.New(gift.Config{
			Narrator: s.narrator,
			Listener: s.manager,
			OnState: func(snap gift.Snapshot) {
				s.send(serverMessage{Type: "state", Game: name, State: snap})
			},
			Logger: s.logger,
		})
		handle.transcript = g.HandleTranscript
		handle.submitText = g.SubmitText
		run := g.RunReceiving
		if branch == "giving" {
			run = g.RunGiving
		}
		chosenBranch := branch
		if chosenBranch == "" {
			chosenBranch = "receiving"
		}
		runFn = func(ctx context.Context) error {
			if err := run(ctx); err != nil {
				return err
			}
			s.finishGame(name, 1, 1, map[string]string{"branch": chosenBranch})
			return nil
		}

	default:
		cancel()
		return fmt.Errorf("unknown game %q", name)
	}

	s.mu.Lock()
	s.current = handle
	s.mu.Unlock()

	s.logger.Printf("game_ws: session %s starting %s", s.id, name)

	go func() {
		defer cancel()
		if err := runFn(ctx); err != nil && ctx.Err() == nil {
			s.logger.Printf("game_ws: %s run failed: %v", name, err)
			s.send(serverMessage{Type: "error", Game: name, Message: "game ended unexpectedly"})
		}
		s.mu.Lock()
		if s.current == handle {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	return nil
}

// stopGame cancels the running game, silences narration, and stops listening.
// abandoned marks a user-initiated stop in the event log.
func (s *gameSession) stopGame(abandoned bool) {
	s.mu.Lock()
	handle := s.current
	s.current = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}

	handle.cancel()
	s.narrator.Cancel()
	s.manager.Stop()

	if abandoned {
		s.eventLog.LogAsync(s.id, eventlog.EventSessionAbandoned, map[string]any{
			"game": handle.name,
		})
	}
}

// finishGame reports the final score to the client and persists the result
// for signed-in players.
func (s *gameSession) finishGame(game string, score, rounds int, details any) {
	finalScore := score
	s.send(serverMessage{Type: "game_over", Game: game, Score: &finalScore})

	s.eventLog.LogAsync(s.id, eventlog.EventSessionEnded, map[string]any{
		"game":  game,
		"score": score,
	})

	if s.playerID == "" || s.store == nil {
		return
	}

	var detailsJSON json.RawMessage
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = b
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.InsertGameResult(ctx, store.GameResult{
		PlayerID: s.playerID,
		Game:     game,
		Score:    score,
		Rounds:   rounds,
		Details:  detailsJSON,
	}); err != nil {
		s.logger.Printf("game_ws: failed to save %s result: %v", game, err)
	}

	if err := s.store.TouchPlayer(ctx, s.playerID); err != nil {
		s.logger.Printf("game_ws: failed to touch player %s: %v", s.playerID, err)
	}
}

func (s *gameSession) onRecognition(ev recognition.Event) {
	s.send(serverMessage{Type: "transcript", Final: ev.Final, Interim: ev.Interim})
	if ev.Final != "" {
		s.eventLog.LogAsync(s.id, eventlog.EventTranscriptFinal, map[string]any{
			"text": ev.Final,
		})
	}

	s.mu.Lock()
	handle := s.current
	s.mu.Unlock()
	if handle != nil && handle.transcript != nil {
		handle.transcript(ev)
	}
}

func (s *gameSession) onRecognitionError(kind recognition.ErrorKind) {
	s.send(serverMessage{Type: "error", Message: kind.Message()})
	s.eventLog.LogAsync(s.id, eventlog.EventRecognitionError, map[string]any{
		"kind": string(kind),
	})
}

func (s *gameSession) send(msg serverMessage) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Printf("game_ws: write failed: %v", err)
	}
}

func (s *gameSession) cleanup() {
	s.stopGame(false)
	s.cancel()
	s.manager.Close()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.eventLog.LogAsync(s.id, eventlog.EventSessionEnded, map[string]any{
		"player_id": s.playerID,
	})
	s.logger.Printf("game_ws: session %s cleaned up", s.id)
}

// pitchEvaluator scores pitches through the local evaluation endpoint's own
// model client, skipping the HTTP hop the browser client would take.
func (r *Router) pitchEvaluator() sales.Evaluator {
	return &localEvaluator{router: r}
}

type localEvaluator struct {
	router *Router
}

func (e *localEvaluator) EvaluatePitch(ctx context.Context, transcript, productName string) (*sales.Verdict, error) {
	return e.router.evaluateWithModel(ctx, transcript, productName)
}

// wsNarrator implements narration.Speaker over the game WebSocket: it
// announces the utterance, streams synthesized audio, and blocks until the
// client acknowledges playback with a mark (or the wait is cancelled).
type wsNarrator struct {
	session *gameSession
	tts     tts.Client

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	name string
	done chan struct{}
}

func (n *wsNarrator) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := "say-" + uuid.NewString()[:8]
	u := &utterance{name: name, done: make(chan struct{})}

	n.mu.Lock()
	n.current = u
	n.mu.Unlock()

	n.session.send(serverMessage{Type: "narration", Name: name, Text: text})
	n.session.eventLog.LogAsync(n.session.id, eventlog.EventNarrationStarted, map[string]any{
		"text": text,
	})

	if n.tts != nil {
		if err := n.streamAudio(ctx, u, text); err != nil {
			n.session.logger.Printf("game_ws: narration synthesis failed: %v", err)
			n.session.eventLog.LogAsync(n.session.id, eventlog.EventNarrationError, map[string]any{
				"error": err.Error(),
			})
		}
	}

	n.session.send(serverMessage{Type: "narration_end", Name: name})

	select {
	case <-u.done:
		// Mark received or cancelled; either way the utterance is over.
	case <-ctx.Done():
		n.clear(u)
		return ctx.Err()
	case <-time.After(markTimeout):
		// Client never acknowledged; do not wedge the game on a deaf tab.
		n.session.logger.Printf("game_ws: narration %s mark timed out", name)
		n.clear(u)
	}

	n.session.eventLog.LogAsync(n.session.id, eventlog.EventNarrationCompleted, nil)
	return nil
}

func (n *wsNarrator) streamAudio(ctx context.Context, u *utterance, text string) error {
	audioCh, err := n.tts.SynthesizeStream(ctx, text)
	if err != nil {
		return err
	}
	for chunk := range audioCh {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-u.done:
			// Cancelled mid-stream; drain and stop sending.
			for range audioCh {
			}
			return nil
		default:
		}
		n.session.send(serverMessage{
			Type:  "narration_audio",
			Name:  u.name,
			Chunk: base64.StdEncoding.EncodeToString(chunk),
		})
	}
	return nil
}

// Cancel interrupts the in-flight utterance. The client is told to stop
// playback immediately.
func (n *wsNarrator) Cancel() {
	n.mu.Lock()
	u := n.current
	n.current = nil
	n.mu.Unlock()

	if u == nil {
		return
	}
	close(u.done)
	n.session.send(serverMessage{Type: "narration_cancel", Name: u.name})
	n.session.eventLog.LogAsync(n.session.id, eventlog.EventNarrationCancelled, nil)
}

// handleMark completes the wait for the named utterance. Stale marks for
// already-cancelled utterances are ignored.
func (n *wsNarrator) handleMark(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || n.current.name != name {
		return
	}
	close(n.current.done)
	n.current = nil
}

// clear drops the utterance if it is still current, without closing done
// twice.
func (n *wsNarrator) clear(u *utterance) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == u {
		n.current = nil
	}
}
