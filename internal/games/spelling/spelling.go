// Package spelling implements the letter-repetition game: the AI narrates a
// random letter sequence, the player repeats it back, and the round is scored
// by position-wise comparison.
package spelling

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lukasbauer/blabber/internal/narration"
	"github.com/lukasbauer/blabber/internal/recognition"
	"github.com/lukasbauer/blabber/internal/speech"
)

// Phase is the single current state of a game; transitions happen only inside
// the run loop.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAISpeaking   Phase = "ai-speaking"
	PhaseUserSpeaking Phase = "user-speaking"
	PhaseEvaluating   Phase = "evaluating"
	PhaseDone         Phase = "done"
)

const (
	// DefaultRounds is the fixed session length.
	DefaultRounds = 10
	// DefaultTimeLimit bounds each user turn.
	DefaultTimeLimit = 20 * time.Second

	defaultLetterPause   = 250 * time.Millisecond
	defaultFeedbackPause = 2200 * time.Millisecond
	maxSequenceLength    = 20
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var coachingHints = []string{
	"Focus on rhythm and grouping letters.",
	"Try chunking the letters into small groups.",
	"Stay steady and repeat one letter at a time.",
}

// Listener is the recognition surface the game drives; recognition.Manager
// satisfies it.
type Listener interface {
	Start() error
	Stop()
}

// RoundResult is the verdict for one completed round.
type RoundResult struct {
	Round    int      `json:"round"`
	Expected []string `json:"expected"`
	Actual   []string `json:"actual"`
	Feedback string   `json:"feedback"`
	Success  bool     `json:"success"`
	Coaching string   `json:"coaching,omitempty"`
}

// Snapshot is the externally visible game state pushed on every change.
type Snapshot struct {
	Phase        Phase    `json:"phase"`
	Round        int      `json:"round"`
	Rounds       int      `json:"rounds"`
	TargetLength int      `json:"targetLength"`
	TimeLeft     int      `json:"timeLeft"`
	Letters      []string `json:"letters"` // normalized letters heard so far
}

// Config wires a Game to its collaborators.
type Config struct {
	Narrator      narration.Speaker
	Listener      Listener
	Rounds        int
	TimeLimit     time.Duration
	LetterPause   time.Duration
	FeedbackPause time.Duration
	Rand          *rand.Rand
	OnState       func(Snapshot)
	OnRound       func(RoundResult)
	Logger        *log.Logger
}

// Game is the spelling turn controller. Run drives the round pipeline;
// HandleTranscript and SubmitText feed it user input.
type Game struct {
	narrator      narration.Speaker
	listener      Listener
	rounds        int
	timeLimit     time.Duration
	letterPause   time.Duration
	feedbackPause time.Duration
	rand          *rand.Rand
	onState       func(Snapshot)
	onRound       func(RoundResult)
	logger        *log.Logger

	mu              sync.Mutex
	phase           Phase
	round           int
	sequence        []string
	finalTranscript string
	interim         string
	timeLeft        int

	// evalCh carries the turn-completion trigger. Capacity one: whichever
	// fires first (letter threshold, typed submission, or the countdown in
	// the run loop) wins; later triggers for the same turn are dropped.
	evalCh chan struct{}
}

// New creates a Game. Zero config fields fall back to the fixed game rules.
func New(cfg Config) *Game {
	g := &Game{
		narrator:      cfg.Narrator,
		listener:      cfg.Listener,
		rounds:        cfg.Rounds,
		timeLimit:     cfg.TimeLimit,
		letterPause:   cfg.LetterPause,
		feedbackPause: cfg.FeedbackPause,
		rand:          cfg.Rand,
		onState:       cfg.OnState,
		onRound:       cfg.OnRound,
		logger:        cfg.Logger,
		phase:         PhaseIdle,
		evalCh:        make(chan struct{}, 1),
	}
	if g.rounds <= 0 {
		g.rounds = DefaultRounds
	}
	if g.timeLimit <= 0 {
		g.timeLimit = DefaultTimeLimit
	}
	if g.letterPause <= 0 {
		g.letterPause = defaultLetterPause
	}
	if g.feedbackPause < 0 {
		g.feedbackPause = 0
	} else if g.feedbackPause == 0 {
		g.feedbackPause = defaultFeedbackPause
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// TargetLength returns the sequence length for a round: it grows by one
// letter every second round, capped at twenty.
func TargetLength(round int) int {
	length := 3 + round/2
	if length > maxSequenceLength {
		length = maxSequenceLength
	}
	return length
}

// Run plays the full session: narrate, listen, evaluate, repeat for the fixed
// number of rounds. It blocks until the session completes or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	defer g.listener.Stop()

	for round := 0; round < g.rounds; round++ {
		sequence := g.beginRound(round)

		// Recognition stays off while the AI is speaking.
		g.listener.Stop()
		if err := narration.SpeakAll(ctx, g.narrator, sequence, g.letterPause); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Printf("spelling: narration failed: %v", err)
		}

		g.openTurn()
		if err := g.listener.Start(); err != nil {
			// The countdown still closes the turn; the player can type.
			g.logger.Printf("spelling: listener start failed: %v", err)
		}

		if err := g.awaitTurnEnd(ctx); err != nil {
			return err
		}

		result := g.evaluate(round)
		g.listener.Stop()
		if g.onRound != nil {
			g.onRound(result)
		}

		if g.feedbackPause > 0 && round < g.rounds-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.feedbackPause):
			}
		}
	}

	g.mu.Lock()
	g.phase = PhaseDone
	g.mu.Unlock()
	g.notifyState()
	return nil
}

// awaitTurnEnd blocks until the letter threshold or typed submission fires,
// or the countdown reaches zero, whichever comes first. A one-second tick
// keeps the visible countdown moving.
func (g *Game) awaitTurnEnd(ctx context.Context) error {
	deadline := time.NewTimer(g.timeLimit)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.evalCh:
			return nil
		case <-deadline.C:
			return nil
		case <-ticker.C:
			g.mu.Lock()
			if g.timeLeft > 0 {
				g.timeLeft--
			}
			g.mu.Unlock()
			g.notifyState()
		}
	}
}

func (g *Game) beginRound(round int) []string {
	length := TargetLength(round)
	sequence := make([]string, length)
	for i := range sequence {
		sequence[i] = string(alphabet[g.rand.Intn(len(alphabet))])
	}

	g.mu.Lock()
	g.phase = PhaseAISpeaking
	g.round = round
	g.sequence = sequence
	g.finalTranscript = ""
	g.interim = ""
	g.timeLeft = int(g.timeLimit / time.Second)
	g.mu.Unlock()
	g.notifyState()
	return sequence
}

func (g *Game) openTurn() {
	g.mu.Lock()
	g.phase = PhaseUserSpeaking
	// Drop any stale trigger from the previous turn.
	select {
	case <-g.evalCh:
	default:
	}
	g.mu.Unlock()
	g.notifyState()
}

func (g *Game) evaluate(round int) RoundResult {
	g.mu.Lock()
	g.phase = PhaseEvaluating
	expected := g.sequence
	actual := speech.NormalizeToLetters(g.finalTranscript)
	g.mu.Unlock()
	g.notifyState()

	feedback := CompareSequences(expected, actual)
	success := feedback == PerfectFeedback
	result := RoundResult{
		Round:    round,
		Expected: expected,
		Actual:   actual,
		Feedback: feedback,
		Success:  success,
	}
	if !success {
		result.Coaching = coachingHints[g.rand.Intn(len(coachingHints))]
	}
	return result
}

// HandleTranscript feeds one recognition update into the current turn.
// Updates outside a user turn are ignored.
func (g *Game) HandleTranscript(ev recognition.Event) {
	g.mu.Lock()
	if g.phase != PhaseUserSpeaking {
		g.mu.Unlock()
		return
	}
	if ev.Final != "" {
		g.finalTranscript = strings.TrimSpace(g.finalTranscript + " " + ev.Final)
	}
	g.interim = ev.Interim
	raw := strings.TrimSpace(g.finalTranscript + " " + ev.Interim)
	letters := speech.NormalizeToLetters(raw)
	target := len(g.sequence)
	g.mu.Unlock()
	g.notifyState()

	if len(letters) >= target {
		g.signalTurnEnd()
	}
}

// SubmitText substitutes a typed answer for the spoken one and closes the
// turn immediately.
func (g *Game) SubmitText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	g.mu.Lock()
	if g.phase != PhaseUserSpeaking {
		g.mu.Unlock()
		return
	}
	g.finalTranscript = text
	g.mu.Unlock()

	g.listener.Stop()
	g.signalTurnEnd()
}

func (g *Game) signalTurnEnd() {
	select {
	case g.evalCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current externally visible state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw := strings.TrimSpace(g.finalTranscript + " " + g.interim)
	return Snapshot{
		Phase:        g.phase,
		Round:        g.round,
		Rounds:       g.rounds,
		TargetLength: len(g.sequence),
		TimeLeft:     g.timeLeft,
		Letters:      speech.NormalizeToLetters(raw),
	}
}

func (g *Game) notifyState() {
	if g.onState != nil {
		g.onState(g.Snapshot())
	}
}
