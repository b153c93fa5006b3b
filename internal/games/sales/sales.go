// Package sales implements the pitch game: the player gets one or more
// absurd products and a minute to sell them. The finished transcript is
// scored remotely; every failure path still produces a verdict.
package sales

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lukasbauer/blabber/internal/narration"
	"github.com/lukasbauer/blabber/internal/recognition"
)

// Phase is the coarse game state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePitching   Phase = "pitching"
	PhaseEvaluating Phase = "evaluating"
	PhaseDone       Phase = "done"
)

// DefaultDuration is the pitch countdown.
const DefaultDuration = 60 * time.Second

// Snapshot is the externally visible game state.
type Snapshot struct {
	Phase      Phase     `json:"phase"`
	Products   []Product `json:"products"`
	Transcript string    `json:"transcript"`
	TimeLeft   int       `json:"timeLeft"`
	Verdict    *Verdict  `json:"verdict,omitempty"`
}

// Listener is the recognition surface; recognition.Manager satisfies it.
type Listener interface {
	Start() error
	Stop()
}

// Config wires a Game to its collaborators.
type Config struct {
	Narrator  narration.Speaker
	Listener  Listener
	Evaluator Evaluator
	Duration  time.Duration
	Rand      *rand.Rand
	OnState   func(Snapshot)
	OnVerdict func(*Verdict)
	Logger    *log.Logger
}

// Game is the sales pitch turn controller.
type Game struct {
	narrator  narration.Speaker
	listener  Listener
	evaluator Evaluator
	duration  time.Duration
	rand      *rand.Rand
	onState   func(Snapshot)
	onVerdict func(*Verdict)
	logger    *log.Logger

	mu         sync.Mutex
	phase      Phase
	products   []Product
	transcript string
	timeLeft   int
	verdict    *Verdict

	// finishCh carries the early-finish trigger; capacity one so the first
	// finish wins and later ones are dropped.
	finishCh chan struct{}
}

// New creates a Game with the fixed rules for any zero config field.
func New(cfg Config) *Game {
	g := &Game{
		narrator:  cfg.Narrator,
		listener:  cfg.Listener,
		evaluator: cfg.Evaluator,
		duration:  cfg.Duration,
		rand:      cfg.Rand,
		onState:   cfg.OnState,
		onVerdict: cfg.OnVerdict,
		logger:    cfg.Logger,
		phase:     PhaseIdle,
		finishCh:  make(chan struct{}, 1),
	}
	if g.duration <= 0 {
		g.duration = DefaultDuration
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// Run plays one full pitch: draw products, narrate the brief, listen until
// the clock runs out or Finish fires, then score. It blocks until the verdict
// is delivered or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	products := ChooseProducts(g.rand)

	g.mu.Lock()
	g.phase = PhasePitching
	g.products = products
	g.transcript = ""
	g.verdict = nil
	g.timeLeft = int(g.duration / time.Second)
	g.mu.Unlock()
	g.notifyState()

	g.narrator.Cancel()
	brief := fmt.Sprintf("Your product is: %s. You have %d seconds. Sell it to me!",
		ProductName(products), int(g.duration/time.Second))
	if err := g.narrator.Speak(ctx, brief); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.logger.Printf("sales: narration failed: %v", err)
	}

	if err := g.listener.Start(); err != nil {
		g.logger.Printf("sales: listener start failed: %v", err)
	}

	if err := g.awaitPitchEnd(ctx); err != nil {
		g.listener.Stop()
		return err
	}
	g.listener.Stop()

	verdict := g.evaluate(ctx)

	g.mu.Lock()
	g.phase = PhaseDone
	g.verdict = verdict
	g.mu.Unlock()
	g.notifyState()
	if g.onVerdict != nil {
		g.onVerdict(verdict)
	}
	return nil
}

func (g *Game) awaitPitchEnd(ctx context.Context) error {
	deadline := time.NewTimer(g.duration)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.finishCh:
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

// evaluate freezes the transcript and produces a verdict. Short pitches are
// scored locally; evaluator failures fall back to a fixed verdict, never a
// retry.
func (g *Game) evaluate(ctx context.Context) *Verdict {
	g.mu.Lock()
	g.phase = PhaseEvaluating
	transcript := strings.TrimSpace(g.transcript)
	productName := ProductName(g.products)
	g.mu.Unlock()
	g.notifyState()

	if len(transcript) < MinTranscriptLen {
		return ShortPitchVerdict()
	}

	callCtx, cancel := context.WithTimeout(ctx, EvaluateTimeout)
	defer cancel()
	verdict, err := g.evaluator.EvaluatePitch(callCtx, transcript, productName)
	if err != nil {
		g.logger.Printf("sales: evaluation failed: %v", err)
		return UnavailableVerdict()
	}
	return verdict
}

// HandleTranscript appends each final segment to the growing transcript.
// Appends never overwrite text the player already typed; they only extend it.
func (g *Game) HandleTranscript(ev recognition.Event) {
	if ev.Final == "" {
		return
	}
	g.mu.Lock()
	if g.phase != PhasePitching {
		g.mu.Unlock()
		return
	}
	g.transcript = strings.TrimSpace(g.transcript + " " + ev.Final)
	g.mu.Unlock()
	g.notifyState()
}

// EditTranscript replaces the transcript with the player's edited text.
// Recognition segments arriving afterwards append to the edited version.
func (g *Game) EditTranscript(text string) {
	g.mu.Lock()
	if g.phase != PhasePitching {
		g.mu.Unlock()
		return
	}
	g.transcript = text
	g.mu.Unlock()
	g.notifyState()
}

// Finish ends the pitch early. Safe to call more than once; only the first
// call has an effect.
func (g *Game) Finish() {
	g.mu.Lock()
	pitching := g.phase == PhasePitching
	g.mu.Unlock()
	if !pitching {
		return
	}
	select {
	case g.finishCh <- struct{}{}:
	default:
	}
}

// Transcript returns the current pitch text.
func (g *Game) Transcript() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transcript
}

// Snapshot returns the current externally visible state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Phase:      g.phase,
		Products:   g.products,
		Transcript: g.transcript,
		TimeLeft:   g.timeLeft,
		Verdict:    g.verdict,
	}
}

func (g *Game) notifyState() {
	if g.onState != nil {
		g.onState(g.Snapshot())
	}
}
