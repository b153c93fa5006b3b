// Package wrongname implements the misnaming game: an everyday object is
// shown and the player must call it anything except its real name. Saying the
// real name flashes an error; avoiding it scores a point and brings the next
// object.
package wrongname

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
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhaseDone    Phase = "done"
)

const (
	// DefaultDuration is the length of one whole game.
	DefaultDuration = 60 * time.Second
	// DefaultFlashDuration is how long a hit or miss highlight stays up.
	DefaultFlashDuration = 500 * time.Millisecond
)

// Item is one object whose real name is forbidden while it is shown.
type Item struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Catalog is the fixed pool of objects.
var Catalog = []Item{
	{Name: "spoon", Icon: "🥄"},
	{Name: "chair", Icon: "🪑"},
	{Name: "banana", Icon: "🍌"},
	{Name: "umbrella", Icon: "☂️"},
	{Name: "scissors", Icon: "✂️"},
	{Name: "guitar", Icon: "🎸"},
	{Name: "candle", Icon: "🕯️"},
	{Name: "clock", Icon: "⏰"},
	{Name: "bicycle", Icon: "🚲"},
	{Name: "pillow", Icon: "🛏️"},
	{Name: "toothbrush", Icon: "🪥"},
	{Name: "pumpkin", Icon: "🎃"},
	{Name: "ladder", Icon: "🪜"},
	{Name: "teapot", Icon: "🫖"},
	{Name: "balloon", Icon: "🎈"},
	{Name: "hammer", Icon: "🔨"},
}

// Flash is a short visual verdict after a final utterance.
type Flash struct {
	Active  bool `json:"active"`
	Correct bool `json:"correct"`
}

// Snapshot is the externally visible game state. The shown item's real name
// is the forbidden word.
type Snapshot struct {
	Phase    Phase `json:"phase"`
	Score    int   `json:"score"`
	TimeLeft int   `json:"timeLeft"`
	Item     Item  `json:"item"`
	Flash    Flash `json:"flash"`
}

// Listener is the recognition surface; recognition.Manager satisfies it.
type Listener interface {
	Start() error
	Stop()
}

// Config wires a Game to its collaborators.
type Config struct {
	Narrator      narration.Speaker
	Listener      Listener
	Duration      time.Duration
	FlashDuration time.Duration
	Rand          *rand.Rand
	OnState       func(Snapshot)
	Logger        *log.Logger
}

// Game is the misnaming turn controller. Recognition runs continuously for
// the whole game; every final transcript is checked against the forbidden
// word.
type Game struct {
	narrator      narration.Speaker
	listener      Listener
	duration      time.Duration
	flashDuration time.Duration
	rand          *rand.Rand
	onState       func(Snapshot)
	logger        *log.Logger

	mu         sync.Mutex
	phase      Phase
	score      int
	timeLeft   int
	item       Item
	flash      Flash
	flashTimer *time.Timer

	advanceCh chan struct{}
}

// New creates a Game with the fixed rules for any zero config field.
func New(cfg Config) *Game {
	g := &Game{
		narrator:      cfg.Narrator,
		listener:      cfg.Listener,
		duration:      cfg.Duration,
		flashDuration: cfg.FlashDuration,
		rand:          cfg.Rand,
		onState:       cfg.OnState,
		logger:        cfg.Logger,
		phase:         PhaseIdle,
		advanceCh:     make(chan struct{}, 1),
	}
	if g.duration <= 0 {
		g.duration = DefaultDuration
	}
	if g.flashDuration <= 0 {
		g.flashDuration = DefaultFlashDuration
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// Run plays one full game. Recognition starts once and stays on until the
// clock runs out or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	g.mu.Lock()
	g.phase = PhasePlaying
	g.score = 0
	g.timeLeft = int(g.duration / time.Second)
	g.mu.Unlock()

	if err := g.listener.Start(); err != nil {
		g.logger.Printf("wrongname: listener start failed: %v", err)
	}
	defer g.listener.Stop()

	g.rotate(true)

	deadline := time.NewTimer(g.duration)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.finish()
			return ctx.Err()
		case <-deadline.C:
			g.finish()
			return nil
		case <-g.advanceCh:
			g.rotate(false)
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

// HandleTranscript checks a final utterance against the forbidden word with a
// case-insensitive substring match. Saying the word only flashes an error;
// the item stays. Any other utterance scores and rotates to the next item.
func (g *Game) HandleTranscript(ev recognition.Event) {
	if ev.Final == "" {
		return
	}

	g.mu.Lock()
	if g.phase != PhasePlaying {
		g.mu.Unlock()
		return
	}
	saidForbidden := strings.Contains(strings.ToLower(ev.Final), strings.ToLower(g.item.Name))
	if !saidForbidden {
		g.score++
	}
	g.startFlashLocked(!saidForbidden)
	g.mu.Unlock()
	g.notifyState()

	if !saidForbidden {
		select {
		case g.advanceCh <- struct{}{}:
		default:
		}
	}
}

// Score returns the current score.
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// Snapshot returns the current externally visible state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Phase:    g.phase,
		Score:    g.score,
		TimeLeft: g.timeLeft,
		Item:     g.item,
		Flash:    g.flash,
	}
}

// rotate picks the next item, always different from the current one, and
// narrates the prompt for it.
func (g *Game) rotate(first bool) {
	g.mu.Lock()
	prev := g.item
	item := Catalog[g.rand.Intn(len(Catalog))]
	for item.Name == prev.Name {
		item = Catalog[g.rand.Intn(len(Catalog))]
	}
	g.item = item
	g.mu.Unlock()
	g.notifyState()

	g.narrator.Cancel()
	line := "Next one! What do you call this?"
	if first {
		line = fmt.Sprintf("Call it anything you like, just never its real name. You have %d seconds!", int(g.duration/time.Second))
	}
	if err := g.narrator.Speak(context.Background(), line); err != nil {
		g.logger.Printf("wrongname: narration failed: %v", err)
	}
}

func (g *Game) startFlashLocked(correct bool) {
	if g.flashTimer != nil {
		g.flashTimer.Stop()
	}
	g.flash = Flash{Active: true, Correct: correct}
	g.flashTimer = time.AfterFunc(g.flashDuration, func() {
		g.mu.Lock()
		g.flash = Flash{}
		g.mu.Unlock()
		g.notifyState()
	})
}

func (g *Game) finish() {
	g.mu.Lock()
	g.phase = PhaseDone
	if g.flashTimer != nil {
		g.flashTimer.Stop()
	}
	g.flash = Flash{}
	g.timeLeft = 0
	g.mu.Unlock()
	g.notifyState()
}

func (g *Game) notifyState() {
	if g.onState != nil {
		g.onState(g.Snapshot())
	}
}
