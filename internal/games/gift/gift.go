// Package gift implements the gift dialogue game: a short scripted
// conversation in which the AI gives the player a present, or receives one
// from them, and responds with templated lines built from keywords in what
// the player said.
package gift

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

// Stage is the single current conversation stage. Transitions are strictly
// sequential and driven by narration completion: a user stage never opens
// while the AI is still talking.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageRevealing  Stage = "revealing"  // receiving: AI presents the gift
	StageReacting   Stage = "reacting"   // receiving: user reacts
	StageJustifying Stage = "justifying" // receiving: AI explains the choice
	StageAsking     Stage = "asking"     // giving: AI asks what it gets
	StageNaming     Stage = "naming"     // giving: user names the gift
	StageWondering  Stage = "wondering"  // giving: AI reacts and asks why
	StageExplaining Stage = "explaining" // giving: user explains
	StageReflecting Stage = "reflecting" // giving: AI reflects on the reason
	StageComplete   Stage = "complete"
)

// DefaultThinkDelay is the pause before an AI reply, so the answer does not
// land the instant the player stops talking.
const DefaultThinkDelay = 1500 * time.Millisecond

// Sender identifies who wrote a conversation message.
type Sender string

const (
	SenderAI   Sender = "ai"
	SenderUser Sender = "user"
)

// Message is one entry in the conversation log. The log is append-only for
// the duration of a branch and cleared when a new branch starts.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
	Gift   *Gift  `json:"gift,omitempty"`
}

// Snapshot is the externally visible conversation state.
type Snapshot struct {
	Stage    Stage     `json:"stage"`
	Messages []Message `json:"messages"`
}

// Listener is the recognition surface; recognition.Manager satisfies it.
type Listener interface {
	Start() error
	Stop()
}

// Config wires a Game to its collaborators.
type Config struct {
	Narrator   narration.Speaker
	Listener   Listener
	ThinkDelay time.Duration
	Rand       *rand.Rand
	OnState    func(Snapshot)
	Logger     *log.Logger
}

// Game runs one gift conversation. RunReceiving and RunGiving each play one
// branch; HandleTranscript and SubmitText feed the user stages.
type Game struct {
	narrator   narration.Speaker
	listener   Listener
	thinkDelay time.Duration
	rand       *rand.Rand
	onState    func(Snapshot)
	logger     *log.Logger

	mu       sync.Mutex
	stage    Stage
	messages []Message

	// inputCh delivers one user utterance per user stage; capacity one so the
	// first source (recognition or typing) wins and the loser is dropped.
	inputCh chan string
}

// New creates a Game with the fixed rules for any zero config field.
func New(cfg Config) *Game {
	g := &Game{
		narrator:   cfg.Narrator,
		listener:   cfg.Listener,
		thinkDelay: cfg.ThinkDelay,
		rand:       cfg.Rand,
		onState:    cfg.OnState,
		logger:     cfg.Logger,
		stage:      StageIdle,
		inputCh:    make(chan string, 1),
	}
	if g.thinkDelay < 0 {
		g.thinkDelay = 0
	} else if g.thinkDelay == 0 {
		g.thinkDelay = DefaultThinkDelay
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// RunReceiving plays the branch where the AI gives the player a gift.
func (g *Game) RunReceiving(ctx context.Context) error {
	defer g.listener.Stop()
	g.reset()

	present := RandomGift(g.rand)
	reveal := revealLine(g.rand, present)
	if err := g.aiSays(ctx, StageRevealing, reveal, &present); err != nil {
		return err
	}

	reaction, err := g.userTurn(ctx, StageReacting)
	if err != nil {
		return err
	}

	keyword := firstKeyword(reaction)
	if err := g.think(ctx); err != nil {
		return err
	}
	if err := g.aiSays(ctx, StageJustifying, justificationLine(g.rand, present, keyword), nil); err != nil {
		return err
	}

	g.setStage(StageComplete)
	return nil
}

// RunGiving plays the branch where the player gives the AI a gift.
func (g *Game) RunGiving(ctx context.Context) error {
	defer g.listener.Stop()
	g.reset()

	if err := g.aiSays(ctx, StageAsking, askLine(g.rand), nil); err != nil {
		return err
	}

	named, err := g.userTurn(ctx, StageNaming)
	if err != nil {
		return err
	}

	if err := g.think(ctx); err != nil {
		return err
	}
	if err := g.aiSays(ctx, StageWondering, surpriseLine(g.rand, firstKeyword(named)), nil); err != nil {
		return err
	}
	if err := g.aiSays(ctx, StageWondering, askWhyLine(g.rand), nil); err != nil {
		return err
	}

	reason, err := g.userTurn(ctx, StageExplaining)
	if err != nil {
		return err
	}

	if err := g.think(ctx); err != nil {
		return err
	}
	if err := g.aiSays(ctx, StageReflecting, reflectionLine(g.rand, firstKeyword(reason)), nil); err != nil {
		return err
	}

	g.setStage(StageComplete)
	return nil
}

// HandleTranscript delivers a final utterance to the current user stage.
// Interims and out-of-turn finals are ignored.
func (g *Game) HandleTranscript(ev recognition.Event) {
	final := strings.TrimSpace(ev.Final)
	if final == "" {
		return
	}
	g.mu.Lock()
	open := userStage(g.stage)
	g.mu.Unlock()
	if !open {
		return
	}
	select {
	case g.inputCh <- final:
	default:
	}
}

// SubmitText substitutes a typed utterance for a spoken one. It cancels any
// in-progress recognition before being accepted.
func (g *Game) SubmitText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	g.mu.Lock()
	open := userStage(g.stage)
	g.mu.Unlock()
	if !open {
		return
	}
	g.listener.Stop()
	select {
	case g.inputCh <- text:
	default:
	}
}

// Snapshot returns the current externally visible state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := make([]Message, len(g.messages))
	copy(msgs, g.messages)
	return Snapshot{Stage: g.stage, Messages: msgs}
}

// aiSays appends an AI message and narrates it to completion. Recognition is
// off for the whole utterance.
func (g *Game) aiSays(ctx context.Context, stage Stage, line string, attached *Gift) error {
	g.listener.Stop()

	g.mu.Lock()
	g.stage = stage
	g.messages = append(g.messages, Message{Text: line, Sender: SenderAI, Gift: attached})
	g.mu.Unlock()
	g.notifyState()

	g.narrator.Cancel()
	if err := g.narrator.Speak(ctx, line); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The line is already on screen; the conversation can continue.
		g.logger.Printf("gift: narration failed: %v", err)
	}
	return nil
}

// userTurn opens a user stage, starts recognition, and waits for exactly one
// utterance from either input path.
func (g *Game) userTurn(ctx context.Context, stage Stage) (string, error) {
	g.mu.Lock()
	g.stage = stage
	// Drop any stale utterance from the previous turn.
	select {
	case <-g.inputCh:
	default:
	}
	g.mu.Unlock()
	g.notifyState()

	if err := g.listener.Start(); err != nil {
		g.logger.Printf("gift: listener start failed: %v", err)
	}

	select {
	case <-ctx.Done():
		g.listener.Stop()
		return "", ctx.Err()
	case text := <-g.inputCh:
		g.listener.Stop()
		g.mu.Lock()
		g.messages = append(g.messages, Message{Text: text, Sender: SenderUser})
		g.mu.Unlock()
		g.notifyState()
		return text, nil
	}
}

func (g *Game) think(ctx context.Context) error {
	if g.thinkDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.thinkDelay):
		return nil
	}
}

func (g *Game) reset() {
	g.mu.Lock()
	g.stage = StageIdle
	g.messages = nil
	select {
	case <-g.inputCh:
	default:
	}
	g.mu.Unlock()
	g.notifyState()
}

func (g *Game) setStage(stage Stage) {
	g.mu.Lock()
	g.stage = stage
	g.mu.Unlock()
	g.notifyState()
}

func (g *Game) notifyState() {
	if g.onState != nil {
		g.onState(g.Snapshot())
	}
}

func userStage(s Stage) bool {
	switch s {
	case StageReacting, StageNaming, StageExplaining:
		return true
	}
	return false
}

// firstKeyword extracts the first content word from an utterance, or "" when
// none survive the stop-word filter.
func firstKeyword(text string) string {
	keywords := speech.ExtractKeywords(text)
	if len(keywords) == 0 {
		return ""
	}
	return keywords[0]
}
