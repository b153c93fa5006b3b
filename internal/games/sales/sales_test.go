package sales

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lukasbauer/blabber/internal/recognition"
)

func TestChooseProductsDistinctWithoutReplacement(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		products := ChooseProducts(r)
		if len(products) < 1 || len(products) > 3 {
			t.Fatalf("got %d products, want 1-3", len(products))
		}
		seen := map[string]bool{}
		for _, p := range products {
			if seen[p.Name] {
				t.Fatalf("duplicate product %q in %v", p.Name, products)
			}
			seen[p.Name] = true
		}
	}
}

func TestChooseProductsDistribution(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	counts := map[int]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		counts[len(ChooseProducts(r))]++
	}
	// Loose bounds around 70/15/15.
	if single := float64(counts[1]) / trials; single < 0.65 || single > 0.75 {
		t.Errorf("single-product share = %.3f, want around 0.70", single)
	}
	if pair := float64(counts[2]) / trials; pair < 0.11 || pair > 0.19 {
		t.Errorf("pair share = %.3f, want around 0.15", pair)
	}
	if triple := float64(counts[3]) / trials; triple < 0.11 || triple > 0.19 {
		t.Errorf("triple share = %.3f, want around 0.15", triple)
	}
}

func TestProductName(t *testing.T) {
	products := []Product{{Name: "dehydrated water"}, {Name: "fireproof matches"}}
	if got := ProductName(products); got != "dehydrated water + fireproof matches" {
		t.Errorf("ProductName = %q", got)
	}
	if got := ProductName(products[:1]); got != "dehydrated water" {
		t.Errorf("ProductName single = %q", got)
	}
}

type nullSpeaker struct{}

func (nullSpeaker) Speak(context.Context, string) error { return nil }
func (nullSpeaker) Cancel()                             {}

type countingListener struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (l *countingListener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts++
	return nil
}

func (l *countingListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops++
}

type fakeEvaluator struct {
	mu         sync.Mutex
	calls      int
	transcript string
	product    string
	verdict    *Verdict
	err        error
}

func (e *fakeEvaluator) EvaluatePitch(_ context.Context, transcript, productName string) (*Verdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.transcript = transcript
	e.product = productName
	return e.verdict, e.err
}

func newTestGame(eval Evaluator) *Game {
	return New(Config{
		Narrator:  nullSpeaker{},
		Listener:  &countingListener{},
		Evaluator: eval,
		Duration:  time.Second,
		Rand:      rand.New(rand.NewSource(1)),
	})
}

func waitPhase(t *testing.T, g *Game, want Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if g.Snapshot().Phase == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase = %v, want %v", g.Snapshot().Phase, want)
}

func TestGameTranscriptAppendsKeepEdits(t *testing.T) {
	eval := &fakeEvaluator{verdict: &Verdict{OverallScore: 8}}
	g := newTestGame(eval)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	g.HandleTranscript(recognition.Event{Final: "this product"})
	g.EditTranscript("this amazing product")
	g.HandleTranscript(recognition.Event{Final: "will change your life forever"})

	want := "this amazing product will change your life forever"
	if got := g.Transcript(); got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}

	g.Finish()
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eval.transcript != want {
		t.Errorf("evaluated transcript = %q, want %q", eval.transcript, want)
	}
}

func TestGameShortPitchSkipsEvaluator(t *testing.T) {
	eval := &fakeEvaluator{verdict: &Verdict{OverallScore: 8}}
	g := newTestGame(eval)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	g.HandleTranscript(recognition.Event{Final: "buy it"})
	g.Finish()

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eval.calls != 0 {
		t.Errorf("evaluator calls = %d, want 0 for a short pitch", eval.calls)
	}
	verdict := g.Snapshot().Verdict
	if verdict == nil || !verdict.Fallback {
		t.Fatalf("verdict = %+v, want a local fallback", verdict)
	}
	if verdict.OverallScore > 3 {
		t.Errorf("short-pitch score = %d, want a low fixed score", verdict.OverallScore)
	}
}

func TestGameLongPitchReachesEvaluator(t *testing.T) {
	eval := &fakeEvaluator{verdict: &Verdict{GrammarScore: 7, StrategyScore: 8, OverallScore: 8}}
	g := newTestGame(eval)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	g.HandleTranscript(recognition.Event{Final: "this fine product solves a problem you did not know you had"})
	g.Finish()

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eval.calls != 1 {
		t.Fatalf("evaluator calls = %d, want 1", eval.calls)
	}
	if eval.product == "" {
		t.Error("product name sent to the evaluator is empty")
	}
	verdict := g.Snapshot().Verdict
	if verdict == nil || verdict.Fallback || verdict.OverallScore != 8 {
		t.Errorf("verdict = %+v, want the evaluator's verdict", verdict)
	}
}

func TestGameEvaluatorFailureFallsBack(t *testing.T) {
	eval := &fakeEvaluator{err: context.DeadlineExceeded}
	g := newTestGame(eval)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	g.HandleTranscript(recognition.Event{Final: "a pitch long enough to be sent for real evaluation"})
	g.Finish()

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eval.calls != 1 {
		t.Errorf("evaluator calls = %d, want 1 (no retry)", eval.calls)
	}
	verdict := g.Snapshot().Verdict
	if verdict == nil || !verdict.Fallback {
		t.Errorf("verdict = %+v, want the fixed fallback", verdict)
	}
}

func TestGameFinishIsIdempotent(t *testing.T) {
	eval := &fakeEvaluator{verdict: &Verdict{OverallScore: 6}}
	g := newTestGame(eval)

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	g.HandleTranscript(recognition.Event{Final: "a pitch long enough to be sent for real evaluation"})
	g.Finish()
	g.Finish()
	g.Finish()

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if eval.calls != 1 {
		t.Errorf("evaluator calls = %d, want exactly 1", eval.calls)
	}
	if g.Snapshot().Phase != PhaseDone {
		t.Errorf("phase = %v, want done", g.Snapshot().Phase)
	}
}

func TestGameCountdownFreezesTranscript(t *testing.T) {
	eval := &fakeEvaluator{verdict: &Verdict{OverallScore: 6}}
	g := New(Config{
		Narrator:  nullSpeaker{},
		Listener:  &countingListener{},
		Evaluator: eval,
		Duration:  50 * time.Millisecond,
		Rand:      rand.New(rand.NewSource(1)),
	})

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background()) }()
	waitPhase(t, g, PhasePitching)

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frozen := g.Transcript()
	g.HandleTranscript(recognition.Event{Final: "too late"})
	g.EditTranscript("also too late")
	if g.Transcript() != frozen {
		t.Error("transcript changed after the pitch ended")
	}
}

func TestClientEvaluatePitch(t *testing.T) {
	var gotBody evaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/evaluate-pitch" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Verdict{
			GrammarScore:  7,
			StrategyScore: 6,
			OverallScore:  7,
			Feedback:      Feedback{Summary: "solid"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	verdict, err := c.EvaluatePitch(context.Background(), "a long enough pitch", "dehydrated water")
	if err != nil {
		t.Fatalf("EvaluatePitch failed: %v", err)
	}
	if verdict.OverallScore != 7 || verdict.Feedback.Summary != "solid" {
		t.Errorf("verdict = %+v", verdict)
	}
	if gotBody.Transcript != "a long enough pitch" || gotBody.ProductName != "dehydrated water" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestClientRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "transcript too short", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.EvaluatePitch(context.Background(), "hi", "spoon"); err == nil {
		t.Fatal("EvaluatePitch should fail on a 400")
	}
}

func TestClientRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.EvaluatePitch(context.Background(), "a long enough pitch", "spoon"); err == nil {
		t.Fatal("EvaluatePitch should fail on a malformed body")
	}
}
