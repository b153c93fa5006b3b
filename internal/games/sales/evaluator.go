package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MinTranscriptLen is the trimmed length below which a pitch is scored
// locally instead of being sent to the evaluator.
const MinTranscriptLen = 20

// EvaluateTimeout is the hard cap on one evaluator round trip.
const EvaluateTimeout = 60 * time.Second

// Feedback is the written part of a pitch verdict.
type Feedback struct {
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Summary      string `json:"summary"`
}

// Verdict is a scored pitch evaluation. Scores run 0-10.
type Verdict struct {
	GrammarScore  int      `json:"grammarScore"`
	StrategyScore int      `json:"strategyScore"`
	OverallScore  int      `json:"overallScore"`
	Feedback      Feedback `json:"feedback"`
	// Fallback marks verdicts constructed locally rather than scored by the
	// evaluator, so the result screen can label them honestly.
	Fallback bool `json:"fallback,omitempty"`
}

// ShortPitchVerdict scores a pitch too short to evaluate. Produced locally;
// the evaluator is never called.
func ShortPitchVerdict() *Verdict {
	return &Verdict{
		GrammarScore:  2,
		StrategyScore: 2,
		OverallScore:  2,
		Feedback: Feedback{
			Strengths:    "You gave it a go!",
			Improvements: "Try speaking for longer. A pitch needs a few full sentences to land.",
			Summary:      "Too short to score properly. Keep talking next time!",
		},
		Fallback: true,
	}
}

// UnavailableVerdict stands in when the evaluator fails for any reason. The
// game always reaches its completion screen.
func UnavailableVerdict() *Verdict {
	return &Verdict{
		GrammarScore:  5,
		StrategyScore: 5,
		OverallScore:  5,
		Feedback: Feedback{
			Strengths:    "You finished a full pitch, which is the hard part.",
			Improvements: "We couldn't score this one, so no specific notes this time.",
			Summary:      "Scoring is unavailable right now. Your pitch still counts for practice!",
		},
		Fallback: true,
	}
}

// Evaluator scores a finished pitch.
type Evaluator interface {
	EvaluatePitch(ctx context.Context, transcript, productName string) (*Verdict, error)
}

// Client is the HTTP Evaluator talking to the pitch evaluation endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an evaluator client with the hard request timeout baked
// into its HTTP client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: EvaluateTimeout},
	}
}

type evaluateRequest struct {
	Transcript  string `json:"transcript"`
	ProductName string `json:"productName"`
}

// EvaluatePitch posts the transcript and composed product name and decodes
// the structured verdict. Any non-200 status or undecodable body is an error;
// the caller falls back locally, never retries.
func (c *Client) EvaluatePitch(ctx context.Context, transcript, productName string) (*Verdict, error) {
	body, err := json.Marshal(evaluateRequest{Transcript: transcript, ProductName: productName})
	if err != nil {
		return nil, fmt.Errorf("evaluate pitch: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/evaluate-pitch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("evaluate pitch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("evaluate pitch: timed out after %s: %w", EvaluateTimeout, err)
		}
		return nil, fmt.Errorf("evaluate pitch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("evaluate pitch: status %d: %s", resp.StatusCode, string(b))
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("evaluate pitch: decode response: %w", err)
	}
	return &verdict, nil
}
