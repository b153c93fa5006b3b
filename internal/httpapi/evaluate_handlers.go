package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lukasbauer/blabber/internal/games/sales"
	"github.com/lukasbauer/blabber/internal/llm"
)

// minEvaluateLen is the trimmed transcript length below which the endpoint
// rejects the request outright instead of wasting a model round trip.
const minEvaluateLen = 5

// evaluateTimeout is the hard cap on one model generation.
const evaluateTimeout = 60 * time.Second

type evaluatePitchRequest struct {
	Transcript  string `json:"transcript"`
	ProductName string `json:"productName"`
}

// evaluateWithModel scores one pitch with the local model. The model is asked
// for strict JSON but tends to wrap it in prose, so the first JSON object is
// extracted from whatever came back.
func (r *Router) evaluateWithModel(ctx context.Context, transcript, productName string) (*sales.Verdict, error) {
	raw, err := r.llm.Generate(ctx, llm.PitchPrompt(transcript, productName))
	if err != nil {
		return nil, err
	}

	extracted, err := llm.ExtractFirstJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("model returned no usable verdict: %w", err)
	}

	var verdict sales.Verdict
	if err := json.Unmarshal([]byte(extracted), &verdict); err != nil {
		return nil, fmt.Errorf("model returned a malformed verdict: %w", err)
	}

	verdict.GrammarScore = clampScore(verdict.GrammarScore)
	verdict.StrategyScore = clampScore(verdict.StrategyScore)
	verdict.OverallScore = clampScore(verdict.OverallScore)
	verdict.Fallback = false
	return &verdict, nil
}

// handleEvaluatePitch scores a finished sales pitch.
func (r *Router) handleEvaluatePitch(w http.ResponseWriter, req *http.Request) {
	var body evaluatePitchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	transcript := strings.TrimSpace(body.Transcript)
	if len(transcript) < minEvaluateLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transcript too short to evaluate",
		})
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), evaluateTimeout)
	defer cancel()

	verdict, err := r.evaluateWithModel(ctx, transcript, body.ProductName)
	if err != nil {
		r.logger.Printf("evaluate: %v", err)
		captureError(req, err, "evaluate: pitch evaluation failed")
		r.discord.NotifyEvaluatorDown(req.Context(), r.cfg.OllamaURL, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "evaluation failed",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
