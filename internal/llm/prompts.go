package llm

import "fmt"

// pitchPromptTemplate asks for a strict JSON verdict. The model still wraps
// it in prose occasionally, which is why callers run ExtractFirstJSON on the
// output.
const pitchPromptTemplate = `You are a friendly sales coach for language learners practicing their speaking.
A learner just pitched this product: %q

Their pitch transcript:
"""
%s
"""

Score the pitch and respond with ONLY a JSON object in exactly this shape:
{
  "grammarScore": <0-10 integer>,
  "strategyScore": <0-10 integer>,
  "overallScore": <0-10 integer>,
  "feedback": {
    "strengths": "<one or two encouraging sentences about what worked>",
    "improvements": "<one or two concrete, kind suggestions>",
    "summary": "<one sentence wrap-up>"
  }
}

Be generous: these are learners, not professionals. Never score below 3 for an honest attempt.`

// PitchPrompt builds the scoring prompt for one finished pitch.
func PitchPrompt(transcript, productName string) string {
	return fmt.Sprintf(pitchPromptTemplate, productName, transcript)
}
