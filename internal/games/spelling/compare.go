package spelling

import "fmt"

// PerfectFeedback is the verdict for an exact repetition.
const PerfectFeedback = "Perfect repetition!"

// CompareSequences scores a repeated letter sequence against the expected one.
// Checks run in a fixed order so the verdict is deterministic: the first
// positional mismatch wins over length differences, a too-short answer names
// the first missed letter, a too-long answer names the first extra one.
func CompareSequences(expected, actual []string) string {
	n := len(expected)
	if len(actual) < n {
		n = len(actual)
	}
	for i := 0; i < n; i++ {
		if actual[i] != expected[i] {
			return fmt.Sprintf("Order mistake at position %d: you said %s instead of %s.", i+1, actual[i], expected[i])
		}
	}
	if len(actual) < len(expected) {
		return fmt.Sprintf("You missed the letter %s.", expected[len(actual)])
	}
	if len(actual) > len(expected) {
		return fmt.Sprintf("You said an extra letter %s.", actual[len(expected)])
	}
	return PerfectFeedback
}
