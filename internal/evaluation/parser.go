package evaluation

import (
	"encoding/json"
	"log"
	"strings"
)

// Sentinel is the canonical marker the instruction builder asks the model
// to emit between the user-visible reply and the evaluation payload.
const Sentinel = "---EVALUACION---"

// sentinelVariants are the spellings accepted on the way back in, compared
// case-insensitively. Models drift on spacing, case and accents; matching
// folds case and enumerates the spacing/accent shapes.
var sentinelVariants = []string{
	"---evaluacion---",
	"--- evaluacion ---",
	"---evaluación---",
	"--- evaluación ---",
}

// Parse splits raw model text into the user-visible reply and, when
// present and well formed, the embedded evaluation. Any failure past the
// sentinel returns the full original text untouched and a nil result: a
// malformed payload means "no evaluation happened this turn", never a
// corrupted reply.
func Parse(raw string) (string, *Result) {
	idx, sentinel := findSentinel(raw)
	if idx < 0 {
		return raw, nil
	}

	visible := strings.TrimSpace(raw[:idx])
	payload := sanitizePayload(raw[idx+len(sentinel):])
	if payload == "" {
		return raw, nil
	}

	var res Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		log.Printf("[Evaluation] payload after sentinel did not parse, ignoring: %v", err)
		return raw, nil
	}
	return visible, &res
}

// findSentinel returns the earliest occurrence of any accepted variant.
// The comparison is case-folded; for the characters involved (ASCII plus
// Ó/ó) lowering preserves byte offsets, so indexes into the folded string
// are valid in the original.
func findSentinel(raw string) (int, string) {
	lower := strings.ToLower(raw)
	best := -1
	bestSentinel := ""
	for _, s := range sentinelVariants {
		if i := strings.Index(lower, s); i >= 0 && (best < 0 || i < best) {
			best = i
			bestSentinel = s
		}
	}
	return best, bestSentinel
}

// sanitizePayload strips the stray wrapping models add around the JSON
// object: markdown fences, quotes, leading prose. The object itself is
// taken from the first '{' to the last '}'.
func sanitizePayload(after string) string {
	s := strings.TrimSpace(after)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "\"'` \n\t")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
