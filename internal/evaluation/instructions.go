package evaluation

import (
	"fmt"
	"strings"

	"coachdesk/internal/activity"

	"gorm.io/gorm"
)

// DefaultInterval is how often a turn carries evaluation instructions when
// the config does not override it.
const DefaultInterval = 3

// ShouldEvaluate decides whether the interaction at index n (1-based)
// requests an evaluation: the first interaction and every interval-th one
// after that.
func ShouldEvaluate(n, interval int) bool {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return n == 1 || n%interval == 0
}

// Builder renders the rubric/deliverable instruction block appended to the
// outgoing system prompt on evaluating turns.
type Builder struct {
	db *gorm.DB
}

func NewBuilder(db *gorm.DB) *Builder {
	return &Builder{db: db}
}

// BuildInstructions canonicalizes the activity id, fetches its
// deliverables and rubric and renders them plus the sentinel-delimited
// JSON example the model must emit. With nothing configured, a minimal
// interaction-count criterion is used so evaluation still happens.
func (b *Builder) BuildInstructions(activityID uint, activityData string, interactionIndex int) (string, error) {
	id := activity.ResolveID(b.db, activityID)
	store := activity.NewStore(b.db)

	deliverables, err := store.Deliverables(id)
	if err != nil {
		return "", fmt.Errorf("failed to load deliverables: %w", err)
	}
	rubric, err := store.Rubric(id)
	if err != nil {
		return "", fmt.Errorf("failed to load rubric: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString("\n\nEVALUATION INSTRUCTIONS:\n")
	prompt.WriteString("First answer the user normally. Then, on a new line, emit the literal marker and a JSON object as shown below.\n\n")

	if activityData != "" {
		prompt.WriteString("ACTIVITY CONTEXT:\n")
		prompt.WriteString(activityData)
		prompt.WriteString("\n\n")
	}

	if len(deliverables) == 0 && len(rubric) == 0 {
		prompt.WriteString("CRITERIA:\n")
		prompt.WriteString("- The user has engaged with the activity for at least 2 interactions\n\n")
	} else {
		if len(deliverables) > 0 {
			prompt.WriteString("DELIVERABLES the user must have produced:\n")
			for _, d := range deliverables {
				prompt.WriteString(fmt.Sprintf("- [%s] %s\n", d.Code, d.Description))
			}
			prompt.WriteString("\n")
		}
		if len(rubric) > 0 {
			prompt.WriteString("RUBRIC (score each criterion 0.0-1.0):\n")
			for _, rc := range rubric {
				prompt.WriteString(fmt.Sprintf("- %s (weight %.2f): %s\n", rc.CriterionID, rc.Weight, rc.SuccessCriteria))
			}
			prompt.WriteString("\n")
		}
	}

	prompt.WriteString(fmt.Sprintf("This is interaction %d.\n\n", interactionIndex))
	prompt.WriteString("After your reply, output exactly:\n\n")
	prompt.WriteString(Sentinel)
	prompt.WriteString("\n")
	prompt.WriteString("{\"isCompleted\": false, \"message\": \"short feedback for the user\", \"details\": {\"overallScore\": 0.0, \"rubric\": {")
	for i, rc := range rubric {
		if i > 0 {
			prompt.WriteString(", ")
		}
		prompt.WriteString(fmt.Sprintf("\"%s\": 0.0", rc.CriterionID))
	}
	prompt.WriteString("}}}\n\n")
	prompt.WriteString("RULES:\n")
	prompt.WriteString("- The JSON must be valid, on its own lines, with no markdown fences\n")
	prompt.WriteString("- Set isCompleted true only when every deliverable is present and the rubric is satisfied\n")
	prompt.WriteString("- overallScore is the weighted rubric average, 0.0-1.0\n")

	return prompt.String(), nil
}
