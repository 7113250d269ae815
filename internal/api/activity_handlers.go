package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"coachdesk/internal/activity"
	"coachdesk/internal/config"
	"coachdesk/internal/content"
	"coachdesk/internal/db"
	"coachdesk/internal/engine"
	"coachdesk/internal/evaluation"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// GET /activities/:id/deliverables
func ListDeliverablesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}
		store := activity.NewStore(db.DB)
		rows, err := store.Deliverables(uint(idUint))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch deliverables"}})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// POST /activities/:id/deliverables  [admin only]
func CreateDeliverableHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}
		var req struct {
			Code           string         `json:"code"`
			Description    string         `json:"description"`
			DetectionQuery datatypes.JSON `json:"detection_query"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing code"}})
			return
		}
		d := activity.Deliverable{
			Code:           req.Code,
			Description:    req.Description,
			DetectionQuery: req.DetectionQuery,
		}
		store := activity.NewStore(db.DB)
		if err := store.CreateDeliverable(uint(idUint), &d); err != nil {
			if errors.Is(err, activity.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": err.Error()}})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

// GET /activities/:id/rubric
func ListRubricHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}
		store := activity.NewStore(db.DB)
		rows, err := store.Rubric(uint(idUint))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch rubric"}})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// POST /activities/:id/rubric  [admin only]
func CreateCriterionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}
		var req struct {
			CriterionID     string  `json:"criterion_id"`
			SuccessCriteria string  `json:"success_criteria"`
			Weight          float64 `json:"weight"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.CriterionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing criterion_id"}})
			return
		}
		rc := activity.RubricCriterion{
			CriterionID:     req.CriterionID,
			SuccessCriteria: req.SuccessCriteria,
			Weight:          req.Weight,
		}
		store := activity.NewStore(db.DB)
		if err := store.CreateCriterion(uint(idUint), &rc); err != nil {
			if errors.Is(err, activity.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": err.Error()}})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusCreated, rc)
	}
}

// POST /activities/:id/turns
// One conversational turn of an activity: appends evaluation instructions
// when the turn is due, calls the engine, splits the reply from the
// embedded verdict and records the outcome idempotently.
func ActivityTurnHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "unauthorized"}})
			return
		}
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}

		var req struct {
			Messages []engine.Message `json:"messages"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing messages"}})
			return
		}

		canonicalID := activity.ResolveID(db.DB, uint(idUint))
		act, err := content.ResolveActivity(db.DB, canonicalID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to load activity"}})
			return
		}
		if act == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Activity not found"}})
			return
		}

		// Interaction index is the count of user turns so far.
		interaction := 0
		for _, m := range req.Messages {
			if m.Role == "user" {
				interaction++
			}
		}

		systemPrompt := act.SystemInstructions
		if act.PromptSection != "" {
			systemPrompt += "\n\n" + act.PromptSection
		}

		evaluating := evaluation.ShouldEvaluate(interaction, cfg.Evaluation.Interval)
		if evaluating {
			builder := evaluation.NewBuilder(db.DB)
			instructions, err := builder.BuildInstructions(canonicalID, string(act.ActivityData), interaction)
			if err != nil {
				// An evaluation that cannot be prepared never blocks the
				// conversation itself.
				log.Printf("[Activity] failed to build evaluation instructions for %d: %v", canonicalID, err)
				evaluating = false
			} else {
				systemPrompt += instructions
			}
		}

		raw, err := engine.Converse(cfg, req.Messages, systemPrompt)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "engine failure", "detail": err.Error()}})
			return
		}

		visible, result := evaluation.Parse(raw)

		resp := gin.H{"reply": visible, "evaluated": false}
		if result != nil {
			turns := make([]string, 0, len(req.Messages))
			for _, m := range req.Messages {
				turns = append(turns, m.Role+":"+m.Content)
			}
			scores := datatypes.JSONMap{}
			for k, v := range result.Details.Rubric {
				scores[k] = v
			}
			entry := evaluation.EvaluationLog{
				ActivityID:       canonicalID,
				UserID:           userID,
				RubricScores:     scores,
				OverallScore:     result.Details.OverallScore,
				FeedbackMessage:  result.Message,
				IsCompleted:      result.IsCompleted,
				ConversationHash: evaluation.ConversationHash(canonicalID, userID, turns),
			}
			recorder := evaluation.NewRecorder(db.DB)
			if err := recorder.Record(&entry); err != nil {
				// The reply still reaches the user; the lost log is only logged.
				log.Printf("[Activity] failed to record evaluation for %d/%d: %v", canonicalID, userID, err)
			}
			resp["evaluated"] = true
			resp["evaluation"] = gin.H{
				"is_completed":  result.IsCompleted,
				"overall_score": result.Details.OverallScore,
				"message":       result.Message,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GET /activities/:id/completion
func ActivityCompletionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "unauthorized"}})
			return
		}
		idUint, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid activity id"}})
			return
		}
		canonicalID := activity.ResolveID(db.DB, uint(idUint))
		recorder := evaluation.NewRecorder(db.DB)
		rec, err := recorder.Completion(canonicalID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to fetch completion"}})
			return
		}
		if rec == nil {
			c.JSON(http.StatusOK, gin.H{"is_completed": false})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
