package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"coachdesk/internal/content"
	"coachdesk/internal/db"
	"coachdesk/internal/engine"
	"coachdesk/internal/evaluation"

	"github.com/gin-gonic/gin"
)

func activityRouter() *gin.Engine {
	cfg := testConfig()
	r := gin.New()
	member := authAs(7, "user")
	admin := authAs(1, "admin")
	r.GET("/activities/:id/deliverables", member, ListDeliverablesHandler())
	r.POST("/activities/:id/deliverables", admin, CreateDeliverableHandler())
	r.GET("/activities/:id/rubric", member, ListRubricHandler())
	r.POST("/activities/:id/rubric", admin, CreateCriterionHandler())
	r.POST("/activities/:id/turns", member, ActivityTurnHandler(cfg))
	r.GET("/activities/:id/completion", member, ActivityCompletionHandler())
	return r
}

func stubEngine(t *testing.T, reply string) {
	orig := engine.Call
	engine.Call = func(url string, payload map[string]interface{}) (engine.Response, error) {
		return engine.Response{Reply: reply, SessionID: "stub"}, nil
	}
	t.Cleanup(func() { engine.Call = orig })
}

func seedActivityContent(t *testing.T) content.ActivityContent {
	act := content.ActivityContent{
		PromptSection:      "Coach the user through weekly planning.",
		SystemInstructions: "You are a planning coach.",
	}
	if err := db.DB.Create(&act).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return act
}

func postTurn(t *testing.T, r *gin.Engine, activityID uint, messages []engine.Message) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{"messages": messages})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", fmt.Sprintf("/activities/%d/turns", activityID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestActivityTurn_EvaluatedTurnRecordsLogAndCompletion(t *testing.T) {
	setupAPIDB(t)
	act := seedActivityContent(t)
	stubEngine(t, "Great work!\n---EVALUACION---\n{\"isCompleted\":true,\"message\":\"done\",\"details\":{\"overallScore\":0.92,\"rubric\":{\"clarity\":0.9}}}")

	r := activityRouter()
	// One user message: interaction 1, which always evaluates.
	w := postTurn(t, r, act.ID, []engine.Message{{Role: "user", Content: "here is my plan"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Reply      string `json:"reply"`
		Evaluated  bool   `json:"evaluated"`
		Evaluation struct {
			IsCompleted  bool    `json:"is_completed"`
			OverallScore float64 `json:"overall_score"`
			Message      string  `json:"message"`
		} `json:"evaluation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Reply != "Great work!" {
		t.Errorf("verdict must be stripped from the reply, got %q", resp.Reply)
	}
	if !resp.Evaluated || !resp.Evaluation.IsCompleted || resp.Evaluation.OverallScore != 0.92 {
		t.Errorf("unexpected evaluation block: %+v", resp)
	}

	var logs int64
	db.DB.Model(&evaluation.EvaluationLog{}).Where("activity_id = ? AND user_id = ?", act.ID, 7).Count(&logs)
	if logs != 1 {
		t.Errorf("expected one evaluation log, got %d", logs)
	}
	var rec evaluation.CompletionRecord
	if err := db.DB.Where("activity_id = ? AND user_id = ?", act.ID, 7).First(&rec).Error; err != nil {
		t.Fatalf("completion record missing: %v", err)
	}
	if !rec.IsCompleted || rec.EvaluationScore != 0.92 {
		t.Errorf("unexpected completion record: %+v", rec)
	}
}

func TestActivityTurn_RetrySameConversationLogsOnce(t *testing.T) {
	setupAPIDB(t)
	act := seedActivityContent(t)
	stubEngine(t, "Keep going.\n---EVALUACION---\n{\"isCompleted\":false,\"message\":\"more detail\",\"details\":{\"overallScore\":0.5,\"rubric\":{}}}")

	r := activityRouter()
	messages := []engine.Message{{Role: "user", Content: "first draft"}}
	for i := 0; i < 2; i++ {
		if w := postTurn(t, r, act.ID, messages); w.Code != http.StatusOK {
			t.Fatalf("turn %d failed: %d %s", i, w.Code, w.Body.String())
		}
	}

	var logs int64
	db.DB.Model(&evaluation.EvaluationLog{}).Where("activity_id = ?", act.ID).Count(&logs)
	if logs != 1 {
		t.Errorf("identical retried conversation must log once, got %d", logs)
	}
}

func TestActivityTurn_NonEvaluatingTurnPassesThrough(t *testing.T) {
	setupAPIDB(t)
	act := seedActivityContent(t)
	stubEngine(t, "Plain coaching reply.")

	r := activityRouter()
	// Two user messages: interaction 2, off the evaluation cadence.
	w := postTurn(t, r, act.ID, []engine.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "ok"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Reply     string `json:"reply"`
		Evaluated bool   `json:"evaluated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Reply != "Plain coaching reply." || resp.Evaluated {
		t.Errorf("unexpected response: %+v", resp)
	}

	var logs int64
	db.DB.Model(&evaluation.EvaluationLog{}).Count(&logs)
	if logs != 0 {
		t.Errorf("no evaluation log expected on a non-evaluating turn, got %d", logs)
	}
}

func TestActivityTurn_RegistryIDResolvesToSameActivity(t *testing.T) {
	setupAPIDB(t)
	act := seedActivityContent(t)
	entry := content.RegistryEntry{
		Title:        "Planning",
		ContentType:  content.TypeActivity,
		StorageTable: content.TableActivities,
		StorageID:    act.ID,
	}
	if err := db.DB.Create(&entry).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	stubEngine(t, "Nice.\n---EVALUACION---\n{\"isCompleted\":true,\"message\":\"ok\",\"details\":{\"overallScore\":1,\"rubric\":{}}}")

	r := activityRouter()
	if w := postTurn(t, r, entry.ID, []engine.Message{{Role: "user", Content: "x"}}); w.Code != http.StatusOK {
		t.Fatalf("turn via registry id failed: %d %s", w.Code, w.Body.String())
	}

	var rec evaluation.CompletionRecord
	if err := db.DB.Where("activity_id = ? AND user_id = ?", act.ID, 7).First(&rec).Error; err != nil {
		t.Errorf("completion must be keyed by the canonical activity id: %v", err)
	}
}

func TestActivityTurn_UnknownActivity404(t *testing.T) {
	setupAPIDB(t)
	stubEngine(t, "unused")

	r := activityRouter()
	w := postTurn(t, r, 99999, []engine.Message{{Role: "user", Content: "x"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown activity, got %d", w.Code)
	}
}

func TestActivityCompletion_DefaultsToIncomplete(t *testing.T) {
	setupAPIDB(t)
	r := activityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/activities/123/completion", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if done, _ := resp["is_completed"].(bool); done {
		t.Errorf("expected is_completed false, got %v", resp)
	}
}

func TestCreateDeliverable_DuplicateCodeConflictsOverHTTP(t *testing.T) {
	setupAPIDB(t)
	r := activityRouter()

	body, _ := json.Marshal(map[string]interface{}{
		"code":            "PLAN",
		"description":     "weekly plan",
		"detection_query": map[string]interface{}{"keywords": []string{"plan"}},
	})
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/activities/44/deliverables", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("request %d: expected %d, got %d: %s", i, want, w.Code, w.Body.String())
		}
	}
}
