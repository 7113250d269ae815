package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"coachdesk/internal/config"

	"github.com/google/uuid"
)

// Message is one turn of the conversation sent to the engine.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is what comes back from the engine: raw text plus bookkeeping.
type Response struct {
	Reply     string
	Tokens    int
	SessionID string
}

// Call posts an OpenAI-compatible chat payload and returns the raw model
// text. It is a package variable so tests can stub the engine out, the
// same way handler tests stub the network edge.
var Call = func(url string, payload map[string]interface{}) (Response, error) {
	var respStruct struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
		ID string `json:"id"`
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: 120 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	if res.StatusCode > 299 {
		b, _ := io.ReadAll(res.Body)
		return Response{}, errors.New(string(b))
	}

	if err := json.NewDecoder(res.Body).Decode(&respStruct); err != nil {
		return Response{}, err
	}

	reply := ""
	if len(respStruct.Choices) > 0 {
		reply = respStruct.Choices[0].Message.Content
	}
	sessionID := respStruct.ID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return Response{
		Reply:     reply,
		Tokens:    respStruct.Usage.CompletionTokens,
		SessionID: sessionID,
	}, nil
}

// Converse sends the history plus a system prompt and returns the raw
// reply text. Cancellation and retries are the engine's own concern; this
// client imposes nothing beyond the HTTP timeout.
func Converse(cfg *config.Config, history []Message, systemPrompt string) (string, error) {
	msgs := make([]map[string]string, 0, len(history)+1)
	if systemPrompt != "" {
		msgs = append(msgs, map[string]string{"role": "system", "content": systemPrompt})
	}
	for _, m := range history {
		msgs = append(msgs, map[string]string{"role": m.Role, "content": m.Content})
	}
	payload := map[string]interface{}{
		"model":    cfg.Engine.Model,
		"messages": msgs,
	}
	resp, err := Call(cfg.Engine.URL, payload)
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}
