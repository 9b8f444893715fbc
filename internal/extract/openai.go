package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/attachehq/attache/internal/errors"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = `You extract structured information from short personal notes.
Respond with a single JSON object and nothing else, using exactly these keys:
  card_type: one of "task", "note", "idea", "reminder"
  description: the cleaned-up note text
  due_at: due date/time as ISO 8601 (YYYY-MM-DD or YYYY-MM-DDTHH:MM), or null
  assignee: the person responsible, or null
  priority: one of "urgent", "high", "medium", "low"
  keywords: array of lowercase topic keywords
  project_context: array of project/theme names this note belongs to
If a field cannot be determined, use null (or an empty array).`

// OpenAI is the LLM extraction backend. It calls the chat completions
// API and expects a strict JSON object back; any transport failure or
// malformed reply surfaces as EXTRACTION_UNAVAILABLE upstream.
type OpenAI struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewOpenAI creates the OpenAI extraction backend.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		apiKey:     apiKey,
		model:      model,
		apiURL:     defaultOpenAIURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the note to the chat completions API and parses the
// JSON object it returns.
func (c *OpenAI) Extract(ctx context.Context, text string, hints Hints, now time.Time) (*Result, error) {
	userPrompt := buildUserPrompt(text, hints, now)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, errors.NewExtractionUnavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, errors.NewExtractionUnavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExtractionUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExtractionUnavailable(fmt.Errorf("openai returned status %d", resp.StatusCode))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, errors.NewExtractionUnavailable(fmt.Errorf("parsing openai response: %w", err))
	}
	if len(chat.Choices) == 0 {
		return nil, errors.NewExtractionUnavailable(fmt.Errorf("openai returned no choices"))
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)
	var r Result
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return nil, errors.NewExtractionUnavailable(fmt.Errorf("parsing extraction result: %w", err))
	}
	return &r, nil
}

// buildUserPrompt embeds the note, the reference time for relative
// dates, and the known context so the model can bias toward it.
func buildUserPrompt(text string, hints Hints, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current time: %s (%s)\n", now.Format("2006-01-02T15:04"), now.Weekday())
	if len(hints.Projects) > 0 {
		fmt.Fprintf(&b, "Known projects: %s\n", strings.Join(hints.Projects, ", "))
	}
	if len(hints.People) > 0 {
		fmt.Fprintf(&b, "Known people: %s\n", strings.Join(hints.People, ", "))
	}
	if len(hints.Themes) > 0 {
		fmt.Fprintf(&b, "Known themes: %s\n", strings.Join(hints.Themes, ", "))
	}
	fmt.Fprintf(&b, "Note: %s", text)
	return b.String()
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
