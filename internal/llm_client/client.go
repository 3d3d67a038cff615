package llm_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// SystemPrompt is the moderation instruction sent with every
// classification request. The model is asked for bare JSON, though in
// practice it sometimes wraps it in a markdown code fence anyway.
const SystemPrompt = `Ты модератор телеграм-чата украинских беженцев в Швейцарии.

По тексту одного сообщения определи, является ли оно мошенническим (скамом) или нет.

Скамом считаются, в частности:
- обещания лёгкого или очень высокого заработка без квалификации/языка;
- предложения работы без указания реального работодателя/компании и легального контракта;
- крипто- и инвестиционные схемы, торговля USDT и т.п. от неизвестных лиц;
- пирамиды, MLM, "сетевой бизнес";
- схемы, где зовут писать в личку или на внешний канал для "заработка", "инвестиций", "быстрых денег";
- фишинговые ссылки, сбор конфиденциальных данных.

Обычные вопросы, бытовое общение, новости, обсуждения и честные вакансии с понятным работодателем НЕ являются скамом.

Ответ верни строго в формате JSON БЕЗ лишнего текста:

{
  "label": "SCAM" или "OK",
  "category": "job_scam" | "crypto" | "investment" | "phishing" | "other" | "none",
  "confidence": число от 0 до 1,
  "reason": "краткое объяснение на русском"
}`

const (
	requestTimeout = 20 * time.Second
	maxTokens      = 256
)

// Client talks to an OpenAI-compatible chat-completions endpoint and
// turns free-form model output into a validated moderation verdict.
// Exactly one attempt per message: any failure means "no verdict" and
// the caller skips the message.
type Client struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a classification client. baseURL is the API root
// without the /v1/chat/completions suffix.
func NewClient(apiKey, baseURL, modelName string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelName:  modelName,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Result is a complete, validated verdict. All fields are populated;
// the absence of a verdict is expressed by Classify returning an error.
type Result struct {
	Label        string
	Category     string
	Confidence   float64
	Reason       string
	Raw          types.JSONText // full API response envelope
	ModelVersion string
}

// IsScam reports whether the verdict labels the message as scam,
// regardless of confidence.
func (r *Result) IsScam() bool {
	return r.Label == "SCAM"
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// verdict is the JSON shape the model is instructed to return.
type verdict struct {
	Label      string  `json:"label"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

var validCategories = map[string]bool{
	"job_scam":   true,
	"crypto":     true,
	"investment": true,
	"phishing":   true,
	"other":      true,
	"none":       true,
}

// Classify sends the message text to the model and returns a validated
// verdict. A non-nil error means no verdict was produced.
func (c *Client) Classify(ctx context.Context, text string) (*Result, error) {
	reqBody := chatRequest{
		Model: c.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in LLM response")
	}

	content := chatResp.Choices[0].Message.Content

	// Strip markdown code fences if the model added them.
	cleanJSON := strings.TrimSpace(content)
	cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
	cleanJSON = strings.TrimPrefix(cleanJSON, "```")
	cleanJSON = strings.TrimSuffix(cleanJSON, "```")
	cleanJSON = strings.TrimSpace(cleanJSON)

	var v verdict
	if err := json.Unmarshal([]byte(cleanJSON), &v); err != nil {
		c.logger.Debug("Unparseable model content", zap.String("content", content))
		return nil, fmt.Errorf("failed to parse verdict JSON: %w", err)
	}

	if v.Label != "SCAM" && v.Label != "OK" {
		return nil, fmt.Errorf("invalid verdict label: %q", v.Label)
	}
	if !validCategories[v.Category] {
		return nil, fmt.Errorf("invalid verdict category: %q", v.Category)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return nil, fmt.Errorf("verdict confidence out of range: %v", v.Confidence)
	}

	return &Result{
		Label:        v.Label,
		Category:     v.Category,
		Confidence:   v.Confidence,
		Reason:       v.Reason,
		Raw:          types.JSONText(body),
		ModelVersion: c.modelName,
	}, nil
}
