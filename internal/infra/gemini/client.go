package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"boss-assistant/internal/infra/metrics"
)

// Client는 Gemini generateContent 호출을 감싼다.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewClient는 Gemini 클라이언트를 만든다.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is empty")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.7)
	m.SetMaxOutputTokens(2048)
	return &Client{client: client, model: m, name: model}, nil
}

// GenerateText는 프롬프트 하나로 텍스트 응답을 받는다.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	metrics.ObserveNetworkRequest("gemini", "generate_content", c.name, start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp.UsageMetadata != nil {
		metrics.ObserveLLMGeneration(c.name, time.Since(start),
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
			int(resp.UsageMetadata.TotalTokenCount))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("gemini: no text in response")
	}
	return out, nil
}

// Close는 내부 gRPC 연결을 닫는다.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
