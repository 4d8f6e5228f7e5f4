package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Client is the interface for LLM interactions.
type Client interface {
	ChatCompletion(ctx context.Context, messages []Message) (*Response, error)
	ChatCompletionStream(ctx context.Context, messages []Message, handler StreamHandler) (*Response, error)
}

// Sampling holds per-session generation settings.
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

// OpenAICompatClient works with any OpenAI-compatible API (Groq, Ollama).
type OpenAICompatClient struct {
	client   *openai.Client
	model    string
	baseURL  string
	sampling Sampling
}

// NewClient creates an LLM client for the given provider.
func NewClient(baseURL, apiKey, model string, sampling Sampling) *OpenAICompatClient {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &OpenAICompatClient{
		client:   &client,
		model:    model,
		baseURL:  baseURL,
		sampling: sampling,
	}
}

func (c *OpenAICompatClient) params(messages []Message) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(messages),
	}
	if c.sampling.Temperature > 0 {
		params.Temperature = param.NewOpt(c.sampling.Temperature)
	}
	if c.sampling.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(c.sampling.MaxTokens))
	}
	return params
}

func (c *OpenAICompatClient) ChatCompletion(ctx context.Context, messages []Message) (*Response, error) {
	params := c.params(messages)

	var completion *openai.ChatCompletion
	var err error
	for attempt := range 3 {
		completion, err = c.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if !strings.Contains(err.Error(), "429") || attempt == 2 {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		wait := time.Duration(2<<attempt) * time.Second // 2s, 4s
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, fmt.Errorf("chat completion: %w", ctx.Err())
		}
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &Response{
		Message: AssistantMessage(completion.Choices[0].Message.Content),
	}, nil
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		}
	}
	return out
}

// ListModels queries Ollama's native /api/tags endpoint for available models.
// The baseURL is expected to end with /v1/ (OpenAI-compat); we strip that to
// reach the native Ollama API.
func (c *OpenAICompatClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	base := strings.TrimRight(c.baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	url := base + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Models []struct {
			Name       string `json:"name"`
			Size       int64  `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	models := make([]ModelInfo, len(result.Models))
	for i, m := range result.Models {
		models[i] = ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			ModifiedAt: m.ModifiedAt,
		}
	}
	return models, nil
}
