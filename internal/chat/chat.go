// Package chat manages a coding-assistant conversation: the system prompt,
// message history, and the sliding context window sent with each request.
package chat

import (
	"context"

	"github.com/michaelbrown/codemaster/internal/llm"
)

const defaultSystemPrompt = `You are CodeMaster, an expert programming assistant.

- Write clean, efficient, well-documented code and always tag code blocks with their language.
- Break complex problems into manageable steps and explain your reasoning concisely.
- Include error handling where appropriate and point out edge cases.
- When fixing bugs, show the corrected code and explain what was wrong.

Focus on delivering fast, accurate, practical solutions.`

// DefaultWindow is how many trailing messages accompany each request.
const DefaultWindow = 10

// Conversation owns the message history for one chat session. It is not safe
// for concurrent use; callers serialize access per session.
type Conversation struct {
	client       llm.Client
	systemPrompt string
	history      []llm.Message
	window       int
}

// New creates a Conversation. window <= 0 uses DefaultWindow.
func New(client llm.Client, window int) *Conversation {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Conversation{
		client:       client,
		systemPrompt: defaultSystemPrompt,
		window:       window,
	}
}

// SetSystemPrompt overrides the default system prompt (profile support).
func (c *Conversation) SetSystemPrompt(prompt string) {
	if prompt != "" {
		c.systemPrompt = prompt
	}
}

// SetClient swaps the LLM client (for mid-session model switching).
func (c *Conversation) SetClient(client llm.Client) {
	c.client = client
}

// Send appends the user message, requests a completion over the current
// context window, and appends the assistant reply.
func (c *Conversation) Send(ctx context.Context, content string) (string, error) {
	c.history = append(c.history, llm.UserMessage(content))

	resp, err := c.client.ChatCompletion(ctx, c.contextWindow())
	if err != nil {
		return "", err
	}

	c.history = append(c.history, resp.Message)
	return resp.Message.Content, nil
}

// SendStreaming is Send with text deltas delivered to handler as they arrive.
func (c *Conversation) SendStreaming(ctx context.Context, content string, handler llm.StreamHandler) (string, error) {
	c.history = append(c.history, llm.UserMessage(content))

	resp, err := c.client.ChatCompletionStream(ctx, c.contextWindow(), handler)
	if err != nil {
		return "", err
	}

	c.history = append(c.history, resp.Message)
	return resp.Message.Content, nil
}

// contextWindow is the system prompt plus the trailing window of history.
func (c *Conversation) contextWindow() []llm.Message {
	recent := c.history
	if len(recent) > c.window {
		recent = recent[len(recent)-c.window:]
	}

	msgs := make([]llm.Message, 0, len(recent)+1)
	msgs = append(msgs, llm.SystemMessage(c.systemPrompt))
	return append(msgs, recent...)
}

// History returns the full message history (system prompt excluded).
func (c *Conversation) History() []llm.Message {
	return c.history
}

// SetHistory replaces the history, e.g. when resuming a stored session.
func (c *Conversation) SetHistory(messages []llm.Message) {
	c.history = messages
}

// LastAssistant returns the most recent assistant reply, or "".
func (c *Conversation) LastAssistant() string {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].Role == llm.RoleAssistant {
			return c.history[i].Content
		}
	}
	return ""
}

// Reset clears the conversation history.
func (c *Conversation) Reset() {
	c.history = nil
}
