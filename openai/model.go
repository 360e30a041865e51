package openai

import (
	"time"
)

// Roles accepted by the chat wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerationRequest describes one streaming generation. Prompt may carry
// several entries for completion-format models (batched prompts); chat-format
// models accept exactly one entry and no logit bias.
type GenerationRequest struct {
	Model       string             `json:"model" validate:"required"`
	Prompt      []string           `json:"prompt" validate:"required,min=1"`
	MaxTokens   int                `json:"max_tokens" validate:"min=0"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
	Echo        bool               `json:"echo"`
	LogProbs    *int               `json:"logprobs"`
	LogitBias   map[string]float64 `json:"logit_bias,omitempty"`

	// ChunkTimeout overrides the stall timeout for this stream; zero falls
	// back to config.StreamChunkTimeout. Never serialized.
	ChunkTimeout time.Duration `json:"-"`

	// APIConfig optionally overrides endpoint resolution. Never serialized.
	APIConfig *APIConfig `json:"-"`
}

// APIConfig carries per-request endpoint overrides. An Endpoint tagged with
// the azure: scheme selects deployment-style resolution; a plain endpoint is
// used unauthenticated with a /completions suffix.
type APIConfig struct {
	Endpoint    string
	AzureAPIKey string
}

// ChatMessage is one role-tagged message of a chat-format request body.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat wire body. It intentionally omits prompt, echo,
// logprobs and logit_bias, which the chat endpoint rejects.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// completionRequest is the completion wire body; echo and logprobs are
// implemented server-side for this format and pass through.
type completionRequest struct {
	Model       string             `json:"model"`
	Prompt      []string           `json:"prompt"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
	Echo        bool               `json:"echo"`
	LogProbs    *int               `json:"logprobs"`
	LogitBias   map[string]float64 `json:"logit_bias,omitempty"`
}

// LogProbs mirrors the completion API's per-choice logprob block. For chat
// streams the entries are reconstructed with zero values, since the chat
// wire format exposes no token-level probabilities.
type LogProbs struct {
	TextOffset    []int                `json:"text_offset"`
	TokenLogProbs []float64            `json:"token_logprobs"`
	Tokens        []string             `json:"tokens"`
	TopLogProbs   []map[string]float64 `json:"top_logprobs"`
}

// NormalizedChoice is the single choice schema both wire formats are
// translated into.
type NormalizedChoice struct {
	Text         string    `json:"text"`
	Index        int       `json:"index"`
	FinishReason *string   `json:"finish_reason"`
	LogProbs     *LogProbs `json:"logprobs"`
}

// NormalizedEvent is one decoded frame in the normalized schema. Events may
// legally carry zero choices: chat deltas that only announce a role produce
// them.
type NormalizedEvent struct {
	ID      string             `json:"id,omitempty"`
	Object  string             `json:"object,omitempty"`
	Created int64              `json:"created,omitempty"`
	Model   string             `json:"model,omitempty"`
	Choices []NormalizedChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// Usage is the token usage block some upstream frames carry.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// upstreamError mirrors the error object embedded in API payloads.
type upstreamError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    any    `json:"code"`
}

// errorEnvelope is the shape of a frame or residual payload that carries an
// embedded error.
type errorEnvelope struct {
	Error *upstreamError `json:"error"`
}

// completionStreamResponse is a decoded completion-format frame; it already
// matches the normalized schema.
type completionStreamResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []NormalizedChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
	Error   *upstreamError     `json:"error,omitempty"`
}

func (r *completionStreamResponse) normalized() *NormalizedEvent {
	return &NormalizedEvent{
		ID:      r.ID,
		Object:  r.Object,
		Created: r.Created,
		Model:   r.Model,
		Choices: r.Choices,
		Usage:   r.Usage,
	}
}

// chatStreamResponse is a decoded chat-format frame. Delta stays a loose map
// because the normalizer must tell a bare {} terminator apart from a
// role-only announcement.
type chatStreamResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []chatStreamChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
	Error   *upstreamError     `json:"error,omitempty"`
}

type chatStreamChoice struct {
	Index        int            `json:"index"`
	Delta        map[string]any `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}
