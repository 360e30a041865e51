// Package openai streams text generations from OpenAI-compatible APIs.
// Completion-format and chat-format models are spoken behind one interface:
// chat deltas are normalized into the completion event schema, endpoints and
// credentials resolve per request, and every request passes a local capacity
// gate before opening a connection.
package openai

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"

	"github.com/mosheduminer/lmql/capacity"
	"github.com/mosheduminer/lmql/common/client"
	"github.com/mosheduminer/lmql/common/config"
	"github.com/mosheduminer/lmql/common/logger"
	"github.com/mosheduminer/lmql/common/random"
	"github.com/mosheduminer/lmql/tokenizer"
)

var validate = validator.New()

// Tokenizer provides the token views used to reconstruct logprob-shaped
// output for chat streams. Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Client issues streaming generation requests. The zero value is not usable;
// construct with NewClient. A Client is safe for concurrent use and all its
// streams share one capacity controller.
type Client struct {
	capacity   *capacity.Controller
	tokenizer  Tokenizer
	secret     SecretFunc
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithCapacity shares an admission controller across clients.
func WithCapacity(ctrl *capacity.Controller) Option {
	return func(c *Client) { c.capacity = ctrl }
}

// WithTokenizer overrides the token encoder used for chat normalization and
// echo events.
func WithTokenizer(t Tokenizer) Option {
	return func(c *Client) { c.tokenizer = t }
}

// WithSecret overrides how the public API bearer secret is resolved. The
// default reads OPENAI_API_KEY at request time.
func WithSecret(fn SecretFunc) Option {
	return func(c *Client) { c.secret = fn }
}

// WithHTTPClient overrides the shared pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client with the configured defaults filled in.
func NewClient(opts ...Option) *Client {
	c := &Client{
		secret:     envSecret,
		httpClient: client.HTTPClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capacity == nil {
		c.capacity = capacity.NewController(capacity.ControllerParams{})
	}
	if c.tokenizer == nil {
		c.tokenizer = tokenizer.New(config.TokenizerEncoding)
	}
	return c
}

// Complete opens one streaming generation. Configuration problems surface
// synchronously; everything after the connection opens is reported through
// the returned Stream. Cancel ctx to abandon the stream early.
func (c *Client) Complete(ctx context.Context, req *GenerationRequest) (*Stream, error) {
	if req == nil {
		return nil, &ConfigurationError{Reason: "request is nil"}
	}
	if err := validate.Struct(req); err != nil {
		return nil, &ConfigurationError{Reason: "invalid request: " + err.Error()}
	}

	job := &streamJob{
		req:     req,
		chat:    IsChatModel(req.Model),
		units:   int64(len(req.Prompt)) * int64(req.MaxTokens),
		timeout: req.ChunkTimeout,
		id:      random.GetStreamID(),
	}
	if job.timeout <= 0 {
		job.timeout = config.StreamChunkTimeout
	}
	lg := logger.StreamLogger(job.id)

	if job.chat {
		if len(req.Prompt) != 1 {
			return nil, &ConfigurationError{Reason: "chat-format models do not support batched prompts"}
		}
		if len(req.LogitBias) > 0 {
			return nil, &ConfigurationError{Reason: "chat-format models do not support logit_bias constraints"}
		}
		if req.Echo {
			tokens, err := c.tokenizer.Tokenize(req.Prompt[0])
			if err != nil {
				return nil, errors.Wrap(err, "tokenize echo prompt")
			}
			job.echo = echoEvent(req.Prompt[0], tokens)
		}
	}

	// a chat request for zero tokens never reaches the network, so it does
	// not need an endpoint either
	if !(job.chat && req.MaxTokens == 0) {
		endpoint, err := c.resolveEndpoint(req)
		if err != nil {
			return nil, err
		}
		body, err := wireBody(req, job.chat, lg)
		if err != nil {
			return nil, err
		}
		job.endpoint = endpoint
		job.body = body
	}

	s := newStream()
	go c.run(ctx, job, s, lg)
	return s, nil
}
