// internal/llmclient/client.go
// Package llmclient is the model invoker: a chat-completions client with
// retry and exponential backoff for transient transport failures. The
// execution pipeline never re-dispatches assignments; every retry happens
// inside Call.
package llmclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/hogbench/internal/appconfig"
	"github.com/mwiater/hogbench/internal/logging"
)

// Status classifies the terminal outcome of one invocation.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
	StatusRefused Status = "refused"
)

// Reply is the outcome of one model invocation. Text is meaningful only
// when Status is StatusOK.
type Reply struct {
	Text   string
	Status Status
	Err    error
}

// Invoker is the call surface the execution pipeline consumes.
type Invoker interface {
	Call(ctx context.Context, system, user string) Reply
}

// Client drives an OpenAI-compatible chat-completions endpoint.
type Client struct {
	api       *openai.Client
	modelName string
	temp      float32
	maxTokens int
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

// New builds a Client from the application configuration.
func New(cfg appconfig.Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout()}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		modelName: cfg.ModelName,
		temp:      float32(cfg.Temperature),
		maxTokens: cfg.ReplyMaxTokens(),
		timeout:   cfg.RequestTimeout(),
		retries:   cfg.RetryBudget(),
		baseDelay: cfg.RetryDelay(),
	}
}

// Call sends one system+user exchange to the model. Transient transport
// errors are retried with exponential backoff up to the configured budget;
// the returned status is terminal for this assignment.
func (c *Client) Call(ctx context.Context, system, user string) Reply {
	logging.LogModelCall("BENCH->LLM", c.modelName, len(system)+len(user), "")

	var lastErr error
	timedOut := false

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			logging.LogEvent("[LLM] Transient failure, retrying in %s (attempt %d/%d): %v",
				delay, attempt+1, c.retries, lastErr)
			if !sleepCtx(ctx, delay) {
				return Reply{Status: StatusError, Err: ctx.Err()}
			}
		}

		text, err := c.attempt(ctx, system, user)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return Reply{Status: StatusRefused, Err: errors.New("empty model reply")}
			}
			logging.LogModelCall("LLM->BENCH", c.modelName, len(text), "")
			return Reply{Text: text, Status: StatusOK}
		}

		if ctx.Err() != nil {
			return Reply{Status: StatusError, Err: ctx.Err()}
		}

		lastErr = err
		switch classify(err) {
		case retryTransient:
			timedOut = false
			continue
		case retryTimeout:
			timedOut = true
			continue
		default:
			return Reply{Status: StatusError, Err: err}
		}
	}

	if timedOut {
		return Reply{Status: StatusTimeout, Err: lastErr}
	}
	return Reply{Status: StatusError, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, system, user string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.api.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: c.temp,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type retryClass int

const (
	retryNone retryClass = iota
	retryTransient
	retryTimeout
)

// classify decides whether an attempt error is worth retrying. Rate limits
// and server-side errors back off and retry; other API rejections are
// terminal.
func classify(err error) retryClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return retryTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retryTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return retryTransient
		}
		return retryNone
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500 {
			return retryTransient
		}
		return retryNone
	}

	// Anything else is a transport-level failure (connection reset, DNS).
	return retryTransient
}

// sleepCtx waits for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
