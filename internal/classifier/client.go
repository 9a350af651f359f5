// Package classifier wraps each external content-safety and
// content-understanding model behind an adapter that normalizes one network
// call into a ClassifierVerdict. Each adapter owns the retry and timeout for
// its own call; transport failures are recovered into failed verdicts and
// unparseable responses into degraded verdicts, never silently treated as
// clean.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/util"
)

const defaultBaseURL = "https://api.openai.com/v1"

// retrySleep is the sleep function used between retries (injectable for tests)
var retrySleep = time.Sleep

// Set bundles the classifier adapters sharing one endpoint configuration.
type Set struct {
	Moderation  *ModerationClassifier
	Vision      *VisionJudge
	Generative  *GenerativeAnalyzer
	Transcriber *Transcriber
}

// NewSet builds all adapters against the configured OpenAI-compatible
// endpoint.
func NewSet(cfg model.OpenAIConfig) *Set {
	client := newAPIClient(cfg)
	raw := newRawClient(cfg)
	return &Set{
		Moderation:  &ModerationClassifier{client: client, raw: raw, cfg: cfg},
		Vision:      &VisionJudge{client: client, cfg: cfg},
		Generative:  &GenerativeAnalyzer{client: client, cfg: cfg},
		Transcriber: &Transcriber{client: client, cfg: cfg},
	}
}

// newAPIClient builds the go-openai client, honoring a custom base URL.
func newAPIClient(cfg model.OpenAIConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newRawClient(cfg)
	return openai.NewClientWithConfig(clientConfig)
}

// newRawClient builds the plain HTTP client used for endpoints the go-openai
// client does not cover (multimodal moderation input).
func newRawClient(cfg model.OpenAIConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		},
	}
}

func baseURL(cfg model.OpenAIConfig) string {
	if cfg.BaseURL != "" {
		return strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return defaultBaseURL
}

// errorCode maps a call error to a structured classifier error code.
// HTTP 429/quota, 401/403 auth, deadline expiry, plain network failures and
// client-side decode failures are all distinguishable to the caller. A
// response that arrived but did not parse is a format error, not a transport
// one: the signal must degrade, never fail.
func errorCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.CodeTimeout
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return model.CodeMalformed
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return codeForHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return codeForHTTPStatus(reqErr.HTTPStatusCode)
	}
	return model.CodeNetwork
}

func codeForHTTPStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return model.CodeQuota
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.CodeAuth
	}
	return model.CodeNetwork
}

// withRetry runs fn with a bounded per-attempt timeout, retrying transient
// transport failures. Auth failures are not retried: the key will not fix
// itself between attempts.
func withRetry(ctx context.Context, cfg model.OpenAIConfig, fn func(ctx context.Context) error) error {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			retrySleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if errorCode(err) == model.CodeAuth {
			break
		}
	}
	return lastErr
}

// cleanJSON strips markdown code fences some chat models wrap around JSON
// output despite the JSON response format.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
