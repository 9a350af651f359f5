package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
)

// ModerationClassifier is the primary moderation signal. Text goes through
// the go-openai moderation endpoint; images go through the same endpoint
// with a multimodal image_url input, which the Go client's text-only request
// type does not express, so that call is a raw JSON round-trip.
type ModerationClassifier struct {
	client *openai.Client
	raw    *http.Client
	cfg    model.OpenAIConfig
}

// Name returns the classifier source identifier.
func (m *ModerationClassifier) Name() string { return model.SourceModeration }

// ClassifyText moderates a text payload (ad scripts, transcripts). Failures
// are folded into the verdict's state, never returned as errors.
func (m *ModerationClassifier) ClassifyText(ctx context.Context, text string) *model.ClassifierVerdict {
	var resp openai.ModerationResponse
	err := withRetry(ctx, m.cfg, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = m.client.Moderations(callCtx, openai.ModerationRequest{
			Input: text,
			Model: m.cfg.ModerationModel,
		})
		return callErr
	})
	if err != nil {
		code := errorCode(err)
		if code == model.CodeMalformed {
			// The endpoint answered but the body did not decode. That is a
			// format fault, so the signal degrades instead of failing.
			return model.DegradedVerdict(model.SourceModeration, code)
		}
		return model.FailedVerdict(model.SourceModeration, code)
	}
	if len(resp.Results) == 0 {
		return model.DegradedVerdict(model.SourceModeration, model.CodeMalformed)
	}

	result := resp.Results[0]
	return &model.ClassifierVerdict{
		Source:         model.SourceModeration,
		State:          model.SignalOK,
		Flagged:        result.Flagged,
		Categories:     categoriesToMap(result.Categories),
		CategoryScores: scoresToMap(result.CategoryScores),
	}
}

// moderation endpoint wire types for the multimodal image call
type moderationAPIRequest struct {
	Model string               `json:"model"`
	Input []moderationAPIInput `json:"input"`
}

type moderationAPIInput struct {
	Type     string              `json:"type"`
	Text     string              `json:"text,omitempty"`
	ImageURL *moderationImageURL `json:"image_url,omitempty"`
}

type moderationImageURL struct {
	URL string `json:"url"`
}

type moderationAPIResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ClassifyImage moderates an image payload via the multimodal moderation
// endpoint.
func (m *ModerationClassifier) ClassifyImage(ctx context.Context, item model.Item) *model.ClassifierVerdict {
	dataURL := fmt.Sprintf("data:%s;base64,%s", item.ContentType, base64.StdEncoding.EncodeToString(item.Payload))

	body, err := json.Marshal(moderationAPIRequest{
		Model: m.cfg.ModerationModel,
		Input: []moderationAPIInput{
			{Type: "image_url", ImageURL: &moderationImageURL{URL: dataURL}},
		},
	})
	if err != nil {
		return model.FailedVerdict(model.SourceModeration, model.CodeNetwork)
	}

	var parsed moderationAPIResponse
	var malformed bool
	err = withRetry(ctx, m.cfg, func(callCtx context.Context) error {
		malformed = false
		req, reqErr := http.NewRequestWithContext(callCtx, http.MethodPost, baseURL(m.cfg)+"/moderations", bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

		resp, doErr := m.raw.Do(req)
		if doErr != nil {
			return doErr
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			// Drain for connection reuse; the status alone carries the code.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &openai.RequestError{
				HTTPStatusCode: resp.StatusCode,
				Err:            fmt.Errorf("moderation endpoint returned HTTP %d", resp.StatusCode),
			}
		}

		if decErr := json.NewDecoder(resp.Body).Decode(&parsed); decErr != nil || len(parsed.Results) == 0 {
			malformed = true
			return nil
		}
		return nil
	})
	if err != nil {
		return model.FailedVerdict(model.SourceModeration, errorCode(err))
	}
	if malformed {
		return model.DegradedVerdict(model.SourceModeration, model.CodeMalformed)
	}

	result := parsed.Results[0]
	if result.Categories == nil {
		result.Categories = map[string]bool{}
	}
	if result.CategoryScores == nil {
		result.CategoryScores = map[string]float64{}
	}
	return &model.ClassifierVerdict{
		Source:         model.SourceModeration,
		State:          model.SignalOK,
		Flagged:        result.Flagged,
		Categories:     result.Categories,
		CategoryScores: result.CategoryScores,
	}
}

// categoriesToMap flattens the client's category struct into the
// category-name keyed map the fusion engine matches patterns against.
func categoriesToMap(c openai.ResultCategories) map[string]bool {
	return map[string]bool{
		"hate":                   c.Hate,
		"hate/threatening":       c.HateThreatening,
		"harassment":             c.Harassment,
		"harassment/threatening": c.HarassmentThreatening,
		"self-harm":              c.SelfHarm,
		"self-harm/intent":       c.SelfHarmIntent,
		"self-harm/instructions": c.SelfHarmInstructions,
		"sexual":                 c.Sexual,
		"sexual/minors":          c.SexualMinors,
		"violence":               c.Violence,
		"violence/graphic":       c.ViolenceGraphic,
	}
}

func scoresToMap(s openai.ResultCategoryScores) map[string]float64 {
	return map[string]float64{
		"hate":                   float64(s.Hate),
		"hate/threatening":       float64(s.HateThreatening),
		"harassment":             float64(s.Harassment),
		"harassment/threatening": float64(s.HarassmentThreatening),
		"self-harm":              float64(s.SelfHarm),
		"self-harm/intent":       float64(s.SelfHarmIntent),
		"self-harm/instructions": float64(s.SelfHarmInstructions),
		"sexual":                 float64(s.Sexual),
		"sexual/minors":          float64(s.SexualMinors),
		"violence":               float64(s.Violence),
		"violence/graphic":       float64(s.ViolenceGraphic),
	}
}
