package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
)

const visionSystemPrompt = "You are a strict content safety reviewer for advertising. " +
	"Return ONLY JSON with booleans (explicit_nudity, sexual_activity, partial_nudity, see_through, minors_involved) " +
	"and a numeric confidence (0-1). If uncertain, mark booleans as true."

// VisionJudge is the secondary vision judgment signal for images. It runs
// alongside the primary moderation classifier; a missing or unparseable
// judge opinion must never suppress a primary rejection and must never on
// its own produce approval.
type VisionJudge struct {
	client *openai.Client
	cfg    model.OpenAIConfig
}

// Name returns the classifier source identifier.
func (v *VisionJudge) Name() string { return model.SourceVisionJudge }

// Judge asks the vision model whether the image contains nudity or sexual
// content. A response that arrives but does not parse yields a degraded
// verdict so fusion can escalate rather than silently approve.
func (v *VisionJudge) Judge(ctx context.Context, item model.Item) *model.ClassifierVerdict {
	dataURL := fmt.Sprintf("data:%s;base64,%s", item.ContentType, base64.StdEncoding.EncodeToString(item.Payload))

	vmodel := v.cfg.VisionModel
	if vmodel == "" {
		vmodel = openai.GPT4oMini
	}

	var resp openai.ChatCompletionResponse
	err := withRetry(ctx, v.cfg, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = v.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       vmodel,
			Temperature: 0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: visionSystemPrompt,
				},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{
							Type: openai.ChatMessagePartTypeText,
							Text: fmt.Sprintf("Does this %s image contain any nudity or sexual content? Be conservative.", item.Campaign),
						},
						{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
						},
					},
				},
			},
		})
		return callErr
	})
	if err != nil {
		code := errorCode(err)
		if code == model.CodeMalformed {
			return model.DegradedVerdict(model.SourceVisionJudge, code)
		}
		return model.FailedVerdict(model.SourceVisionJudge, code)
	}
	if len(resp.Choices) == 0 {
		return model.DegradedVerdict(model.SourceVisionJudge, model.CodeMalformed)
	}

	var judgment model.VisionJudgment
	raw := cleanJSON(resp.Choices[0].Message.Content)
	if unmarshalErr := json.Unmarshal([]byte(raw), &judgment); unmarshalErr != nil {
		return model.DegradedVerdict(model.SourceVisionJudge, model.CodeMalformed)
	}

	return &model.ClassifierVerdict{
		Source:   model.SourceVisionJudge,
		State:    model.SignalOK,
		Flagged:  judgment.AnyFlag(),
		Judgment: &judgment,
	}
}
