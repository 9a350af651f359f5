package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
)

// GenerativeAnalyzer is the descriptive-analysis signal for text/script
// content. It proposes an initial score, status and issue list; the fusion
// engine then intersects that with the primary moderation pass over the
// same text.
type GenerativeAnalyzer struct {
	client *openai.Client
	cfg    model.OpenAIConfig
}

// Name returns the classifier source identifier.
func (g *GenerativeAnalyzer) Name() string { return model.SourceGenerative }

// analysisPrompts returns the system and user prompts for a campaign type.
func analysisPrompts(campaign model.CampaignType, content string) (system, prompt string) {
	switch campaign {
	case model.CampaignDesign:
		system = "You are an expert advertising compliance and design analyst. Analyze visual designs for brand compliance, accessibility, legal requirements, and effectiveness."
		prompt = fmt.Sprintf("Analyze this design description and provide a compliance score (0-100), identify potential issues, and suggest improvements: %s", content)
	case model.CampaignRadio:
		system = "You are an expert radio advertising compliance analyst. Review radio scripts for FCC compliance, brand guidelines, and effectiveness."
		prompt = fmt.Sprintf("Analyze this radio script for compliance and effectiveness: %s", content)
	case model.CampaignTV:
		system = "You are an expert TV advertising compliance analyst. Review TV commercial scripts for broadcast standards, legal compliance, and brand guidelines."
		prompt = fmt.Sprintf("Analyze this TV commercial script: %s", content)
	case model.CampaignImage:
		system = "You are an expert image content moderator and brand safety analyst. Screen images for inappropriate content, copyright issues, and brand safety."
		prompt = fmt.Sprintf("Analyze this image description for brand safety and compliance: %s", content)
	default:
		system = "You are an advertising compliance expert."
		prompt = fmt.Sprintf("Analyze this content: %s", content)
	}
	return system, prompt
}

const analysisFormat = `

Please provide your analysis in the following JSON format:
{
  "score": number (0-100),
  "status": "approved" | "needs_review" | "rejected",
  "issues": [
    {
      "type": "compliance" | "brand" | "legal" | "accessibility",
      "severity": "low" | "medium" | "high",
      "message": "Description of the issue"
    }
  ],
  "recommendations": [
    "Specific recommendation 1",
    "Specific recommendation 2"
  ],
  "summary": "Brief summary of the analysis"
}`

// Analyze runs the generative compliance analysis over script content.
// An unparseable model response yields an explicit degraded verdict instead
// of a substituted default, so callers can detect the fallback.
func (g *GenerativeAnalyzer) Analyze(ctx context.Context, content string, campaign model.CampaignType) *model.ClassifierVerdict {
	system, prompt := analysisPrompts(campaign, content)

	amodel := g.cfg.AnalysisModel
	if amodel == "" {
		amodel = openai.GPT4o
	}
	maxTokens := g.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	var resp openai.ChatCompletionResponse
	err := withRetry(ctx, g.cfg, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       amodel,
			Temperature: 0.3,
			MaxTokens:   maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt + analysisFormat},
			},
		})
		return callErr
	})
	if err != nil {
		code := errorCode(err)
		if code == model.CodeMalformed {
			return model.DegradedVerdict(model.SourceGenerative, code)
		}
		return model.FailedVerdict(model.SourceGenerative, code)
	}
	if len(resp.Choices) == 0 {
		return model.DegradedVerdict(model.SourceGenerative, model.CodeMalformed)
	}

	var analysis model.GenerativeAnalysis
	raw := cleanJSON(resp.Choices[0].Message.Content)
	if unmarshalErr := json.Unmarshal([]byte(raw), &analysis); unmarshalErr != nil {
		return model.DegradedVerdict(model.SourceGenerative, model.CodeMalformed)
	}
	normalizeAnalysis(&analysis)

	return &model.ClassifierVerdict{
		Source:   model.SourceGenerative,
		State:    model.SignalOK,
		Flagged:  analysis.Status == model.StatusRejected,
		Analysis: &analysis,
	}
}

// normalizeAnalysis clamps model output into the verdict domain.
func normalizeAnalysis(a *model.GenerativeAnalysis) {
	switch a.Status {
	case model.StatusApproved, model.StatusNeedsReview, model.StatusRejected:
	default:
		a.Status = model.StatusNeedsReview
	}
	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	if a.Issues == nil {
		a.Issues = []model.Issue{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
}
