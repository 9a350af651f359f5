package classifier

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Craigmindset/prevetta/internal/model"
)

// Transcriber converts audio payloads to text via the transcription model.
// It is a convenience for callers who have not reviewed a transcript yet;
// it never participates in fusion voting, and its errors surface directly
// with structured codes so quota and auth failures are distinguishable.
type Transcriber struct {
	client *openai.Client
	cfg    model.OpenAIConfig
}

// Transcribe returns the transcript of an audio item.
func (t *Transcriber) Transcribe(ctx context.Context, item model.Item) (string, error) {
	if !strings.HasPrefix(item.ContentType, "audio/") {
		return "", model.NewInputError(model.CodeNoContent, "file must be an audio file")
	}

	tmodel := t.cfg.TranscriptionModel
	if tmodel == "" {
		tmodel = openai.Whisper1
	}

	var resp openai.AudioResponse
	err := withRetry(ctx, t.cfg, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = t.client.CreateTranscription(callCtx, openai.AudioRequest{
			Model:    tmodel,
			FilePath: item.Name,
			Reader:   bytes.NewReader(item.Payload),
			Language: "en",
			Format:   openai.AudioResponseFormatJSON,
		})
		return callErr
	})
	if err != nil {
		return "", model.NewClassifierError("transcriber", errorCode(err), err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", model.NewClassifierError("transcriber", model.CodeMalformed, fmt.Errorf("empty transcription"))
	}
	return text, nil
}
