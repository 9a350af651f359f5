// Package normalize classifies inbound items by media kind, enforces the
// hard input guardrails, and selects which classifier adapters apply. These
// are boundary checks, not classifier decisions: an item that fails here is
// rejected before any classifier is invoked.
package normalize

import (
	"fmt"
	"strings"

	"github.com/Craigmindset/prevetta/internal/model"
)

// Route names the adapters that apply to one item.
type Route struct {
	Kind model.MediaKind

	// Image items go through both the primary moderation classifier and
	// the secondary vision judge; never either/or.
	Moderation  bool
	VisionJudge bool
	Generative  bool

	// ModerateTranscript means the moderation pass runs over the item's
	// transcription text instead of the binary payload.
	ModerateTranscript bool
}

// Selected reports whether any classifier adapter applies.
func (r Route) Selected() bool {
	return r.Moderation || r.VisionJudge || r.Generative
}

// Normalizer validates items and routes them to adapters.
type Normalizer struct {
	maxPayloadBytes int64
}

// New creates a normalizer with the given payload ceiling.
func New(maxPayloadBytes int64) *Normalizer {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 10 << 20
	}
	return &Normalizer{maxPayloadBytes: maxPayloadBytes}
}

// Normalize validates the item and selects applicable adapters.
func (n *Normalizer) Normalize(item model.Item) (Route, error) {
	if item.Size > n.maxPayloadBytes {
		return Route{}, model.NewInputError(model.CodePayloadTooLarge,
			fmt.Sprintf("file too large (max %d bytes)", n.maxPayloadBytes))
	}

	kind := KindOf(item.ContentType)
	switch kind {
	case model.MediaImage:
		return Route{Kind: kind, Moderation: true, VisionJudge: true}, nil

	case model.MediaAudio, model.MediaVideo:
		// Audio/video content is never sent to image/vision adapters;
		// only its transcript is moderated as text.
		if strings.TrimSpace(item.Transcription) == "" {
			return Route{}, model.NewInputError(model.CodeMissingTranscription,
				"transcription required for audio/video files")
		}
		return Route{Kind: kind, Moderation: true, ModerateTranscript: true}, nil

	case model.MediaText:
		if strings.TrimSpace(item.Text()) == "" {
			return Route{}, model.NewInputError(model.CodeNoContent, "no script content provided")
		}
		return Route{Kind: kind, Moderation: true, Generative: true}, nil

	default:
		// Unsupported types select no adapters; fusion routes them to a
		// fixed needs_review verdict so they are never silently approved.
		return Route{Kind: model.MediaOther}, nil
	}
}

// KindOf derives the media kind from a MIME type.
func KindOf(contentType string) model.MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return model.MediaImage
	case strings.HasPrefix(ct, "audio/"):
		return model.MediaAudio
	case strings.HasPrefix(ct, "video/"):
		return model.MediaVideo
	case strings.HasPrefix(ct, "text/"):
		return model.MediaText
	default:
		return model.MediaOther
	}
}
