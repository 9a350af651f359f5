package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// MediaKind classifies an item by the broad class of its payload.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
	MediaText  MediaKind = "text"
	MediaOther MediaKind = "other"
)

// CampaignType is the declared advertising campaign category of an item.
type CampaignType string

const (
	CampaignDesign  CampaignType = "design"
	CampaignRadio   CampaignType = "radio"
	CampaignTV      CampaignType = "tv"
	CampaignImage   CampaignType = "image"
	CampaignGeneric CampaignType = "generic"
)

// ParseCampaignType maps a request "type" field to a known campaign type,
// defaulting to generic for anything unrecognized.
func ParseCampaignType(s string) CampaignType {
	switch CampaignType(strings.ToLower(strings.TrimSpace(s))) {
	case CampaignDesign:
		return CampaignDesign
	case CampaignRadio:
		return CampaignRadio
	case CampaignTV:
		return CampaignTV
	case CampaignImage:
		return CampaignImage
	default:
		return CampaignGeneric
	}
}

// Item is one unit of creative content submitted for vetting.
// Immutable once handed to the engine.
type Item struct {
	ID            string
	Name          string
	ContentType   string // MIME type as declared by the caller
	Size          int64
	Payload       []byte
	Transcription string // human-reviewed transcript, required for audio/video
	Campaign      CampaignType
}

// NewItem creates an item with a fresh identifier.
func NewItem(name, contentType string, payload []byte, campaign CampaignType) Item {
	return Item{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(payload)),
		Payload:     payload,
		Campaign:    campaign,
	}
}

// NewScriptItem wraps free-form script text as a text item so it can flow
// through the same pipeline as uploaded files.
func NewScriptItem(content string, campaign CampaignType) Item {
	it := NewItem("Script Content", "text/plain", []byte(content), campaign)
	return it
}

// Text returns the payload as a string. Only meaningful for text items.
func (i Item) Text() string {
	return string(i.Payload)
}

// Fingerprint returns a stable key identifying the item's content, used to
// cache classifier results across retries and cancelled batches.
func (i Item) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(i.ContentType))
	h.Write([]byte{0})
	h.Write([]byte(i.Transcription))
	h.Write([]byte{0})
	h.Write([]byte(i.Campaign))
	h.Write([]byte{0})
	h.Write(i.Payload)
	return hex.EncodeToString(h.Sum(nil))
}
