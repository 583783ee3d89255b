// Package message defines the JSON payloads carried on hermes topics.
//
// Optional fields are pointers or nil slices and are omitted when empty.
// Byte fields such as PlayBytesMessage.WavBytes travel base64 encoded.
package message

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// NewRequestID returns a fresh id for requests whose reply echoes it, such
// as PlayBytesMessage or SayMessage.
func NewRequestID() string {
	return uuid.NewString()
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}

type SiteMessage struct {
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type TextCapturedMessage struct {
	Text       string  `json:"text"`
	Likelihood float32 `json:"likelihood"`
	Seconds    float32 `json:"seconds"`
	SiteID     string  `json:"siteId"`
	SessionID  *string `json:"sessionId,omitempty"`
}

type NluQueryMessage struct {
	Input        string   `json:"input"`
	IntentFilter []string `json:"intentFilter,omitempty"`
	ID           *string  `json:"id,omitempty"`
	SessionID    *string  `json:"sessionId,omitempty"`
}

type NluSlotQueryMessage struct {
	Input      string  `json:"input"`
	IntentName string  `json:"intentName"`
	SlotName   string  `json:"slotName"`
	ID         *string `json:"id,omitempty"`
	SessionID  *string `json:"sessionId,omitempty"`
}

type PlayBytesMessage struct {
	ID        string  `json:"id"`
	WavBytes  []byte  `json:"wavBytes"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type AudioFrameMessage struct {
	WavFrame []byte `json:"wavFrame"`
	SiteID   string `json:"siteId"`
}

type PlayFinishedMessage struct {
	ID        string  `json:"id"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type SayMessage struct {
	Text      string  `json:"text"`
	Lang      *string `json:"lang,omitempty"`
	ID        *string `json:"id,omitempty"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type SayFinishedMessage struct {
	ID        *string `json:"id,omitempty"`
	SessionID *string `json:"sessionId,omitempty"`
}

// IntentClassifierResult is the best intent found for an input.
type IntentClassifierResult struct {
	IntentName  string  `json:"intentName"`
	Probability float32 `json:"probability"`
}

// Range is a span of characters in the input.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Slot is a value extracted from the input. Value is kept raw since its
// shape depends on the entity kind.
type Slot struct {
	RawValue string          `json:"rawValue"`
	Value    json.RawMessage `json:"value"`
	Range    *Range          `json:"range,omitempty"`
	Entity   string          `json:"entity"`
	SlotName string          `json:"slotName"`
}

type NluSlotMessage struct {
	ID         *string `json:"id,omitempty"`
	Input      string  `json:"input"`
	IntentName string  `json:"intentName"`
	Slot       *Slot   `json:"slot,omitempty"`
	SessionID  *string `json:"sessionId,omitempty"`
}

type NluIntentNotRecognizedMessage struct {
	ID        *string `json:"id,omitempty"`
	Input     string  `json:"input"`
	SessionID *string `json:"sessionId,omitempty"`
}

type NluIntentMessage struct {
	ID        *string                `json:"id,omitempty"`
	Input     string                 `json:"input"`
	Intent    IntentClassifierResult `json:"intent"`
	Slots     []Slot                 `json:"slots,omitempty"`
	SessionID *string                `json:"sessionId,omitempty"`
}

type IntentMessage struct {
	SessionID  string                 `json:"sessionId"`
	CustomData *string                `json:"customData,omitempty"`
	SiteID     string                 `json:"siteId"`
	Input      string                 `json:"input"`
	Intent     IntentClassifierResult `json:"intent"`
	Slots      []Slot                 `json:"slots,omitempty"`
}

type StartSessionMessage struct {
	Init       SessionInit `json:"init"`
	CustomData *string     `json:"customData,omitempty"`
	// nil means the default site
	SiteID *string `json:"siteId,omitempty"`
}

type SessionStartedMessage struct {
	SessionID                string  `json:"sessionId"`
	CustomData               *string `json:"customData,omitempty"`
	SiteID                   string  `json:"siteId"`
	ReactivatedFromSessionID *string `json:"reactivatedFromSessionId,omitempty"`
}

type SessionQueuedMessage struct {
	SessionID  string  `json:"sessionId"`
	CustomData *string `json:"customData,omitempty"`
	SiteID     string  `json:"siteId"`
}

type ContinueSessionMessage struct {
	SessionID    string   `json:"sessionId"`
	Text         string   `json:"text"`
	IntentFilter []string `json:"intentFilter,omitempty"`
}

type EndSessionMessage struct {
	SessionID string  `json:"sessionId"`
	Text      *string `json:"text,omitempty"`
}

type SessionEndedMessage struct {
	SessionID   string             `json:"sessionId"`
	CustomData  *string            `json:"customData,omitempty"`
	Termination SessionTermination `json:"termination"`
	SiteID      string             `json:"siteId"`
}

type VersionMessage struct {
	Version *semver.Version `json:"version"`
}

type ErrorMessage struct {
	SessionID *string `json:"sessionId,omitempty"`
	Error     string  `json:"error"`
	Context   *string `json:"context,omitempty"`
}
