package message

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// ForTopic returns a new zero payload of the type carried on t, as a
// pointer, or nil when t carries no payload.
func ForTopic(t topic.Topic) any {
	switch v := t.(type) {
	case topic.Feedback:
		return &SiteMessage{}
	case topic.Hotword:
		return &SiteMessage{}
	case topic.Asr:
		switch v.Command {
		case topic.AsrToggleOn, topic.AsrToggleOff, topic.AsrStartListening, topic.AsrStopListening:
			return &SiteMessage{}
		case topic.AsrTextCaptured, topic.AsrPartialTextCaptured:
			return &TextCapturedMessage{}
		}
	case topic.Tts:
		switch v.Command {
		case topic.TtsSay:
			return &SayMessage{}
		case topic.TtsSayFinished:
			return &SayFinishedMessage{}
		}
	case topic.Nlu:
		switch v.Command {
		case topic.NluQuery:
			return &NluQueryMessage{}
		case topic.NluPartialQuery:
			return &NluSlotQueryMessage{}
		case topic.NluSlotParsed:
			return &NluSlotMessage{}
		case topic.NluIntentParsed:
			return &NluIntentMessage{}
		case topic.NluIntentNotRecognized:
			return &NluIntentNotRecognizedMessage{}
		}
	case topic.Intent:
		return &IntentMessage{}
	case topic.AudioServer:
		switch v.Command.(type) {
		case topic.PlayBytes:
			return &PlayBytesMessage{}
		}
		switch v.Command {
		case topic.AudioServerToggleOn, topic.AudioServerToggleOff:
			return &SiteMessage{}
		case topic.AudioFrame:
			return &AudioFrameMessage{}
		case topic.PlayFinished:
			return &PlayFinishedMessage{}
		}
	case topic.DialogueManager:
		switch v.Command {
		case topic.DialogueManagerToggleOn, topic.DialogueManagerToggleOff:
			return &SiteMessage{}
		case topic.StartSession:
			return &StartSessionMessage{}
		case topic.ContinueSession:
			return &ContinueSessionMessage{}
		case topic.EndSession:
			return &EndSessionMessage{}
		case topic.SessionQueued:
			return &SessionQueuedMessage{}
		case topic.SessionStarted:
			return &SessionStartedMessage{}
		case topic.SessionEnded:
			return &SessionEndedMessage{}
		}
	case topic.Component:
		switch v.Command {
		case topic.Version:
			return &VersionMessage{}
		case topic.Error:
			return &ErrorMessage{}
		}
	}
	return nil
}

// Decode unmarshals data into the payload type carried on t. Topics
// without a payload decode to nil and ignore data.
func Decode(t topic.Topic, data []byte) (any, error) {
	payload := ForTopic(t)
	if payload == nil {
		return nil, nil
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", topic.Encode(t), err)
	}
	return payload, nil
}

// From converts a payload received on t into the type ForTopic returns.
// Payloads that already have that type are returned as is; raw JSON in a
// string or byte slice is decoded; anything else, such as the generic maps
// a websocket client delivers, is re-encoded through JSON first.
func From(t topic.Topic, payload any) (any, error) {
	want := ForTopic(t)
	if want == nil {
		return nil, nil
	}

	switch v := payload.(type) {
	case []byte:
		return Decode(t, v)
	case string:
		return Decode(t, []byte(v))
	case json.RawMessage:
		return Decode(t, v)
	}

	if reflect.TypeOf(payload) == reflect.TypeOf(want) {
		return payload, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("re-encoding %s payload: %w", topic.Encode(t), err)
	}
	return Decode(t, data)
}
