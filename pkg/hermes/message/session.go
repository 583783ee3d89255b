package message

import (
	"encoding/json"
	"fmt"
)

// SessionInitType tells how a session was started.
type SessionInitType string

const (
	// The session expects a response from the user.
	SessionInitAction SessionInitType = "action"
	// The session only says something and is queued if it cannot start.
	SessionInitNotification SessionInitType = "notification"
)

// SessionInit is tagged by its "type" field. Action sessions use Text
// (optional), IntentFilter and CanBeEnqueued; notifications require Text.
type SessionInit struct {
	Type          SessionInitType
	Text          *string
	IntentFilter  []string
	CanBeEnqueued bool
}

// ActionInit returns an action session init.
func ActionInit(text *string, canBeEnqueued bool, intentFilter ...string) SessionInit {
	return SessionInit{
		Type:          SessionInitAction,
		Text:          text,
		IntentFilter:  intentFilter,
		CanBeEnqueued: canBeEnqueued,
	}
}

// NotificationInit returns a notification session init.
func NotificationInit(text string) SessionInit {
	return SessionInit{Type: SessionInitNotification, Text: &text}
}

type actionInit struct {
	Type          SessionInitType `json:"type"`
	Text          *string         `json:"text,omitempty"`
	IntentFilter  []string        `json:"intentFilter,omitempty"`
	CanBeEnqueued bool            `json:"canBeEnqueued"`
}

type notificationInit struct {
	Type SessionInitType `json:"type"`
	Text string          `json:"text"`
}

func (s SessionInit) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case SessionInitAction:
		return json.Marshal(actionInit{s.Type, s.Text, s.IntentFilter, s.CanBeEnqueued})
	case SessionInitNotification:
		if s.Text == nil {
			return nil, fmt.Errorf("notification session init requires text")
		}
		return json.Marshal(notificationInit{s.Type, *s.Text})
	}
	return nil, fmt.Errorf("unknown session init type %q", s.Type)
}

func (s *SessionInit) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type SessionInitType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case SessionInitAction:
		var a actionInit
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*s = SessionInit{Type: a.Type, Text: a.Text, IntentFilter: a.IntentFilter, CanBeEnqueued: a.CanBeEnqueued}
	case SessionInitNotification:
		var n struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if n.Text == nil {
			return fmt.Errorf("notification session init requires text")
		}
		*s = SessionInit{Type: SessionInitNotification, Text: n.Text}
	default:
		return fmt.Errorf("unknown session init type %q", tag.Type)
	}
	return nil
}

// TerminationReason tells why a session ended.
type TerminationReason string

const (
	TerminationNominal             TerminationReason = "nominal"
	TerminationSiteUnavailable     TerminationReason = "siteUnavailable"
	TerminationAbortedByUser       TerminationReason = "abortedByUser"
	TerminationIntentNotRecognized TerminationReason = "intentNotRecognized"
	TerminationTimeout             TerminationReason = "timeout"
	TerminationError               TerminationReason = "error"
)

// SessionTermination is tagged by its "reason" field. Error is only
// carried for TerminationError.
type SessionTermination struct {
	Reason TerminationReason
	Error  string
}

type termination struct {
	Reason TerminationReason `json:"reason"`
	Error  *string           `json:"error,omitempty"`
}

func (t SessionTermination) MarshalJSON() ([]byte, error) {
	if !t.Reason.valid() {
		return nil, fmt.Errorf("unknown termination reason %q", t.Reason)
	}
	out := termination{Reason: t.Reason}
	if t.Reason == TerminationError {
		out.Error = &t.Error
	}
	return json.Marshal(out)
}

func (t *SessionTermination) UnmarshalJSON(data []byte) error {
	var in termination
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Reason.valid() {
		return fmt.Errorf("unknown termination reason %q", in.Reason)
	}

	*t = SessionTermination{Reason: in.Reason}
	if in.Reason == TerminationError {
		if in.Error == nil {
			return fmt.Errorf("error termination requires an error")
		}
		t.Error = *in.Error
	}
	return nil
}

func (r TerminationReason) valid() bool {
	switch r {
	case TerminationNominal, TerminationSiteUnavailable, TerminationAbortedByUser,
		TerminationIntentNotRecognized, TerminationTimeout, TerminationError:
		return true
	}
	return false
}
