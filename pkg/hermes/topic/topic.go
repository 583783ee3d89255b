package topic

// Topic is a decoded hermes topic. The set of implementations is closed:
// Feedback, DialogueManager, Hotword, Asr, Tts, Nlu, Intent, AudioServer
// and Component. All of them are comparable values, so two topics can be
// compared with ==.
type Topic interface {
	// Family returns the family segment the topic is published under.
	Family() Family
	// String returns the wire path, as Encode does.
	String() string
	isTopic()
}

// Feedback controls ambient feedback such as sounds.
type Feedback struct {
	Command FeedbackCommand
}

// DialogueManager carries dialogue session lifecycle events and controls.
type DialogueManager struct {
	Command DialogueManagerCommand
}

// Hotword carries wake-word detector events. Site is empty for commands
// that address every site.
type Hotword struct {
	Site    string
	Command HotwordCommand
}

// Asr carries speech recognizer events and controls.
type Asr struct {
	Command AsrCommand
}

// Tts carries speech synthesizer events and controls.
type Tts struct {
	Command TtsCommand
}

// Nlu carries natural language understanding events and controls.
type Nlu struct {
	Command NluCommand
}

// Intent is the dedicated topic of a recognized intent.
type Intent struct {
	Name string
}

// AudioServer carries per-site audio input and output. Site is empty for
// commands that address every site.
type AudioServer struct {
	Site    string
	Command AudioServerCommand
}

// Component is one of the introspection topics (version request, version,
// error) shared by every component family. Site is only set for the
// hotword and audio server components.
type Component struct {
	Site      string
	Component ComponentTag
	Command   ComponentCommand
}

func (Feedback) isTopic()        {}
func (DialogueManager) isTopic() {}
func (Hotword) isTopic()         {}
func (Asr) isTopic()             {}
func (Tts) isTopic()             {}
func (Nlu) isTopic()             {}
func (Intent) isTopic()          {}
func (AudioServer) isTopic()     {}
func (Component) isTopic()       {}

func (Feedback) Family() Family        { return FamilyFeedback }
func (DialogueManager) Family() Family { return FamilyDialogueManager }
func (Hotword) Family() Family         { return FamilyHotword }
func (Asr) Family() Family             { return FamilyAsr }
func (Tts) Family() Family             { return FamilyTts }
func (Nlu) Family() Family             { return FamilyNlu }
func (Intent) Family() Family          { return FamilyIntent }
func (AudioServer) Family() Family     { return FamilyAudioServer }
func (c Component) Family() Family     { return c.Component.Family() }

func (t Feedback) String() string        { return Encode(t) }
func (t DialogueManager) String() string { return Encode(t) }
func (t Hotword) String() string         { return Encode(t) }
func (t Asr) String() string             { return Encode(t) }
func (t Tts) String() string             { return Encode(t) }
func (t Nlu) String() string             { return Encode(t) }
func (t Intent) String() string          { return Encode(t) }
func (t AudioServer) String() string     { return Encode(t) }
func (t Component) String() string       { return Encode(t) }

// SiteOf returns the site qualifier of t, or the empty string when t has
// none.
func SiteOf(t Topic) string {
	switch v := t.(type) {
	case Hotword:
		return v.Site
	case AudioServer:
		return v.Site
	case Component:
		return v.Site
	}
	return ""
}
