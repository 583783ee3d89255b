package topic

import "fmt"

// token pairs the declared name of an enumeration value with its wire
// spelling. The wire spelling is always the declared name with the first
// letter lowercased.
type token struct {
	name string
	path string
}

func lookupToken[T ~int](table []token, v T, kind string) token {
	if v < 0 || int(v) >= len(table) {
		return token{name: fmt.Sprintf("%s(%d)", kind, int(v))}
	}
	return table[v]
}

func parseToken[T ~int](table []token, s string) (T, bool) {
	for i, t := range table {
		if t.path == s {
			return T(i), true
		}
	}
	return 0, false
}

// Family identifies the second path segment of every hermes topic.
type Family int

const (
	FamilyAudioServer Family = iota
	FamilyAsr
	FamilyDialogueManager
	FamilyFeedback
	FamilyIntent
	FamilyHotword
	FamilyNlu
	FamilyTts
)

var familyTokens = [...]token{
	FamilyAudioServer:     {"AudioServer", "audioServer"},
	FamilyAsr:             {"Asr", "asr"},
	FamilyDialogueManager: {"DialogueManager", "dialogueManager"},
	FamilyFeedback:        {"Feedback", "feedback"},
	FamilyIntent:          {"Intent", "intent"},
	FamilyHotword:         {"Hotword", "hotword"},
	FamilyNlu:             {"Nlu", "nlu"},
	FamilyTts:             {"Tts", "tts"},
}

// Families lists every family in decoder dispatch order.
var Families = []Family{
	FamilyAudioServer,
	FamilyAsr,
	FamilyDialogueManager,
	FamilyFeedback,
	FamilyIntent,
	FamilyHotword,
	FamilyNlu,
	FamilyTts,
}

func (f Family) String() string { return lookupToken(familyTokens[:], f, "Family").name }
func (f Family) Path() string   { return lookupToken(familyTokens[:], f, "Family").path }

// ParseFamily returns the family whose wire token is s.
func ParseFamily(s string) (Family, bool) { return parseToken[Family](familyTokens[:], s) }

// ComponentTag names the component a generic Component topic belongs to.
type ComponentTag int

const (
	ComponentHotword ComponentTag = iota
	ComponentAsr
	ComponentTts
	ComponentNlu
	ComponentDialogueManager
	ComponentAudioServer
)

var componentTokens = [...]token{
	ComponentHotword:         {"Hotword", "hotword"},
	ComponentAsr:             {"Asr", "asr"},
	ComponentTts:             {"Tts", "tts"},
	ComponentNlu:             {"Nlu", "nlu"},
	ComponentDialogueManager: {"DialogueManager", "dialogueManager"},
	ComponentAudioServer:     {"AudioServer", "audioServer"},
}

// Components lists every component tag.
var Components = []ComponentTag{
	ComponentHotword,
	ComponentAsr,
	ComponentTts,
	ComponentNlu,
	ComponentDialogueManager,
	ComponentAudioServer,
}

func (c ComponentTag) String() string {
	return lookupToken(componentTokens[:], c, "ComponentTag").name
}

func (c ComponentTag) Path() string {
	return lookupToken(componentTokens[:], c, "ComponentTag").path
}

// ParseComponentTag returns the component whose wire token is s.
func ParseComponentTag(s string) (ComponentTag, bool) {
	return parseToken[ComponentTag](componentTokens[:], s)
}

// MarshalText renders the component as its wire token.
func (c ComponentTag) MarshalText() ([]byte, error) {
	if p := c.Path(); p != "" {
		return []byte(p), nil
	}
	return nil, fmt.Errorf("undeclared %s", c)
}

func (c *ComponentTag) UnmarshalText(text []byte) error {
	v, ok := ParseComponentTag(string(text))
	if !ok {
		return fmt.Errorf("unknown component %q", text)
	}
	*c = v
	return nil
}

// Family returns the topic family the component publishes under.
func (c ComponentTag) Family() Family {
	switch c {
	case ComponentHotword:
		return FamilyHotword
	case ComponentAsr:
		return FamilyAsr
	case ComponentTts:
		return FamilyTts
	case ComponentNlu:
		return FamilyNlu
	case ComponentDialogueManager:
		return FamilyDialogueManager
	case ComponentAudioServer:
		return FamilyAudioServer
	}
	return Family(-1)
}

// PerSite reports whether the component's introspection topics carry a site.
func (c ComponentTag) PerSite() bool {
	return c == ComponentHotword || c == ComponentAudioServer
}

// ComponentCommand is one of the introspection commands shared by every component.
type ComponentCommand int

const (
	VersionRequest ComponentCommand = iota
	Version
	Error
)

var componentCommandTokens = [...]token{
	VersionRequest: {"VersionRequest", "versionRequest"},
	Version:        {"Version", "version"},
	Error:          {"Error", "error"},
}

// ComponentCommands lists every introspection command.
var ComponentCommands = []ComponentCommand{VersionRequest, Version, Error}

func (c ComponentCommand) String() string {
	return lookupToken(componentCommandTokens[:], c, "ComponentCommand").name
}

func (c ComponentCommand) Path() string {
	return lookupToken(componentCommandTokens[:], c, "ComponentCommand").path
}

// SoundCommand toggles sound feedback.
type SoundCommand int

const (
	SoundToggleOn SoundCommand = iota
	SoundToggleOff
)

var soundTokens = [...]token{
	SoundToggleOn:  {"ToggleOn", "toggleOn"},
	SoundToggleOff: {"ToggleOff", "toggleOff"},
}

func (c SoundCommand) String() string { return lookupToken(soundTokens[:], c, "SoundCommand").name }
func (c SoundCommand) Path() string   { return lookupToken(soundTokens[:], c, "SoundCommand").path }

// FeedbackCommand is the medium-qualified command of a Feedback topic.
// Sound is currently the only medium.
type FeedbackCommand interface {
	Path() string
	feedbackCommand()
}

// Sound addresses the sound feedback medium.
type Sound struct {
	Command SoundCommand
}

func (Sound) feedbackCommand() {}

func (s Sound) Path() string { return "sound/" + s.Command.Path() }

// DialogueManagerCommand covers the dialogue session lifecycle.
type DialogueManagerCommand int

const (
	DialogueManagerToggleOn DialogueManagerCommand = iota
	DialogueManagerToggleOff
	StartSession
	ContinueSession
	EndSession
	SessionQueued
	SessionStarted
	SessionEnded
	DialogueManagerIntentNotRecognized
)

var dialogueManagerTokens = [...]token{
	DialogueManagerToggleOn:            {"ToggleOn", "toggleOn"},
	DialogueManagerToggleOff:           {"ToggleOff", "toggleOff"},
	StartSession:                       {"StartSession", "startSession"},
	ContinueSession:                    {"ContinueSession", "continueSession"},
	EndSession:                         {"EndSession", "endSession"},
	SessionQueued:                      {"SessionQueued", "sessionQueued"},
	SessionStarted:                     {"SessionStarted", "sessionStarted"},
	SessionEnded:                       {"SessionEnded", "sessionEnded"},
	DialogueManagerIntentNotRecognized: {"IntentNotRecognized", "intentNotRecognized"},
}

func (c DialogueManagerCommand) String() string {
	return lookupToken(dialogueManagerTokens[:], c, "DialogueManagerCommand").name
}

func (c DialogueManagerCommand) Path() string {
	return lookupToken(dialogueManagerTokens[:], c, "DialogueManagerCommand").path
}

// HotwordCommand covers wake-word detector events and controls.
type HotwordCommand int

const (
	HotwordToggleOn HotwordCommand = iota
	HotwordToggleOff
	HotwordDetected
)

var hotwordTokens = [...]token{
	HotwordToggleOn:  {"ToggleOn", "toggleOn"},
	HotwordToggleOff: {"ToggleOff", "toggleOff"},
	HotwordDetected:  {"Detected", "detected"},
}

func (c HotwordCommand) String() string {
	return lookupToken(hotwordTokens[:], c, "HotwordCommand").name
}

func (c HotwordCommand) Path() string {
	return lookupToken(hotwordTokens[:], c, "HotwordCommand").path
}

// PerSite reports whether the command is addressed to a single site.
func (c HotwordCommand) PerSite() bool { return c == HotwordDetected }

// AsrCommand covers speech recognizer events and controls.
type AsrCommand int

const (
	AsrToggleOn AsrCommand = iota
	AsrToggleOff
	AsrStartListening
	AsrStopListening
	AsrTextCaptured
	AsrPartialTextCaptured
	AsrReload
	AsrInject
	AsrInjectStatus
	AsrInjectStatusRequest
)

var asrTokens = [...]token{
	AsrToggleOn:            {"ToggleOn", "toggleOn"},
	AsrToggleOff:           {"ToggleOff", "toggleOff"},
	AsrStartListening:      {"StartListening", "startListening"},
	AsrStopListening:       {"StopListening", "stopListening"},
	AsrTextCaptured:        {"TextCaptured", "textCaptured"},
	AsrPartialTextCaptured: {"PartialTextCaptured", "partialTextCaptured"},
	AsrReload:              {"Reload", "reload"},
	AsrInject:              {"Inject", "inject"},
	AsrInjectStatus:        {"InjectStatus", "injectStatus"},
	AsrInjectStatusRequest: {"InjectStatusRequest", "injectStatusRequest"},
}

func (c AsrCommand) String() string { return lookupToken(asrTokens[:], c, "AsrCommand").name }
func (c AsrCommand) Path() string   { return lookupToken(asrTokens[:], c, "AsrCommand").path }

// TtsCommand covers speech synthesizer events and controls.
type TtsCommand int

const (
	TtsSay TtsCommand = iota
	TtsSayFinished
)

var ttsTokens = [...]token{
	TtsSay:         {"Say", "say"},
	TtsSayFinished: {"SayFinished", "sayFinished"},
}

func (c TtsCommand) String() string { return lookupToken(ttsTokens[:], c, "TtsCommand").name }
func (c TtsCommand) Path() string   { return lookupToken(ttsTokens[:], c, "TtsCommand").path }

// NluCommand covers natural language understanding events and controls.
type NluCommand int

const (
	NluQuery NluCommand = iota
	NluPartialQuery
	NluSlotParsed
	NluIntentParsed
	NluIntentNotRecognized
)

var nluTokens = [...]token{
	NluQuery:               {"Query", "query"},
	NluPartialQuery:        {"PartialQuery", "partialQuery"},
	NluSlotParsed:          {"SlotParsed", "slotParsed"},
	NluIntentParsed:        {"IntentParsed", "intentParsed"},
	NluIntentNotRecognized: {"IntentNotRecognized", "intentNotRecognized"},
}

func (c NluCommand) String() string { return lookupToken(nluTokens[:], c, "NluCommand").name }
func (c NluCommand) Path() string   { return lookupToken(nluTokens[:], c, "NluCommand").path }

// AudioServerCommand is a command of the audio server family. It is either
// an AudioServerAction or a PlayBytes request.
type AudioServerCommand interface {
	Path() string
	// PerSite reports whether the command is addressed to a single site.
	PerSite() bool
	audioServerCommand()
}

// AudioServerAction is an audio server command that carries no argument.
type AudioServerAction int

const (
	AudioServerToggleOn AudioServerAction = iota
	AudioServerToggleOff
	AudioFrame
	PlayFinished
)

var audioServerTokens = [...]token{
	AudioServerToggleOn:  {"ToggleOn", "toggleOn"},
	AudioServerToggleOff: {"ToggleOff", "toggleOff"},
	AudioFrame:           {"AudioFrame", "audioFrame"},
	PlayFinished:         {"PlayFinished", "playFinished"},
}

func (AudioServerAction) audioServerCommand() {}

func (c AudioServerAction) String() string {
	return lookupToken(audioServerTokens[:], c, "AudioServerAction").name
}

func (c AudioServerAction) Path() string {
	return lookupToken(audioServerTokens[:], c, "AudioServerAction").path
}

func (c AudioServerAction) PerSite() bool { return c == AudioFrame || c == PlayFinished }

// PlayBytes asks the audio server of a site to play a wav payload. File is
// the request identifier echoed back in the PlayFinished message.
type PlayBytes struct {
	File string
}

const playBytesToken = "playBytes"

func (PlayBytes) audioServerCommand() {}

func (PlayBytes) String() string { return "PlayBytes" }

func (p PlayBytes) Path() string { return playBytesToken + "/" + p.File }

func (PlayBytes) PerSite() bool { return true }
