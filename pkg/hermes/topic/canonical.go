package topic

import (
	"strings"
	"unicode/utf8"
)

// Wildcard is the MQTT single-level wildcard used by Pattern.
const Wildcard = "+"

// AllTopics is a subscription pattern matching every hermes topic.
const AllTopics = Prefix + "/#"

// IntentPattern matches the dedicated topic of every intent.
const IntentPattern = Prefix + "/intent/+"

// Canonical returns every topic the protocol defines, using site for the
// per-site topics, file for PlayBytes and intent for the Intent topic.
// Each returned value satisfies IsCanonical when the three arguments are
// valid segments.
func Canonical(site, file, intent string) []Topic {
	var topics []Topic

	for _, c := range []DialogueManagerCommand{
		DialogueManagerToggleOn, DialogueManagerToggleOff, StartSession, ContinueSession,
		EndSession, SessionQueued, SessionStarted, SessionEnded, DialogueManagerIntentNotRecognized,
	} {
		topics = append(topics, DialogueManager{Command: c})
	}

	topics = append(topics,
		Feedback{Command: Sound{Command: SoundToggleOn}},
		Feedback{Command: Sound{Command: SoundToggleOff}},
		Hotword{Command: HotwordToggleOn},
		Hotword{Command: HotwordToggleOff},
		Hotword{Site: site, Command: HotwordDetected},
	)

	for c := range asrTokens {
		topics = append(topics, Asr{Command: AsrCommand(c)})
	}

	topics = append(topics,
		AudioServer{Command: AudioServerToggleOn},
		AudioServer{Command: AudioServerToggleOff},
		AudioServer{Site: site, Command: AudioFrame},
		AudioServer{Site: site, Command: PlayBytes{File: file}},
		AudioServer{Site: site, Command: PlayFinished},
	)

	for c := range ttsTokens {
		topics = append(topics, Tts{Command: TtsCommand(c)})
	}

	for c := range nluTokens {
		topics = append(topics, Nlu{Command: NluCommand(c)})
	}

	topics = append(topics, Intent{Name: intent})

	for _, tag := range Components {
		s := ""
		if tag.PerSite() {
			s = site
		}
		for _, cmd := range ComponentCommands {
			topics = append(topics, Component{Site: s, Component: tag, Command: cmd})
		}
	}

	return topics
}

// IsCanonical reports whether t is one of the topics the protocol defines,
// which is exactly the set of values that survive Decode(Encode(t)). A site
// must be present on per-site commands and absent otherwise, enumeration
// values must be declared ones, and free-form strings must be single
// segments.
func IsCanonical(t Topic) bool {
	switch v := t.(type) {
	case Feedback:
		s, ok := v.Command.(Sound)
		return ok && validToken(soundTokens[:], s.Command)
	case DialogueManager:
		return validToken(dialogueManagerTokens[:], v.Command)
	case Hotword:
		return validToken(hotwordTokens[:], v.Command) && siteMatches(v.Site, v.Command.PerSite())
	case Asr:
		return validToken(asrTokens[:], v.Command)
	case Tts:
		return validToken(ttsTokens[:], v.Command)
	case Nlu:
		return validToken(nluTokens[:], v.Command)
	case Intent:
		return validSegment(v.Name)
	case AudioServer:
		switch c := v.Command.(type) {
		case AudioServerAction:
			return validToken(audioServerTokens[:], c) && siteMatches(v.Site, c.PerSite())
		case PlayBytes:
			return validSegment(c.File) && siteMatches(v.Site, true)
		}
		return false
	case Component:
		return validToken(componentTokens[:], v.Component) &&
			validToken(componentCommandTokens[:], v.Command) &&
			siteMatches(v.Site, v.Component.PerSite())
	}
	return false
}

// Pattern returns an MQTT subscription pattern for t. A per-site topic with
// no site matches every site, a PlayBytes with no file matches every file
// and an Intent with no name matches every intent. Other topics are returned
// encoded as is.
func Pattern(t Topic) string {
	switch v := t.(type) {
	case Hotword:
		if v.Site == "" && v.Command.PerSite() {
			v.Site = Wildcard
		}
		return Encode(v)
	case AudioServer:
		if pb, ok := v.Command.(PlayBytes); ok && pb.File == "" {
			v.Command = PlayBytes{File: Wildcard}
		}
		if v.Site == "" && v.Command != nil && v.Command.PerSite() {
			v.Site = Wildcard
		}
		return Encode(v)
	case Component:
		if v.Site == "" && v.Component.PerSite() {
			v.Site = Wildcard
		}
		return Encode(v)
	case Intent:
		if v.Name == "" {
			return IntentPattern
		}
	}
	return Encode(t)
}

func validToken[T ~int](table []token, v T) bool {
	return v >= 0 && int(v) < len(table)
}

func siteMatches(site string, perSite bool) bool {
	if perSite {
		return validSegment(site)
	}
	return site == ""
}

// validSegment reports whether s decodes back to itself as a single segment.
func validSegment(s string) bool {
	return s != "" && s != "." && !strings.Contains(s, Separator) && utf8.ValidString(s)
}
