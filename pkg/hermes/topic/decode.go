package topic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnrecognized is returned by Parse for paths that are not hermes topics.
var ErrUnrecognized = errors.New("unrecognized hermes topic")

// Decode parses a wire path into a Topic. The second result is false when
// the path is not a recognized hermes topic; there is no other failure kind.
//
// Segments are positional. Empty segments and "." segments are skipped, so
// "hermes//asr/toggleOn/" decodes like "hermes/asr/toggleOn", but a path
// that starts with "/" or "." is rejected. The single segment following
// playBytes or intent is captured verbatim, so a file or intent name that
// itself contains "/" does not survive a round trip.
func Decode(path string) (Topic, bool) {
	segs, ok := split(path)
	if !ok || len(segs) < 2 || segs[0] != Prefix {
		return nil, false
	}

	rest := segs[2:]

	// audioServer first, out of alphabetical order: it carries audio frames
	// and is by far the busiest family.
	switch segs[1] {
	case "audioServer":
		return decodeAudioServer(rest)
	case "asr":
		return decodeAsr(rest)
	case "dialogueManager":
		return decodeDialogueManager(rest)
	case "feedback":
		return decodeFeedback(rest)
	case "intent":
		return decodeIntent(rest)
	case "hotword":
		return decodeHotword(rest)
	case "nlu":
		return decodeNlu(rest)
	case "tts":
		return decodeTts(rest)
	}

	return nil, false
}

// Parse is Decode for callers that prefer an error value.
func Parse(path string) (Topic, error) {
	t, ok := Decode(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognized, path)
	}
	return t, nil
}

// MustDecode is like Decode but panics if path is not a hermes topic.
func MustDecode(path string) Topic {
	t, ok := Decode(path)
	if !ok {
		panic(fmt.Sprintf("topic: %q is not a hermes topic", path))
	}
	return t
}

// split cuts path into its non-empty segments.
func split(path string) ([]string, bool) {
	if strings.HasPrefix(path, Separator) {
		return nil, false
	}

	raw := strings.Split(path, Separator)
	if raw[0] == "." {
		return nil, false
	}

	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		if !utf8.ValidString(s) {
			return nil, false
		}
		segs = append(segs, s)
	}

	return segs, true
}

// at returns segment i of segs, or "" when there is none. Segments are never
// empty, so "" always means absent.
func at(segs []string, i int) string {
	if i < len(segs) {
		return segs[i]
	}
	return ""
}

// decodeAudioServer checks the full three-segment shape, except for
// playBytes which ignores anything after the file.
func decodeAudioServer(rest []string) (Topic, bool) {
	one, two, three := at(rest, 0), at(rest, 1), at(rest, 2)

	if one == "" {
		return nil, false
	}

	if two == "" {
		switch one {
		case "toggleOn":
			return AudioServer{Command: AudioServerToggleOn}, true
		case "toggleOff":
			return AudioServer{Command: AudioServerToggleOff}, true
		}
		return nil, false
	}

	site := one
	if two == playBytesToken {
		if three == "" {
			return nil, false
		}
		return AudioServer{Site: site, Command: PlayBytes{File: three}}, true
	}

	if three != "" {
		return nil, false
	}

	switch two {
	case "audioFrame":
		return AudioServer{Site: site, Command: AudioFrame}, true
	case "playFinished":
		return AudioServer{Site: site, Command: PlayFinished}, true
	case "versionRequest":
		return Component{Site: site, Component: ComponentAudioServer, Command: VersionRequest}, true
	case "version":
		return Component{Site: site, Component: ComponentAudioServer, Command: Version}, true
	case "error":
		return Component{Site: site, Component: ComponentAudioServer, Command: Error}, true
	}

	return nil, false
}

func decodeAsr(rest []string) (Topic, bool) {
	switch cmd := at(rest, 0); cmd {
	case "versionRequest":
		return Component{Component: ComponentAsr, Command: VersionRequest}, true
	case "version":
		return Component{Component: ComponentAsr, Command: Version}, true
	case "error":
		return Component{Component: ComponentAsr, Command: Error}, true
	default:
		if c, ok := parseToken[AsrCommand](asrTokens[:], cmd); ok {
			return Asr{Command: c}, true
		}
	}
	return nil, false
}

func decodeDialogueManager(rest []string) (Topic, bool) {
	switch cmd := at(rest, 0); cmd {
	case "versionRequest":
		return Component{Component: ComponentDialogueManager, Command: VersionRequest}, true
	case "version":
		return Component{Component: ComponentDialogueManager, Command: Version}, true
	case "error":
		return Component{Component: ComponentDialogueManager, Command: Error}, true
	default:
		if c, ok := parseToken[DialogueManagerCommand](dialogueManagerTokens[:], cmd); ok {
			return DialogueManager{Command: c}, true
		}
	}
	return nil, false
}

func decodeFeedback(rest []string) (Topic, bool) {
	medium, cmd := at(rest, 0), at(rest, 1)
	if medium != "sound" {
		return nil, false
	}
	if c, ok := parseToken[SoundCommand](soundTokens[:], cmd); ok {
		return Feedback{Command: Sound{Command: c}}, true
	}
	return nil, false
}

func decodeIntent(rest []string) (Topic, bool) {
	name := at(rest, 0)
	if name == "" {
		return nil, false
	}
	return Intent{Name: name}, true
}

// decodeHotword checks that nothing follows the all-site toggles.
func decodeHotword(rest []string) (Topic, bool) {
	one, two := at(rest, 0), at(rest, 1)

	if one == "" {
		return nil, false
	}

	if two == "" {
		switch one {
		case "toggleOn":
			return Hotword{Command: HotwordToggleOn}, true
		case "toggleOff":
			return Hotword{Command: HotwordToggleOff}, true
		}
		return nil, false
	}

	site := one
	switch two {
	case "detected":
		return Hotword{Site: site, Command: HotwordDetected}, true
	case "versionRequest":
		return Component{Site: site, Component: ComponentHotword, Command: VersionRequest}, true
	case "version":
		return Component{Site: site, Component: ComponentHotword, Command: Version}, true
	case "error":
		return Component{Site: site, Component: ComponentHotword, Command: Error}, true
	}

	return nil, false
}

func decodeNlu(rest []string) (Topic, bool) {
	switch cmd := at(rest, 0); cmd {
	case "versionRequest":
		return Component{Component: ComponentNlu, Command: VersionRequest}, true
	case "version":
		return Component{Component: ComponentNlu, Command: Version}, true
	case "error":
		return Component{Component: ComponentNlu, Command: Error}, true
	default:
		if c, ok := parseToken[NluCommand](nluTokens[:], cmd); ok {
			return Nlu{Command: c}, true
		}
	}
	return nil, false
}

func decodeTts(rest []string) (Topic, bool) {
	switch cmd := at(rest, 0); cmd {
	case "versionRequest":
		return Component{Component: ComponentTts, Command: VersionRequest}, true
	case "version":
		return Component{Component: ComponentTts, Command: Version}, true
	case "error":
		return Component{Component: ComponentTts, Command: Error}, true
	default:
		if c, ok := parseToken[TtsCommand](ttsTokens[:], cmd); ok {
			return Tts{Command: c}, true
		}
	}
	return nil, false
}
