package topic

import "strings"

// Prefix is the first segment of every hermes topic.
const Prefix = "hermes"

// Separator delimits topic segments.
const Separator = "/"

// Encode returns the wire path of t. It never fails: every Topic value has a
// rendering. Site qualifiers, PlayBytes files and intent names are inserted
// verbatim. Encode(nil) returns the empty string, which never decodes.
func Encode(t Topic) string {
	var b strings.Builder
	b.WriteString(Prefix)

	switch v := t.(type) {
	case Feedback:
		writeSegments(&b, FamilyFeedback.Path(), "", feedbackPath(v.Command))
	case DialogueManager:
		writeSegments(&b, FamilyDialogueManager.Path(), "", v.Command.Path())
	case Hotword:
		writeSegments(&b, FamilyHotword.Path(), v.Site, v.Command.Path())
	case Asr:
		writeSegments(&b, FamilyAsr.Path(), "", v.Command.Path())
	case Tts:
		writeSegments(&b, FamilyTts.Path(), "", v.Command.Path())
	case Nlu:
		writeSegments(&b, FamilyNlu.Path(), "", v.Command.Path())
	case Intent:
		writeSegments(&b, FamilyIntent.Path(), "", v.Name)
	case AudioServer:
		writeSegments(&b, FamilyAudioServer.Path(), v.Site, audioServerPath(v.Command))
	case Component:
		writeSegments(&b, v.Component.Path(), v.Site, v.Command.Path())
	default:
		return ""
	}

	return b.String()
}

func writeSegments(b *strings.Builder, family, site, command string) {
	b.WriteString(Separator)
	b.WriteString(family)
	if site != "" {
		b.WriteString(Separator)
		b.WriteString(site)
	}
	b.WriteString(Separator)
	b.WriteString(command)
}

func feedbackPath(c FeedbackCommand) string {
	if c == nil {
		return ""
	}
	return c.Path()
}

func audioServerPath(c AudioServerCommand) string {
	if c == nil {
		return ""
	}
	return c.Path()
}
