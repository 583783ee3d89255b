package topic

import (
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type route struct {
	topic Topic
	path  string
}

func routes() []route {
	return []route{
		{DialogueManager{Command: DialogueManagerToggleOn}, "hermes/dialogueManager/toggleOn"},
		{DialogueManager{Command: DialogueManagerToggleOff}, "hermes/dialogueManager/toggleOff"},
		{DialogueManager{Command: StartSession}, "hermes/dialogueManager/startSession"},
		{DialogueManager{Command: ContinueSession}, "hermes/dialogueManager/continueSession"},
		{DialogueManager{Command: EndSession}, "hermes/dialogueManager/endSession"},
		{DialogueManager{Command: SessionQueued}, "hermes/dialogueManager/sessionQueued"},
		{DialogueManager{Command: SessionStarted}, "hermes/dialogueManager/sessionStarted"},
		{DialogueManager{Command: SessionEnded}, "hermes/dialogueManager/sessionEnded"},
		{DialogueManager{Command: DialogueManagerIntentNotRecognized}, "hermes/dialogueManager/intentNotRecognized"},
		{Component{Component: ComponentDialogueManager, Command: VersionRequest}, "hermes/dialogueManager/versionRequest"},
		{Component{Component: ComponentDialogueManager, Command: Version}, "hermes/dialogueManager/version"},
		{Component{Component: ComponentDialogueManager, Command: Error}, "hermes/dialogueManager/error"},

		{Feedback{Command: Sound{Command: SoundToggleOn}}, "hermes/feedback/sound/toggleOn"},
		{Feedback{Command: Sound{Command: SoundToggleOff}}, "hermes/feedback/sound/toggleOff"},

		{Hotword{Command: HotwordToggleOn}, "hermes/hotword/toggleOn"},
		{Hotword{Command: HotwordToggleOff}, "hermes/hotword/toggleOff"},
		{Hotword{Site: "default", Command: HotwordDetected}, "hermes/hotword/default/detected"},
		{Component{Site: "default", Component: ComponentHotword, Command: VersionRequest}, "hermes/hotword/default/versionRequest"},
		{Component{Site: "default", Component: ComponentHotword, Command: Version}, "hermes/hotword/default/version"},
		{Component{Site: "default", Component: ComponentHotword, Command: Error}, "hermes/hotword/default/error"},

		{Asr{Command: AsrToggleOn}, "hermes/asr/toggleOn"},
		{Asr{Command: AsrToggleOff}, "hermes/asr/toggleOff"},
		{Asr{Command: AsrStartListening}, "hermes/asr/startListening"},
		{Asr{Command: AsrStopListening}, "hermes/asr/stopListening"},
		{Asr{Command: AsrTextCaptured}, "hermes/asr/textCaptured"},
		{Asr{Command: AsrPartialTextCaptured}, "hermes/asr/partialTextCaptured"},
		{Asr{Command: AsrReload}, "hermes/asr/reload"},
		{Asr{Command: AsrInject}, "hermes/asr/inject"},
		{Asr{Command: AsrInjectStatus}, "hermes/asr/injectStatus"},
		{Asr{Command: AsrInjectStatusRequest}, "hermes/asr/injectStatusRequest"},
		{Component{Component: ComponentAsr, Command: VersionRequest}, "hermes/asr/versionRequest"},
		{Component{Component: ComponentAsr, Command: Version}, "hermes/asr/version"},
		{Component{Component: ComponentAsr, Command: Error}, "hermes/asr/error"},

		{AudioServer{Command: AudioServerToggleOn}, "hermes/audioServer/toggleOn"},
		{AudioServer{Command: AudioServerToggleOff}, "hermes/audioServer/toggleOff"},
		{AudioServer{Site: "default", Command: AudioFrame}, "hermes/audioServer/default/audioFrame"},
		{AudioServer{Site: "default", Command: PlayBytes{File: "kikoo"}}, "hermes/audioServer/default/playBytes/kikoo"},
		{AudioServer{Site: "default", Command: PlayFinished}, "hermes/audioServer/default/playFinished"},
		{Component{Site: "default", Component: ComponentAudioServer, Command: VersionRequest}, "hermes/audioServer/default/versionRequest"},
		{Component{Site: "default", Component: ComponentAudioServer, Command: Version}, "hermes/audioServer/default/version"},
		{Component{Site: "default", Component: ComponentAudioServer, Command: Error}, "hermes/audioServer/default/error"},

		{Tts{Command: TtsSay}, "hermes/tts/say"},
		{Tts{Command: TtsSayFinished}, "hermes/tts/sayFinished"},
		{Component{Component: ComponentTts, Command: VersionRequest}, "hermes/tts/versionRequest"},
		{Component{Component: ComponentTts, Command: Version}, "hermes/tts/version"},
		{Component{Component: ComponentTts, Command: Error}, "hermes/tts/error"},

		{Intent{Name: "harakiri_intent"}, "hermes/intent/harakiri_intent"},

		{Nlu{Command: NluQuery}, "hermes/nlu/query"},
		{Nlu{Command: NluPartialQuery}, "hermes/nlu/partialQuery"},
		{Nlu{Command: NluSlotParsed}, "hermes/nlu/slotParsed"},
		{Nlu{Command: NluIntentParsed}, "hermes/nlu/intentParsed"},
		{Nlu{Command: NluIntentNotRecognized}, "hermes/nlu/intentNotRecognized"},
		{Component{Component: ComponentNlu, Command: VersionRequest}, "hermes/nlu/versionRequest"},
		{Component{Component: ComponentNlu, Command: Version}, "hermes/nlu/version"},
		{Component{Component: ComponentNlu, Command: Error}, "hermes/nlu/error"},
	}
}

func TestEncode(t *testing.T) {
	for _, r := range routes() {
		assert.Equal(t, r.path, Encode(r.topic))
		assert.Equal(t, r.path, r.topic.String())
	}
}

func TestDecode(t *testing.T) {
	for _, r := range routes() {
		got, ok := Decode(r.path)
		if assert.True(t, ok, "failed parsing %s", r.path) {
			assert.Equal(t, r.topic, got, "failed parsing %s", r.path)
		}
	}
}

func TestRoutesCoverCanonicalSet(t *testing.T) {
	canonical := Canonical("default", "kikoo", "harakiri_intent")
	table := routes()

	require.Len(t, table, len(canonical))
	for _, c := range canonical {
		found := false
		for _, r := range table {
			if r.topic == c {
				found = true
				break
			}
		}
		assert.True(t, found, "canonical topic %s missing from route table", Encode(c))
	}
}

func TestRoundTrip(t *testing.T) {
	for _, site := range []string{"default", "kitchen", "toggleOn", "..", "salle-à-manger"} {
		for _, c := range Canonical(site, "d3b07384-d113-4ec6", "user:weather") {
			require.True(t, IsCanonical(c), "%#v", c)

			got, ok := Decode(Encode(c))
			require.True(t, ok, "decode %s", Encode(c))
			assert.Equal(t, c, got)
			assert.Equal(t, Encode(c), Encode(got))
		}
	}
}

func TestScenarios(t *testing.T) {
	cases := map[string]Topic{
		"hermes/dialogueManager/sessionQueued":       DialogueManager{Command: SessionQueued},
		"hermes/hotword/default/versionRequest":      Component{Site: "default", Component: ComponentHotword, Command: VersionRequest},
		"hermes/feedback/sound/toggleOff":            Feedback{Command: Sound{Command: SoundToggleOff}},
		"hermes/intent/harakiri_intent":              Intent{Name: "harakiri_intent"},
		"hermes/nlu/intentNotRecognized":             Nlu{Command: NluIntentNotRecognized},
		"hermes/audioServer/default/playBytes/kikoo": AudioServer{Site: "default", Command: PlayBytes{File: "kikoo"}},
	}

	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			got, ok := Decode(path)
			require.True(t, ok)
			assert.Equal(t, want, got)
			assert.Equal(t, path, Encode(got))
		})
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func TestCaseFolding(t *testing.T) {
	check := func(name, path string) {
		t.Helper()
		assert.Equal(t, lowerFirst(name), path, "token for %s", name)
	}

	for _, f := range Families {
		check(f.String(), f.Path())
	}
	for _, c := range Components {
		check(c.String(), c.Path())
	}
	for _, c := range ComponentCommands {
		check(c.String(), c.Path())
	}
	for i := range soundTokens {
		check(SoundCommand(i).String(), SoundCommand(i).Path())
	}
	for i := range dialogueManagerTokens {
		check(DialogueManagerCommand(i).String(), DialogueManagerCommand(i).Path())
	}
	for i := range hotwordTokens {
		check(HotwordCommand(i).String(), HotwordCommand(i).Path())
	}
	for i := range asrTokens {
		check(AsrCommand(i).String(), AsrCommand(i).Path())
	}
	for i := range ttsTokens {
		check(TtsCommand(i).String(), TtsCommand(i).Path())
	}
	for i := range nluTokens {
		check(NluCommand(i).String(), NluCommand(i).Path())
	}
	for i := range audioServerTokens {
		check(AudioServerAction(i).String(), AudioServerAction(i).Path())
	}
	check(PlayBytes{}.String(), playBytesToken)

	assert.Equal(t, "dialogueManager", ComponentDialogueManager.Path())
	assert.Equal(t, "partialTextCaptured", AsrPartialTextCaptured.Path())
}

func TestFamilyOfComponent(t *testing.T) {
	for _, c := range Components {
		assert.Equal(t, c.Path(), c.Family().Path())
		assert.Equal(t, c.Family(), Component{Component: c}.Family())
	}
}

func TestUndeclaredEnumValues(t *testing.T) {
	assert.Equal(t, "AsrCommand(42)", AsrCommand(42).String())
	assert.Equal(t, "", AsrCommand(42).Path())

	encoded := Encode(Asr{Command: AsrCommand(42)})
	assert.Equal(t, "hermes/asr/", encoded)
	_, ok := Decode(encoded)
	assert.False(t, ok)
	assert.False(t, IsCanonical(Asr{Command: AsrCommand(42)}))
}

func TestEncodeNil(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "hermes/feedback/", Encode(Feedback{}))
	assert.Equal(t, "hermes/audioServer/default/", Encode(AudioServer{Site: "default"}))
}

func TestAsrListeningCommandsDecode(t *testing.T) {
	for path, want := range map[string]Topic{
		"hermes/asr/startListening": Asr{Command: AsrStartListening},
		"hermes/asr/stopListening":  Asr{Command: AsrStopListening},
	} {
		got, ok := Decode(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got)
		assert.Equal(t, path, Encode(got))
	}
}
