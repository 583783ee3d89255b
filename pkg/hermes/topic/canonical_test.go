package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCanonical(t *testing.T) {
	valid := []Topic{
		Hotword{Command: HotwordToggleOn},
		Hotword{Site: "default", Command: HotwordDetected},
		AudioServer{Site: "default", Command: PlayBytes{File: "abc"}},
		Component{Component: ComponentNlu, Command: Error},
		Component{Site: "kitchen", Component: ComponentAudioServer, Command: Version},
		Intent{Name: "lights"},
	}
	for _, v := range valid {
		assert.True(t, IsCanonical(v), "%#v", v)
	}

	invalid := []Topic{
		nil,
		Hotword{Site: "default", Command: HotwordToggleOn},
		Hotword{Command: HotwordDetected},
		Hotword{Site: "a/b", Command: HotwordDetected},
		AudioServer{Site: "default", Command: AudioServerToggleOff},
		AudioServer{Command: AudioFrame},
		AudioServer{Site: "default", Command: PlayBytes{}},
		AudioServer{Site: "default"},
		Component{Site: "default", Component: ComponentAsr, Command: Version},
		Component{Component: ComponentHotword, Command: Version},
		Component{Component: ComponentTag(9), Command: Version},
		Component{Component: ComponentTts, Command: ComponentCommand(-1)},
		Feedback{},
		Intent{},
		Intent{Name: "."},
		DialogueManager{Command: DialogueManagerCommand(99)},
	}
	for _, v := range invalid {
		assert.False(t, IsCanonical(v), "%#v", v)
	}
}

func TestPattern(t *testing.T) {
	cases := []struct {
		topic Topic
		want  string
	}{
		{Hotword{Command: HotwordDetected}, "hermes/hotword/+/detected"},
		{Hotword{Site: "default", Command: HotwordDetected}, "hermes/hotword/default/detected"},
		{Hotword{Command: HotwordToggleOn}, "hermes/hotword/toggleOn"},
		{AudioServer{Command: PlayFinished}, "hermes/audioServer/+/playFinished"},
		{AudioServer{Command: PlayBytes{}}, "hermes/audioServer/+/playBytes/+"},
		{AudioServer{Site: "default", Command: PlayBytes{}}, "hermes/audioServer/default/playBytes/+"},
		{AudioServer{Command: AudioServerToggleOn}, "hermes/audioServer/toggleOn"},
		{Component{Component: ComponentHotword, Command: Error}, "hermes/hotword/+/error"},
		{Component{Component: ComponentAsr, Command: Error}, "hermes/asr/error"},
		{Intent{}, "hermes/intent/+"},
		{Intent{Name: "lights"}, "hermes/intent/lights"},
		{Asr{Command: AsrTextCaptured}, "hermes/asr/textCaptured"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Pattern(c.topic))
	}
}

func TestSiteOf(t *testing.T) {
	assert.Equal(t, "default", SiteOf(Hotword{Site: "default", Command: HotwordDetected}))
	assert.Equal(t, "k", SiteOf(AudioServer{Site: "k", Command: AudioFrame}))
	assert.Equal(t, "k", SiteOf(Component{Site: "k", Component: ComponentHotword}))
	assert.Equal(t, "", SiteOf(Asr{Command: AsrReload}))
}
