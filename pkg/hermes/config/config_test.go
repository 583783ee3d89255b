package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
	"github.com/tsarna/hermes/pkg/hermes/websockets"
)

func build(t *testing.T, src string) (*Config, hcl.Diagnostics) {
	t.Helper()
	return NewConfig().WithLogger(zaptest.NewLogger(t)).WithSources([]byte(src)).Build()
}

func mustBuild(t *testing.T, src string) *Config {
	t.Helper()
	config, diags := build(t, src)
	require.False(t, diags.HasErrors(), diags.Error())
	return config
}

func TestDefaultBus(t *testing.T) {
	config := mustBuild(t, ``)
	assert.NotNil(t, config.Bus)
	assert.Empty(t, config.Servers)
	assert.Empty(t, config.Pollers)
}

func TestBusBlock(t *testing.T) {
	config := mustBuild(t, `
bus {
  name        = "voice"
  buffer_size = 10
}
`)
	assert.NotNil(t, config.Bus)

	_, diags := build(t, `
bus {}
bus {}
`)
	assert.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Bus already defined")

	_, diags = build(t, `bus { buffer_size = 0 }`)
	assert.True(t, diags.HasErrors())
}

func TestServerBlock(t *testing.T) {
	t.Setenv("HERMES_TEST_LISTEN", "127.0.0.1:9999")

	config := mustBuild(t, `
server "main" {
  listen        = env.HERMES_TEST_LISTEN
  path          = lower("/Hermes")
  ping_interval = "5s"
}

server "spare" {
  listen   = ":0"
  disabled = true
}
`)

	require.Contains(t, config.Servers, "main")
	assert.NotContains(t, config.Servers, "spare")

	server := config.Servers["main"]
	assert.Equal(t, "127.0.0.1:9999", server.Server.Addr)
	assert.Equal(t, "/hermes", server.Path)
	assert.NotNil(t, server.Listener)
}

func TestServerDefaultPath(t *testing.T) {
	config := mustBuild(t, `server "main" { listen = ":0" }`)
	assert.Equal(t, DefaultPath, config.Servers["main"].Path)
}

func TestInvalidBlocks(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"duplicate server": {`
server "a" { listen = ":0" }
server "a" { listen = ":1" }
`, "Server already defined"},
		"relative path": {`
server "a" {
  listen = ":0"
  path   = "ws"
}
`, `Invalid path: "ws"`},
		"path with space": {`
server "a" {
  listen = ":0"
  path   = "/my ws"
}
`, "Invalid path"},
		"bad duration": {`
server "a" {
  listen        = ":0"
  write_timeout = "soon"
}
`, `Invalid write_timeout "soon"`},
		"bad ping interval": {`
server "a" {
  listen        = ":0"
  ping_interval = "often"
}
`, "Invalid duration"},
		"missing listen": {`server "a" {}`, "listen"},
		"unknown block":  {`subscription "x" {}`, "subscription"},
		"unknown component": {`
poll "v" {
  schedule   = "@every 1m"
  components = ["asr", "radio"]
}
`, "radio"},
		"per-site without site": {`
poll "v" {
  schedule   = "@every 1m"
  components = ["hotword"]
}
`, "per-site"},
		"bad schedule": {`
poll "v" {
  schedule   = "every minute"
  components = ["tts"]
}
`, "invalid schedule"},
		"bad timezone": {`
poll "v" {
  schedule   = "@hourly"
  components = ["tts"]
  timezone   = "Mars/Olympus_Mons"
}
`, "Invalid timezone"},
		"duplicate poll": {`
poll "v" {
  schedule   = "@hourly"
  components = ["tts"]
}
poll "v" {
  schedule   = "@daily"
  components = ["nlu"]
}
`, "Poll already defined"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, diags := build(t, c.src)
			require.True(t, diags.HasErrors())
			assert.Contains(t, diags.Error(), c.want)
		})
	}
}

func TestPollBlock(t *testing.T) {
	config := mustBuild(t, `
poll "versions" {
  schedule   = "@every 30s"
  site       = "default"
  components = ["asr", "tts", "hotword", "audioServer"]
  timezone   = "UTC"
}
`)

	require.Contains(t, config.Pollers, "versions")
	assert.Empty(t, config.Pollers["versions"].Status().All())
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bus.hcl"), []byte(`bus { buffer_size = 5 }`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "servers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "servers", "main.hcl"), []byte(`server "main" { listen = ":0" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not hcl at all {`), 0o644))

	config, diags := NewConfig().WithSources(dir).Build()
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Contains(t, config.Servers, "main")

	_, diags = NewConfig().WithSources(filepath.Join(dir, "missing.hcl")).Build()
	assert.True(t, diags.HasErrors())

	_, diags = NewConfig().WithSources(42).Build()
	assert.True(t, diags.HasErrors())
}

func TestSanitizeEnvVarName(t *testing.T) {
	assert.Equal(t, "_", sanitizeEnvVarName(""))
	assert.Equal(t, "HOME", sanitizeEnvVarName("HOME"))
	assert.Equal(t, "_PROGRAMFILES_X86_", sanitizeEnvVarName("1PROGRAMFILES(X86)"))
	assert.Equal(t, "a-b_c", sanitizeEnvVarName("a-b.c"))
}

func TestEnvObject(t *testing.T) {
	t.Setenv("HERMES_TEST_SITE", "kitchen")
	env := GetEnvObject()
	assert.Equal(t, "kitchen", env.GetAttr("HERMES_TEST_SITE").AsString())
}

type collector struct {
	bus.BaseSubscriber
	mu     sync.Mutex
	topics []string
}

func (c *collector) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return nil
}

func (c *collector) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

func TestStartAndShutdown(t *testing.T) {
	metrics := o11y.NewMemory()
	config, diags := NewConfig().
		WithLogger(zaptest.NewLogger(t)).
		WithMetrics(metrics).
		WithSources([]byte(`
server "main" {
  listen        = "127.0.0.1:0"
  ping_interval = "0s"
}

poll "versions" {
  schedule   = "@hourly"
  components = ["nlu"]
}
`)).
		Build()
	require.False(t, diags.HasErrors(), diags.Error())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, config.Start(ctx))

	received := &collector{}
	require.NoError(t, config.Bus.Subscribe(ctx, received, "hermes/tts/+"))

	server := config.Servers["main"]
	require.NotNil(t, server.Addr())

	client, err := websockets.NewClient().
		WithURL("ws://" + server.Addr().String() + server.Path).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))

	require.NoError(t, client.PublishSync(ctx, "hermes/tts/say", map[string]any{"text": "hello"}))
	assert.Eventually(t, func() bool {
		return len(received.Topics()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"hermes/tts/say"}, received.Topics())

	assert.Error(t, client.PublishSync(ctx, "hermes/tts/shout", nil))

	require.NoError(t, client.Disconnect())
	require.NoError(t, config.Shutdown(ctx))

	assert.Equal(t, int64(1), metrics.CounterValue("websocket_connections_total"))
}
