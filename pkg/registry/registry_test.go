package registry_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
  "豆包": {
    "model_type": "doubao",
    "api_base": "https://ark.cn-beijing.volces.com/api/v3",
    "api_key": "ark-key",
    "parameters": {"temperature": 0.3, "max_tokens": 1024}
  },
  "zeta-gpt": {
    "model_type": "openai",
    "api_base": "https://api.openai.com/v1",
    "api_key": "sk-key",
    "model_name": "gpt-4o-mini"
  },
  "alpha-local": {
    "model_type": "ollama",
    "api_base": "http://localhost:11434/v1"
  }
}`

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestLoad_PreservesDeclarationOrder(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON))

	assert.Equal(t, []string{"豆包", "zeta-gpt", "alpha-local"}, r.Names())
	assert.Equal(t, 3, r.Len())

	def, ok := r.Default()
	require.True(t, ok)
	assert.Equal(t, "豆包", def)
}

func TestLoad_Fields(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON))

	c, ok := r.Lookup("豆包")
	require.True(t, ok)
	assert.Equal(t, "豆包", c.Name)
	assert.Equal(t, "doubao", c.Provider)
	assert.Equal(t, "https://ark.cn-beijing.volces.com/api/v3", c.APIBase)
	assert.Equal(t, "ark-key", c.APIKey)
	assert.Empty(t, c.Model)
	require.NotNil(t, c.Defaults.Temperature)
	assert.InDelta(t, 0.3, *c.Defaults.Temperature, 1e-9)
	require.NotNil(t, c.Defaults.MaxTokens)
	assert.Equal(t, 1024, *c.Defaults.MaxTokens)

	c, ok = r.Lookup("zeta-gpt")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", c.Model)
	assert.Nil(t, c.Defaults.Temperature)
	assert.Nil(t, c.Defaults.MaxTokens)
}

func TestLoad_UnknownProviderIsStored(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON))

	c, ok := r.Lookup("alpha-local")
	require.True(t, ok)
	assert.Equal(t, "ollama", c.Provider)
}

func TestLoad_YAML(t *testing.T) {
	src := `
second:
  model_type: openai
  api_base: https://api.openai.com/v1
first:
  model_type: doubao
  api_base: https://ark.example.com/api/v3
  parameters:
    temperature: 1.2
`
	r := registry.Load(strings.NewReader(src))

	assert.Equal(t, []string{"second", "first"}, r.Names())

	c, _ := r.Lookup("first")
	require.NotNil(t, c.Defaults.Temperature)
	assert.InDelta(t, 1.2, *c.Defaults.Temperature, 1e-9)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("LLMROUTER_TEST_KEY", "from-env")

	r := registry.Load(strings.NewReader(`{"m": {"model_type": "openai", "api_base": "https://x.example", "api_key": "${LLMROUTER_TEST_KEY}"}}`))

	c, ok := r.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, "from-env", c.APIKey)
}

func TestLoad_KeepsLiteralDollar(t *testing.T) {
	t.Setenv("bc", "should-not-appear")

	r := registry.Load(strings.NewReader(`{"m": {"model_type": "openai", "api_base": "https://x.example/$path", "api_key": "sk-a$bc"}}`))

	c, ok := r.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, "sk-a$bc", c.APIKey)
	assert.Equal(t, "https://x.example/$path", c.APIBase)
}

func TestLoad_ExpandsNumericParameters(t *testing.T) {
	t.Setenv("LLMROUTER_TEST_TEMP", "0.25")
	t.Setenv("LLMROUTER_TEST_MAX", "64")

	r := registry.Load(strings.NewReader(`
m:
  model_type: doubao
  api_base: https://x.example
  parameters:
    temperature: ${LLMROUTER_TEST_TEMP}
    max_tokens: ${LLMROUTER_TEST_MAX}
`))

	c, ok := r.Lookup("m")
	require.True(t, ok)
	require.NotNil(t, c.Defaults.Temperature)
	require.NotNil(t, c.Defaults.MaxTokens)
	assert.InDelta(t, 0.25, *c.Defaults.Temperature, 1e-9)
	assert.Equal(t, 64, *c.Defaults.MaxTokens)
}

func TestLoad_RequiresAPIBaseForEveryProvider(t *testing.T) {
	r := registry.Load(strings.NewReader(`{
  "grok-no-base": {"model_type": "grok", "api_key": "xai-key"},
  "grok": {"model_type": "grok", "api_base": "https://api.x.ai/v1", "api_key": "xai-key"}
}`), registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.Equal(t, []string{"grok"}, r.Names())
}

func TestLoad_EmptySource(t *testing.T) {
	for _, src := range []string{"", "{}", "   \n"} {
		r := registry.Load(strings.NewReader(src))

		assert.Empty(t, r.Names(), "source %q", src)
		_, ok := r.Default()
		assert.False(t, ok)
	}
}

func TestLoad_MalformedSourceIsSoft(t *testing.T) {
	var buf bytes.Buffer

	r := registry.Load(strings.NewReader(`{"m": [`), registry.WithLogger(quietLogger(&buf)))

	assert.Zero(t, r.Len())
	assert.Contains(t, buf.String(), "config malformed")
}

func TestLoad_NonMappingIsSoft(t *testing.T) {
	var buf bytes.Buffer

	r := registry.Load(strings.NewReader(`["a", "b"]`), registry.WithLogger(quietLogger(&buf)))

	assert.Zero(t, r.Len())
	assert.Contains(t, buf.String(), "expected a mapping")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoad_UnreadableSourceIsSoft(t *testing.T) {
	var buf bytes.Buffer

	r := registry.Load(failingReader{}, registry.WithLogger(quietLogger(&buf)))

	assert.Zero(t, r.Len())
	assert.Contains(t, buf.String(), "disk on fire")
}

func TestLoad_SkipsInvalidEntries(t *testing.T) {
	var buf bytes.Buffer
	src := `{
  "no-type": {"api_base": "https://x.example"},
  "bad-url": {"model_type": "openai", "api_base": "not a url"},
  "hot": {"model_type": "openai", "api_base": "https://x.example", "parameters": {"temperature": 3}},
  "wrong-shape": "just a string",
  "good": {"model_type": "openai", "api_base": "https://x.example"}
}`

	r := registry.Load(strings.NewReader(src), registry.WithLogger(quietLogger(&buf)))

	assert.Equal(t, []string{"good"}, r.Names())

	out := buf.String()
	for _, name := range []string{"no-type", "bad-url", "hot", "wrong-shape"} {
		assert.Contains(t, out, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models_config.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o600))

	r := registry.LoadFile(path)

	assert.Equal(t, 3, r.Len())
}

func TestLoadFile_MissingIsSoft(t *testing.T) {
	var buf bytes.Buffer

	r := registry.LoadFile(filepath.Join(t.TempDir(), "nope.json"), registry.WithLogger(quietLogger(&buf)))

	assert.Zero(t, r.Len())
	assert.Contains(t, buf.String(), "config file unavailable")
}

func TestWithDefault(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON), registry.WithDefault("zeta-gpt"))

	def, ok := r.Default()
	require.True(t, ok)
	assert.Equal(t, "zeta-gpt", def)
}

func TestWithDefault_UnknownIgnored(t *testing.T) {
	var buf bytes.Buffer

	r := registry.Load(strings.NewReader(catalogJSON), registry.WithDefault("missing"), registry.WithLogger(quietLogger(&buf)))

	def, _ := r.Default()
	assert.Equal(t, "豆包", def)
	assert.Contains(t, buf.String(), "default model not configured")
}

func TestNew_DuplicateReplacesInPlace(t *testing.T) {
	r := registry.New([]model.Config{
		{Name: "a", Provider: "openai"},
		{Name: "b", Provider: "openai"},
		{Name: "a", Provider: "doubao"},
	})

	assert.Equal(t, []string{"a", "b"}, r.Names())

	c, _ := r.Lookup("a")
	assert.Equal(t, "doubao", c.Provider)
}

func TestGet(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON))

	_, err := r.Get("missing")
	require.ErrorIs(t, err, registry.ErrNotFound)
	assert.ErrorContains(t, err, `"missing"`)

	c, err := r.Get("zeta-gpt")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider)
}

func TestNames_ReturnsCopy(t *testing.T) {
	r := registry.Load(strings.NewReader(catalogJSON))

	names := r.Names()
	names[0] = "mutated"

	assert.Equal(t, "豆包", r.Names()[0])
}
