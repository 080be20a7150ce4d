package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeFile(t, "storyteller.yaml", `
ollama:
  model: llama3.2
conversation:
  greeting: Hello there.
audio:
  backend: portaudio
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	defaults := Default()
	if cfg.Ollama.Model != "llama3.2" {
		t.Fatalf("expected overridden model, got %q", cfg.Ollama.Model)
	}
	if cfg.Ollama.URL != defaults.Ollama.URL {
		t.Fatalf("expected default url to survive, got %q", cfg.Ollama.URL)
	}
	if cfg.Conversation.Greeting != "Hello there." {
		t.Fatalf("expected overridden greeting, got %q", cfg.Conversation.Greeting)
	}
	if cfg.Conversation.LLMWaitMsg != defaults.Conversation.LLMWaitMsg {
		t.Fatalf("expected default wait message, got %q", cfg.Conversation.LLMWaitMsg)
	}
	if cfg.Audio.Backend != AudioBackendPortaudio || cfg.Audio.FramesPerBuffer != defaults.Audio.FramesPerBuffer {
		t.Fatalf("expected portaudio with default buffer, got %+v", cfg.Audio)
	}
	if cfg.Messages != defaults.Messages {
		t.Fatalf("expected untouched messages, got %+v", cfg.Messages)
	}
}

func TestLoadIgnoresUnknownSettings(t *testing.T) {
	path := writeFile(t, "storyteller.yaml", `
whisper_recognition:
  modelPath: whisper/large-v3.pt
ollama:
  temperature: 0.2
  model: llama3.2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected unknown settings to be ignored, got %v", err)
	}
	if cfg.Ollama.Model != "llama3.2" {
		t.Fatalf("expected known key to apply, got %q", cfg.Ollama.Model)
	}
}

func TestUnknownKeys(t *testing.T) {
	unknown := UnknownKeys(map[string]any{
		"stablediffusion": map[string]any{"device": "cpu"},
		"ollama":          map[string]any{"model": "x", "temperature": 0.2},
		"audio":           nil,
	})
	slices.Sort(unknown)

	if want := []string{"ollama.temperature", "stablediffusion"}; !slices.Equal(unknown, want) {
		t.Fatalf("expected %q, got %q", want, unknown)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "storyteller.yaml", `
audio:
  backend: alsa
`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "alsa") {
		t.Fatalf("expected audio backend error, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "storyteller.yaml", "ollama: [unterminated")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	t.Setenv("STORYTELLER_TEST_KEEP", "from-environment")
	path := writeFile(t, ".env", "STORYTELLER_TEST_KEEP=from-file\nSTORYTELLER_TEST_NEW=from-file\n")
	t.Cleanup(func() { os.Unsetenv("STORYTELLER_TEST_NEW") })

	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("STORYTELLER_TEST_KEEP"); got != "from-environment" {
		t.Fatalf("expected existing variable to win, got %q", got)
	}
	if got := os.Getenv("STORYTELLER_TEST_NEW"); got != "from-file" {
		t.Fatalf("expected variable from file, got %q", got)
	}
}

func TestSchemaListsSections(t *testing.T) {
	schema, err := Schema()
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}
	for _, section := range []string{"messages", "speechToText", "ollama", "imageGeneration", "textToSpeech", "conversation", "audio"} {
		if !strings.Contains(string(schema), `"`+section+`"`) {
			t.Fatalf("expected schema to contain %q", section)
		}
	}
}
