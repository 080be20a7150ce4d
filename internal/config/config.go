// Package config loads the storyteller settings: built-in defaults, then a
// .env file for secrets, then an optional YAML file overriding individual
// keys.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "storyteller.yaml"

type Config struct {
	Messages        Messages        `yaml:"messages" json:"messages"`
	SpeechToText    SpeechToText    `yaml:"speechToText" json:"speechToText"`
	Ollama          Ollama          `yaml:"ollama" json:"ollama"`
	ImageGeneration ImageGeneration `yaml:"imageGeneration" json:"imageGeneration"`
	TextToSpeech    TextToSpeech    `yaml:"textToSpeech" json:"textToSpeech"`
	Conversation    Conversation    `yaml:"conversation" json:"conversation"`
	Audio           Audio           `yaml:"audio" json:"audio"`
}

type Messages struct {
	PressSpace   string `yaml:"pressSpace" json:"pressSpace" jsonschema:"description=Hint shown while idle"`
	LoadingModel string `yaml:"loadingModel" json:"loadingModel"`
	NoAudioInput string `yaml:"noAudioInput" json:"noAudioInput"`
}

type SpeechToText struct {
	URL   string `yaml:"url" json:"url"`
	Model string `yaml:"model" json:"model"`
	Lang  string `yaml:"lang" json:"lang" jsonschema:"description=Language of the spoken prompts"`
	// APIKey falls back to DEEPGRAM_API_KEY.
	APIKey string `yaml:"apiKey" json:"apiKey"`
}

type Ollama struct {
	URL          string `yaml:"url" json:"url"`
	Model        string `yaml:"model" json:"model"`
	GatingMarker string `yaml:"gatingMarker" json:"gatingMarker" jsonschema:"description=Output before the first fragment containing this marker is never spoken"`
}

type ImageGeneration struct {
	Disabled    bool   `yaml:"disabled" json:"disabled"`
	Model       string `yaml:"model" json:"model"`
	StylePrefix string `yaml:"stylePrefix" json:"stylePrefix"`
	AspectRatio string `yaml:"aspectRatio" json:"aspectRatio" jsonschema:"enum=1:1,enum=3:4,enum=4:3,enum=9:16,enum=16:9"`
	OutputDir   string `yaml:"outputDir" json:"outputDir" jsonschema:"description=Directory illustrations are saved to"`
	// APIKey falls back to GEMINI_API_KEY and GOOGLE_API_KEY.
	APIKey string `yaml:"apiKey" json:"apiKey"`
}

type TextToSpeech struct {
	Disabled bool   `yaml:"disabled" json:"disabled"`
	URL      string `yaml:"url" json:"url"`
	Voice    string `yaml:"voice" json:"voice"`
	APIKey   string `yaml:"apiKey" json:"apiKey"`
}

type Conversation struct {
	Context            string `yaml:"context" json:"context" jsonschema:"description=Prepended to every prompt"`
	Greeting           string `yaml:"greeting" json:"greeting"`
	RecognitionWaitMsg string `yaml:"recognitionWaitMsg" json:"recognitionWaitMsg"`
	LLMWaitMsg         string `yaml:"llmWaitMsg" json:"llmWaitMsg"`
}

type Audio struct {
	Backend         string `yaml:"backend" json:"backend" jsonschema:"enum=miniaudio,enum=portaudio"`
	FramesPerBuffer int    `yaml:"framesPerBuffer" json:"framesPerBuffer"`
}

const (
	AudioBackendMiniaudio = "miniaudio"
	AudioBackendPortaudio = "portaudio"
)

func Default() Config {
	return Config{
		Messages: Messages{
			PressSpace:   "Press the space key to begin speaking and then release it.",
			LoadingModel: "Loading model...",
			NoAudioInput: "Error: No audio input.",
		},
		SpeechToText: SpeechToText{
			URL:   "wss://api.deepgram.com/v1/listen",
			Model: "nova-3",
			Lang:  "en",
		},
		Ollama: Ollama{
			URL:          "http://localhost:11434/api/generate",
			Model:        "deepseek-r1:7b",
			GatingMarker: "</think>",
		},
		ImageGeneration: ImageGeneration{
			Model:       "imagen-4.0-fast-generate-001",
			StylePrefix: "A colorful illustration for a children's storybook: ",
			AspectRatio: "1:1",
			OutputDir:   "images",
		},
		TextToSpeech: TextToSpeech{
			URL:   "https://api.deepgram.com/v1/speak",
			Voice: "aura-2-thalia-en",
		},
		Conversation: Conversation{
			Context:            "This is a discussion in English.\n",
			Greeting:           "I am listening to you.",
			RecognitionWaitMsg: "Yes.",
			LLMWaitMsg:         "Let me think.",
		},
		Audio: Audio{
			Backend:         AudioBackendMiniaudio,
			FramesPerBuffer: 1024,
		},
	}
}

// LoadEnv loads .env files into the process environment. Missing files are
// not an error; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var errs []error
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("no env file found, relying on the environment", "file", file)
				continue
			}
			errs = append(errs, fmt.Errorf("failed to load env file %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}

// Load returns the defaults overridden by the YAML file at path. A missing
// file yields the defaults. Unknown sections and keys are logged and
// ignored.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	return cfg, Overlay(&cfg, data)
}

// Overlay applies the non-empty values found in data on top of cfg.
func Overlay(cfg *Config, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	for _, key := range UnknownKeys(raw) {
		logger.Warn("ignoring unknown setting", "key", key)
	}

	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	option := copier.Option{IgnoreEmpty: true}
	sections := []struct{ to, from any }{
		{&cfg.Messages, &overrides.Messages},
		{&cfg.SpeechToText, &overrides.SpeechToText},
		{&cfg.Ollama, &overrides.Ollama},
		{&cfg.ImageGeneration, &overrides.ImageGeneration},
		{&cfg.TextToSpeech, &overrides.TextToSpeech},
		{&cfg.Conversation, &overrides.Conversation},
		{&cfg.Audio, &overrides.Audio},
	}
	for _, section := range sections {
		if err := copier.CopyWithOption(section.to, section.from, option); err != nil {
			return fmt.Errorf("failed to apply config overrides: %w", err)
		}
	}

	return cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{AudioBackendMiniaudio, AudioBackendPortaudio}, c.Audio.Backend) {
		errs = append(errs, fmt.Errorf("unknown audio backend %q", c.Audio.Backend))
	}
	if c.Audio.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("audio frames per buffer must be positive, got %d", c.Audio.FramesPerBuffer))
	}
	if c.Ollama.URL == "" {
		errs = append(errs, errors.New("ollama url must be set"))
	}
	return errors.Join(errs...)
}

func schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&Config{})
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	return json.MarshalIndent(schema(), "", "  ")
}

// UnknownKeys lists the sections and section.key pairs of raw that the
// configuration does not define, in no particular order.
func UnknownKeys(raw map[string]any) []string {
	root := schema()

	var unknown []string
	for section, value := range raw {
		sectionSchema, ok := root.Properties.Get(section)
		if !ok {
			unknown = append(unknown, section)
			continue
		}
		keys, ok := value.(map[string]any)
		if !ok {
			continue
		}
		for key := range keys {
			if _, ok := sectionSchema.Properties.Get(key); !ok {
				unknown = append(unknown, section+"."+key)
			}
		}
	}
	return unknown
}

// YAML renders cfg the way it would be written to a config file.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
