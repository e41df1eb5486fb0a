package grok

import (
	_ "embed"
	"time"

	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed "grok.yaml"
var settingsYAML []byte

// Settings configures a Grok client and its exchanges.
type Settings struct {
	Cookies              string         `yaml:"cookies,omitempty"`
	Lang                 string         `yaml:"lang,omitempty"`
	Model                string         `yaml:"model,omitempty"`
	ImageGenerationCount int            `yaml:"image_generation_count"`
	RepairFrames         bool           `yaml:"repair_frames"`
	ChunkSize            int            `yaml:"chunk_size,omitempty"`
	Timeout              *time.Duration `yaml:"-"`
	TimeoutSeconds       *int           `yaml:"timeout,omitempty"`
}

// NewSettings returns the embedded defaults.
func NewSettings() (*Settings, error) {
	s := &Settings{}
	if err := yaml.Unmarshal(settingsYAML, s); err != nil {
		return nil, errors.Wrap(err, "failed to parse default grok settings")
	}
	return s, nil
}

// UnmarshalYAML reads timeout as a number of seconds.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	type Alias Settings
	aux := (*Alias)(s)
	if err := value.Decode(aux); err != nil {
		return err
	}
	s.setTimeoutSeconds(s.TimeoutSeconds)
	return nil
}

func (s *Settings) setTimeoutSeconds(seconds *int) {
	if seconds == nil {
		return
	}
	n := *seconds
	t := time.Duration(n) * time.Second
	s.TimeoutSeconds = &n
	s.Timeout = &t
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

const (
	KeyCookies              = "cookies"
	KeyLang                 = "lang"
	KeyModel                = "model"
	KeyImageGenerationCount = "image-count"
	KeyRepairFrames         = "repair-frames"
	KeyChunkSize            = "chunk-size"
	KeyTimeout              = "timeout"
)

// Config files may spell the numeric and boolean keys the way the YAML
// defaults do. Flag and environment names take precedence.
var configFileKeys = map[string]string{
	KeyImageGenerationCount: "image_generation_count",
	KeyRepairFrames:         "repair_frames",
	KeyChunkSize:            "chunk_size",
}

func lookupKey(v *viper.Viper, key string) (string, bool) {
	if v.IsSet(key) {
		return key, true
	}
	if alt, ok := configFileKeys[key]; ok && v.IsSet(alt) {
		return alt, true
	}
	return "", false
}

// UpdateFromViper overrides the settings with every key that is set in v.
func (s *Settings) UpdateFromViper(v *viper.Viper) {
	if v.IsSet(KeyCookies) {
		s.Cookies = v.GetString(KeyCookies)
	}
	if v.IsSet(KeyLang) {
		s.Lang = v.GetString(KeyLang)
	}
	if v.IsSet(KeyModel) {
		s.Model = v.GetString(KeyModel)
	}
	if k, ok := lookupKey(v, KeyImageGenerationCount); ok {
		s.ImageGenerationCount = v.GetInt(k)
	}
	if k, ok := lookupKey(v, KeyRepairFrames); ok {
		s.RepairFrames = v.GetBool(k)
	}
	if k, ok := lookupKey(v, KeyChunkSize); ok {
		s.ChunkSize = v.GetInt(k)
	}
	if v.IsSet(KeyTimeout) {
		seconds := v.GetInt(KeyTimeout)
		s.setTimeoutSeconds(&seconds)
	}
}

func (s *Settings) Validate() error {
	if s.Model == "" {
		return &api.ConfigurationError{Setting: KeyModel, Reason: "model is empty"}
	}
	if s.ImageGenerationCount < 0 {
		return &api.ConfigurationError{Setting: KeyImageGenerationCount, Reason: "must not be negative"}
	}
	if s.ChunkSize < 0 {
		return &api.ConfigurationError{Setting: KeyChunkSize, Reason: "must not be negative"}
	}
	return nil
}

// Credentials derives the request credentials from the configured cookies.
func (s *Settings) Credentials() (*api.Credentials, error) {
	if s.Cookies == "" {
		return nil, &api.ConfigurationError{
			Setting: KeyCookies,
			Reason:  "no session cookies configured",
			Missing: true,
		}
	}
	return api.NewCredentials(s.Cookies, s.Lang)
}
