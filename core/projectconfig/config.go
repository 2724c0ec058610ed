// Package projectconfig loads per-project defaults for the secure writer and
// the detector from .ctxf/config.yaml.
package projectconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

const DefaultPath = ".ctxf/config.yaml"

type Config struct {
	Writer WriterDefaults `yaml:"writer"`
	Detect DetectDefaults `yaml:"detect"`
}

type WriterDefaults struct {
	Directory string `yaml:"directory"`
	// SecretRedaction and LogRedactions accept on/off and default to on.
	SecretRedaction string `yaml:"secret_redaction"`
	ThrowOnSecrets  bool   `yaml:"throw_on_secrets"`
	LogRedactions   string `yaml:"log_redactions"`
}

type DetectDefaults struct {
	// Disabled lists detector type names to leave out of the pattern table.
	Disabled []string `yaml:"disabled"`
}

func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("project config path is required")
	}

	// #nosec G304 -- project config path is explicit local user input.
	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read project config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Config{}, nil
	}

	var configuration Config
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("parse project config: %w", err)
	}
	configuration.normalize()
	if err := configuration.validate(); err != nil {
		return Config{}, err
	}
	return configuration, nil
}

func (configuration *Config) normalize() {
	configuration.Writer.Directory = strings.TrimSpace(configuration.Writer.Directory)
	configuration.Writer.SecretRedaction = strings.ToLower(strings.TrimSpace(configuration.Writer.SecretRedaction))
	configuration.Writer.LogRedactions = strings.ToLower(strings.TrimSpace(configuration.Writer.LogRedactions))
	for i, name := range configuration.Detect.Disabled {
		configuration.Detect.Disabled[i] = strings.TrimSpace(name)
	}
}

func (configuration *Config) validate() error {
	if err := validateToggle("writer.secret_redaction", configuration.Writer.SecretRedaction); err != nil {
		return err
	}
	return validateToggle("writer.log_redactions", configuration.Writer.LogRedactions)
}

func validateToggle(key, value string) error {
	switch value {
	case "", "on", "off":
		return nil
	}
	return fmt.Errorf("%s must be on or off", key)
}

// SecretRedactionEnabled reports the redaction toggle, defaulting to on.
func (d WriterDefaults) SecretRedactionEnabled() bool {
	return d.SecretRedaction != "off"
}

// LogRedactionsEnabled reports the redaction-log toggle, defaulting to on.
func (d WriterDefaults) LogRedactionsEnabled() bool {
	return d.LogRedactions != "off"
}
