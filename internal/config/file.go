package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the form configuration file does not exist.
var ErrConfigNotFound = errors.New("form configuration file not found")

// ApplyFormFile overlays the YAML form configuration at path onto the
// environment-derived settings. Keys absent from the file keep their values.
func (c *Config) ApplyFormFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("config: read form file: %w", err)
	}
	return c.ApplyFormYAML(data)
}

// ApplyFormYAML overlays a YAML document onto the form settings.
func (c *Config) ApplyFormYAML(data []byte) error {
	settings := c.Form
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("config: parse form file: %w", err)
	}
	c.Form = settings
	return nil
}
