package config

import (
	"fmt"
	"os"

	"github.com/danmuck/tcpcl/internal/contactd"
	"github.com/pelletier/go-toml/v2"
)

// Template renders the contactd defaults as a commented config.toml.
func Template() (string, error) {
	data, err := toml.Marshal(FileConfigFrom(contactd.DefaultConfig()))
	if err != nil {
		return "", fmt.Errorf("config template render failed: %w", err)
	}
	return string(data), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
