// Package config resolves runtime settings for the gallery. Precedence is
// flag > environment > config file > default; flags are applied by the
// command layer on top of what Load returns.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string   `yaml:"port"`
	MLEndpoint     string   `yaml:"ml_endpoint"`
	ImagesDir      string   `yaml:"images_dir"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func Default() Config {
	return Config{
		Port:           "8088",
		MLEndpoint:     "http://localhost:5000",
		ImagesDir:      "static/img/images",
		RequestTimeout: Duration(90 * time.Second),
	}
}

// Load builds a Config from defaults, an optional YAML file, and environment
// variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("ML_ENDPOINT"); v != "" {
		cfg.MLEndpoint = v
	}
	if v := os.Getenv("IMAGES_DIR"); v != "" {
		cfg.ImagesDir = v
	}

	return cfg, nil
}
