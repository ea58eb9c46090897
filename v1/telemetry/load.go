package telemetry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// LoadConfig builds the configuration in three layers: the defaults of
// exporter.Config, the YAML file at path when it exists, then environment
// variables. The result is validated.
//
// An empty path skips the file. A missing file is not an error.
//
// Example:
//
//	cfg, err := telemetry.LoadConfig("/etc/cart-service/telemetry.yaml")
//	if err != nil {
//	    return err
//	}
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("telemetry: read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
			}
		}
	}

	if err := processEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.Exporter = cfg.Exporter.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// processEnv applies environment overrides section by section so every
// field keeps the exact variable name of its own package.
func processEnv(cfg *Config) error {
	var top struct {
		Transport TransportKind `envconfig:"TELEMETRY_TRANSPORT"`
	}

	sections := []interface{}{
		&top,
		&cfg.Resource,
		&cfg.Exporter,
		&cfg.Collector,
		&cfg.Kafka,
		&cfg.Tracing,
		&cfg.Meter,
		&cfg.SelfMetrics,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return err
		}
	}

	if top.Transport != "" {
		cfg.Transport = top.Transport
	}
	return nil
}
