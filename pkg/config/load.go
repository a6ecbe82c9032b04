package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ProjectFiles are the names LoadProject looks for, in order.
var ProjectFiles = []string{"ilotplanner.yaml", "ilotplanner.yml", "ilotplanner.toml"}

// Load reads a configuration file. The format follows the extension:
// .yaml/.yml, .toml or .json. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration bytes in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config TOML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// LoadProject loads the configuration from a project directory.
// It looks for ilotplanner.yaml, ilotplanner.yml, then ilotplanner.toml.
func LoadProject(projectDir string) (*Config, error) {
	for _, name := range ProjectFiles {
		p := filepath.Join(projectDir, name)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return nil, fmt.Errorf("no %s in %s", strings.Join(ProjectFiles, ", "), projectDir)
}

// Resolve returns the configuration at path, the project configuration when
// path is a directory, or the defaults when path is empty.
func Resolve(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if info.IsDir() {
		return LoadProject(path)
	}
	return Load(path)
}
