package drawing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an entity stream from a .json, .yaml or .yml file.
func Load(path string) (*Drawing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading drawing file: %w", err)
	}
	d, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Parse decodes an entity stream in the format named by ext.
func Parse(data []byte, ext string) (*Drawing, error) {
	var d Drawing
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing drawing JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parsing drawing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported drawing format %q", ext)
	}
	return &d, nil
}
