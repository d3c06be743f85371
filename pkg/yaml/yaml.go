package yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// ErrFileNotFound is returned by LoadYAML when the path does not exist.
var ErrFileNotFound = errors.New("yaml file does not exist")

// LoadYAML loads a YAML file into target. Keys missing from the file leave target untouched.
func LoadYAML(path string, target interface{}) error {
	if path == "" {
		return fmt.Errorf("yaml path cannot be empty")
	}
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to read yaml file %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal yaml file %s: %w", path, err)
	}
	return nil
}

// LoadEnvironmentSpecificYAML loads <base>.yaml and then overlays <base>.<env>.yaml.
// Either file may be absent, but at least one must exist.
func LoadEnvironmentSpecificYAML(basePath string, target interface{}, environment string) error {
	basePath = strings.TrimSuffix(basePath, filepath.Ext(basePath))

	loaded := false
	if err := LoadYAML(basePath+".yaml", target); err == nil {
		loaded = true
	} else if !errors.Is(err, ErrFileNotFound) {
		return fmt.Errorf("failed to load base config: %w", err)
	}

	if environment != "" {
		envFile := fmt.Sprintf("%s.%s.yaml", basePath, environment)
		if err := LoadYAML(envFile, target); err == nil {
			loaded = true
		} else if !errors.Is(err, ErrFileNotFound) {
			return fmt.Errorf("failed to load environment config: %w", err)
		}
	}

	if !loaded {
		return fmt.Errorf("%w: %s.yaml", ErrFileNotFound, basePath)
	}
	return nil
}
