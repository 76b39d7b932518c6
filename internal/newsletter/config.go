package newsletter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// SeedQuestion is one configured default question, serialized in the config
// file as a [text, type] pair.
type SeedQuestion struct {
	Text string
	Type string
}

// UnmarshalYAML decodes the two-element list form used by config.yaml.
func (q *SeedQuestion) UnmarshalYAML(value *yaml.Node) error {
	var pair []string
	if err := value.Decode(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("default question must be a [text, type] pair, got %d elements", len(pair))
	}
	q.Text, q.Type = pair[0], pair[1]
	return nil
}

// MarshalYAML emits the same two-element list form.
func (q SeedQuestion) MarshalYAML() (any, error) {
	return []string{q.Text, q.Type}, nil
}

// Config describes one newsletter's folder configuration.
type Config struct {
	Name     string         `yaml:"name"`
	Email    string         `yaml:"email"`
	Link     string         `yaml:"link"`
	Defaults []SeedQuestion `yaml:"defaults"`
}

// LoadConfig reads and validates config.yaml from a newsletter folder.
func LoadConfig(folder string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(folder, configFileName))
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", folder, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config for %s: %w", folder, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config for %s: %w", folder, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name must be set")
	}
	if c.Email == "" {
		return fmt.Errorf("email must be set")
	}
	for i, q := range c.Defaults {
		if q.Text == "" {
			return fmt.Errorf("default question %d has no text", i+1)
		}
		if q.Type != "text" && q.Type != "image" {
			return fmt.Errorf("default question %d has unknown type %q", i+1, q.Type)
		}
	}
	return nil
}

// Scaffold creates a newsletter folder with the given config and an issue
// counter starting at one. It refuses to overwrite an existing config.
func Scaffold(folder string, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("create newsletter folder: %w", err)
	}

	configPath := filepath.Join(folder, configFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("newsletter folder %s already has a config", folder)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return WriteIssue(folder, 1)
}

// Folders lists the newsletter folders under dir, sorted by name.
func Folders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list newsletter folders: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(folders)
	return folders, nil
}
