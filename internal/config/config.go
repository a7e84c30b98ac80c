package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models caseline.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"project"`
	Signing struct {
		TemplatePath  string `yaml:"template_path"`
		SignaturePath string `yaml:"signature_path"`
		ArtifactDir   string `yaml:"artifact_dir"`
		SessionTTLMin int    `yaml:"session_ttl_minutes"`
		SweepSeconds  int    `yaml:"sweep_seconds"`
	} `yaml:"signing"`
	Registry struct {
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"registry"`
	Roster struct {
		ActiveStatus string `yaml:"active_status"`
	} `yaml:"roster"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create with cl workspace init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != "case-workspace" {
		return fmt.Errorf("config.project.kind must be 'case-workspace'")
	}
	if c.Signing.ArtifactDir == "" {
		return fmt.Errorf("config.signing.artifact_dir is required")
	}
	if c.Signing.SessionTTLMin <= 0 {
		return fmt.Errorf("config.signing.session_ttl_minutes must be positive")
	}
	if c.Signing.SweepSeconds <= 0 {
		return fmt.Errorf("config.signing.sweep_seconds must be positive")
	}
	if c.Registry.TimeoutSeconds < 0 {
		return fmt.Errorf("config.registry.timeout_seconds must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "caseline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	cfg.Project.Kind = "case-workspace"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s
  kind: case-workspace

signing:
  template_path: assets/caseManagersNda.pdf
  signature_path: assets/counterSignature.png
  artifact_dir: .caseline/nda
  session_ttl_minutes: 10
  sweep_seconds: 60

registry:
  endpoint: ""
  timeout_seconds: 10

roster:
  active_status: active
`
