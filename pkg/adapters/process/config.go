package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known tool names.
const (
	ToolTransform   = "transform"
	ToolEquivalence = "equivalence"
	ToolFrontend    = "frontend"
)

// ProcessConfig represents the configuration for an external tool execution.
// Args and Env values may contain {{placeholder}} references resolved per invocation.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name" mapstructure:"name"`
	Command     string            `yaml:"command" json:"command" mapstructure:"command"`
	Args        []string          `yaml:"args" json:"args" mapstructure:"args"`
	Environment map[string]string `yaml:"env" json:"env" mapstructure:"env"`
	Description string            `yaml:"description" json:"description" mapstructure:"description"`
}

// ConfigFile represents the structure of tools.yaml
type ConfigFile struct {
	Tools []ProcessConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads a configuration file (YAML or JSON) and returns a map of tool names to configs.
// A missing file yields an empty map.
func LoadTools(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse tools.json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse tools.yaml: %w", err)
		}
	}

	toolMap := make(map[string]ProcessConfig)
	for _, tool := range cfg.Tools {
		if tool.Name == "" {
			continue
		}
		toolMap[tool.Name] = tool
	}

	return toolMap, nil
}

// DefaultTools returns the LLVM toolchain wiring: opt as transformation, llvm-diff as
// equivalence oracle and clang as frontend.
func DefaultTools() map[string]ProcessConfig {
	return map[string]ProcessConfig{
		ToolTransform: {
			Name:    ToolTransform,
			Command: "opt",
			Args:    []string{"-S", "-passes={{name}}", "{{input}}", "-o", "{{output}}"},
		},
		ToolEquivalence: {
			Name:    ToolEquivalence,
			Command: "llvm-diff",
			Args:    []string{"{{left}}", "{{right}}"},
		},
		ToolFrontend: {
			Name:    ToolFrontend,
			Command: "clang",
			Args:    []string{"-S", "-emit-llvm", "-O0", "-Xclang", "-disable-O0-optnone", "{{input}}", "-o", "{{output}}"},
		},
	}
}
