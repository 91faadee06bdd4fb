// Package process registers external executables as shell commands,
// declared in a YAML or JSON configuration file.
package process

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parley-sh/parley"
)

// CommandConfig declares one external executable exposed as a shell command.
type CommandConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the structure of commands.yaml.
type ConfigFile struct {
	Commands []CommandConfig `yaml:"commands" json:"commands"`
}

// Load reads a configuration file (YAML or JSON by extension) and returns
// the declared commands. A missing file at the default path is treated as
// "no external commands configured".
func Load(path string) ([]CommandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse commands config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse commands config: %w", err)
		}
	}

	var out []CommandConfig
	for _, c := range cfg.Commands {
		if c.Name == "" || c.Command == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Register installs the configured commands on the shell. Each command takes
// an optional variadic tail appended to the configured argv; process output
// goes through the shell's pipeline log.
func Register(sh *parley.Shell, configs []CommandConfig) {
	for _, cfg := range configs {
		cfg := cfg
		sh.Command(cfg.Name+" [args...]", cfg.Description).
			Action(func(ctx context.Context, args *parley.Args) (any, error) {
				argv := append(append([]string(nil), cfg.Args...), args.Strings("args")...)
				cmd := exec.CommandContext(ctx, cfg.Command, argv...)
				cmd.Env = os.Environ()
				for k, v := range cfg.Environment {
					cmd.Env = append(cmd.Env, k+"="+v)
				}
				out, err := cmd.CombinedOutput()
				if text := strings.TrimSpace(string(out)); text != "" {
					sh.Log(text)
				}
				if err != nil {
					return nil, fmt.Errorf("command %s failed: %w", cfg.Name, err)
				}
				return strings.TrimSpace(string(out)), nil
			})
	}
}
