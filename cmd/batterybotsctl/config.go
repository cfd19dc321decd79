package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	api "batterybots/pkg/batterybots"
)

// runConfig is the file form of a run request. YAML is a superset of JSON,
// so either format loads.
type runConfig struct {
	Scape          *string  `yaml:"scape"`
	Population     *int     `yaml:"population"`
	Survivors      *int     `yaml:"survivors"`
	Generations    *int     `yaml:"generations"`
	MutationRate   *float64 `yaml:"mutation_rate"`
	CorruptionRate *float64 `yaml:"corruption_rate"`
	Seed           *int64   `yaml:"seed"`
}

func loadRunRequestFromConfig(path string) (api.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunRequest{}, err
	}
	var cfg runConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return api.RunRequest{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	req := api.DefaultRunRequest()
	if cfg.Scape != nil {
		req.Scape = *cfg.Scape
	}
	if cfg.Population != nil {
		req.Population = *cfg.Population
	}
	if cfg.Survivors != nil {
		req.Survivors = *cfg.Survivors
	}
	if cfg.Generations != nil {
		req.Generations = *cfg.Generations
	}
	if cfg.MutationRate != nil {
		req.MutationRate = *cfg.MutationRate
	}
	if cfg.CorruptionRate != nil {
		req.CorruptionRate = *cfg.CorruptionRate
	}
	if cfg.Seed != nil {
		req.Seed = *cfg.Seed
	}
	return req, nil
}

func loadOrDefaultRunRequest(path string) (api.RunRequest, error) {
	if path == "" {
		return api.DefaultRunRequest(), nil
	}
	return loadRunRequestFromConfig(path)
}

func overrideFromFlags(req *api.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "scape":
			req.Scape = v.(string)
		case "pop":
			req.Population = v.(int)
		case "survivors":
			req.Survivors = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "corruption-rate":
			req.CorruptionRate = v.(float64)
		case "seed":
			req.Seed = v.(int64)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
