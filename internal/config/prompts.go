package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"market-pulse/internal/domain/entity"
)

// PromptOverrides replaces built-in prompt text. Empty fields keep the
// built-in value.
type PromptOverrides struct {
	Instruction string
	Categories  map[entity.NewsCategory]string
}

// promptFile is the YAML layout of PROMPTS_FILE:
//
//	instruction: |
//	  You are a senior financial analyst...
//	categories:
//	  MarketMovers: "Summarize..."
//	  GlobalMacro: "Summarize..."
type promptFile struct {
	Instruction string            `yaml:"instruction"`
	Categories  map[string]string `yaml:"categories"`
}

// LoadPrompts reads prompt overrides from path. An empty path returns empty
// overrides.
// The path parameter is expected to come from a trusted source (CLI flag or environment).
func LoadPrompts(path string) (*PromptOverrides, error) {
	out := &PromptOverrides{Categories: map[entity.NewsCategory]string{}}
	if path == "" {
		return out, nil
	}

	// #nosec G304 -- path is operator supplied configuration, not request input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts parses the YAML prompt overrides in data. Unknown keys and
// unknown category names are rejected.
func ParsePrompts(data []byte) (*PromptOverrides, error) {
	var file promptFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	out := &PromptOverrides{
		Instruction: strings.TrimSpace(file.Instruction),
		Categories:  make(map[entity.NewsCategory]string, len(file.Categories)),
	}
	var errs []error
	for name, prompt := range file.Categories {
		c, err := entity.ParseCategory(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Categories[c] = strings.TrimSpace(prompt)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid prompts file: %w", err)
	}
	return out, nil
}
