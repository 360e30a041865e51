package main

import (
	"time"

	"github.com/Laisky/errors/v2"
)

// scenario is one streaming request exercised by the sweep. Prompt and
// PromptBatch are mutually exclusive; the batch form only makes sense for
// completion-format models.
type scenario struct {
	Name         string   `yaml:"name"`
	Model        string   `yaml:"model"`
	Prompt       string   `yaml:"prompt"`
	PromptBatch  []string `yaml:"prompt_batch"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  float64  `yaml:"temperature"`
	Echo         bool     `yaml:"echo"`
	Endpoint     string   `yaml:"endpoint"`
	ChunkTimeout float64  `yaml:"chunk_timeout_seconds"`
}

func (s *scenario) validate() error {
	if s.Name == "" {
		return errors.New("scenario name must be set")
	}
	if s.Model == "" {
		return errors.Errorf("scenario %s: model must be set", s.Name)
	}
	if s.Prompt == "" && len(s.PromptBatch) == 0 {
		return errors.Errorf("scenario %s: prompt or prompt_batch must be set", s.Name)
	}
	if s.Prompt != "" && len(s.PromptBatch) > 0 {
		return errors.Errorf("scenario %s: prompt and prompt_batch are mutually exclusive", s.Name)
	}
	if s.MaxTokens < 0 {
		return errors.Errorf("scenario %s: max_tokens must not be negative", s.Name)
	}
	return nil
}

func (s *scenario) prompts() []string {
	if len(s.PromptBatch) > 0 {
		return s.PromptBatch
	}
	return []string{s.Prompt}
}

// outcome is the result of one executed scenario.
type outcome struct {
	Scenario     string
	Model        string
	Format       string
	PromptTokens int
	Events       int
	Text         string
	Duration     time.Duration
	Err          error
}
