package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"

	"github.com/mosheduminer/lmql/openai"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}
	return path
}

func TestLoadScenarios(t *testing.T) {
	path := writeScenarioFile(t, `
scenarios:
  - name: chat-greeting
    model: gpt-3.5-turbo
    prompt: "<lmql:system/>Be terse.<lmql:user/>Say hi."
    max_tokens: 16
    temperature: 0.2
    echo: true
    chunk_timeout_seconds: 2.5
  - name: batch-completion
    model: text-davinci-003
    prompt_batch:
      - "One"
      - "Two"
    max_tokens: 8
    endpoint: inference.local:8080
`)

	scenarios, err := loadScenarios(path)
	if err != nil {
		t.Fatalf("loadScenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("scenario count = %d, want 2", len(scenarios))
	}

	first := scenarios[0]
	if first.Name != "chat-greeting" || first.Model != "gpt-3.5-turbo" {
		t.Fatalf("first scenario mismatch: %+v", first)
	}
	if !first.Echo || first.ChunkTimeout != 2.5 || first.Temperature != 0.2 {
		t.Fatalf("first scenario fields mismatch: %+v", first)
	}
	if got := first.prompts(); len(got) != 1 || !strings.Contains(got[0], "<lmql:user/>") {
		t.Fatalf("first scenario prompts = %v", got)
	}

	second := scenarios[1]
	if second.Endpoint != "inference.local:8080" {
		t.Fatalf("second scenario endpoint = %q", second.Endpoint)
	}
	if got := second.prompts(); len(got) != 2 || got[0] != "One" || got[1] != "Two" {
		t.Fatalf("second scenario prompts = %v", got)
	}
}

func TestLoadScenariosMissingFile(t *testing.T) {
	if _, err := loadScenarios(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadScenariosEmpty(t *testing.T) {
	path := writeScenarioFile(t, "scenarios: []\n")
	if _, err := loadScenarios(path); err == nil {
		t.Fatal("expected error for empty scenario list")
	}
}

func TestLoadScenariosDuplicateNames(t *testing.T) {
	path := writeScenarioFile(t, `
scenarios:
  - name: same
    model: gpt-4
    prompt: a
  - name: same
    model: gpt-4
    prompt: b
`)
	_, err := loadScenarios(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate-name error, got %v", err)
	}
}

func TestLoadScenariosPromptConflict(t *testing.T) {
	path := writeScenarioFile(t, `
scenarios:
  - name: both
    model: text-davinci-003
    prompt: a
    prompt_batch: [b]
`)
	if _, err := loadScenarios(path); err == nil {
		t.Fatal("expected error when prompt and prompt_batch are both set")
	}

	path = writeScenarioFile(t, `
scenarios:
  - name: neither
    model: text-davinci-003
    max_tokens: 4
`)
	if _, err := loadScenarios(path); err == nil {
		t.Fatal("expected error when neither prompt nor prompt_batch is set")
	}
}

func TestOutcomeCell(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"pass":        {nil, "PASS"},
		"rate limit":  {&openai.RateLimitError{Message: "slow down"}, "RATE-LIMITED"},
		"stall":       {&openai.StreamStallError{}, "STALLED"},
		"config":      {&openai.ConfigurationError{Reason: "no API secret"}, "CONFIG no API secret"},
		"wrapped":     {errors.Wrap(&openai.StreamStallError{}, "scenario"), "STALLED"},
		"plain error": {errors.New("boom"), "FAIL boom"},
	}

	for name, tc := range cases {
		if got := outcomeCell(tc.err); got != tc.want {
			t.Fatalf("%s: outcomeCell = %q, want %q", name, got, tc.want)
		}
	}
}

func TestShortenKeepsRuneBoundaries(t *testing.T) {
	if got := shorten("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("shorten = %q", got)
	}
	if got := shorten("ok", 5); got != "ok" {
		t.Fatalf("shorten short input = %q", got)
	}
}

func TestFormatName(t *testing.T) {
	if got := formatName("gpt-3.5-turbo"); got != "chat" {
		t.Fatalf("formatName chat = %q", got)
	}
	if got := formatName("text-davinci-003"); got != "completion" {
		t.Fatalf("formatName completion = %q", got)
	}
}
