// Package llm turns experiment results into plain-English explanations via
// the Anthropic API. Strictly optional: callers only reach for it when an
// API key is present and --no-llm is unset, so the bare demonstration stays
// free of environment and network.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/racelab/racelab/internal/runner"
	"github.com/racelab/racelab/internal/static"
)

const apiURL = "https://api.anthropic.com/v1/messages"

// ExplainLostUpdates sends an experiment series to Claude and returns a
// plain-English explanation of the lost updates.
func ExplainLostUpdates(s *runner.Series, apiKey string) (string, error) {
	return complete(lostUpdatePrompt(s), apiKey)
}

// ExplainFindings sends static unguarded-write findings to Claude and
// returns a plain-English explanation with suggested fixes.
func ExplainFindings(findings []static.Finding, apiKey string) (string, error) {
	return complete(findingsPrompt(findings), apiKey)
}

func complete(prompt, apiKey string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      "claude-sonnet-4-6",
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]any
		json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("API returned %d: %v", resp.StatusCode, errBody)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Content) > 0 {
		return result.Content[0].Text, nil
	}
	return "", fmt.Errorf("empty response from Claude")
}

func lostUpdatePrompt(s *runner.Series) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I ran %d workers, each performing %d increments on a shared %s counter, repeated %d time(s).\n", s.Workers, s.Increments, s.Counter, len(s.Reports)))
	sb.WriteString(fmt.Sprintf("Expected final value per run: %d.\n\n", s.Expected))

	for i, rep := range s.Reports {
		sb.WriteString(fmt.Sprintf("Run %d: final %d, lost %d\n", i+1, rep.Final, rep.Lost))
	}
	sb.WriteString(fmt.Sprintf("\nIn total %d increments vanished and %d distinct final values appeared.\n\n", s.TotalLost, s.DistinctFinals))

	sb.WriteString("Explain for a Go developer:\n")
	sb.WriteString("1. Why the unsynchronized read-increment-write loses updates (1-2 sentences)\n")
	sb.WriteString("2. Why the final value differs between runs\n")
	sb.WriteString("3. The idiomatic fixes (atomic fetch-and-add, mutex-guarded critical section) with a short before/after diff\n")
	sb.WriteString("4. Keep explanations concise and actionable\n")

	return sb.String()
}

func findingsPrompt(findings []static.Finding) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("I statically analyzed a Go package and found %d unguarded shared-variable write(s) in goroutines.\n\n", len(findings)))

	for i, f := range findings {
		sb.WriteString(fmt.Sprintf("Issue %d: %s\n", i+1, f.Message))
		if f.Function != "" {
			sb.WriteString(fmt.Sprintf("  Function: %s\n", f.Function))
		}
		if f.Location != "" {
			sb.WriteString(fmt.Sprintf("  Location: %s\n", f.Location))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("For each issue:\n")
	sb.WriteString("1. Explain the root cause in plain English (1-2 sentences)\n")
	sb.WriteString("2. Give a specific code fix a Go developer should apply\n")
	sb.WriteString("3. Show a before/after code diff if possible\n")
	sb.WriteString("4. Keep explanations concise and actionable\n")

	return sb.String()
}
