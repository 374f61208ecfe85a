package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetSystemPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"system.md":       "System Content",
		"tools.md":        "Tools Content",
		"format.md":       "Format Content",
		"restrictions.md": "Restrictions Content",
		"extra.md":        "Extra Content",
		"notes.txt":       "Ignored Content",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetSystemPrompt()
	if err != nil {
		t.Fatal(err)
	}

	expectedParts := []string{
		"System Content",
		"Tools Content",
		"Format Content",
		"Restrictions Content",
		"Extra Content",
	}

	for _, part := range expectedParts {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "Ignored Content") {
		t.Error("Non-markdown files should be ignored")
	}

	// Verify order
	if strings.Index(prompt, "System Content") >= strings.Index(prompt, "Tools Content") {
		t.Error("System should be before Tools")
	}
	if strings.Index(prompt, "Tools Content") >= strings.Index(prompt, "Format Content") {
		t.Error("Tools should be before Format")
	}
	if strings.Index(prompt, "Restrictions Content") >= strings.Index(prompt, "Extra Content") {
		t.Error("Restrictions should be before Extra")
	}
}

func TestPromptManager_Default(t *testing.T) {
	prompt, err := NewPromptManager("").GetSystemPrompt()
	if err != nil {
		t.Fatal(err)
	}
	if prompt != DefaultSystemPrompt {
		t.Error("expected the built-in prompt when no directory is set")
	}
	if !strings.Contains(prompt, "Action: getEvents:") || !strings.Contains(prompt, "Action: getWeather:") {
		t.Error("built-in prompt must describe both actions")
	}
}

func TestPromptManager_EmptyDirectory(t *testing.T) {
	if _, err := NewPromptManager(t.TempDir()).GetSystemPrompt(); err == nil {
		t.Error("expected an error for a directory without prompts")
	}
}

func TestBuildUserQuery(t *testing.T) {
	q := BuildUserQuery("Sydney, AU", "date:today", "2025-05-13")
	for _, want := range []string{"'Sydney, AU'", "'date:today'", "'2025-05-13'"} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %s: %s", want, q)
		}
	}
}

func TestSystemPromptFor_DescribesRegisteredTools(t *testing.T) {
	reg := newFakeRegistry(
		&fakeTool{name: "getWeather", required: []string{"city", "date"}},
		&fakeTool{name: "getEvents", required: []string{"city", "eventKey"}},
	)

	prompt, err := NewPromptManager("").SystemPromptFor(reg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(prompt, DefaultSystemPrompt) {
		t.Error("built-in prompt should lead the system prompt")
	}
	for _, want := range []string{
		`1. getEvents: fake getEvents Arguments: {"city": "...", "eventKey": "..."}.`,
		`2. getWeather: fake getWeather Arguments: {"city": "...", "date": "..."}.`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSystemPromptFor_DirectoryWins(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "system.md"), []byte("Custom"), 0644); err != nil {
		t.Fatal(err)
	}
	prompt, err := NewPromptManager(dir).SystemPromptFor(newFakeRegistry(&fakeTool{name: "getEvents"}))
	if err != nil {
		t.Fatal(err)
	}
	if prompt != "Custom" {
		t.Errorf("expected the directory prompt only, got %q", prompt)
	}
}
