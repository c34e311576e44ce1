package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadedPrompts holds prompt text read from files at startup
type LoadedPrompts struct {
	SystemPrompt string
	UserPrompt   string
}

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   LoadedPrompts
)

// GetLoadedAnalysisPrompts returns a copy of the analysis prompts loaded from files
func GetLoadedAnalysisPrompts() LoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

// loadPromptsFromFiles loads the analysis prompts from external files if file
// paths are specified. Operation-level files override global ones.
func (c *Config) loadPromptsFromFiles() error {
	analysis := c.GetAnalysisConfig()

	var loaded LoadedPrompts
	if path := analysis.CustomPrompts.SystemPromptFile; path != "" {
		content, err := loadPromptFromFile(path, "system")
		if err != nil {
			return err
		}
		loaded.SystemPrompt = content
	}
	if path := analysis.CustomPrompts.UserPromptFile; path != "" {
		content, err := loadPromptFromFile(path, "user")
		if err != nil {
			return err
		}
		loaded.UserPrompt = content
	}

	loadedPromptsMu.Lock()
	loadedPrompts = loaded
	loadedPromptsMu.Unlock()

	if loaded.SystemPrompt == "" && loaded.UserPrompt == "" {
		log.Println("[CONFIG] No custom prompt files loaded - using built-in defaults")
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
		}
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Loaded %s analysis prompt from file: %s (%d characters)", promptType, absPath, len(trimmedContent))
	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, label string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", label, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", label, absPath))
		}
	}

	validateFile(c.AI.CustomPrompts.SystemPromptFile, "global system")
	validateFile(c.AI.CustomPrompts.UserPromptFile, "global user")
	validateFile(c.AI.Analysis.CustomPrompts.SystemPromptFile, "analysis system")
	validateFile(c.AI.Analysis.CustomPrompts.UserPromptFile, "analysis user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
