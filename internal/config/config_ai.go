package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.BaseURL == "" {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetAnalysisConfig returns the AI configuration for analysis with fallback to global config
func (c *Config) GetAnalysisConfig() OperationAIConfig {
	config := c.AI.Analysis

	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompt == "" {
		config.CustomPrompts.SystemPrompt = c.AI.CustomPrompts.SystemPrompt
	}
	if config.CustomPrompts.UserPrompt == "" {
		config.CustomPrompts.UserPrompt = c.AI.CustomPrompts.UserPrompt
	}
	if config.CustomPrompts.SystemPromptFile == "" {
		config.CustomPrompts.SystemPromptFile = c.AI.CustomPrompts.SystemPromptFile
	}
	if config.CustomPrompts.UserPromptFile == "" {
		config.CustomPrompts.UserPromptFile = c.AI.CustomPrompts.UserPromptFile
	}

	return config
}

// AIEnabled reports whether an LLM provider can be constructed.
func (c *Config) AIEnabled() bool {
	return c.GetAnalysisConfig().APIKey != ""
}
