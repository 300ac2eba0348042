// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gpthelper/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gpthelper configuration.
type Config struct {
	// DiscordToken is the Discord bot token.
	DiscordToken string `toml:"discord_token"`
	// OpenAIKey is the OpenAI API key.
	OpenAIKey string `toml:"openai_key"`

	// GuildID is the Discord server the bot operates in.
	GuildID string `toml:"guild_id"`
	// CategoryID is the channel category new home channels are created under.
	CategoryID string `toml:"gpt_category_id"`
	// OwnerID is the Discord user allowed to run admin commands.
	OwnerID string `toml:"owner_id"`

	// BotName is the persona name rendered into prompts.
	BotName string `toml:"bot_name"`
	// Instructions is the system instruction text for every completion.
	Instructions string `toml:"instructions"`
	// TimeoutSecs bounds each completion request, in seconds.
	TimeoutSecs int `toml:"timeout_secs"`

	// Examples are few-shot conversations rendered into the system prompt.
	Examples []ExampleConversation `toml:"example_conversations"`
}

// ExampleMessage is one message of a few-shot example conversation.
type ExampleMessage struct {
	Author string `toml:"author"`
	Text   string `toml:"text"`
}

// ExampleConversation is one few-shot example conversation.
type ExampleConversation struct {
	Messages []ExampleMessage `toml:"messages"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaultInstructions is the stock persona used until the operator edits
// the config file.
const defaultInstructions = "You are a tool that many people use. Your goal is to deliver " +
	"information to the user in a way that is easy to understand. You are to deliver " +
	"information as quickly as possible, without using filler words of any kind. You are " +
	"a chatbot, and you are here to help."

// Default returns the built-in configuration defaults. Tokens and IDs are
// left blank for the operator to fill in.
func Default() *Config {
	return &Config{
		BotName:      "GPTHelper",
		Instructions: defaultInstructions,
		TimeoutSecs:  120,
		Examples: []ExampleConversation{
			{Messages: []ExampleMessage{
				{Author: "Lewis", Text: "Hello!"},
				{Author: "GPTHelper", Text: "Hello. I am a bot which can help you answer any questions. Please ask a question."},
				{Author: "Lewis", Text: "What is the capital of France?"},
				{Author: "GPTHelper", Text: "The capital of France is Paris."},
			}},
			{Messages: []ExampleMessage{
				{Author: "Alice", Text: "What is the weather like today?"},
				{Author: "GPTHelper", Text: "The weather today is sunny."},
			}},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the gpthelper configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gpthelper"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions fixes permissions on the config file. The file
// holds API tokens and must stay owner read/write only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads the configuration file, writing a template on first run.
// created reports whether the template was just written; the caller should
// tell the operator to fill it in and exit.
func Load() (cfg *Config, created bool, err error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, false, err
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		cfg = Default()
		if err := Save(cfg); err != nil {
			return nil, false, err
		}
		return cfg, true, nil
	}

	cfg, err = LoadFromPath(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// LoadFromPath loads and validates a config file from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := ensureSecurePermissions(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default path with 0600 permissions.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file, owner read/write only.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# gpthelper configuration file")
	fmt.Fprintln(file, "# Fill in the tokens and IDs, then restart the bot.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks field ranges, clamping where a safe bound exists.
// Blank tokens are allowed here so a freshly written template still loads;
// use Ready to check the bot can actually start.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = 120
	}
	if c.TimeoutSecs > 600 {
		c.TimeoutSecs = 600
	}

	if c.BotName == "" {
		c.BotName = "GPTHelper"
	}

	for i, example := range c.Examples {
		if len(example.Messages) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("example_conversations[%d]", i),
				Message: "example conversation has no messages",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Ready reports whether the config carries everything needed to start.
func (c *Config) Ready() error {
	var errs ValidateErrors
	if strings.TrimSpace(c.DiscordToken) == "" {
		errs = append(errs, ValidationError{Field: "discord_token", Message: "missing"})
	}
	if strings.TrimSpace(c.OpenAIKey) == "" {
		errs = append(errs, ValidationError{Field: "openai_key", Message: "missing"})
	}
	if strings.TrimSpace(c.GuildID) == "" {
		errs = append(errs, ValidationError{Field: "guild_id", Message: "missing"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Timeout returns the completion request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ExampleConversations converts the configured examples into the prompt
// model types.
func (c *Config) ExampleConversations() []model.Conversation {
	convos := make([]model.Conversation, 0, len(c.Examples))
	for _, example := range c.Examples {
		messages := make([]model.Message, 0, len(example.Messages))
		for _, msg := range example.Messages {
			messages = append(messages, model.NewMessage(msg.Author, msg.Text))
		}
		convos = append(convos, model.Conversation{Messages: messages})
	}
	return convos
}
