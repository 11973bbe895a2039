package config

import (
	"time"

	"github.com/relaywire/agentcore/pkg/observability"
)

// AgentConfig is the top-level shape decoded from an agent's YAML config
// file: which plugins to load, the character's settings/secrets, and the
// runtime knobs left to configuration (scheduler tick, embedding
// dimension).
type AgentConfig struct {
	Name    string   `yaml:"name"`
	Plugins []string `yaml:"plugins"`

	Character CharacterConfig `yaml:"character"`

	// Reasoning configures when the runtime hands a message to the planner
	// rather than running it as a single action (spec.md §9 Open Question 1).
	Reasoning ReasoningConfig `yaml:"reasoning"`

	EmbeddingDimension int           `yaml:"embeddingDimension"`
	SchedulerTick      time.Duration `yaml:"schedulerTick"`

	// EncryptionSalt, if set, enables transparent decryption of secrets
	// prefixed with the encrypted-value marker (see encryption.go). Typically
	// itself supplied via environment expansion rather than committed to the
	// YAML file.
	EncryptionSalt string `yaml:"encryptionSalt"`

	// Observability configures tracing and metrics for the runtime's model
	// dispatcher, plan executor, task scheduler, and memory subsystem. A zero
	// value leaves both tracing and metrics disabled.
	Observability observability.Config `yaml:"observability"`
}

// CharacterConfig holds the two maps getSetting reads from, in precedence
// order: Secrets first, then Settings.
type CharacterConfig struct {
	Secrets  map[string]string `yaml:"secrets"`
	Settings map[string]string `yaml:"settings"`
}

// PlanningTrigger selects when HandleMessage hands a message to the planner
// instead of running its named actions directly (spec.md §4.5.1, §9 Open
// Question 1). Both mechanisms spec.md mentions — an opt-in setting, and an
// intent-classifier recommendation — are modeled as two steps of the same
// enum rather than independent booleans, since the classifier path is a
// richer upgrade over the setting path, not an alternative to it.
type PlanningTrigger string

const (
	// TriggerDisabled never engages the planner: every message runs through
	// ProcessActions, one action at a time, regardless of how many names
	// content.Content.Actions carries.
	TriggerDisabled PlanningTrigger = "disabled"
	// TriggerSettingEnabled engages the planner whenever a message names
	// more than one action. This is the default.
	TriggerSettingEnabled PlanningTrigger = "setting_enabled"
	// TriggerIntentClassified does everything TriggerSettingEnabled does,
	// and additionally engages the planner for a single- or zero-action
	// message when the registered "SHOULD_PLAN" provider's result carries
	// values["shouldPlan"] == true. Absent that provider, it behaves exactly
	// like TriggerSettingEnabled.
	TriggerIntentClassified PlanningTrigger = "intent_classified"
)

// ReasoningConfig configures the planner trigger described by
// PlanningTrigger.
type ReasoningConfig struct {
	PlanningTrigger PlanningTrigger `yaml:"planning_trigger"`
}

// SetDefaults fills in zero-valued fields the runtime needs a value for.
func (c *AgentConfig) SetDefaults() {
	if c.SchedulerTick <= 0 {
		c.SchedulerTick = time.Second
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = 1536
	}
	if c.Reasoning.PlanningTrigger == "" {
		c.Reasoning.PlanningTrigger = TriggerSettingEnabled
	}
}

// Validate reports configuration errors that SetDefaults can't paper over.
func (c *AgentConfig) Validate() error {
	if c.Name == "" {
		return &Error{Field: "name", Detail: "must not be empty"}
	}
	return nil
}

// Error reports a configuration problem tied to a specific field.
type Error struct {
	Field  string
	Detail string
}

func (e *Error) Error() string {
	return "config: " + e.Field + ": " + e.Detail
}
