package entity

import (
	"time"

	"github.com/google/uuid"
)

// AiConfiguration stores a single key-value setting.
type AiConfiguration struct {
	Id          uuid.UUID
	Key         string
	Value       string
	ValueType   string // "string", "number", "boolean", "json"
	Description string
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	AiConfigCategoryChat    = "chat"
	AiConfigCategoryGeneral = "general"
)

const (
	AiConfigValueTypeString  = "string"
	AiConfigValueTypeNumber  = "number"
	AiConfigValueTypeBoolean = "boolean"
	AiConfigValueTypeJSON    = "json"
)

const (
	AiConfigKeyGlobalPrompt = "global_prompt"
	AiConfigKeyTemperature  = "temperature"
	AiConfigKeyMaxTokens    = "max_tokens"
)

// GlobalConfig is the typed view over the chat configuration rows.
// Nil numeric fields mean the row is missing or unparsable.
type GlobalConfig struct {
	GlobalPrompt string   `json:"global_prompt"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
}
