package aiconfig

import (
	"testing"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlobalConfig(t *testing.T) {
	cfg := ParseGlobalConfig([]*entity.AiConfiguration{
		{Key: entity.AiConfigKeyGlobalPrompt, Value: "Be helpful."},
		{Key: entity.AiConfigKeyTemperature, Value: " 0.4 "},
		{Key: entity.AiConfigKeyMaxTokens, Value: "2000"},
		{Key: "unrelated", Value: "x"},
	})

	assert.Equal(t, "Be helpful.", cfg.GlobalPrompt)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, *cfg.Temperature, 1e-9)
	require.NotNil(t, cfg.MaxTokens)
	assert.Equal(t, 2000, *cfg.MaxTokens)
}

func TestParseGlobalConfig_IgnoresBadNumbers(t *testing.T) {
	cfg := ParseGlobalConfig([]*entity.AiConfiguration{
		{Key: entity.AiConfigKeyTemperature, Value: "warm"},
		{Key: entity.AiConfigKeyMaxTokens, Value: "-5"},
	})

	assert.Empty(t, cfg.GlobalPrompt)
	assert.Nil(t, cfg.Temperature)
	assert.Nil(t, cfg.MaxTokens)
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		config  entity.AiConfiguration
		value   string
		wantErr bool
	}{
		{"temperature in range", entity.AiConfiguration{Key: entity.AiConfigKeyTemperature}, "1.2", false},
		{"temperature too high", entity.AiConfiguration{Key: entity.AiConfigKeyTemperature}, "3", true},
		{"max tokens zero", entity.AiConfiguration{Key: entity.AiConfigKeyMaxTokens}, "0", true},
		{"max tokens ok", entity.AiConfiguration{Key: entity.AiConfigKeyMaxTokens}, "1500", false},
		{"boolean row", entity.AiConfiguration{Key: "flag", ValueType: entity.AiConfigValueTypeBoolean}, "maybe", true},
		{"string row accepts anything", entity.AiConfiguration{Key: entity.AiConfigKeyGlobalPrompt, ValueType: entity.AiConfigValueTypeString}, "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateValue(&tt.config, tt.value)
			if tt.wantErr {
				assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
