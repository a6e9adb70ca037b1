package memory

import (
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCache(t *testing.T) {
	c := NewModelCache(time.Minute)
	m := &entity.AIModel{Id: uuid.New(), Name: "Llama 3", Provider: "ollama", ModelId: "llama3", IsDefault: true}

	_, ok := c.Get(m.Id)
	assert.False(t, ok)

	c.Save(m)
	c.SaveDefault(m)

	got, ok := c.Get(m.Id)
	require.True(t, ok)
	assert.Equal(t, "llama3", got.ModelId)

	got.ModelId = "mutated"
	again, _ := c.Get(m.Id)
	assert.Equal(t, "llama3", again.ModelId, "cached value must not alias the caller's copy")

	def, ok := c.GetDefault()
	require.True(t, ok)
	assert.Equal(t, m.Id, def.Id)

	c.Flush()
	_, ok = c.GetDefault()
	assert.False(t, ok)
}
