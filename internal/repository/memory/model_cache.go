package memory

import (
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultModelKey = "default"

// ModelCache keeps resolved AI models in process memory. Admin writes must
// call Flush so a new default becomes visible.
type ModelCache struct {
	cache *cache.Cache
}

func NewModelCache(ttl time.Duration) *ModelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ModelCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *ModelCache) Get(id uuid.UUID) (*entity.AIModel, bool) {
	return c.get(id.String())
}

func (c *ModelCache) Save(m *entity.AIModel) {
	if m == nil {
		return
	}
	c.cache.Set(m.Id.String(), copyModel(m), cache.DefaultExpiration)
}

func (c *ModelCache) GetDefault() (*entity.AIModel, bool) {
	return c.get(defaultModelKey)
}

func (c *ModelCache) SaveDefault(m *entity.AIModel) {
	if m == nil {
		return
	}
	c.cache.Set(defaultModelKey, copyModel(m), cache.DefaultExpiration)
}

func (c *ModelCache) Flush() {
	c.cache.Flush()
}

func (c *ModelCache) get(key string) (*entity.AIModel, bool) {
	if x, found := c.cache.Get(key); found {
		return copyModel(x.(*entity.AIModel)), true
	}
	return nil, false
}

func copyModel(m *entity.AIModel) *entity.AIModel {
	cp := *m
	return &cp
}
