package factory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/llm/huggingface"
	"ai-chatbot-be/pkg/llm/ollama"
	"ai-chatbot-be/pkg/llm/openai"
)

var ErrUnknownProvider = errors.New("unsupported LLM provider")

type Settings struct {
	DefaultModel       string
	OllamaBaseURL      string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	HuggingFaceAPIKey  string
	HuggingFaceBaseURL string
	Timeout            time.Duration
}

func NewLLMProvider(providerType string, s Settings) (llm.LLMProvider, error) {
	switch providerType {
	case llm.ProviderOllama:
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, s.DefaultModel, s.Timeout), nil
	case llm.ProviderOpenAI:
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or base URL")
		}
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, s.OpenAIBaseURL, s.DefaultModel, s.Timeout), nil
	case llm.ProviderHuggingFace:
		if s.HuggingFaceAPIKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(s.HuggingFaceAPIKey, s.HuggingFaceBaseURL, s.DefaultModel, s.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerType)
	}
}

// Registry maps provider identifiers, as stored on AI models, to adapters.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]llm.LLMProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]llm.LLMProvider)}
}

// NewRegistryFromSettings registers every provider the settings can build.
// Providers missing credentials are skipped and reported in the second value.
func NewRegistryFromSettings(s Settings) (*Registry, map[string]error) {
	r := NewRegistry()
	skipped := make(map[string]error)
	for _, name := range []string{llm.ProviderOllama, llm.ProviderOpenAI, llm.ProviderHuggingFace} {
		p, err := NewLLMProvider(name, s)
		if err != nil {
			skipped[name] = err
			continue
		}
		r.Register(name, p)
	}
	return r, skipped
}

func (r *Registry) Register(name string, p llm.LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

func (r *Registry) Get(name string) (llm.LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
