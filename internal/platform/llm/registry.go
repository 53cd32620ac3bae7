package llm

import (
	"strings"
	"sync"
)

// DefaultProvider serves any name the registry does not know.
const DefaultProvider = "gemini"

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	def     string
}

func NewRegistry() *Registry {
	return &Registry{clients: map[string]Client{}, def: DefaultProvider}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Register(name string, c Client) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.clients[normalizeName(name)] = c
	r.mu.Unlock()
}

// SetDefault changes the fallback provider name.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	r.def = normalizeName(name)
	r.mu.Unlock()
}

// Get returns the client for name, case-insensitively, falling back to the default.
// ok is false only when neither name nor the default is registered.
func (r *Registry) Get(name string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[normalizeName(name)]; ok {
		return c, true
	}
	c, ok := r.clients[r.def]
	return c, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for k := range r.clients {
		out = append(out, k)
	}
	return out
}
