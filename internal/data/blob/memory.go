package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() Store {
	return &memoryStore{docs: map[string][]byte{}}
}

func (s *memoryStore) Get(ctx context.Context, owner, conversationID, doc string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[Key(owner, conversationID, doc)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *memoryStore) Put(ctx context.Context, owner, conversationID, doc string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[Key(owner, conversationID, doc)] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) ListConversationIDs(ctx context.Context, owner string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := ownerPrefix(owner)
	seen := map[string]bool{}
	s.mu.RLock()
	for key := range s.docs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if id := conversationIDFromPrefix(key); id != "" {
			seen[id] = true
		}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
