package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Store reads and writes whole JSON documents keyed by owner, conversation and doc name.
// Get returns nil data and no error when the document does not exist.
type Store interface {
	Get(ctx context.Context, owner, conversationID, doc string) ([]byte, error)
	Put(ctx context.Context, owner, conversationID, doc string, data []byte) error
	ListConversationIDs(ctx context.Context, owner string) ([]string, error)
}

func Key(owner, conversationID, doc string) string {
	return fmt.Sprintf("%s/%s/%s.json", owner, conversationID, doc)
}

func ownerPrefix(owner string) string {
	return owner + "/"
}

// conversationIDFromPrefix takes "<owner>/<id>/" and returns "<id>".
func conversationIDFromPrefix(prefix string) string {
	parts := strings.Split(prefix, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// GetJSON decodes the document into out. found is false when the document is absent.
func GetJSON(ctx context.Context, s Store, owner, conversationID, doc string, out any) (bool, error) {
	data, err := s.Get(ctx, owner, conversationID, doc)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", Key(owner, conversationID, doc), err)
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, owner, conversationID, doc string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", Key(owner, conversationID, doc), err)
	}
	return s.Put(ctx, owner, conversationID, doc, data)
}
