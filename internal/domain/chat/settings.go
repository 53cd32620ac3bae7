package chat

import "encoding/json"

// Settings is the per-conversation settings document. It is kept as a flat
// map so unknown keys survive shallow merges.
type Settings map[string]any

func NewSettings(id, owner, title, llmName string, llmParams map[string]any) Settings {
	return Settings{
		"id":         id,
		"user_email": owner,
		"title":      title,
		"llm_name":   llmName,
		"llm_params": llmParams,
	}
}

func (s Settings) str(key string) string {
	v, _ := s[key].(string)
	return v
}

func (s Settings) ID() string        { return s.str("id") }
func (s Settings) UserEmail() string { return s.str("user_email") }
func (s Settings) Title() string     { return s.str("title") }
func (s Settings) LLMName() string   { return s.str("llm_name") }

func (s Settings) LLMParams() map[string]any {
	switch v := s["llm_params"].(type) {
	case map[string]any:
		return v
	case json.RawMessage:
		var out map[string]any
		if json.Unmarshal(v, &out) == nil {
			return out
		}
	}
	return nil
}

// Merge overwrites top-level keys of s with those in patch and returns s.
func (s Settings) Merge(patch map[string]any) Settings {
	for k, v := range patch {
		s[k] = v
	}
	return s
}
