package chat

const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// Document names inside a conversation folder.
const (
	DocTranscript = "message"
	DocSettings   = "llm-settings"
)

const DisabledLLMMessage = "This LLM has been disabled, please switch to some other LLM."

// Message is one transcript entry. The wire name of the text field is "message".
type Message struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Transcript is the full ordered history of one conversation.
type Transcript []Message
