package host

const (
	EventMessageSent = "message_sent"

	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// SessionInfo describes the currently active chat session on the host.
type SessionInfo struct {
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name"`
	UserName      string `json:"user_name"`
	Persona       string `json:"persona"`
}

// Message is a single chat message as reported by the host history API.
type Message struct {
	IsCharacter bool   `json:"is_character"`
	Text        string `json:"text"`
}

// Character is the persisted character record. Notes is the free-text
// field that memory updates get appended to.
type Character struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// Event is a single message on the host event stream.
type Event struct {
	Type string `json:"type"`
}

type historyResponse struct {
	Messages []Message `json:"messages"`
}

type generateRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

type notifyRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
