package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message of a transcript as it is stored and sent to the provider.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
