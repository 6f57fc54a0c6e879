package model

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a conversation transcript.
type Turn struct {
	Role Role
	Text string
}
