package domain

// Role tags a participant within a live session. While a session is
// non-empty exactly one participant holds RoleHost.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Participant is a connected user within a session. The connection identity
// lives with the gateway; here we only carry who and which role.
type Participant struct {
	User *User `json:"user"`
	Role Role  `json:"role"`
}

func NewParticipant(user *User, role Role) *Participant {
	return &Participant{User: user, Role: role}
}
