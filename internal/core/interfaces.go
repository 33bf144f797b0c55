package core

import "github.com/chillflicks/chillflicks/internal/domain"

// Frame is an encoded wire payload (one JSON text frame).
type Frame []byte

// ConnID identifies one live connection. It is ephemeral and owned by the
// gateway; a user reconnecting gets a fresh one.
type ConnID string

// SignalConnection abstracts the messaging transport endpoint of one
// participant. Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Snapshot is the initial state handed synchronously to a joining
// participant, before any live broadcast reaches it.
type Snapshot struct {
	Participants []domain.Participant
	Playback     domain.PlaybackState
	Messages     []domain.Message
}

// PlaybackSink mirrors authoritative playback state to a durable
// collaborator. Calls are best-effort and never gate a broadcast.
type PlaybackSink interface {
	SavePlayback(code domain.RoomCode, state domain.PlaybackState) error
}

// SessionInfo is a read-only view for APIs (no transport fields).
type SessionInfo struct {
	Code             domain.RoomCode `json:"code"`
	ParticipantCount int             `json:"participant_count"`
}
