package domain

import "math/rand"

// RoomCode identifies a room across both the durable record and the live
// session. Codes are short and human-shareable.
type RoomCode string

const (
	roomCodeLen      = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewRoomCode generates a shareable code. The alphabet skips characters that
// read ambiguously (I/1, O/0).
func NewRoomCode() RoomCode {
	b := make([]byte, roomCodeLen)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return RoomCode(b)
}
