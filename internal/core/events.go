package core

import (
	"encoding/json"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

// Server → client event types.
const (
	EventParticipantJoined = "participantJoined"
	EventMessageHistory    = "messageHistory"
	EventNewMessage        = "newMessage"
	EventVideoStateChanged = "videoStateChanged"
	EventVideoTime         = "videoTime"
)

type ParticipantJoinedEvent struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
}

type MessageHistoryEvent struct {
	Type     string           `json:"type"`
	Messages []domain.Message `json:"messages"`
}

type NewMessageEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type VideoStateChangedEvent struct {
	Type      string  `json:"type"`
	IsPlaying bool    `json:"isPlaying"`
	Position  float64 `json:"currentTime"`
}

type VideoTimeEvent struct {
	Type     string  `json:"type"`
	Position float64 `json:"currentTime"`
}

func encode(v any) (Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core").Msg("event marshal")
		return nil, false
	}
	return Frame(b), true
}
