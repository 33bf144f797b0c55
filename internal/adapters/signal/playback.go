package signal

import (
	"encoding/json"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

// Any participant may drive playback; the host role is a presence
// convention, not an authorization gate. State converges regardless of who
// issued the last command because the broadcast includes the sender.
func (ctl *Controller) handleUpdateVideoState(c *conn, data []byte) {
	type statePayload struct {
		Type      string  `json:"type"`
		RoomID    string  `json:"roomId"`
		IsPlaying bool    `json:"isPlaying"`
		Position  float64 `json:"currentTime"`
	}
	var p statePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad video state payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	code := ctl.roomFor(c, p.RoomID)
	if code == "" {
		return
	}
	s := ctl.Sessions.GetOrCreate(code)
	s.SetPlayback(domain.PlaybackState{IsPlaying: p.IsPlaying, Position: p.Position})
}

func (ctl *Controller) handleUpdateVideoTime(c *conn, data []byte) {
	type timePayload struct {
		Type     string  `json:"type"`
		RoomID   string  `json:"roomId"`
		Position float64 `json:"currentTime"`
	}
	var p timePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad video time payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	code := ctl.roomFor(c, p.RoomID)
	if code == "" {
		return
	}
	s := ctl.Sessions.GetOrCreate(code)
	s.SetPosition(p.Position)
}

func (ctl *Controller) roomFor(c *conn, payloadRoom string) domain.RoomCode {
	if c.room != "" {
		return c.room
	}
	return domain.RoomCode(payloadRoom)
}
