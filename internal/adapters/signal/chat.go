package signal

import (
	"encoding/json"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) handleSendMessage(c *conn, data []byte) {
	type sendPayload struct {
		Type    string `json:"type"`
		RoomID  string `json:"roomId"`
		Message struct {
			User string `json:"user"`
			Text string `json:"text"`
			Time string `json:"time"`
		} `json:"message"`
	}
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	if !ctl.Chat.Allow(c.user.ID) {
		ctl.sendError(c, "slow down")
		return
	}

	// The sender identity comes from the authenticated connection, not the
	// payload; the client timestamp is carried through for display only.
	msg, err := domain.NewMessage(c.user.Username, p.Message.Text, p.Message.Time)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}

	code := c.room
	if code == "" {
		code = domain.RoomCode(p.RoomID)
	}
	if code == "" {
		return
	}
	s := ctl.Sessions.GetOrCreate(code)
	s.Chat(*msg)
}
