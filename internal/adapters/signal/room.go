package signal

import (
	"encoding/json"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleJoin subscribes the connection to a room session. The snapshot goes
// back on this connection before the session starts fanning live events to
// it, so a joiner never sees a gap between history and the live stream.
func (ctl *Controller) handleJoin(c *conn, data []byte) {
	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendError(c, "room code required")
		return
	}
	code := domain.RoomCode(p.RoomID)

	// A connection lives in at most one room; joining another implies
	// leaving the current one first.
	if c.room != "" && c.room != code {
		ctl.disconnect(c)
	}

	ctl.join(code, c)
	c.room = code

	log.Info().Str("module", "signal").Str("conn", string(c.id)).
		Str("room", string(code)).Str("user", c.user.Username).Msg("join")
}

// join retries against the registry because a session may terminate between
// lookup and delivery; the next attempt creates a fresh one.
func (ctl *Controller) join(code domain.RoomCode, c *conn) {
	for {
		s := ctl.Sessions.GetOrCreate(code)
		if _, ok := s.Join(c.id, c.user, c); ok {
			return
		}
	}
}

func (ctl *Controller) handleLeave(c *conn) {
	log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("leave")
	ctl.disconnect(c)
	ctl.sendJSON(c, map[string]any{"type": "left"})
}
