package signal

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(c *conn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the single reader for the connection. The deferred cleanup is
// the one and only disconnect path: whatever way the transport dies, the
// participant entry is released.
func (ctl *Controller) readPump(c *conn) {
	defer func() {
		ctl.disconnect(c)
		c.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
			return
		}
		ctl.dispatch(c, data)
	}
}

func (ctl *Controller) dispatch(c *conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "joinRoom":
		ctl.handleJoin(c, data)
	case "leaveRoom":
		ctl.handleLeave(c)
	case "sendMessage":
		ctl.handleSendMessage(c, data)
	case "updateVideoState":
		ctl.handleUpdateVideoState(c, data)
	case "updateVideoTime":
		ctl.handleUpdateVideoTime(c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) disconnect(c *conn) {
	if c.room == "" {
		return
	}
	if s, ok := ctl.Sessions.Get(c.room); ok {
		s.Leave(c.id)
	}
	c.room = ""
}

func (ctl *Controller) sendJSON(c *conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *conn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
