package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/chillflicks/chillflicks/internal/config"
	"github.com/chillflicks/chillflicks/internal/core"
	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/chillflicks/chillflicks/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the connection gateway: it accepts websocket clients,
// demultiplexes their events to the room sessions and owns the transport
// endpoints the sessions fan out to.
type Controller struct {
	Sessions *core.Registry
	Store    *storage.Store
	Cfg      *config.Config
	Chat     *ChatRateLimiter
}

func NewController(sessions *core.Registry, store *storage.Store, cfg *config.Config) *Controller {
	return &Controller{
		Sessions: sessions,
		Store:    store,
		Cfg:      cfg,
		Chat:     NewChatRateLimiter(10, chatRateWindow),
	}
}

// conn wraps one websocket with a buffered outbound queue. Writes go through
// TrySend so a slow reader backs up its own queue, never a room loop.
type conn struct {
	id   core.ConnID
	user *domain.User
	ws   *websocket.Conn
	send chan core.Frame

	// room is only touched from this connection's readPump goroutine.
	room domain.RoomCode

	mu     sync.Mutex
	closed bool
}

func (c *conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until it drops.
// The identity middleware has already resolved the bearer credential to a
// user id by the time we get here.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	userID := c.GetUint("user_id")
	record, err := ctl.Store.FindUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	cn := &conn{
		id:   core.ConnID(uuid.NewString()),
		user: record.Identity(),
		ws:   ws,
		send: make(chan core.Frame, 32),
	}
	log.Info().Str("module", "signal").Str("conn", string(cn.id)).
		Str("user", cn.user.Username).Msg("new WS connection")

	go ctl.writePump(cn)
	ctl.readPump(cn)
}
