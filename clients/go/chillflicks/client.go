// Package chillflicks provides a client for the chillflicks watch-party
// event channel: it speaks the room protocol over a websocket and feeds the
// playback reconciliation agent.
package chillflicks

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Participant mirrors the server's presence entry.
type Participant struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar,omitempty"`
	} `json:"user"`
	Role string `json:"role"`
}

// Message is one chat entry as broadcast by the server.
type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
	Seq  int    `json:"seq"`
}

// Handlers are the event callbacks. Nil callbacks are skipped. They are
// invoked sequentially from the client's read loop, in server receipt order.
type Handlers struct {
	OnParticipants   func([]Participant)
	OnMessageHistory func([]Message)
	OnNewMessage     func(Message)
	OnVideoState     func(PlaybackState)
	OnVideoTime      func(position float64)
	OnError          func(msg string)
}

// Client is a chillflicks event-channel client.
type Client struct {
	BaseURL  string
	Token    string
	Handlers Handlers

	mu   sync.Mutex
	ws   *websocket.Conn
	room string
}

func NewClient(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token}
}

// Dial connects and starts nothing: call Run (usually in a goroutine) to
// pump events after joining.
func (c *Client) Dial() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", c.Token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	return nil
}

// Run reads events until the connection drops and dispatches them to the
// registered handlers.
func (c *Client) Run() error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Type {
	case "participantJoined":
		var ev struct {
			Participants []Participant `json:"participants"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnParticipants != nil {
			c.Handlers.OnParticipants(ev.Participants)
		}
	case "messageHistory":
		var ev struct {
			Messages []Message `json:"messages"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnMessageHistory != nil {
			c.Handlers.OnMessageHistory(ev.Messages)
		}
	case "newMessage":
		var ev struct {
			Message Message `json:"message"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnNewMessage != nil {
			c.Handlers.OnNewMessage(ev.Message)
		}
	case "videoStateChanged":
		var ev struct {
			IsPlaying bool    `json:"isPlaying"`
			Position  float64 `json:"currentTime"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnVideoState != nil {
			c.Handlers.OnVideoState(PlaybackState{IsPlaying: ev.IsPlaying, Position: ev.Position})
		}
	case "videoTime":
		var ev struct {
			Position float64 `json:"currentTime"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnVideoTime != nil {
			c.Handlers.OnVideoTime(ev.Position)
		}
	case "error":
		var ev struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &ev) == nil && c.Handlers.OnError != nil {
			c.Handlers.OnError(ev.Error)
		}
	}
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return fmt.Errorf("not connected")
	}
	return c.ws.WriteJSON(v)
}

// Join subscribes this connection to a room. The server answers with the
// current playback state, the chat history and a presence broadcast.
func (c *Client) Join(roomCode string) error {
	c.mu.Lock()
	c.room = roomCode
	c.mu.Unlock()
	return c.send(map[string]any{"type": "joinRoom", "roomId": roomCode})
}

func (c *Client) Leave() error {
	return c.send(map[string]any{"type": "leaveRoom"})
}

func (c *Client) SendMessage(text, localTime string) error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	return c.send(map[string]any{
		"type":   "sendMessage",
		"roomId": room,
		"message": map[string]any{
			"text": text,
			"time": localTime,
		},
	})
}

func (c *Client) UpdateVideoState(isPlaying bool, position float64) error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	return c.send(map[string]any{
		"type":        "updateVideoState",
		"roomId":      room,
		"isPlaying":   isPlaying,
		"currentTime": position,
	})
}

func (c *Client) UpdateVideoTime(position float64) error {
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	return c.send(map[string]any{
		"type":        "updateVideoTime",
		"roomId":      room,
		"currentTime": position,
	})
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}
