package http

import (
	"errors"
	"net/http"

	"github.com/chillflicks/chillflicks/internal/auth"
	"github.com/chillflicks/chillflicks/internal/core"
	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/chillflicks/chillflicks/internal/storage"
	"github.com/gin-gonic/gin"
)

// Handlers carries the REST surface: account signup/login and the durable
// room/message records. Live session traffic goes over the signal gateway,
// not through here.
type Handlers struct {
	Auth     *auth.Service
	Store    *storage.Store
	Sessions *core.Registry
}

func NewHandlers(authService *auth.Service, store *storage.Store, sessions *core.Registry) *Handlers {
	return &Handlers{Auth: authService, Store: store, Sessions: sessions}
}

func (h *Handlers) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=20"`
		FullName string `json:"fullName" binding:"required,min=3"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Auth.Register(req.Username, req.FullName, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handlers) Profile(c *gin.Context) {
	user, err := h.Store.FindUser(c.GetUint("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		VideoURL string `json:"videoUrl" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Regenerate on the rare code collision instead of failing the create.
	var room *storage.Room
	for {
		code := domain.NewRoomCode()
		if _, err := h.Store.FindRoomByCode(string(code)); errors.Is(err, storage.ErrNotFound) {
			room = &storage.Room{
				Code:     string(code),
				HostID:   c.GetUint("user_id"),
				VideoURL: req.VideoURL,
			}
			break
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating room"})
			return
		}
	}

	if err := h.Store.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating room"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomCode": room.Code})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	room, err := h.Store.FindRoomByCode(c.Param("code"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) UpdateRoom(c *gin.Context) {
	room, err := h.Store.FindRoomByCode(c.Param("code"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	var req struct {
		VideoURL  *string  `json:"videoUrl"`
		IsPlaying *bool    `json:"isPlaying"`
		Position  *float64 `json:"currentPlaybackTime"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VideoURL != nil {
		room.VideoURL = *req.VideoURL
	}
	if req.IsPlaying != nil {
		room.IsPlaying = *req.IsPlaying
	}
	if req.Position != nil {
		room.CurrentPlaybackTime = *req.Position
	}

	if err := h.Store.SaveRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving room"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) GetMessages(c *gin.Context) {
	msgs, err := h.Store.MessagesByRoom(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handlers) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &storage.Message{
		RoomCode: c.Param("code"),
		SenderID: c.GetUint("user_id"),
		Content:  req.Content,
	}
	if err := h.Store.SaveMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create message"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// LiveRooms reports which rooms currently have an active session.
func (h *Handlers) LiveRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Sessions.List())
}
