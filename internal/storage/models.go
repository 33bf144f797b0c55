package storage

import (
	"strconv"
	"time"

	"github.com/chillflicks/chillflicks/internal/domain"
)

// User is the durable account record. Credentials live here, presence does
// not: who is currently in a room is session state, not a row.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:20" json:"username"`
	FullName     string `gorm:"size:100" json:"fullName"`
	Email        string `gorm:"uniqueIndex;size:100" json:"email"`
	PasswordHash string `json:"-"`
	AvatarURL    string `json:"avatar"`
	CreatedAt    time.Time
}

// Identity converts the account row to the stable identity the live
// coordinator works with.
func (u *User) Identity() *domain.User {
	return &domain.User{
		ID:        domain.UserID(strconv.FormatUint(uint64(u.ID), 10)),
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// Room is the durable room record. IsPlaying and CurrentPlaybackTime are a
// best-effort mirror of the live playback state so a re-opened room resumes
// near where it stopped.
type Room struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	Code                string  `gorm:"uniqueIndex;size:6" json:"roomCode"`
	HostID              uint    `json:"hostId"`
	Host                User    `gorm:"foreignKey:HostID" json:"host"`
	VideoURL            string  `json:"videoUrl"`
	IsPlaying           bool    `json:"isPlaying"`
	CurrentPlaybackTime float64 `json:"currentPlaybackTime"`
	CreatedAt           time.Time
}

// Message is a durably persisted chat entry, written only through the REST
// collaborator. Live session chat stays in memory for the session's life.
type Message struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomCode string    `gorm:"index:idx_room_sent;size:6" json:"roomCode"`
	SenderID uint      `json:"senderId"`
	Sender   User      `gorm:"foreignKey:SenderID" json:"sender"`
	Content  string    `gorm:"size:500" json:"content"`
	SentAt   time.Time `gorm:"index:idx_room_sent" json:"sentAt"`
}
