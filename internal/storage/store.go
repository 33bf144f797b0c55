package storage

import (
	"errors"
	"time"

	"github.com/chillflicks/chillflicks/internal/domain"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Store is the persisted-record collaborator: room and user lookup plus the
// durable chat history. The live coordinator never blocks on it.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindRoomByCode(code string) (*Room, error) {
	var room Room
	err := s.db.Preload("Host").Where("code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) CreateRoom(room *Room) error {
	return s.db.Create(room).Error
}

func (s *Store) SaveRoom(room *Room) error {
	return s.db.Save(room).Error
}

func (s *Store) FindUser(id uint) (*User, error) {
	var user User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(username string) (*User, error) {
	var user User
	err := s.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) SaveUser(user *User) error {
	return s.db.Save(user).Error
}

func (s *Store) SaveMessage(msg *Message) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	return s.db.Create(msg).Error
}

func (s *Store) MessagesByRoom(code string) ([]Message, error) {
	var msgs []Message
	err := s.db.Preload("Sender").
		Where("room_code = ?", code).
		Order("sent_at asc").
		Find(&msgs).Error
	return msgs, err
}

// SavePlayback implements core.PlaybackSink. It is called off the session
// loop; a missing room record is not an error worth surfacing since the
// coordinator does not validate rooms against the durable store.
func (s *Store) SavePlayback(code domain.RoomCode, state domain.PlaybackState) error {
	res := s.db.Model(&Room{}).
		Where("code = ?", string(code)).
		Updates(map[string]any{
			"is_playing":            state.IsPlaying,
			"current_playback_time": state.Position,
		})
	return res.Error
}
