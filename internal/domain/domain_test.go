package domain

import (
	"strings"
	"testing"
)

func TestNewRoomCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := NewRoomCode()
		if len(code) != roomCodeLen {
			t.Fatalf("code %q length = %d, want %d", code, len(code), roomCodeLen)
		}
		for _, ch := range string(code) {
			if !strings.ContainsRune(roomCodeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside alphabet", code, ch)
			}
		}
	}
}

func TestNewUserValidation(t *testing.T) {
	if _, err := NewUser("1", "ab"); err != ErrUsernameTooShort {
		t.Fatalf("short username err = %v", err)
	}
	if _, err := NewUser("1", strings.Repeat("x", MaxUsernameLen+1)); err != ErrUsernameTooLong {
		t.Fatalf("long username err = %v", err)
	}
	u, err := NewUser("1", "alice")
	if err != nil {
		t.Fatalf("valid username err = %v", err)
	}
	if u.ID != "1" || u.Username != "alice" {
		t.Fatalf("user = %+v", u)
	}
}

func TestNewMessageValidation(t *testing.T) {
	if _, err := NewMessage("alice", "", "12:00"); err != ErrMessageEmpty {
		t.Fatalf("empty message err = %v", err)
	}
	if _, err := NewMessage("alice", strings.Repeat("x", MaxMessageLen+1), "12:00"); err != ErrMessageTooLong {
		t.Fatalf("long message err = %v", err)
	}
	m, err := NewMessage("alice", "hello", "12:00")
	if err != nil {
		t.Fatalf("valid message err = %v", err)
	}
	if m.User != "alice" || m.Text != "hello" || m.Time != "12:00" || m.Seq != 0 {
		t.Fatalf("message = %+v", m)
	}
}

func TestPlaybackStateClamped(t *testing.T) {
	p := PlaybackState{IsPlaying: true, Position: -3}.Clamped()
	if p.Position != 0 {
		t.Fatalf("position = %v, want 0", p.Position)
	}
	if !p.IsPlaying {
		t.Fatal("clamping must not touch play state")
	}
}
