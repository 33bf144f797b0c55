package core

import (
	"sync"
	"sync/atomic"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

// member pairs a participant with its transport endpoint. Slice order in the
// session is join order and drives host succession.
type member struct {
	id   ConnID
	part *domain.Participant
	conn SignalConnection
}

// Session is the live per-room state: participants, playback, message log.
// All mutations run on a single goroutine (the run loop), so handlers never
// race within one room. A Session exists only while occupied; once the last
// participant leaves, the loop exits and the session refuses further events.
type Session struct {
	code domain.RoomCode
	sink PlaybackSink

	events  chan func()
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	onEmpty func(*Session)

	count atomic.Int64

	// owned by the run loop
	members  []*member
	playback domain.PlaybackState
	messages []domain.Message
}

func newSession(code domain.RoomCode, sink PlaybackSink, onEmpty func(*Session)) *Session {
	return &Session{
		code:    code,
		sink:    sink,
		onEmpty: onEmpty,
		events:  make(chan func()),
		done:    make(chan struct{}),
	}
}

func (s *Session) Code() domain.RoomCode { return s.code }

// ParticipantCount is safe to call from any goroutine.
func (s *Session) ParticipantCount() int { return int(s.count.Load()) }

// do hands fn to the run loop and waits for it to finish. The events channel
// is unbuffered on purpose: a send succeeds only if the loop actually
// received the event, so a caller racing session teardown gets false instead
// of a silently dropped mutation.
func (s *Session) do(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		fn()
	}
	select {
	case s.events <- wrapped:
		<-ran
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	log.Debug().Str("module", "core.session").Str("room", string(s.code)).Msg("session started")
	for fn := range s.events {
		fn()
		if len(s.members) == 0 {
			s.terminate()
			return
		}
	}
}

func (s *Session) terminate() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	if s.onEmpty != nil {
		s.onEmpty(s)
	}
	log.Info().Str("module", "core.session").Str("room", string(s.code)).Msg("session destroyed")
}

// Join adds a participant and returns the snapshot it must see before any
// live broadcast. The first joiner becomes host. A repeat join from the same
// connection only refreshes the transport endpoint and re-delivers the
// snapshot; it never produces a second entry. Returns ok=false when the
// session terminated concurrently, in which case the caller should fetch a
// fresh session from the registry and retry.
func (s *Session) Join(id ConnID, user *domain.User, conn SignalConnection) (Snapshot, bool) {
	var snap Snapshot
	ok := s.do(func() {
		if existing := s.memberByConn(id); existing != nil {
			existing.conn = conn
		} else {
			role := domain.RoleGuest
			if len(s.members) == 0 {
				role = domain.RoleHost
			}
			s.members = append(s.members, &member{
				id:   id,
				part: domain.NewParticipant(user, role),
				conn: conn,
			})
			s.count.Store(int64(len(s.members)))
			log.Info().Str("module", "core.session").Str("room", string(s.code)).
				Str("conn", string(id)).Str("user", user.Username).Msg("participant joined")
		}
		snap = s.snapshot()
		s.deliverSnapshot(conn, snap)
		s.broadcastPresence()
	})
	return snap, ok
}

// deliverSnapshot pushes playback state and chat history to the joiner while
// still inside the serialized handler. Nothing can slot a live event ahead
// of these frames, which is what makes join completeness hold.
func (s *Session) deliverSnapshot(conn SignalConnection, snap Snapshot) {
	if f, ok := encode(VideoStateChangedEvent{
		Type:      EventVideoStateChanged,
		IsPlaying: snap.Playback.IsPlaying,
		Position:  snap.Playback.Position,
	}); ok {
		_ = conn.TrySend(f)
	}
	if f, ok := encode(MessageHistoryEvent{
		Type:     EventMessageHistory,
		Messages: snap.Messages,
	}); ok {
		_ = conn.TrySend(f)
	}
}

// Leave removes the connection's participant. If the host left and the
// session stays occupied, the earliest remaining joiner is promoted. It is
// the guaranteed-cleanup path: the gateway invokes it on every disconnect,
// normal or not, and a no-op removal is fine.
func (s *Session) Leave(id ConnID) bool {
	return s.do(func() {
		idx := -1
		for i, m := range s.members {
			if m.id == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		wasHost := s.members[idx].part.Role == domain.RoleHost
		s.members = append(s.members[:idx], s.members[idx+1:]...)
		s.count.Store(int64(len(s.members)))
		log.Info().Str("module", "core.session").Str("room", string(s.code)).
			Str("conn", string(id)).Msg("participant left")
		if len(s.members) == 0 {
			return
		}
		if wasHost {
			if next := electHost(s.members); next != nil {
				log.Info().Str("module", "core.session").Str("room", string(s.code)).
					Str("user", next.part.User.Username).Msg("host promoted")
			}
		}
		s.broadcastPresence()
	})
}

// Chat appends the message to the session log and fans it out. Seq is the
// arrival order at this loop; client timestamps are display-only.
func (s *Session) Chat(msg domain.Message) bool {
	return s.do(func() {
		msg.Seq = len(s.messages) + 1
		s.messages = append(s.messages, msg)
		if f, ok := encode(NewMessageEvent{Type: EventNewMessage, Message: msg}); ok {
			s.broadcast(f)
		}
	})
}

// SetPlayback replaces the authoritative playback state and broadcasts it to
// every participant, sender included, so all clients converge on one value.
// The durable mirror is written off-loop and never delays the broadcast.
func (s *Session) SetPlayback(state domain.PlaybackState) bool {
	return s.do(func() {
		s.playback = state.Clamped()
		if f, ok := encode(VideoStateChangedEvent{
			Type:      EventVideoStateChanged,
			IsPlaying: s.playback.IsPlaying,
			Position:  s.playback.Position,
		}); ok {
			s.broadcast(f)
		}
		if s.sink != nil {
			go s.persist(s.playback)
		}
	})
}

// SetPosition is the lighter-weight drift-correction update: position only,
// play/pause untouched, no durable mirror.
func (s *Session) SetPosition(pos float64) bool {
	return s.do(func() {
		if pos < 0 {
			pos = 0
		}
		s.playback.Position = pos
		if f, ok := encode(VideoTimeEvent{Type: EventVideoTime, Position: pos}); ok {
			s.broadcast(f)
		}
	})
}

func (s *Session) persist(state domain.PlaybackState) {
	if err := s.sink.SavePlayback(s.code, state); err != nil {
		log.Warn().Err(err).Str("module", "core.session").Str("room", string(s.code)).
			Msg("playback mirror failed")
	}
}

func (s *Session) memberByConn(id ConnID) *member {
	for _, m := range s.members {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (s *Session) snapshot() Snapshot {
	parts := make([]domain.Participant, 0, len(s.members))
	for _, m := range s.members {
		parts = append(parts, *m.part)
	}
	msgs := make([]domain.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{Participants: parts, Playback: s.playback, Messages: msgs}
}

func (s *Session) broadcastPresence() {
	snap := s.snapshot()
	if f, ok := encode(ParticipantJoinedEvent{
		Type:         EventParticipantJoined,
		Participants: snap.Participants,
	}); ok {
		s.broadcast(f)
	}
}

func (s *Session) broadcast(f Frame) {
	dropped := 0
	for _, m := range s.members {
		if err := m.conn.TrySend(f); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warn().Str("module", "core.session").Str("room", string(s.code)).
			Int("dropped", dropped).Msg("broadcast backpressure")
	}
}
