package core

import (
	"sync"

	"github.com/chillflicks/chillflicks/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry owns the map of live sessions across rooms. Sessions are created
// lazily on first use and remove themselves once empty. Entries are shared
// across rooms but a session's state is only ever touched by its own loop.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.RoomCode]*Session
	sink     PlaybackSink
}

func NewRegistry(sink PlaybackSink) *Registry {
	return &Registry{
		sessions: make(map[domain.RoomCode]*Session),
		sink:     sink,
	}
}

func (r *Registry) GetOrCreate(code domain.RoomCode) *Session {
	r.mu.RLock()
	s, ok := r.sessions[code]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sessions[code]; ok {
		return s
	}
	s = newSession(code, r.sink, r.drop)
	r.sessions[code] = s
	go s.run()
	log.Info().Str("module", "core.registry").Str("room", string(code)).Msg("session created")
	return s
}

func (r *Registry) Get(code domain.RoomCode) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

// drop removes a terminated session. The pointer comparison keeps a
// just-created successor for the same code from being evicted.
func (r *Registry) drop(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.code]; ok && cur == s {
		delete(r.sessions, s.code)
	}
}

func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for code, s := range r.sessions {
		out = append(out, SessionInfo{Code: code, ParticipantCount: s.ParticipantCount()})
	}
	return out
}
