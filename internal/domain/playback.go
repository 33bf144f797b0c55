package domain

// PlaybackState is the authoritative play/pause + position pair replicated to
// every viewer. Position may move backward on explicit seeks.
type PlaybackState struct {
	IsPlaying bool    `json:"isPlaying"`
	Position  float64 `json:"currentTime"`
}

// Clamped returns the state with a non-negative position.
func (p PlaybackState) Clamped() PlaybackState {
	if p.Position < 0 {
		p.Position = 0
	}
	return p
}
