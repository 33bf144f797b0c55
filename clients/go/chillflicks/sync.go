package chillflicks

import "sync"

// DriftTolerance is how far (seconds) the local position may diverge from
// the broadcast position before the agent issues a corrective seek. Coarse
// on purpose: frame-accurate sync is not a goal.
const DriftTolerance = 1.0

// PlaybackState is the authoritative pair replicated by the coordinator.
type PlaybackState struct {
	IsPlaying bool
	Position  float64
}

// Player is the capability set the agent needs from whatever video player
// the embedding application attaches.
type Player interface {
	Play()
	Pause()
	SeekTo(position float64)
	CurrentTime() float64
	IsPlaying() bool
}

// Agent turns received playback broadcasts into local player commands. It is
// a two-state machine: while Uninitialized (no player attached yet) incoming
// states are deferred, never dropped; the latest deferred state is applied
// exactly once on the transition to Ready.
type Agent struct {
	mu          sync.Mutex
	player      Player
	deferred    *PlaybackState
	deferredPos *float64
}

func NewAgent() *Agent {
	return &Agent{}
}

// Attach transitions the agent to Ready and flushes the pending state, if
// any. Attaching twice replaces the player but does not replay old state.
func (a *Agent) Attach(p Player) {
	a.mu.Lock()
	a.player = p
	pending := a.deferred
	pendingPos := a.deferredPos
	a.deferred = nil
	a.deferredPos = nil
	a.mu.Unlock()

	if pending != nil {
		a.reconcile(p, *pending)
	} else if pendingPos != nil {
		if drift(p.CurrentTime(), *pendingPos) {
			p.SeekTo(*pendingPos)
		}
	}
}

// Ready reports whether a player is attached.
func (a *Agent) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.player != nil
}

// Apply reconciles the local player against the broadcast state. Before the
// player is ready the update is parked; only the newest one matters since
// each broadcast carries the full state.
func (a *Agent) Apply(state PlaybackState) {
	a.mu.Lock()
	p := a.player
	if p == nil {
		a.deferred = &state
		a.deferredPos = nil
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.reconcile(p, state)
}

// ApplyPosition handles the position-only drift broadcast: same seek rule,
// play/pause untouched.
func (a *Agent) ApplyPosition(position float64) {
	a.mu.Lock()
	p := a.player
	if p == nil {
		if a.deferred != nil {
			a.deferred.Position = position
		} else {
			a.deferredPos = &position
		}
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	if drift(p.CurrentTime(), position) {
		p.SeekTo(position)
	}
}

func (a *Agent) reconcile(p Player, state PlaybackState) {
	if drift(p.CurrentTime(), state.Position) {
		p.SeekTo(state.Position)
	}
	if state.IsPlaying && !p.IsPlaying() {
		p.Play()
	}
	if !state.IsPlaying && p.IsPlaying() {
		p.Pause()
	}
}

// UseAgent routes playback broadcasts into the reconciliation agent.
func (c *Client) UseAgent(a *Agent) {
	c.Handlers.OnVideoState = a.Apply
	c.Handlers.OnVideoTime = a.ApplyPosition
}

func drift(local, authoritative float64) bool {
	d := local - authoritative
	if d < 0 {
		d = -d
	}
	return d > DriftTolerance
}
