package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chillflicks/chillflicks/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
}

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(Frame, len(fr))
	copy(cp, fr)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(fr, &env); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		out = append(out, env.Type)
	}
	return out
}

func (f *fakeConn) lastEvent(t *testing.T, typ string) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		var m map[string]any
		if err := json.Unmarshal(f.frames[i], &m); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if m["type"] == typ {
			return m
		}
	}
	t.Fatalf("no %s event captured", typ)
	return nil
}

type fakeSink struct {
	mu    sync.Mutex
	saved []domain.PlaybackState
	done  chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{done: make(chan struct{}, 8)}
}

func (f *fakeSink) SavePlayback(code domain.RoomCode, state domain.PlaybackState) error {
	f.mu.Lock()
	f.saved = append(f.saved, state)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func testUser(name string) *domain.User {
	return &domain.User{ID: domain.UserID("uid-" + name), Username: name}
}

func join(t *testing.T, reg *Registry, code domain.RoomCode, id ConnID, name string) (*fakeConn, Snapshot) {
	t.Helper()
	conn := &fakeConn{}
	s := reg.GetOrCreate(code)
	snap, ok := s.Join(id, testUser(name), conn)
	if !ok {
		t.Fatalf("join %s refused", id)
	}
	return conn, snap
}

func waitGone(t *testing.T, reg *Registry, code domain.RoomCode) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Get(code); !ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session %s never destroyed", code)
}

func hostCount(parts []domain.Participant) int {
	n := 0
	for _, p := range parts {
		if p.Role == domain.RoleHost {
			n++
		}
	}
	return n
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	reg := NewRegistry(nil)
	_, snapA := join(t, reg, "ABC123", "c1", "alice")
	if len(snapA.Participants) != 1 {
		t.Fatalf("participants = %d, want 1", len(snapA.Participants))
	}
	if snapA.Participants[0].Role != domain.RoleHost {
		t.Fatalf("first joiner role = %s, want host", snapA.Participants[0].Role)
	}

	_, snapB := join(t, reg, "ABC123", "c2", "bob")
	if len(snapB.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(snapB.Participants))
	}
	if snapB.Participants[1].Role != domain.RoleGuest {
		t.Fatalf("second joiner role = %s, want guest", snapB.Participants[1].Role)
	}
	if hostCount(snapB.Participants) != 1 {
		t.Fatalf("host count = %d, want exactly 1", hostCount(snapB.Participants))
	}
}

func TestJoinIsIdempotentPerConnection(t *testing.T) {
	reg := NewRegistry(nil)
	s := reg.GetOrCreate("ROOM01")
	conn := &fakeConn{}
	user := testUser("alice")

	if _, ok := s.Join("c1", user, conn); !ok {
		t.Fatal("first join refused")
	}
	snap, ok := s.Join("c1", user, conn)
	if !ok {
		t.Fatal("second join refused")
	}
	if len(snap.Participants) != 1 {
		t.Fatalf("participants after double join = %d, want 1", len(snap.Participants))
	}
	if s.ParticipantCount() != 1 {
		t.Fatalf("count = %d, want 1", s.ParticipantCount())
	}
}

func TestHostSuccessionEarliestRemainingJoiner(t *testing.T) {
	reg := NewRegistry(nil)
	_, _ = join(t, reg, "ROOM02", "c1", "alice")
	connB, _ := join(t, reg, "ROOM02", "c2", "bob")
	_, snapC := join(t, reg, "ROOM02", "c3", "carol")
	if hostCount(snapC.Participants) != 1 {
		t.Fatalf("host count = %d, want 1", hostCount(snapC.Participants))
	}

	s, _ := reg.Get("ROOM02")
	if !s.Leave("c1") {
		t.Fatal("leave refused")
	}

	ev := connB.lastEvent(t, EventParticipantJoined)
	parts := ev["participants"].([]any)
	if len(parts) != 2 {
		t.Fatalf("participants after host left = %d, want 2", len(parts))
	}
	first := parts[0].(map[string]any)
	if first["role"] != "host" {
		t.Fatalf("earliest remaining joiner role = %v, want host", first["role"])
	}
	if first["user"].(map[string]any)["username"] != "bob" {
		t.Fatalf("promoted = %v, want bob", first["user"])
	}
	second := parts[1].(map[string]any)
	if second["role"] != "guest" {
		t.Fatalf("later joiner role = %v, want guest", second["role"])
	}
}

func TestMessageOrderingMatchesReceiptOrder(t *testing.T) {
	reg := NewRegistry(nil)
	connA, _ := join(t, reg, "ROOM03", "c1", "alice")
	connB, _ := join(t, reg, "ROOM03", "c2", "bob")
	s, _ := reg.Get("ROOM03")

	texts := []string{"m1", "m2", "m3"}
	for _, txt := range texts {
		if !s.Chat(domain.Message{User: "alice", Text: txt}) {
			t.Fatalf("chat %s refused", txt)
		}
	}

	for _, conn := range []*fakeConn{connA, connB} {
		var got []string
		var seqs []int
		conn.mu.Lock()
		for _, fr := range conn.frames {
			var ev NewMessageEvent
			if json.Unmarshal(fr, &ev) == nil && ev.Type == EventNewMessage {
				got = append(got, ev.Message.Text)
				seqs = append(seqs, ev.Message.Seq)
			}
		}
		conn.mu.Unlock()
		if len(got) != 3 {
			t.Fatalf("observed %d messages, want 3", len(got))
		}
		for i := range texts {
			if got[i] != texts[i] {
				t.Fatalf("message %d = %s, want %s", i, got[i], texts[i])
			}
			if seqs[i] != i+1 {
				t.Fatalf("seq %d = %d, want %d", i, seqs[i], i+1)
			}
		}
	}
}

func TestJoinDeliversHistoryBeforeLiveMessages(t *testing.T) {
	reg := NewRegistry(nil)
	_, _ = join(t, reg, "ROOM04", "c1", "alice")
	s, _ := reg.Get("ROOM04")
	for _, txt := range []string{"m1", "m2", "m3"} {
		s.Chat(domain.Message{User: "alice", Text: txt})
	}

	connB, snap := join(t, reg, "ROOM04", "c2", "bob")
	if len(snap.Messages) != 3 {
		t.Fatalf("snapshot history = %d messages, want 3", len(snap.Messages))
	}
	s.Chat(domain.Message{User: "alice", Text: "m4"})

	types := connB.eventTypes(t)
	histIdx, liveIdx := -1, -1
	for i, typ := range types {
		if typ == EventMessageHistory && histIdx < 0 {
			histIdx = i
		}
		if typ == EventNewMessage && liveIdx < 0 {
			liveIdx = i
		}
	}
	if histIdx < 0 {
		t.Fatal("joiner never received messageHistory")
	}
	if liveIdx >= 0 && liveIdx < histIdx {
		t.Fatal("live message observed before history")
	}

	ev := connB.lastEvent(t, EventMessageHistory)
	hist := ev["messages"].([]any)
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
}

func TestPlaybackBroadcastIncludesSender(t *testing.T) {
	reg := NewRegistry(nil)
	connA, _ := join(t, reg, "ROOM05", "c1", "alice")
	connB, _ := join(t, reg, "ROOM05", "c2", "bob")
	s, _ := reg.Get("ROOM05")

	if !s.SetPlayback(domain.PlaybackState{IsPlaying: true, Position: 10}) {
		t.Fatal("setPlayback refused")
	}

	for _, conn := range []*fakeConn{connA, connB} {
		ev := conn.lastEvent(t, EventVideoStateChanged)
		if ev["isPlaying"] != true {
			t.Fatalf("isPlaying = %v, want true", ev["isPlaying"])
		}
		if ev["currentTime"].(float64) != 10 {
			t.Fatalf("currentTime = %v, want 10", ev["currentTime"])
		}
	}
}

func TestSetPositionBroadcastsVideoTimeOnly(t *testing.T) {
	reg := NewRegistry(nil)
	connA, _ := join(t, reg, "ROOM06", "c1", "alice")
	s, _ := reg.Get("ROOM06")

	s.SetPosition(99.5)

	ev := connA.lastEvent(t, EventVideoTime)
	if ev["currentTime"].(float64) != 99.5 {
		t.Fatalf("currentTime = %v, want 99.5", ev["currentTime"])
	}
	if _, hasPlaying := ev["isPlaying"]; hasPlaying {
		t.Fatal("videoTime event must not carry isPlaying")
	}

	_, snap := join(t, reg, "ROOM06", "c2", "bob")
	if snap.Playback.Position != 99.5 {
		t.Fatalf("position = %v, want 99.5", snap.Playback.Position)
	}
	if snap.Playback.IsPlaying {
		t.Fatal("setPosition must not toggle play state")
	}
}

func TestPlaybackMirrorIsAsyncBestEffort(t *testing.T) {
	sink := newFakeSink()
	reg := NewRegistry(sink)
	_, _ = join(t, reg, "ROOM07", "c1", "alice")
	s, _ := reg.Get("ROOM07")

	s.SetPlayback(domain.PlaybackState{IsPlaying: true, Position: 42})

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never called")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.saved) != 1 || sink.saved[0].Position != 42 || !sink.saved[0].IsPlaying {
		t.Fatalf("saved = %+v", sink.saved)
	}
}

func TestLastLeaveDestroysSessionState(t *testing.T) {
	reg := NewRegistry(nil)
	_, _ = join(t, reg, "ROOM08", "c1", "alice")
	s, _ := reg.Get("ROOM08")
	s.Chat(domain.Message{User: "alice", Text: "remember me"})
	s.SetPlayback(domain.PlaybackState{IsPlaying: true, Position: 30})

	s.Leave("c1")
	waitGone(t, reg, "ROOM08")

	// A rejoin gets a brand-new session with nothing carried over.
	_, snap := join(t, reg, "ROOM08", "c2", "bob")
	if len(snap.Messages) != 0 {
		t.Fatalf("carried over %d messages", len(snap.Messages))
	}
	if snap.Playback.IsPlaying || snap.Playback.Position != 0 {
		t.Fatalf("carried over playback %+v", snap.Playback)
	}
	if len(snap.Participants) != 1 || snap.Participants[0].Role != domain.RoleHost {
		t.Fatalf("rejoiner participants = %+v", snap.Participants)
	}
}

func TestTerminatedSessionRefusesEvents(t *testing.T) {
	reg := NewRegistry(nil)
	_, _ = join(t, reg, "ROOM09", "c1", "alice")
	s, _ := reg.Get("ROOM09")
	s.Leave("c1")
	waitGone(t, reg, "ROOM09")

	if s.Chat(domain.Message{User: "alice", Text: "too late"}) {
		t.Fatal("terminated session accepted a chat event")
	}
	if _, ok := s.Join("c2", testUser("bob"), &fakeConn{}); ok {
		t.Fatal("terminated session accepted a join")
	}
}

func TestScenarioHostHandoffAndPlayback(t *testing.T) {
	reg := NewRegistry(nil)

	_, snapA := join(t, reg, "ABC123", "connA", "UserA")
	if snapA.Participants[0].Role != domain.RoleHost {
		t.Fatal("UserA must start as host")
	}

	connB, snapB := join(t, reg, "ABC123", "connB", "UserB")
	if len(snapB.Participants) != 2 || hostCount(snapB.Participants) != 1 {
		t.Fatalf("after B joins: %+v", snapB.Participants)
	}

	s, _ := reg.Get("ABC123")
	s.Leave("connA")

	ev := connB.lastEvent(t, EventParticipantJoined)
	parts := ev["participants"].([]any)
	if len(parts) != 1 {
		t.Fatalf("after A left: %d participants, want 1", len(parts))
	}
	if parts[0].(map[string]any)["role"] != "host" {
		t.Fatal("UserB must be promoted to host")
	}

	s.SetPlayback(domain.PlaybackState{IsPlaying: true, Position: 10})
	state := connB.lastEvent(t, EventVideoStateChanged)
	if state["isPlaying"] != true || state["currentTime"].(float64) != 10 {
		t.Fatalf("videoStateChanged = %+v", state)
	}
}

func TestConcurrentJoinsKeepSingleHost(t *testing.T) {
	reg := NewRegistry(nil)
	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConn{}
			for {
				s := reg.GetOrCreate("RACE01")
				if _, ok := s.Join(ConnID(fmt.Sprintf("c%d", i)), testUser("user"), conn); ok {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	s, ok := reg.Get("RACE01")
	if !ok {
		t.Fatal("session missing")
	}
	conn := &fakeConn{}
	snap, ok := s.Join("observer", testUser("observer"), conn)
	if !ok {
		t.Fatal("observer join refused")
	}
	if len(snap.Participants) != n+1 {
		t.Fatalf("participants = %d, want %d", len(snap.Participants), n+1)
	}
	if hostCount(snap.Participants) != 1 {
		t.Fatalf("host count = %d, want exactly 1", hostCount(snap.Participants))
	}
}
