package core

import (
	"testing"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	reg := NewRegistry(nil)
	a := reg.GetOrCreate("XYZ789")
	b := reg.GetOrCreate("XYZ789")
	if a != b {
		t.Fatal("GetOrCreate must return the existing session for a code")
	}
	if _, ok := reg.Get("XYZ789"); !ok {
		t.Fatal("Get must find a created session")
	}
}

func TestGetMissingRoom(t *testing.T) {
	reg := NewRegistry(nil)
	if _, ok := reg.Get("NOPE42"); ok {
		t.Fatal("Get must not invent sessions")
	}
}

func TestListReportsOccupancy(t *testing.T) {
	reg := NewRegistry(nil)
	_, _ = join(t, reg, "LIST01", "c1", "alice")
	_, _ = join(t, reg, "LIST01", "c2", "bob")
	_, _ = join(t, reg, "LIST02", "c3", "carol")

	infos := reg.List()
	if len(infos) != 2 {
		t.Fatalf("live sessions = %d, want 2", len(infos))
	}
	counts := map[string]int{}
	for _, info := range infos {
		counts[string(info.Code)] = info.ParticipantCount
	}
	if counts["LIST01"] != 2 || counts["LIST02"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestDropIgnoresSuccessorSession(t *testing.T) {
	reg := NewRegistry(nil)
	old := reg.GetOrCreate("SUCC01")
	reg.drop(old)

	successor := reg.GetOrCreate("SUCC01")
	if successor == old {
		t.Fatal("expected a fresh session after drop")
	}

	// A late drop from the dead predecessor must not evict the successor.
	reg.drop(old)
	if cur, ok := reg.Get("SUCC01"); !ok || cur != successor {
		t.Fatal("stale drop evicted the successor session")
	}
}
