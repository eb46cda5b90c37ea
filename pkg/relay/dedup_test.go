package relay

import "testing"

func TestMarkRelayedThenHasRelayed(t *testing.T) {
	f := New(1000, 0.01)
	mark := Mark([]byte{1, 2, 3}, KindHeartbeat, 7)
	if f.HasRelayed(mark) {
		t.Fatal("expected mark unseen before MarkRelayed")
	}
	f.MarkRelayed(mark)
	if !f.HasRelayed(mark) {
		t.Fatal("expected mark seen after MarkRelayed")
	}
}

func TestMarkDistinguishesKinds(t *testing.T) {
	id := []byte{9, 9}
	hbMark := Mark(id, KindHeartbeat, 1)
	leaveMark := Mark(id, KindLeave, 0)
	if hbMark == leaveMark {
		t.Fatal("heartbeat and leave marks for same id must differ")
	}
}

func TestMarkDistinguishesSeq(t *testing.T) {
	id := []byte{1}
	if Mark(id, KindHeartbeat, 1) == Mark(id, KindHeartbeat, 2) {
		t.Fatal("different seq must produce different marks")
	}
}

func TestRotateKeepsPreviousGenerationVisible(t *testing.T) {
	f := New(1000, 0.01)
	mark := Mark([]byte{5}, KindChat, 0)
	f.MarkRelayed(mark)
	f.Rotate()
	if !f.HasRelayed(mark) {
		t.Fatal("mark should still be visible via the previous generation immediately after one rotation")
	}
	f.Rotate()
	if f.HasRelayed(mark) {
		t.Fatal("mark should have aged out after two rotations")
	}
}
