package wire

import "testing"

func TestChatContentIDDeterministic(t *testing.T) {
	sender := []byte{1, 2, 3}
	a := ChatContentID(sender, "hello", 1000)
	b := ChatContentID(sender, "hello", 1000)
	if string(a) != string(b) {
		t.Fatalf("expected deterministic content id")
	}
	c := ChatContentID(sender, "hello", 1001)
	if string(a) == string(c) {
		t.Fatalf("expected different timestamp to change content id")
	}
}

func TestHeartbeatSigningBytes(t *testing.T) {
	m := &Message{Type: KindHeartbeat, Seq: 42}
	if got := string(m.HeartbeatSigningBytes()); got != "seq:42" {
		t.Errorf("got %q, want %q", got, "seq:42")
	}
}

func TestLeaveSigningBytes(t *testing.T) {
	id := []byte{0xAB, 0xCD}
	got := string(LeaveSigningBytes(id))
	want := "type:LEAVE:abcd"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
