package diagnostics

import "testing"

func TestCountersIncrementIndependently(t *testing.T) {
	d := New()
	d.IncHeartbeatsReceived()
	d.IncHeartbeatsReceived()
	d.IncInvalidSig()

	snap := d.Snapshot()
	if snap.HeartbeatsReceived != 2 {
		t.Errorf("HeartbeatsReceived = %d, want 2", snap.HeartbeatsReceived)
	}
	if snap.InvalidSig != 1 {
		t.Errorf("InvalidSig = %d, want 1", snap.InvalidSig)
	}
	if snap.DuplicateSeq != 0 {
		t.Errorf("DuplicateSeq = %d, want 0", snap.DuplicateSeq)
	}
}

func TestSnapshotIsMonotone(t *testing.T) {
	d := New()
	d.IncLeaveMessages()
	first := d.Snapshot()
	d.IncLeaveMessages()
	second := d.Snapshot()
	if second.LeaveMessages <= first.LeaveMessages {
		t.Fatal("expected counter to be monotonically increasing")
	}
}
