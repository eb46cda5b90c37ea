package peertable

import (
	"testing"
	"time"
)

func id(b byte) []byte { return []byte{b, b, b, b} }

func TestAddOrUpdateAdmitsNewPeer(t *testing.T) {
	tbl := New(10)
	wasNew := tbl.AddOrUpdate(id(1), 1, "")
	if !wasNew {
		t.Fatal("expected first insert to report wasNew=true")
	}
	rec, ok := tbl.Get(id(1))
	if !ok || rec.Seq != 1 {
		t.Fatalf("expected stored record with seq 1, got %+v ok=%v", rec, ok)
	}
}

func TestAddOrUpdateRejectsNonIncreasingSeq(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 5, "")
	if wasNew := tbl.AddOrUpdate(id(1), 5, ""); wasNew {
		t.Fatal("equal seq must be a no-op, not new")
	}
	if wasNew := tbl.AddOrUpdate(id(1), 3, ""); wasNew {
		t.Fatal("regressing seq must be a no-op")
	}
	rec, _ := tbl.Get(id(1))
	if rec.Seq != 5 {
		t.Fatalf("seq must remain 5 after rejected updates, got %d", rec.Seq)
	}
}

func TestAddOrUpdateAcceptsStrictlyIncreasingSeq(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 5, "")
	if wasNew := tbl.AddOrUpdate(id(1), 6, ""); wasNew {
		t.Fatal("an update to an existing peer is never 'new'")
	}
	rec, _ := tbl.Get(id(1))
	if rec.Seq != 6 {
		t.Fatalf("expected seq 6, got %d", rec.Seq)
	}
}

func TestAddOrUpdateEnforcesCap(t *testing.T) {
	tbl := New(2)
	tbl.AddOrUpdate(id(1), 1, "")
	tbl.AddOrUpdate(id(2), 1, "")
	if wasNew := tbl.AddOrUpdate(id(3), 1, ""); wasNew {
		t.Fatal("expected cap to reject a third distinct peer")
	}
	if _, ok := tbl.Get(id(3)); ok {
		t.Fatal("rejected peer must not be stored")
	}
}

func TestSelfExemptFromCapAndSweep(t *testing.T) {
	tbl := New(1)
	tbl.SetSelf(id(0), 1)
	if wasNew := tbl.AddOrUpdate(id(1), 1, ""); !wasNew {
		t.Fatal("self's presence must not consume the remote-peer cap")
	}
	evicted := tbl.SweepStale(0)
	found := false
	for _, e := range evicted {
		if string(e) == string(id(1)) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected remote peer to be swept")
	}
	if _, ok := tbl.Get(id(0)); !ok {
		t.Fatal("self record must survive sweep regardless of ttl")
	}
}

func TestSweepStaleRemovesOnlyExpired(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 1, "")
	time.Sleep(5 * time.Millisecond)
	tbl.AddOrUpdate(id(2), 1, "")

	evicted := tbl.SweepStale(2 * time.Millisecond)
	if len(evicted) != 1 || string(evicted[0]) != string(id(1)) {
		t.Fatalf("expected only id(1) evicted, got %v", evicted)
	}
	if _, ok := tbl.Get(id(1)); ok {
		t.Fatal("id(1) should have been removed")
	}
	if _, ok := tbl.Get(id(2)); !ok {
		t.Fatal("id(2) should still be present")
	}
}

func TestDirectIPOnlySetFromZeroHop(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 1, "1.2.3.4")
	rec, _ := tbl.Get(id(1))
	if rec.DirectIP != "1.2.3.4" {
		t.Fatalf("expected direct ip set, got %q", rec.DirectIP)
	}
	tbl.AddOrUpdate(id(1), 2, "")
	rec, _ = tbl.Get(id(1))
	if rec.DirectIP != "1.2.3.4" {
		t.Fatalf("relayed update must not clear existing direct ip, got %q", rec.DirectIP)
	}
}

func TestRemove(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 1, "")
	tbl.Remove(id(1))
	if _, ok := tbl.Get(id(1)); ok {
		t.Fatal("expected peer removed")
	}
}

func TestPeersWithIPs(t *testing.T) {
	tbl := New(10)
	tbl.AddOrUpdate(id(1), 1, "1.1.1.1")
	tbl.AddOrUpdate(id(2), 1, "")
	withIPs := tbl.PeersWithIPs()
	if len(withIPs) != 1 {
		t.Fatalf("expected 1 peer with ip, got %d", len(withIPs))
	}
}
