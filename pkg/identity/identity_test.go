package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateProducesDistinctIdentities(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.IDHex() == b.IDHex() {
		t.Fatalf("expected distinct identities, got matching IDs")
	}
}

func TestGenerateProducesDistinctKeyAgreementKeys(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.KeyAgreementPublicKey == b.KeyAgreementPublicKey {
		t.Fatalf("expected distinct X25519 public keys")
	}
	var zero [32]byte
	if a.KeyAgreementPublicKey == zero {
		t.Fatalf("expected a non-zero X25519 public key")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	msg := []byte("seq:42")
	sig := id.Sign(msg)
	if !Verify(id.ID(), msg, sig) {
		t.Fatalf("expected valid signature to verify")
	}
	if Verify(id.ID(), []byte("seq:43"), sig) {
		t.Fatalf("expected signature over different message to fail")
	}
}

func TestSolveAndVerifyProofOfWork(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	const difficulty = 8
	id.SolveProofOfWork(difficulty)
	if !VerifyProofOfWork(id.ID(), id.Nonce, difficulty) {
		t.Fatalf("expected solved nonce to verify at difficulty %d", difficulty)
	}
	if VerifyProofOfWork(id.ID(), id.Nonce+1, difficulty+16) {
		t.Fatalf("expected unrelated nonce not to satisfy a much higher difficulty")
	}
}

func TestCountLeadingZeroBits(t *testing.T) {
	cases := []struct {
		in   [32]byte
		want int
	}{
		{[32]byte{0x00, 0x00, 0xFF}, 16},
		{[32]byte{0x80}, 0},
		{[32]byte{0x01}, 7},
		{[32]byte{0x00, 0x01}, 15},
	}
	for _, c := range cases {
		if got := countLeadingZeroBits(c.in); got != c.want {
			t.Errorf("countLeadingZeroBits(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	id.SolveProofOfWork(4)

	path := filepath.Join(t.TempDir(), "nested", "identity.json")
	if err := id.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected file mode 0600, got %o", perm)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.IDHex() != id.IDHex() {
		t.Errorf("loaded identity ID mismatch")
	}
	if loaded.Nonce != id.Nonce {
		t.Errorf("loaded nonce mismatch: got %d, want %d", loaded.Nonce, id.Nonce)
	}
}
