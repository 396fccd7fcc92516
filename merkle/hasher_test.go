package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestEmptyRootHashMatchesSHA256Empty(t *testing.T) {
	got := EmptyRootHash(sha256.New)
	want, err := hex.DecodeString("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Errorf("EmptyRootHash = %x, want %x", got, want)
	}
}

func TestLeafHashDiffersFromRawSHA256(t *testing.T) {
	data := []byte("hello")
	lh := LeafHash(sha256.New, data)
	raw := sha256.Sum256(data)
	if hex.EncodeToString(lh) == hex.EncodeToString(raw[:]) {
		t.Error("LeafHash must differ from raw SHA-256 due to the 0x00 domain prefix")
	}
}

func TestParentHashDomainSeparatedFromLeafHash(t *testing.T) {
	a := LeafHash(sha256.New, []byte("a"))
	b := LeafHash(sha256.New, []byte("b"))
	p := ParentHash(sha256.New, a, b)
	if hex.EncodeToString(p) == hex.EncodeToString(LeafHash(sha256.New, append(append([]byte{}, a...), b...))) {
		t.Error("ParentHash must not collide with LeafHash of the concatenated children")
	}
}
