package trie

import (
	"bytes"
	"testing"

	"github.com/eth2030/eth2030/core/types"
)

func TestEmptyTrieHash(t *testing.T) {
	tr := New(NewMemStore())
	h, err := tr.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h != types.EmptyRootHash {
		t.Errorf("empty trie hash = %s, want %s", h, types.EmptyRootHash)
	}
}

func TestUpdateGetRoundTrip(t *testing.T) {
	tr := New(NewMemStore())
	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dogee": "v2",
		"horse": "stallion",
	}
	for k, v := range entries {
		if err := tr.Update([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Update(%q): %v", k, err)
		}
	}
	for k, want := range entries {
		got, ok, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if !ok {
			t.Fatalf("Get(%q) not found", k)
		}
		if !bytes.Equal(got, []byte(want)) {
			t.Errorf("Get(%q) = %q, want %q", k, got, want)
		}
	}
}

func TestRootHashOrderIndependent(t *testing.T) {
	pairs := [][2]string{{"a", "1"}, {"aa", "2"}, {"aab", "3"}, {"b", "4"}}

	t1 := New(NewMemStore())
	for _, p := range pairs {
		_ = t1.Update([]byte(p[0]), []byte(p[1]))
	}
	h1, err := t1.Hash()
	if err != nil {
		t.Fatal(err)
	}

	t2 := New(NewMemStore())
	for i := len(pairs) - 1; i >= 0; i-- {
		_ = t2.Update([]byte(pairs[i][0]), []byte(pairs[i][1]))
	}
	h2, err := t2.Hash()
	if err != nil {
		t.Fatal(err)
	}

	if h1 != h2 {
		t.Errorf("root hash depends on insertion order: %s vs %s", h1, h2)
	}
}

func TestDeleteIsInverseOfInsert(t *testing.T) {
	store := NewMemStore()
	tr := New(store)
	_ = tr.Update([]byte("do"), []byte("verb"))
	before, err := tr.Hash()
	if err != nil {
		t.Fatal(err)
	}

	_ = tr.Update([]byte("dog"), []byte("puppy"))
	_ = tr.Delete([]byte("dog"))

	after, err := tr.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("insert-then-delete changed root hash: %s vs %s", before, after)
	}
}

func TestCommitThenReopen(t *testing.T) {
	store := NewMemStore()
	tr := New(store)
	_ = tr.Update([]byte("key1"), bytes.Repeat([]byte{0xAB}, 40))
	_ = tr.Update([]byte("key2"), []byte("short"))

	root, err := tr.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := Open(root, store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok, err := reopened.Get([]byte("key2"))
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if string(got) != "short" {
		t.Errorf("Get(key2) = %q, want %q", got, "short")
	}
}

func TestHexCompactRoundTrip(t *testing.T) {
	cases := [][]byte{
		keyToNibbles([]byte("dog")),
		keyToNibbles([]byte{}),
		{1, 2, 3, 4}, // extension, even length
		{1, 2, 3},    // extension, odd length
	}
	for _, nibbles := range cases {
		compact := hexToCompact(nibbles)
		got := compactToHex(compact)
		if !bytes.Equal(got, nibbles) {
			t.Errorf("compactToHex(hexToCompact(%v)) = %v, want %v", nibbles, got, nibbles)
		}
	}
}
