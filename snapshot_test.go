package fbpad

import "testing"

func TestSnapshotStoreSnapAndLoad(t *testing.T) {
	s := &Surface{mem: make([]byte, 16)}
	st := NewSnapshotStore(s, 4)

	for i := range s.mem {
		s.mem[i] = byte(i)
	}
	st.Snap(1)

	for i := range s.mem {
		s.mem[i] = 0
	}
	if err := st.Load(1); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, b := range s.mem {
		if b != byte(i) {
			t.Fatalf("byte %d = %d, want %d after restore", i, b, byte(i))
		}
	}
}

func TestSnapshotStoreLoadMissingReturnsErr(t *testing.T) {
	s := &Surface{mem: make([]byte, 4)}
	st := NewSnapshotStore(s, 4)
	if err := st.Load(9); err != ErrNoSnapshot {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}
}

func TestSnapshotStoreHasAndFree(t *testing.T) {
	s := &Surface{mem: make([]byte, 4)}
	st := NewSnapshotStore(s, 4)
	if st.Has(0) {
		t.Fatal("expected no snapshot at 0 before Snap")
	}
	st.Snap(0)
	if !st.Has(0) {
		t.Fatal("expected snapshot at 0 after Snap")
	}
	st.Free(0)
	if st.Has(0) {
		t.Fatal("expected snapshot freed")
	}
}

func TestSnapshotStoreDone(t *testing.T) {
	s := &Surface{mem: make([]byte, 4)}
	st := NewSnapshotStore(s, 4)
	st.Snap(0)
	st.Snap(1)
	st.Done()
	if st.Has(0) || st.Has(1) {
		t.Fatal("Done should clear every snapshot")
	}
}
