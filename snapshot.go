package fbpad

// SnapshotStore is the C5 screen snapshot store (spec.md §4.5): a sparse
// mapping from snapshot index to an owned copy of the full framebuffer
// surface's pixels, used for instant tag-switch restore instead of a full
// engine redraw. It is deliberately dumb — a map of []byte blobs — since
// spec.md gives it no structure beyond "indexed heap of full raw-pixel
// snapshots".
type SnapshotStore struct {
	surface *Surface
	blobs   map[int][]byte
}

// NewSnapshotStore builds a store over the given surface. capacity is a
// hint only (spec.md requires "at least 2*NTAGS distinct indices", which a
// Go map already satisfies without pre-sizing correctness, only
// performance).
func NewSnapshotStore(s *Surface, capacity int) *SnapshotStore {
	return &SnapshotStore{surface: s, blobs: make(map[int][]byte, capacity)}
}

// Snap copies the entire surface into the blob for index, allocating on
// first use (spec.md §4.5 "snap(index)").
func (st *SnapshotStore) Snap(index int) {
	mem := st.surface.Bytes()
	blob, ok := st.blobs[index]
	if !ok || len(blob) != len(mem) {
		blob = make([]byte, len(mem))
		st.blobs[index] = blob
	}
	copy(blob, mem)
}

// Load copies a previously taken snapshot back over the surface, returning
// ErrNoSnapshot if index was never snapped (spec.md §4.5 "load(index)": the
// caller falls back to a full grid redraw on this error, per spec.md §7).
func (st *SnapshotStore) Load(index int) error {
	blob, ok := st.blobs[index]
	if !ok {
		return ErrNoSnapshot
	}
	copy(st.surface.Bytes(), blob)
	return nil
}

// Has reports whether index currently has a snapshot, without the error
// allocation Load's failure path would otherwise force on every check.
func (st *SnapshotStore) Has(index int) bool {
	_, ok := st.blobs[index]
	return ok
}

// Free releases the blob for index (spec.md §4.5 "free(index)": called when
// a snapshot is consumed by a matching load, or when its owning terminal
// dies).
func (st *SnapshotStore) Free(index int) {
	delete(st.blobs, index)
}

// Done releases every blob (spec.md §4.5 "done()").
func (st *SnapshotStore) Done() {
	for k := range st.blobs {
		delete(st.blobs, k)
	}
}
