package ledger

// SliceIterator iterates over entries already held in memory.
type SliceIterator struct {
	entries []Entry
	pos     int
	closed  bool
}

// NewSliceIterator returns an iterator over entries. The slice is not copied.
func NewSliceIterator(entries []Entry) *SliceIterator {
	return &SliceIterator{entries: entries, pos: -1}
}

// Next advances to the next entry.
func (it *SliceIterator) Next() bool {
	if it.closed || it.pos+1 >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

// Entry returns the current entry. Only valid after Next returned true.
func (it *SliceIterator) Entry() Entry {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return Entry{}
	}
	return it.entries[it.pos]
}

// Err always returns nil; in-memory iteration cannot fail.
func (it *SliceIterator) Err() error { return nil }

// Close releases the iterator. Further calls to Next return false.
func (it *SliceIterator) Close() error {
	it.closed = true
	it.entries = nil
	return nil
}
