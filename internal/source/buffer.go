package source

import (
	"fmt"
	"sort"
)

// Edit is a single byte-range replacement, half-open on [Start, End).
type Edit struct {
	Start uint32
	End   uint32
	New   string
}

// Buffer is a queue of pending edits against one File's original bytes.
// It never mutates the original text; Bytes() materializes the result on
// demand. This mirrors rsc.io/rf/refactor.Buffer (a queue of edits over a
// token.Pos coordinate space) generalized to raw byte offsets since the
// target language has no token.Pos equivalent.
//
// Unlike rf's Buffer, edits here are recorded against absolute byte
// offsets into the original file (not a Pos - fileBase-relative window),
// which lets one Buffer serve an entire file regardless of how many
// distinct call sites within it are rewritten.
type Buffer struct {
	orig  []byte
	edits []Edit
}

// NewBuffer returns a Buffer over text with no pending edits. Bytes()
// called immediately returns a byte-identical copy of text, preserving
// formatting outside the edited ranges.
func NewBuffer(text []byte) *Buffer {
	return &Buffer{orig: text}
}

// Dirty reports whether any edit has been queued.
func (b *Buffer) Dirty() bool {
	return len(b.edits) > 0
}

// Edits returns the queued edits in the order they were queued. Callers must not mutate
// the returned slice.
func (b *Buffer) Edits() []Edit {
	return b.edits
}

// Replace queues replacement of orig[start:end] with new. It returns an
// error, and queues nothing, if [start,end) overlaps a previously queued
// edit — the Rewriter treats this as a signal to skip the later site; a
// skipped site never prevents other sites from being rewritten.
func (b *Buffer) Replace(start, end uint32, new string) error {
	if end < start {
		return fmt.Errorf("buffer: invalid span [%d,%d)", start, end)
	}
	if end > uint32(len(b.orig)) {
		return fmt.Errorf("buffer: span [%d,%d) out of range for %d-byte file", start, end, len(b.orig))
	}
	for _, e := range b.edits {
		if spansConflict(e.Start, e.End, start, end) {
			return fmt.Errorf("buffer: edit at [%d,%d) conflicts with existing edit at [%d,%d)", start, end, e.Start, e.End)
		}
	}
	b.edits = append(b.edits, Edit{Start: start, End: end, New: new})
	return nil
}

// Insert queues an insertion of new immediately before pos.
func (b *Buffer) Insert(pos uint32, new string) error {
	return b.Replace(pos, pos, new)
}

// Delete queues deletion of orig[start:end].
func (b *Buffer) Delete(start, end uint32) error {
	return b.Replace(start, end, "")
}

// spansConflict reports whether two half-open byte spans overlap. Two
// zero-length (insertion) spans at the same position are treated as a
// conflict too, since applying both would leave their relative order
// undefined.
func spansConflict(aStart, aEnd, bStart, bEnd uint32) bool {
	if aStart == aEnd && bStart == bEnd {
		return aStart == bStart
	}
	if aStart == aEnd {
		return bStart <= aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart <= bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// Bytes materializes the buffer: the original text with every queued edit
// applied, in source order. With no queued edits it returns a fresh copy
// of the original bytes, byte-for-byte.
func (b *Buffer) Bytes() []byte {
	if len(b.edits) == 0 {
		out := make([]byte, len(b.orig))
		copy(out, b.orig)
		return out
	}

	edits := append([]Edit(nil), b.edits...)
	sort.Slice(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })

	out := make([]byte, 0, len(b.orig))
	var cursor uint32
	for _, e := range edits {
		out = append(out, b.orig[cursor:e.Start]...)
		out = append(out, e.New...)
		cursor = e.End
	}
	out = append(out, b.orig[cursor:]...)
	return out
}
