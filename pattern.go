package groove

// Notes of a Pattern. Any other value is the key of a new note.
const (
	NoteRelease byte = 0 // release the sounding note
	NoteHold    byte = 1 // keep the sounding note, or the silence
)

// Pattern is one pattern of notes, one byte per row. Rows past the end of
// the slice hold, and Set grows the slice by filling with holds.
type Pattern []byte

// Get returns the note at index; or NoteHold if the index is out of range
func (s Pattern) Get(index int) byte {
	if index < 0 || index >= len(s) {
		return NoteHold
	}
	return s[index]
}

// Set sets the note at index, appending holds until the slice is long
// enough.
func (s *Pattern) Set(index int, value byte) {
	for len(*s) <= index {
		*s = append(*s, NoteHold)
	}
	(*s)[index] = value
}
