package groove

// Order is the play order of the patterns of a Score. Get returns -1 for
// indices out of range, and Set grows the slice only as much as needed,
// filling the new slots with -1.
type Order []int

// Get returns the pattern index at index; or -1 if the index is out of range
func (s Order) Get(index int) int {
	if index < 0 || index >= len(s) {
		return -1
	}
	return s[index]
}

// Set sets the value at index, appending -1s until the slice is long enough.
func (s *Order) Set(index, value int) {
	for len(*s) <= index {
		*s = append(*s, -1)
	}
	(*s)[index] = value
}
