package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies as much of src as fits into dst and returns the count.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}
