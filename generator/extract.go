package generator

// middleDigits returns the window of digits that starts at
// floor((len(digits)-length)/2) and spans length characters, together with
// that offset.
//
// Indices follow sequence-slice rules: a negative index counts back from the
// end of digits, and both ends are clamped into [0, len(digits)]. The window
// can therefore be shorter than length, but never longer.
func middleDigits(digits string, length int) (offset int, window string) {
	offset = floorDiv(len(digits)-length, 2)

	start := clampIndex(offset, len(digits))
	end := clampIndex(offset+length, len(digits))

	if start >= end {
		return offset, ""
	}

	return offset, digits[start:end]
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}

	if i > n {
		return n
	}

	return i
}

// floorDiv rounds toward negative infinity, unlike Go's / operator.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}
