// Package layout holds the card layout arithmetic in one place. The
// thresholds come from configuration; the functions are pure.
package layout

// FitColumns returns how many cards of at least minCardWidth fit side by
// side in available width with the given spacing, clamped to 1..maxColumns.
func FitColumns(available, spacing, minCardWidth, maxColumns int) int {
	if maxColumns < 1 {
		maxColumns = 1
	}
	cols := 1
	for c := maxColumns; c > 1; c-- {
		if CardWidth(available, spacing, c) >= minCardWidth {
			cols = c
			break
		}
	}
	return cols
}

// CardWidth returns the width of each card when available width is divided
// into columns with spacing between them. A single column always takes the
// full available width.
func CardWidth(available, spacing, columns int) int {
	if columns <= 1 {
		return available
	}
	w := (available - spacing*(columns-1)) / columns
	if w < 0 {
		return 0
	}
	return w
}
