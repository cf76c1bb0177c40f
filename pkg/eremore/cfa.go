package eremore

import (
	"fmt"
	"strings"
)

// CFAOffset is a (row, col) position inside the repeating 2x2 Bayer tile.
type CFAOffset struct {
	Row, Col int
}

func (o CFAOffset) String() string { return fmt.Sprintf("%d%d", o.Row, o.Col) }

// CFAPattern describes where each colour is sampled inside the 2x2 tile.
// GreenCol[i] is the green column on rows with parity i.
type CFAPattern struct {
	Blue     CFAOffset
	Red      CFAOffset
	GreenCol [2]int
}

// cfaTable covers every rotation of the canonical RGGB tile, keyed by blue position.
var cfaTable = map[CFAOffset]CFAPattern{
	{0, 0}: {Blue: CFAOffset{0, 0}, Red: CFAOffset{1, 1}, GreenCol: [2]int{1, 0}},
	{0, 1}: {Blue: CFAOffset{0, 1}, Red: CFAOffset{1, 0}, GreenCol: [2]int{0, 1}},
	{1, 0}: {Blue: CFAOffset{1, 0}, Red: CFAOffset{0, 1}, GreenCol: [2]int{0, 1}},
	{1, 1}: {Blue: CFAOffset{1, 1}, Red: CFAOffset{0, 0}, GreenCol: [2]int{1, 0}},
}

// bayerNames maps the tile spelled row by row to its blue position.
var bayerNames = map[string]CFAOffset{
	"BGGR": {0, 0},
	"GBRG": {0, 1},
	"GRBG": {1, 0},
	"RGGB": {1, 1},
}

// NewCFAPattern derives the red and green positions from the blue one.
func NewCFAPattern(blue CFAOffset) (CFAPattern, error) {
	p, ok := cfaTable[blue]
	if !ok {
		return CFAPattern{}, fmt.Errorf("%w: blue location (%d,%d)", ErrInvalidCFAPattern, blue.Row, blue.Col)
	}
	return p, nil
}

// ParseCFAOffset accepts "00", "01", "10", "11" or a Bayer name such as "RGGB".
func ParseCFAOffset(s string) (CFAOffset, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if o, ok := bayerNames[s]; ok {
		return o, nil
	}
	if len(s) == 2 && (s[0] == '0' || s[0] == '1') && (s[1] == '0' || s[1] == '1') {
		return CFAOffset{Row: int(s[0] - '0'), Col: int(s[1] - '0')}, nil
	}
	return CFAOffset{}, fmt.Errorf("%w: %q", ErrInvalidCFAPattern, s)
}

// Channel returns the colour sampled at mosaic position (r, c).
func (p CFAPattern) Channel(r, c int) int {
	switch {
	case r%2 == p.Red.Row && c%2 == p.Red.Col:
		return Red
	case r%2 == p.Blue.Row && c%2 == p.Blue.Col:
		return Blue
	default:
		return Green
	}
}

// BayerName spells the tile row by row, e.g. "RGGB".
func (p CFAPattern) BayerName() string {
	letters := [3]byte{'R', 'G', 'B'}
	var sb strings.Builder
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			sb.WriteByte(letters[p.Channel(r, c)])
		}
	}
	return sb.String()
}

// nativeIndex returns the index of the native sample sharing i's tile, where
// the native sample sits at offset loc. A trailing odd edge borrows from the
// previous tile; -1 means the axis has no native sample at all.
func nativeIndex(i, loc, n int) int {
	j := i - i%2 + loc
	if j >= n {
		j -= 2
	}
	if j < 0 {
		return -1
	}
	return j
}
