package ui

import (
	"strconv"
	"strings"
)

// vscreen replays renderer output into a cell grid. It understands cursor
// positioning and erase-display; SGR and any other CSI sequence is ignored.
type vscreen struct {
	cells [][]rune
}

func newVScreen(out string, width, height int) *vscreen {
	v := &vscreen{cells: make([][]rune, height)}
	v.erase(width)

	x, y := 0, 0
	rs := []rune(out)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\x1b' && i+1 < len(rs) && rs[i+1] == '[' {
			j := i + 2
			for j < len(rs) && (rs[j] < 0x40 || rs[j] > 0x7e) {
				j++
			}
			if j >= len(rs) {
				break
			}
			params := string(rs[i+2 : j])
			switch rs[j] {
			case 'H':
				row, col := 1, 1
				if parts := strings.SplitN(params, ";", 2); len(parts) == 2 {
					row, _ = strconv.Atoi(parts[0])
					col, _ = strconv.Atoi(parts[1])
				}
				x, y = col-1, row-1
			case 'J':
				v.erase(width)
			}
			i = j
			continue
		}
		if y >= 0 && y < height && x >= 0 && x < width {
			v.cells[y][x] = r
		}
		x++
	}
	return v
}

func (v *vscreen) erase(width int) {
	for y := range v.cells {
		v.cells[y] = []rune(strings.Repeat(" ", width))
	}
}

// row returns row y without trailing blanks.
func (v *vscreen) row(y int) string {
	return strings.TrimRight(string(v.cells[y]), " ")
}

// at returns the cell at (x, y).
func (v *vscreen) at(x, y int) string { return string(v.cells[y][x]) }

// find returns the first row containing s, or -1.
func (v *vscreen) find(s string) int {
	for y := range v.cells {
		if strings.Contains(string(v.cells[y]), s) {
			return y
		}
	}
	return -1
}

// count returns how many rows contain s.
func (v *vscreen) count(s string) int {
	n := 0
	for y := range v.cells {
		if strings.Contains(string(v.cells[y]), s) {
			n++
		}
	}
	return n
}

// col returns the cell column where s starts on row y, or -1.
func (v *vscreen) col(y int, s string) int {
	i := strings.Index(string(v.cells[y]), s)
	if i < 0 {
		return -1
	}
	return len([]rune(string(v.cells[y])[:i]))
}
