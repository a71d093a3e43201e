package mcu

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// packageCountRe pulls the trailing pin-count digits out of a package tag
// like "LQFP64" or "BGA100".
var packageCountRe = regexp.MustCompile(`(\d+)$`)

// isBallGrid reports whether the package tag names a grid-array package
// (BGA, WLCSP, ...) rather than a quad-flat one (LQFP, TQFP, ...).
func isBallGrid(pkg string) bool {
	pkg = strings.ToUpper(pkg)
	return strings.Contains(pkg, "BGA") || strings.Contains(pkg, "WLCSP") || strings.Contains(pkg, "CSP")
}

// packagePinCount parses the total pin count from a package tag such as
// "LQFP64"; it returns 0 if none is found.
func packagePinCount(pkg string) int {
	m := packageCountRe.FindStringSubmatch(pkg)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// gridRowCol parses a ball-grid position like "A1" or "AB12" into a
// (row, col) pair, row = letter block - 'A', col = the numeric suffix.
func gridRowCol(pos string) (row, col int, ok bool) {
	i := 0
	for i < len(pos) && pos[i] >= 'A' && pos[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(pos) {
		return 0, 0, false
	}
	n, err := strconv.Atoi(pos[i:])
	if err != nil {
		return 0, 0, false
	}
	row = 0
	for _, c := range pos[:i] {
		row = row*26 + int(c-'A'+1)
	}
	return row - 1, n, true
}

// PinDistance computes the physical distance between two pins of this
// package, used by the pin_proximity cost function and S5's incremental
// ordering estimate (spec.md §4.9, §4.8 S5): circular distance
// around the package for quad-flat packages, Euclidean row/col distance for
// ball-grid ones.
func (m *Mcu) PinDistance(a, b *Pin) float64 {
	if isBallGrid(m.Package) {
		ar, ac, aok := gridRowCol(a.Position)
		br, bc, bok := gridRowCol(b.Position)
		if !aok || !bok {
			return 0
		}
		dr := float64(ar - br)
		dc := float64(ac - bc)
		return math.Sqrt(dr*dr + dc*dc)
	}

	total := packagePinCount(m.Package)
	an, aerr := strconv.Atoi(a.Position)
	bn, berr := strconv.Atoi(b.Position)
	if aerr != nil || berr != nil {
		return 0
	}
	diff := an - bn
	if diff < 0 {
		diff = -diff
	}
	if total > 0 {
		wrap := total - diff
		if wrap < diff {
			diff = wrap
		}
	}
	return float64(diff)
}
