package pathway

import (
	"fmt"
	"math"
)

// Scale is the shared symmetric color scale for a whole overlay run. Values
// in [-Bound, +Bound] are split into 2*Bound bins, green for repressed genes
// through white to red for induced ones.
type Scale struct {
	Bound int
}

// Bins reports the number of color bins.
func (s Scale) Bins() int {
	return 2 * s.Bound
}

// Color maps an expression value to a hex background color. Values beyond
// the bound clamp to the outermost bin.
func (s Scale) Color(v float64) string {
	if s.Bound == 0 {
		return "#FFFFFF"
	}
	b := float64(s.Bound)
	t := math.Max(-1, math.Min(1, v/b))
	var r, g, bl int
	if t < 0 {
		// white -> green
		r = int(math.Round(255 * (1 + t)))
		g = 255
		bl = r
	} else {
		// white -> red
		r = 255
		g = int(math.Round(255 * (1 - t)))
		bl = g
	}
	return fmt.Sprintf("#%02X%02X%02X", r, g, bl)
}

// Colors maps every gene in col to its bin color.
func (s Scale) Colors(col map[int]float64) map[int]string {
	out := make(map[int]string, len(col))
	for id, v := range col {
		out[id] = s.Color(s.binned(v))
	}
	return out
}

// binned snaps a value to the center of its bin so that equal bins render
// with identical colors.
func (s Scale) binned(v float64) float64 {
	if s.Bound == 0 {
		return 0
	}
	b := float64(s.Bound)
	width := 2 * b / float64(s.Bins())
	idx := math.Floor((math.Max(-b, math.Min(b-1e-9, v)) + b) / width)
	return -b + width*(idx+0.5)
}
