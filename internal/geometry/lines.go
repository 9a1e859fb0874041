package geometry

import (
	"math"
	"sort"
)

// Orientation classifies a line segment as horizontal or vertical.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Segment is a raw detected line segment in ROI-relative pixel coordinates.
type Segment struct {
	X1, Y1 int
	X2, Y2 int
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	dx := float64(s.X2 - s.X1)
	dy := float64(s.Y2 - s.Y1)
	return math.Hypot(dx, dy)
}

// Classify buckets a segment as horizontal or vertical using the given
// slope tolerance (maximum cross-axis drift in pixels per axis pixel).
// Segments steeper than the tolerance in both directions report ok=false.
func (s Segment) Classify(slopeTol float64) (Orientation, bool) {
	dx := math.Abs(float64(s.X2 - s.X1))
	dy := math.Abs(float64(s.Y2 - s.Y1))
	switch {
	case dx >= dy && dx > 0 && dy/dx <= slopeTol:
		return Horizontal, true
	case dy > dx && dx/dy <= slopeTol:
		return Vertical, true
	default:
		return 0, false
	}
}

// Line is a merged logical grid line. Pos is the cross-axis coordinate
// (y for horizontal lines, x for vertical), Start/End delimit the span
// along the line's own axis. Coordinates are ROI-relative.
type Line struct {
	Pos   int `json:"pos"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Span returns the covered extent of the line along its axis.
func (l Line) Span() int { return l.End - l.Start }

// MergeCollinear merges segments of one orientation into logical lines.
// Segments whose cross-axis positions fall within posTol pixels of each
// other are treated as fragments of the same line; their spans are
// unioned and the resulting position is the mean of the fragments.
func MergeCollinear(segs []Segment, orient Orientation, posTol int) []Line {
	if len(segs) == 0 {
		return nil
	}
	type frag struct {
		pos        int
		start, end int
	}
	frags := make([]frag, 0, len(segs))
	for _, s := range segs {
		var f frag
		if orient == Horizontal {
			f = frag{pos: (s.Y1 + s.Y2) / 2, start: min(s.X1, s.X2), end: max(s.X1, s.X2)}
		} else {
			f = frag{pos: (s.X1 + s.X2) / 2, start: min(s.Y1, s.Y2), end: max(s.Y1, s.Y2)}
		}
		frags = append(frags, f)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].pos < frags[j].pos })

	var out []Line
	group := []frag{frags[0]}
	flush := func() {
		sum, start, end := 0, group[0].start, group[0].end
		for _, f := range group {
			sum += f.pos
			if f.start < start {
				start = f.start
			}
			if f.end > end {
				end = f.end
			}
		}
		out = append(out, Line{Pos: sum / len(group), Start: start, End: end})
	}
	for _, f := range frags[1:] {
		if f.pos-group[len(group)-1].pos <= posTol {
			group = append(group, f)
			continue
		}
		flush()
		group = []frag{f}
	}
	flush()
	return out
}

// FilterBySpan keeps only lines whose span covers at least minRatio of
// the given dimension. This is the structural-line precision guarantee:
// short strokes from text and noise never qualify.
func FilterBySpan(lines []Line, dimension int, minRatio float64) []Line {
	if dimension <= 0 {
		return nil
	}
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if float64(l.Span())/float64(dimension) >= minRatio {
			out = append(out, l)
		}
	}
	return out
}

// DedupeLines merges near-coincident lines (positions within tol pixels)
// into one line at their midpoint, keeping the widest span. Input need
// not be sorted; output is sorted by position ascending.
func DedupeLines(lines []Line, tol int) []Line {
	if len(lines) == 0 {
		return nil
	}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })

	out := []Line{sorted[0]}
	for _, l := range sorted[1:] {
		last := &out[len(out)-1]
		if l.Pos-last.Pos <= tol {
			last.Pos = (last.Pos + l.Pos) / 2
			if l.Start < last.Start {
				last.Start = l.Start
			}
			if l.End > last.End {
				last.End = l.End
			}
			continue
		}
		out = append(out, l)
	}
	return out
}

// Positions extracts the cross-axis coordinates of the given lines.
func Positions(lines []Line) []int {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = l.Pos
	}
	return out
}
