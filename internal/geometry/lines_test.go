package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentClassify(t *testing.T) {
	tests := []struct {
		name   string
		seg    Segment
		orient Orientation
		ok     bool
	}{
		{"flat horizontal", Segment{0, 10, 500, 10}, Horizontal, true},
		{"slightly skewed horizontal", Segment{0, 10, 500, 14}, Horizontal, true},
		{"vertical", Segment{30, 0, 30, 400}, Vertical, true},
		{"slightly skewed vertical", Segment{30, 0, 34, 400}, Vertical, true},
		{"diagonal rejected", Segment{0, 0, 100, 100}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok := tt.seg.Classify(0.05)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.orient, o)
			}
		})
	}
}

func TestMergeCollinear(t *testing.T) {
	// Two fragments of the same horizontal line plus one distinct line.
	segs := []Segment{
		{0, 100, 300, 100},
		{320, 101, 700, 101},
		{0, 200, 700, 200},
	}
	lines := MergeCollinear(segs, Horizontal, 3)
	require.Len(t, lines, 2)
	require.Equal(t, 100, lines[0].Pos)
	require.Equal(t, 0, lines[0].Start)
	require.Equal(t, 700, lines[0].End)
	require.Equal(t, 200, lines[1].Pos)
}

func TestMergeCollinearVertical(t *testing.T) {
	segs := []Segment{
		{50, 0, 50, 200},
		{51, 210, 51, 400},
	}
	lines := MergeCollinear(segs, Vertical, 2)
	require.Len(t, lines, 1)
	require.Equal(t, 0, lines[0].Start)
	require.Equal(t, 400, lines[0].End)
}

func TestFilterBySpan(t *testing.T) {
	lines := []Line{
		{Pos: 10, Start: 0, End: 960},  // 96% of 1000
		{Pos: 20, Start: 0, End: 949},  // 94.9%
		{Pos: 30, Start: 20, End: 980}, // 96%
	}
	kept := FilterBySpan(lines, 1000, 0.95)
	require.Len(t, kept, 2)
	for _, l := range kept {
		require.GreaterOrEqual(t, float64(l.Span())/1000.0, 0.95)
	}
	require.Empty(t, FilterBySpan(lines, 0, 0.95))
}

func TestDedupeLines(t *testing.T) {
	lines := []Line{
		{Pos: 102, Start: 0, End: 500},
		{Pos: 100, Start: 10, End: 520},
		{Pos: 300, Start: 0, End: 500},
	}
	out := DedupeLines(lines, 4)
	require.Len(t, out, 2)
	// Midpoint of the coincident pair, widest span retained.
	require.Equal(t, 101, out[0].Pos)
	require.Equal(t, 0, out[0].Start)
	require.Equal(t, 520, out[0].End)
	require.Equal(t, 300, out[1].Pos)
}

func TestPositions(t *testing.T) {
	require.Equal(t, []int{5, 9}, Positions([]Line{{Pos: 5}, {Pos: 9}}))
	require.Empty(t, Positions(nil))
}
