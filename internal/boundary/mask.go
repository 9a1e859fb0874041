package boundary

import (
	"container/list"
	"image"
)

// markerMask marks pixels matching the red outline convention: a strong
// red channel dominating both green and blue.
func markerMask(img image.Image, minRed, dominance uint8) ([]bool, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := make([]bool, w*h)
	for y := range h {
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
			if r8 >= minRed && r8 > g8 && r8-g8 >= dominance && r8 > b8 && r8-b8 >= dominance {
				mask[y*w+x] = true
			}
		}
	}
	return mask, w, h
}

// inkMask marks pixels darker than the luminance threshold.
func inkMask(img image.Image, threshold uint8) ([]bool, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := make([]bool, w*h)
	for y := range h {
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Rec. 601 luma on 8-bit channels.
			lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			if uint8(lum) < threshold {
				mask[y*w+x] = true
			}
		}
	}
	return mask, w, h
}

// openHorizontal keeps only pixels that sit inside a horizontal run of
// at least kernel set pixels, which isolates long horizontal strokes.
func openHorizontal(mask []bool, w, h, kernel int) []bool {
	out := make([]bool, len(mask))
	for y := range h {
		run := 0
		for x := 0; x <= w; x++ {
			if x < w && mask[y*w+x] {
				run++
				continue
			}
			if run >= kernel {
				for i := x - run; i < x; i++ {
					out[y*w+i] = true
				}
			}
			run = 0
		}
	}
	return out
}

// openVertical keeps only pixels inside a vertical run of at least
// kernel set pixels.
func openVertical(mask []bool, w, h, kernel int) []bool {
	out := make([]bool, len(mask))
	for x := range w {
		run := 0
		for y := 0; y <= h; y++ {
			if y < h && mask[y*w+x] {
				run++
				continue
			}
			if run >= kernel {
				for i := y - run; i < y; i++ {
					out[i*w+x] = true
				}
			}
			run = 0
		}
	}
	return out
}

// unionMask ORs two masks of equal size.
func unionMask(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] || b[i]
	}
	return out
}

// compStats holds the axis-aligned extent of a connected component.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// connectedComponents finds 8-connected components in the mask and
// returns their bounding extents. 8-connectivity keeps slightly skewed
// outlines (up to the tolerated scan rotation) in one component.
func connectedComponents(mask []bool, w, h int) []compStats {
	visited := make([]bool, w*h)
	var comps []compStats
	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] && !visited[idx] {
				comps = append(comps, componentBFS(mask, visited, w, h, x, y))
			}
		}
	}
	return comps
}

// componentBFS traverses one component from a seed pixel.
func componentBFS(mask []bool, visited []bool, w, h, startX, startY int) compStats {
	st := compStats{minX: startX, minY: startY, maxX: startX, maxY: startY}
	q := list.New()
	start := startY*w + startX
	visited[start] = true
	q.PushBack(start)

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := cx+dx, cy+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask[ni] && !visited[ni] {
					visited[ni] = true
					q.PushBack(ni)
				}
			}
		}
	}
	return st
}

// largestComponent returns the component with the largest bounding-box
// area, or ok=false when there are none.
func largestComponent(comps []compStats) (compStats, bool) {
	if len(comps) == 0 {
		return compStats{}, false
	}
	best := comps[0]
	bestArea := (best.maxX - best.minX + 1) * (best.maxY - best.minY + 1)
	for _, c := range comps[1:] {
		area := (c.maxX - c.minX + 1) * (c.maxY - c.minY + 1)
		if area > bestArea {
			best, bestArea = c, area
		}
	}
	return best, true
}
