package fiber

import "github.com/san-kum/fiberlight/internal/geom"

// Straight returns a single horizontal segment starting at the origin.
func Straight(length, radius, core, cladding float64) []Segment {
	return []Segment{{
		Start:         geom.V(0, 0),
		End:           geom.V(length, 0),
		Radius:        radius,
		CoreIndex:     core,
		CladdingIndex: cladding,
	}}
}

// Polyline returns contiguous segments through the given axis points, all
// sharing one radius and one pair of indices.
func Polyline(points []geom.Vec2, radius, core, cladding float64) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		segs = append(segs, Segment{
			Start:         points[i-1],
			End:           points[i],
			Radius:        radius,
			CoreIndex:     core,
			CladdingIndex: cladding,
		})
	}
	return segs
}

// Graded returns a straight fiber split into equal-length segments whose
// core indices follow cores. The cladding index is shared.
func Graded(length, radius float64, cores []float64, cladding float64) []Segment {
	if len(cores) == 0 {
		return nil
	}
	step := length / float64(len(cores))
	segs := make([]Segment, len(cores))
	for i, n := range cores {
		segs[i] = Segment{
			Start:         geom.V(float64(i)*step, 0),
			End:           geom.V(float64(i+1)*step, 0),
			Radius:        radius,
			CoreIndex:     n,
			CladdingIndex: cladding,
		}
	}
	return segs
}
