package turbulence

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Keyframe is one recorded step of a random walk.
type Keyframe struct {
	Time   float64
	Offset r3.Vec
}

// walk is an append-only, time-ordered keyframe history starting at (0, 0).
type walk struct {
	frames []Keyframe
}

func newWalk() walk {
	return walk{frames: []Keyframe{{}}}
}

func (w *walk) last() Keyframe {
	return w.frames[len(w.frames)-1]
}

func (w *walk) len() int {
	return len(w.frames)
}

func (w *walk) append(k Keyframe) {
	w.frames = append(w.frames, k)
}

// at linearly interpolates the offset at t. Times outside the recorded
// range clamp to the nearest keyframe.
func (w *walk) at(t float64) r3.Vec {
	first, last := w.frames[0], w.last()
	if t <= first.Time {
		return first.Offset
	}
	if t >= last.Time {
		return last.Offset
	}

	// First keyframe strictly after t; in [1, len-1] given the checks above.
	i := sort.Search(len(w.frames), func(i int) bool { return w.frames[i].Time > t })
	a, b := w.frames[i-1], w.frames[i]
	frac := (t - a.Time) / (b.Time - a.Time)
	return r3.Add(a.Offset, r3.Scale(frac, r3.Sub(b.Offset, a.Offset)))
}

func (w *walk) snapshot() []Keyframe {
	out := make([]Keyframe, len(w.frames))
	copy(out, w.frames)
	return out
}
