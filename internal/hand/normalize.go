package hand

import "github.com/go-gl/mathgl/mgl64"

// minNormalizeScale guards the wrist-to-middle-knuckle division.
const minNormalizeScale = 1e-10

// Normalize returns the world positions of AllJoints relative to the wrist, scaled so that the
// wrist to middle knuckle distance is 1.0. Pose templates compare hands in this space.
// It fails if any joint is missing. A zero-length scale leaves the points translated only.
func (h *Hand) Normalize() ([]mgl64.Vec3, bool) {
	wrist, ok := h.Position(Wrist)
	if !ok {
		return nil, false
	}

	points := make([]mgl64.Vec3, len(AllJoints))
	for i, j := range AllJoints {
		p, ok := h.Position(j)
		if !ok {
			return nil, false
		}
		points[i] = p.Sub(wrist)
	}

	middle, _ := h.Position(MiddleFingerKnuckle)
	scale := middle.Sub(wrist).Len()
	if scale < minNormalizeScale {
		return points, true
	}

	for i := range points {
		points[i] = points[i].Mul(1 / scale)
	}
	return points, true
}
