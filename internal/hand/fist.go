package hand

// CurlThreshold is the largest palm/finger alignment still counted as a curled finger.
const CurlThreshold = 0.3

// Fist is a closed hand: rotation along the palm direction, translation at the middle knuckle.
type Fist struct {
	Transform Transform `json:"transform"`
}

var curledFingers = []Finger{IndexFinger, MiddleFinger, RingFinger, LittleFinger}

// FistPose detects a fist. Every finger's first bone (knuckle to intermediate base) must
// bend away from the palm direction (middle metacarpal to middle knuckle).
func (h *Hand) FistPose() (Fist, bool) {
	metacarpal, ok := h.Position(MiddleFingerMetacarpal)
	if !ok {
		return Fist{}, false
	}
	knuckle, ok := h.Position(MiddleFingerKnuckle)
	if !ok {
		return Fist{}, false
	}
	palm, ok := normalize(knuckle.Sub(metacarpal))
	if !ok {
		return Fist{}, false
	}

	for _, f := range curledFingers {
		joints := f.Joints()
		k, ok := h.Position(joints.Knuckle)
		if !ok {
			return Fist{}, false
		}
		mid, ok := h.Position(joints.IntermediateBase)
		if !ok {
			return Fist{}, false
		}
		dir, ok := normalize(mid.Sub(k))
		if !ok {
			return Fist{}, false
		}
		if palm.Dot(dir) > CurlThreshold {
			return Fist{}, false
		}
	}

	rotation, ok := LookRotation(palm)
	if !ok {
		return Fist{}, false
	}
	return Fist{Transform: Transform{Rotation: rotation, Translation: knuckle}}, true
}
