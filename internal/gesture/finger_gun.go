package gesture

import "github.com/ayusman/mudra/internal/hand"

// ThumbDownThreshold is the index/thumb alignment above which the trigger counts as pulled.
const ThumbDownThreshold = 0.7

// FingerGun is an aim ray along the index finger plus the trigger state.
type FingerGun struct {
	Aim       hand.Transform `json:"aim"`
	ThumbDown bool           `json:"thumbDown"`
}

// FingerGunGesture aims with one hand's index finger.
type FingerGunGesture struct {
	Chirality hand.Chirality
}

// NewFingerGun creates a finger gun classifier for the given hand.
func NewFingerGun(c hand.Chirality) *FingerGunGesture {
	return &FingerGunGesture{Chirality: c}
}

// Update implements Gesture.
func (g *FingerGunGesture) Update(frame hand.HandsFrame) (FingerGun, bool) {
	h := frame.Hand(g.Chirality)
	if h == nil {
		return FingerGun{}, false
	}
	index, ok := h.IndexFingerTipVector()
	if !ok {
		return FingerGun{}, false
	}
	thumb, ok := h.ThumbVector()
	if !ok {
		return FingerGun{}, false
	}
	rotation, ok := hand.LookRotation(index.Direction)
	if !ok {
		return FingerGun{}, false
	}

	return FingerGun{
		Aim:       hand.Transform{Rotation: rotation, Translation: index.Origin},
		ThumbDown: index.Direction.Dot(thumb.Direction) > ThumbDownThreshold,
	}, true
}
