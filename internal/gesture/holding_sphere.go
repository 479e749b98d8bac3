package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/hand"
)

// HoldingSphere is the ball a cupped hand could be holding.
type HoldingSphere struct {
	Sphere    hand.Sphere    `json:"sphere"`
	Chirality hand.Chirality `json:"chirality"`
}

// HoldingSphereGesture fits a sphere inside one hand and gates it by radius.
type HoldingSphereGesture struct {
	Chirality     hand.Chirality
	MinimumRadius float64
	MaximumRadius float64
}

// NewHoldingSphere creates a classifier accepting any positive radius.
func NewHoldingSphere(c hand.Chirality) *HoldingSphereGesture {
	return &HoldingSphereGesture{
		Chirality:     c,
		MinimumRadius: 0,
		MaximumRadius: math.Inf(1),
	}
}

// Update implements Gesture.
func (g *HoldingSphereGesture) Update(frame hand.HandsFrame) (HoldingSphere, bool) {
	h := frame.Hand(g.Chirality)
	if h == nil {
		return HoldingSphere{}, false
	}
	sphere, ok := h.InsideSphere()
	if !ok {
		return HoldingSphere{}, false
	}
	if sphere.Radius < g.MinimumRadius || sphere.Radius > g.MaximumRadius {
		return HoldingSphere{}, false
	}
	return HoldingSphere{Sphere: sphere, Chirality: g.Chirality}, true
}
