package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

// ClapDistance is the largest gap between the two inside-palm points that counts as a clap.
const ClapDistance = 0.03

// Clap is the impact of two palms.
type Clap struct {
	Transform hand.Transform `json:"transform"`
	Intensity float64        `json:"intensity"`
}

// ClapGesture detects both palms touching. It keeps no state between frames.
type ClapGesture struct{}

// NewClap creates a clap classifier.
func NewClap() *ClapGesture {
	return &ClapGesture{}
}

// Update implements Gesture.
func (g *ClapGesture) Update(frame hand.HandsFrame) (Clap, bool) {
	left, right := frame.Left, frame.Right
	if left == nil || right == nil {
		return Clap{}, false
	}

	leftPalm, ok := left.InsidePalmPosition()
	if !ok {
		return Clap{}, false
	}
	rightPalm, ok := right.InsidePalmPosition()
	if !ok {
		return Clap{}, false
	}
	if leftPalm.Sub(rightPalm).Len() > ClapDistance {
		return Clap{}, false
	}

	leftDir, leftKnuckle, ok := palmDirection(left)
	if !ok {
		return Clap{}, false
	}
	rightDir, rightKnuckle, ok := palmDirection(right)
	if !ok {
		return Clap{}, false
	}
	rotation, ok := hand.LookRotation(leftDir.Add(rightDir))
	if !ok {
		return Clap{}, false
	}

	return Clap{
		Transform: hand.Transform{
			Rotation:    rotation,
			Translation: leftKnuckle.Add(rightKnuckle).Mul(0.5),
		},
		Intensity: 1,
	}, true
}

// palmDirection returns the middle metacarpal to middle knuckle vector and the knuckle itself.
func palmDirection(h *hand.Hand) (mgl64.Vec3, mgl64.Vec3, bool) {
	metacarpal, ok := h.Position(hand.MiddleFingerMetacarpal)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	knuckle, ok := h.Position(hand.MiddleFingerKnuckle)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return knuckle.Sub(metacarpal), knuckle, true
}
