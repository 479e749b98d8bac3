package hand

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry constants, in world units (metres for most trackers).
const (
	// JointThickness is subtracted from centre-to-centre distances to approximate surface contact.
	JointThickness = 0.01
	// TipRayOffset pushes a finger ray origin just past the fingertip.
	TipRayOffset = 0.005
	// PalmInset moves the palm centre toward the inside of the hand.
	PalmInset = 0.025
)

// SyntheticPosition names a derived point that is not a tracked joint.
type SyntheticPosition int

const (
	InsidePalm SyntheticPosition = iota
)

// Ray is an origin and a unit direction.
type Ray struct {
	Origin    mgl64.Vec3 `json:"origin"`
	Direction mgl64.Vec3 `json:"direction"`
}

// Position resolves a joint's world translation.
func (h *Hand) Position(joint JointName) (mgl64.Vec3, bool) {
	if h == nil || h.Skeleton == nil {
		return mgl64.Vec3{}, false
	}
	anchorFromJoint, ok := h.Skeleton[joint]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return h.originFromAnchor().Mul4(anchorFromJoint).Col(3).Vec3(), true
}

// PositionAt resolves a synthetic position.
func (h *Hand) PositionAt(p SyntheticPosition) (mgl64.Vec3, bool) {
	switch p {
	case InsidePalm:
		return h.InsidePalmPosition()
	}
	return mgl64.Vec3{}, false
}

// DistanceBetween measures the gap between two joints, less JointThickness, floored at zero.
func (h *Hand) DistanceBetween(j1, j2 JointName) (float64, bool) {
	p1, ok := h.Position(j1)
	if !ok {
		return 0, false
	}
	p2, ok := h.Position(j2)
	if !ok {
		return 0, false
	}
	return math.Max(0, p1.Sub(p2).Len()-JointThickness), true
}

// TipVector is the ray leaving a digit's tip along its last bone.
func (h *Hand) TipVector(f Finger) (Ray, bool) {
	joints := f.Joints()
	tip, ok := h.Position(joints.Tip)
	if !ok {
		return Ray{}, false
	}
	base, ok := h.Position(joints.IntermediateTip)
	if !ok {
		return Ray{}, false
	}
	dir, ok := normalize(tip.Sub(base))
	if !ok {
		return Ray{}, false
	}
	return Ray{Origin: tip.Add(dir.Mul(TipRayOffset)), Direction: dir}, true
}

// ThumbVector is TipVector(Thumb).
func (h *Hand) ThumbVector() (Ray, bool) { return h.TipVector(Thumb) }

// IndexFingerTipVector is TipVector(IndexFinger).
func (h *Hand) IndexFingerTipVector() (Ray, bool) { return h.TipVector(IndexFinger) }

// MiddleFingerTipVector is TipVector(MiddleFinger).
func (h *Hand) MiddleFingerTipVector() (Ray, bool) { return h.TipVector(MiddleFinger) }

// RingFingerTipVector is TipVector(RingFinger).
func (h *Hand) RingFingerTipVector() (Ray, bool) { return h.TipVector(RingFinger) }

// LittleFingerTipVector is TipVector(LittleFinger).
func (h *Hand) LittleFingerTipVector() (Ray, bool) { return h.TipVector(LittleFinger) }

// InsidePalmPosition is the centre of the palm pushed PalmInset toward the palm side.
// The cross product order flips with chirality so that "inside" agrees for both hands.
func (h *Hand) InsidePalmPosition() (mgl64.Vec3, bool) {
	a, ok1 := h.Position(IndexFingerKnuckle)
	b, ok2 := h.Position(LittleFingerKnuckle)
	c, ok3 := h.Position(IndexFingerMetacarpal)
	d, ok4 := h.Position(LittleFingerMetacarpal)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return mgl64.Vec3{}, false
	}
	centre := a.Add(b).Add(c).Add(d).Mul(0.25)

	across, ok := normalize(b.Sub(c))
	if !ok {
		return mgl64.Vec3{}, false
	}
	diagonal, ok := normalize(a.Sub(d))
	if !ok {
		return mgl64.Vec3{}, false
	}

	var normal mgl64.Vec3
	switch h.Chirality {
	case Left:
		normal = across.Cross(diagonal)
	default:
		normal = diagonal.Cross(across)
	}
	inside, ok := normalize(normal)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return centre.Add(inside.Mul(PalmInset)), true
}
