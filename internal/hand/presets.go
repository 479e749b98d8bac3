package hand

import "github.com/go-gl/mathgl/mgl64"

// Preset hands for tests, demos and replays. Positions are given for a right hand in anchor
// space: fingers along +Y, palm facing +Z, index finger toward +X. Left hands mirror X,
// which keeps the inside of the palm on +Z for both.

var openRight = map[JointName]mgl64.Vec3{
	Wrist:        {0, 0, 0},
	ForearmWrist: {0, -0.01, 0},
	ForearmArm:   {0, -0.2, 0},

	ThumbKnuckle:          {0.04, 0.02, 0},
	ThumbIntermediateBase: {0.06, 0.04, 0},
	ThumbIntermediateTip:  {0.075, 0.06, 0},
	ThumbTip:              {0.085, 0.08, 0},

	IndexFingerMetacarpal:       {0.025, 0.03, 0},
	IndexFingerKnuckle:          {0.03, 0.09, 0},
	IndexFingerIntermediateBase: {0.03, 0.13, 0},
	IndexFingerIntermediateTip:  {0.03, 0.155, 0},
	IndexFingerTip:              {0.03, 0.175, 0},

	MiddleFingerMetacarpal:       {0.003, 0.03, 0},
	MiddleFingerKnuckle:          {0.005, 0.095, 0},
	MiddleFingerIntermediateBase: {0.005, 0.14, 0},
	MiddleFingerIntermediateTip:  {0.005, 0.17, 0},
	MiddleFingerTip:              {0.005, 0.19, 0},

	RingFingerMetacarpal:       {-0.01, 0.03, 0},
	RingFingerKnuckle:          {-0.015, 0.09, 0},
	RingFingerIntermediateBase: {-0.015, 0.13, 0},
	RingFingerIntermediateTip:  {-0.015, 0.155, 0},
	RingFingerTip:              {-0.015, 0.175, 0},

	LittleFingerMetacarpal:       {-0.02, 0.03, 0},
	LittleFingerKnuckle:          {-0.03, 0.08, 0},
	LittleFingerIntermediateBase: {-0.03, 0.11, 0},
	LittleFingerIntermediateTip:  {-0.03, 0.13, 0},
	LittleFingerTip:              {-0.03, 0.145, 0},
}

// curl bends a finger's last three joints toward the palm.
func curl(joints map[JointName]mgl64.Vec3, f Finger) {
	fj := f.Joints()
	k := joints[fj.Knuckle]
	joints[fj.IntermediateBase] = k.Add(mgl64.Vec3{0, -0.005, 0.035})
	joints[fj.IntermediateTip] = k.Add(mgl64.Vec3{0, -0.03, 0.03})
	joints[fj.Tip] = k.Add(mgl64.Vec3{0, -0.04, 0.01})
}

func copyJoints(src map[JointName]mgl64.Vec3) map[JointName]mgl64.Vec3 {
	dst := make(map[JointName]mgl64.Vec3, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func build(c Chirality, originFromAnchor mgl64.Mat4, joints map[JointName]mgl64.Vec3) *Hand {
	h := NewHand(c, originFromAnchor)
	h.Fidelity = FidelityHigh
	for name, p := range joints {
		if c == Left {
			p[0] = -p[0]
		}
		h.SetJointPosition(name, p)
	}
	return h
}

// OpenHand returns a flat hand with all fingers extended.
func OpenHand(c Chirality, originFromAnchor mgl64.Mat4) *Hand {
	return build(c, originFromAnchor, openRight)
}

// FistHand returns a hand with all four fingers curled and the thumb folded across them.
func FistHand(c Chirality, originFromAnchor mgl64.Mat4) *Hand {
	joints := copyJoints(openRight)
	for _, f := range curledFingers {
		curl(joints, f)
	}
	joints[ThumbIntermediateBase] = mgl64.Vec3{0.04, 0.05, 0.03}
	joints[ThumbIntermediateTip] = mgl64.Vec3{0.025, 0.07, 0.04}
	joints[ThumbTip] = mgl64.Vec3{0.01, 0.08, 0.04}
	return build(c, originFromAnchor, joints)
}

// PreSnapHand returns a hand with the middle fingertip pressed against the thumb tip.
func PreSnapHand(c Chirality, originFromAnchor mgl64.Mat4) *Hand {
	joints := copyJoints(openRight)
	joints[MiddleFingerIntermediateTip] = mgl64.Vec3{0.065, 0.1, 0.015}
	joints[MiddleFingerTip] = mgl64.Vec3{0.08, 0.085, 0.01}
	return build(c, originFromAnchor, joints)
}

// PostSnapHand returns a hand whose middle finger has struck the base of the palm.
func PostSnapHand(c Chirality, originFromAnchor mgl64.Mat4) *Hand {
	joints := copyJoints(openRight)
	joints[MiddleFingerIntermediateTip] = mgl64.Vec3{0.025, 0.06, 0.025}
	joints[MiddleFingerTip] = mgl64.Vec3{0.03, 0.035, 0.015}
	return build(c, originFromAnchor, joints)
}

// AmbiguousSnapHand satisfies the pre-snap and post-snap tests at the same time.
func AmbiguousSnapHand(c Chirality, originFromAnchor mgl64.Mat4) *Hand {
	joints := copyJoints(openRight)
	joints[MiddleFingerIntermediateTip] = mgl64.Vec3{0.065, 0.1, 0.015}
	joints[MiddleFingerTip] = mgl64.Vec3{0.08, 0.085, 0.01}
	joints[ThumbKnuckle] = mgl64.Vec3{0.07, 0.09, 0.01}
	return build(c, originFromAnchor, joints)
}

// FingerGunHand returns an extended index finger with the other fingers curled.
// With triggerPulled the thumb lies along the index finger, otherwise it points out of the palm.
func FingerGunHand(c Chirality, originFromAnchor mgl64.Mat4, triggerPulled bool) *Hand {
	joints := copyJoints(openRight)
	curl(joints, MiddleFinger)
	curl(joints, RingFinger)
	curl(joints, LittleFinger)
	if triggerPulled {
		joints[ThumbIntermediateTip] = mgl64.Vec3{0.045, 0.05, 0.01}
		joints[ThumbTip] = mgl64.Vec3{0.045, 0.075, 0.01}
	} else {
		joints[ThumbIntermediateTip] = mgl64.Vec3{0.05, 0.05, 0.02}
		joints[ThumbTip] = mgl64.Vec3{0.05, 0.05, 0.045}
	}
	return build(c, originFromAnchor, joints)
}

// SphereHand returns a cupped hand whose middle knuckle, thumb tip, index tip and little tip lie
// on a sphere of the given radius centred radius units in front of the middle knuckle.
func SphereHand(c Chirality, originFromAnchor mgl64.Mat4, radius float64) *Hand {
	joints := copyJoints(openRight)
	centre := joints[MiddleFingerKnuckle].Add(mgl64.Vec3{0, 0, radius})
	joints[ThumbTip] = centre.Add(mgl64.Vec3{radius, 0, 0})
	joints[IndexFingerTip] = centre.Add(mgl64.Vec3{0, radius, 0})
	joints[LittleFingerTip] = centre.Add(mgl64.Vec3{-radius, 0, 0})
	return build(c, originFromAnchor, joints)
}

// FacingAway returns an anchor transform that turns a hand half way round the Y axis
// (palm toward -Z) and moves it to offset. Used to face a left hand toward a right hand.
func FacingAway(offset mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(offset[0], offset[1], offset[2]).Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(180)))
}
