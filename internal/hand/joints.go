// Package hand provides the skeletal hand model and the pure geometry used by gesture classifiers.
package hand

import "fmt"

// Chirality identifies a left or right hand.
type Chirality string

const (
	Left  Chirality = "left"
	Right Chirality = "right"
)

// Chiralities lists both hands in a stable order.
var Chiralities = []Chirality{Left, Right}

// Valid reports whether c is one of the two known chiralities.
func (c Chirality) Valid() bool {
	return c == Left || c == Right
}

// ParseChirality converts "left"/"right" (any case of the first letter) to a Chirality.
func ParseChirality(s string) (Chirality, error) {
	switch s {
	case "left", "Left":
		return Left, nil
	case "right", "Right":
		return Right, nil
	}
	return "", fmt.Errorf("unknown chirality %q", s)
}

// Fidelity reports how confident the tracker is in a hand's joints.
type Fidelity string

const (
	// FidelityUnknown is the zero value for trackers that do not report fidelity.
	FidelityUnknown Fidelity = ""
	FidelityHigh    Fidelity = "high"
	FidelityLow     Fidelity = "low"
)

// JointName names a joint in the hand skeleton.
type JointName string

// Skeleton topology. The thumb has no metacarpal entry; the four fingers share one layout.
const (
	Wrist        JointName = "wrist"
	ForearmWrist JointName = "forearmWrist"
	ForearmArm   JointName = "forearmArm"

	ThumbKnuckle          JointName = "thumbKnuckle"
	ThumbIntermediateBase JointName = "thumbIntermediateBase"
	ThumbIntermediateTip  JointName = "thumbIntermediateTip"
	ThumbTip              JointName = "thumbTip"

	IndexFingerMetacarpal       JointName = "indexFingerMetacarpal"
	IndexFingerKnuckle          JointName = "indexFingerKnuckle"
	IndexFingerIntermediateBase JointName = "indexFingerIntermediateBase"
	IndexFingerIntermediateTip  JointName = "indexFingerIntermediateTip"
	IndexFingerTip              JointName = "indexFingerTip"

	MiddleFingerMetacarpal       JointName = "middleFingerMetacarpal"
	MiddleFingerKnuckle          JointName = "middleFingerKnuckle"
	MiddleFingerIntermediateBase JointName = "middleFingerIntermediateBase"
	MiddleFingerIntermediateTip  JointName = "middleFingerIntermediateTip"
	MiddleFingerTip              JointName = "middleFingerTip"

	RingFingerMetacarpal       JointName = "ringFingerMetacarpal"
	RingFingerKnuckle          JointName = "ringFingerKnuckle"
	RingFingerIntermediateBase JointName = "ringFingerIntermediateBase"
	RingFingerIntermediateTip  JointName = "ringFingerIntermediateTip"
	RingFingerTip              JointName = "ringFingerTip"

	LittleFingerMetacarpal       JointName = "littleFingerMetacarpal"
	LittleFingerKnuckle          JointName = "littleFingerKnuckle"
	LittleFingerIntermediateBase JointName = "littleFingerIntermediateBase"
	LittleFingerIntermediateTip  JointName = "littleFingerIntermediateTip"
	LittleFingerTip              JointName = "littleFingerTip"
)

// AllJoints lists every joint in a fixed order. Normalized pose vectors follow this order.
var AllJoints = []JointName{
	Wrist, ForearmWrist, ForearmArm,
	ThumbKnuckle, ThumbIntermediateBase, ThumbIntermediateTip, ThumbTip,
	IndexFingerMetacarpal, IndexFingerKnuckle, IndexFingerIntermediateBase, IndexFingerIntermediateTip, IndexFingerTip,
	MiddleFingerMetacarpal, MiddleFingerKnuckle, MiddleFingerIntermediateBase, MiddleFingerIntermediateTip, MiddleFingerTip,
	RingFingerMetacarpal, RingFingerKnuckle, RingFingerIntermediateBase, RingFingerIntermediateTip, RingFingerTip,
	LittleFingerMetacarpal, LittleFingerKnuckle, LittleFingerIntermediateBase, LittleFingerIntermediateTip, LittleFingerTip,
}

// Finger selects one digit for per-finger measurements.
type Finger int

const (
	Thumb Finger = iota
	IndexFinger
	MiddleFinger
	RingFinger
	LittleFinger
)

// FingerJoints groups the joints of one digit. Metacarpal is empty for the thumb.
type FingerJoints struct {
	Metacarpal       JointName
	Knuckle          JointName
	IntermediateBase JointName
	IntermediateTip  JointName
	Tip              JointName
}

var fingerJoints = map[Finger]FingerJoints{
	Thumb:        {"", ThumbKnuckle, ThumbIntermediateBase, ThumbIntermediateTip, ThumbTip},
	IndexFinger:  {IndexFingerMetacarpal, IndexFingerKnuckle, IndexFingerIntermediateBase, IndexFingerIntermediateTip, IndexFingerTip},
	MiddleFinger: {MiddleFingerMetacarpal, MiddleFingerKnuckle, MiddleFingerIntermediateBase, MiddleFingerIntermediateTip, MiddleFingerTip},
	RingFinger:   {RingFingerMetacarpal, RingFingerKnuckle, RingFingerIntermediateBase, RingFingerIntermediateTip, RingFingerTip},
	LittleFinger: {LittleFingerMetacarpal, LittleFingerKnuckle, LittleFingerIntermediateBase, LittleFingerIntermediateTip, LittleFingerTip},
}

// Joints returns the joint names making up f.
func (f Finger) Joints() FingerJoints {
	return fingerJoints[f]
}

func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case IndexFinger:
		return "index"
	case MiddleFinger:
		return "middle"
	case RingFinger:
		return "ring"
	case LittleFinger:
		return "little"
	}
	return fmt.Sprintf("finger(%d)", int(f))
}
