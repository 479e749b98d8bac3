package gesture

import "github.com/ayusman/mudra/internal/hand"

// HandPoses reports where each tracked hand's anchor is.
type HandPoses struct {
	Left     hand.Transform `json:"left"`
	Right    hand.Transform `json:"right"`
	HasLeft  bool           `json:"hasLeft"`
	HasRight bool           `json:"hasRight"`
}

// HandPosesGesture is present whenever at least one hand is tracked.
type HandPosesGesture struct{}

// NewHandPoses creates a hand pose reporter.
func NewHandPoses() *HandPosesGesture {
	return &HandPosesGesture{}
}

// Update implements Gesture.
func (g *HandPosesGesture) Update(frame hand.HandsFrame) (HandPoses, bool) {
	if frame.Empty() {
		return HandPoses{}, false
	}
	var poses HandPoses
	if frame.Left != nil {
		poses.Left = hand.TransformFromMat4(frame.Left.AnchorTransform())
		poses.HasLeft = true
	}
	if frame.Right != nil {
		poses.Right = hand.TransformFromMat4(frame.Right.AnchorTransform())
		poses.HasRight = true
	}
	return poses, true
}
