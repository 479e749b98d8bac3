package hand

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Hand is one tracked hand for one update: its anchor placement and the
// anchor-relative transform of every joint the tracker reported.
// A Hand is treated as immutable once delivered.
type Hand struct {
	Chirality Chirality `json:"chirality"`
	Fidelity  Fidelity  `json:"fidelity,omitempty"`

	// OriginFromAnchor places the hand anchor in the shared world frame.
	// The zero matrix is read as identity.
	OriginFromAnchor mgl64.Mat4 `json:"originFromAnchor"`

	// Skeleton maps each reported joint to its anchor-from-joint transform.
	// A nil skeleton means the tracker has the anchor but no joint data.
	Skeleton map[JointName]mgl64.Mat4 `json:"skeleton,omitempty"`
}

// NewHand creates a hand with an empty skeleton placed at originFromAnchor.
func NewHand(chirality Chirality, originFromAnchor mgl64.Mat4) *Hand {
	return &Hand{
		Chirality:        chirality,
		OriginFromAnchor: originFromAnchor,
		Skeleton:         make(map[JointName]mgl64.Mat4),
	}
}

// SetJoint records the anchor-from-joint transform of a joint.
func (h *Hand) SetJoint(name JointName, anchorFromJoint mgl64.Mat4) {
	if h.Skeleton == nil {
		h.Skeleton = make(map[JointName]mgl64.Mat4)
	}
	h.Skeleton[name] = anchorFromJoint
}

// SetJointPosition records a joint as a pure translation relative to the anchor.
func (h *Hand) SetJointPosition(name JointName, p mgl64.Vec3) {
	h.SetJoint(name, mgl64.Translate3D(p[0], p[1], p[2]))
}

// Clone returns a deep copy, so fixtures can be tweaked without aliasing the skeleton map.
func (h *Hand) Clone() *Hand {
	if h == nil {
		return nil
	}
	c := *h
	if h.Skeleton != nil {
		c.Skeleton = make(map[JointName]mgl64.Mat4, len(h.Skeleton))
		for k, v := range h.Skeleton {
			c.Skeleton[k] = v
		}
	}
	return &c
}

// AnchorTransform returns OriginFromAnchor, with the zero matrix read as identity.
func (h *Hand) AnchorTransform() mgl64.Mat4 {
	return h.originFromAnchor()
}

func (h *Hand) originFromAnchor() mgl64.Mat4 {
	if h.OriginFromAnchor == (mgl64.Mat4{}) {
		return mgl64.Ident4()
	}
	return h.OriginFromAnchor
}

// HandsFrame is the input to every classifier for one update cycle.
// Either hand may be nil when it is not tracked.
type HandsFrame struct {
	Left      *Hand     `json:"left,omitempty"`
	Right     *Hand     `json:"right,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hand returns the hand for the given chirality, or nil.
func (f HandsFrame) Hand(c Chirality) *Hand {
	switch c {
	case Left:
		return f.Left
	case Right:
		return f.Right
	}
	return nil
}

// Set files h under its own chirality. Hands with an unknown chirality are ignored.
func (f *HandsFrame) Set(h *Hand) {
	if h == nil {
		return
	}
	switch h.Chirality {
	case Left:
		f.Left = h
	case Right:
		f.Right = h
	}
}

// Clear removes the hand of the given chirality.
func (f *HandsFrame) Clear(c Chirality) {
	switch c {
	case Left:
		f.Left = nil
	case Right:
		f.Right = nil
	}
}

// Empty reports whether no hand is tracked.
func (f HandsFrame) Empty() bool {
	return f.Left == nil && f.Right == nil
}

// Validate checks that each hand sits in the slot matching its chirality.
func (f HandsFrame) Validate() error {
	if f.Left != nil && f.Left.Chirality != Left {
		return fmt.Errorf("left slot holds a %q hand", f.Left.Chirality)
	}
	if f.Right != nil && f.Right.Chirality != Right {
		return fmt.Errorf("right slot holds a %q hand", f.Right.Chirality)
	}
	return nil
}
