package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

// DefaultFrameRate is the sampling rate assumed when converting a per-frame fist displacement
// to a velocity.
const DefaultFrameRate = 60

// Punch is a fist and its velocity in units per second.
type Punch struct {
	Velocity mgl64.Vec3 `json:"velocity"`
	Fist     hand.Fist  `json:"fist"`
}

// PunchGesture tracks one hand's fist from frame to frame.
type PunchGesture struct {
	Chirality hand.Chirality
	FrameRate float64

	// RequireHighFidelity re-emits the previous value, leaving state untouched, when the
	// tracker reports low fidelity for the hand.
	RequireHighFidelity bool

	previous    hand.Fist
	hasPrevious bool
	last        Punch
	hasLast     bool
}

// NewPunch creates a punch classifier at DefaultFrameRate.
func NewPunch(c hand.Chirality) *PunchGesture {
	return &PunchGesture{Chirality: c, FrameRate: DefaultFrameRate}
}

// Update implements Gesture.
func (g *PunchGesture) Update(frame hand.HandsFrame) (Punch, bool) {
	h := frame.Hand(g.Chirality)
	if h == nil {
		return g.reset()
	}
	if g.RequireHighFidelity && h.Fidelity == hand.FidelityLow {
		return g.last, g.hasLast
	}

	fist, ok := h.FistPose()
	if !ok {
		return g.reset()
	}

	var velocity mgl64.Vec3
	if g.hasPrevious {
		velocity = fist.Transform.Translation.Sub(g.previous.Transform.Translation).Mul(g.frameRate())
	}
	g.previous, g.hasPrevious = fist, true

	g.last = Punch{Velocity: velocity, Fist: fist}
	g.hasLast = true
	return g.last, true
}

func (g *PunchGesture) reset() (Punch, bool) {
	g.previous, g.hasPrevious = hand.Fist{}, false
	g.last, g.hasLast = Punch{}, false
	return Punch{}, false
}

func (g *PunchGesture) frameRate() float64 {
	if g.FrameRate <= 0 {
		return DefaultFrameRate
	}
	return g.FrameRate
}
