// Package gesture turns per-frame hand geometry into discrete gesture values.
//
// Every classifier implements Gesture for its own comparable value type. A classifier owns
// its state and must be fed frames one at a time in timestamp order; it performs no I/O.
package gesture

import "github.com/ayusman/mudra/internal/hand"

// Gesture classifies one HandsFrame. The boolean is false when the gesture has no value
// for this frame.
type Gesture[V comparable] interface {
	Update(frame hand.HandsFrame) (V, bool)
}

// Func adapts a plain function to Gesture.
type Func[V comparable] func(frame hand.HandsFrame) (V, bool)

// Update calls f.
func (f Func[V]) Update(frame hand.HandsFrame) (V, bool) {
	return f(frame)
}

// Kind names a gesture in events, configuration and metrics labels.
type Kind string

const (
	KindClap          Kind = "clap"
	KindSnap          Kind = "snap"
	KindPunch         Kind = "punch"
	KindFingerGun     Kind = "fingerGun"
	KindHoldingSphere Kind = "holdingSphere"
	KindHandPoses     Kind = "handPoses"
	KindPose          Kind = "pose"
	KindPath          Kind = "path"
)

// Kinds lists the built-in gesture kinds.
var Kinds = []Kind{
	KindClap, KindSnap, KindPunch, KindFingerGun,
	KindHoldingSphere, KindHandPoses, KindPose, KindPath,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}
