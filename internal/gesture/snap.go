package gesture

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/hand"
)

// DefaultSnapDuration is the longest pre-snap to post-snap interval that still counts as a snap.
const DefaultSnapDuration = 250 * time.Millisecond

// SnapPose is the per-frame finger configuration of a snap attempt.
type SnapPose string

const (
	NoSnap   SnapPose = "noSnap"
	PreSnap  SnapPose = "preSnap"
	PostSnap SnapPose = "postSnap"
)

// Snap is the state of one hand's snap attempt.
type Snap struct {
	Pose      SnapPose       `json:"pose"`
	Chirality hand.Chirality `json:"chirality"`
}

// AmbiguousPolicy decides what a frame that looks both pre-snap and post-snap produces.
type AmbiguousPolicy string

const (
	// AmbiguousIgnore yields no value and leaves the classifier state as it was.
	AmbiguousIgnore AmbiguousPolicy = "ignore"
	// AmbiguousNoSnap handles the frame as noSnap.
	AmbiguousNoSnap AmbiguousPolicy = "noSnap"
	// AmbiguousHold re-emits the last value.
	AmbiguousHold AmbiguousPolicy = "hold"
)

// ParseAmbiguousPolicy validates a policy name. The empty string selects AmbiguousIgnore.
func ParseAmbiguousPolicy(s string) (AmbiguousPolicy, error) {
	switch p := AmbiguousPolicy(s); p {
	case "":
		return AmbiguousIgnore, nil
	case AmbiguousIgnore, AmbiguousNoSnap, AmbiguousHold:
		return p, nil
	}
	return "", fmt.Errorf("unknown ambiguous snap policy %q", s)
}

// SnapConfig tunes a SnapGesture.
type SnapConfig struct {
	MaximumDuration time.Duration
	Ambiguous       AmbiguousPolicy
}

// DefaultSnapConfig returns the standard snap tuning.
func DefaultSnapConfig() SnapConfig {
	return SnapConfig{
		MaximumDuration: DefaultSnapDuration,
		Ambiguous:       AmbiguousIgnore,
	}
}

// SnapGesture recognises a thumb/middle finger snap on one hand.
//
// A pre-snap frame records the frame timestamp. A post-snap frame that follows within
// MaximumDuration yields PostSnap once; a slow one yields NoSnap. The frame after a PostSnap
// yields nothing so a single release is not reported twice.
type SnapGesture struct {
	chirality hand.Chirality
	config    SnapConfig

	last      Snap
	hasLast   bool
	preSnapAt time.Time
	pending   bool
}

// NewSnap creates a snap classifier for the given hand.
func NewSnap(c hand.Chirality, cfg SnapConfig) *SnapGesture {
	if cfg.MaximumDuration <= 0 {
		cfg.MaximumDuration = DefaultSnapDuration
	}
	if cfg.Ambiguous == "" {
		cfg.Ambiguous = AmbiguousIgnore
	}
	return &SnapGesture{chirality: c, config: cfg}
}

// Update implements Gesture.
func (g *SnapGesture) Update(frame hand.HandsFrame) (Snap, bool) {
	h := frame.Hand(g.chirality)
	if h == nil {
		return g.last, g.hasLast
	}

	if g.hasLast && g.last.Pose == PostSnap {
		g.pending = false
		g.last, g.hasLast = Snap{}, false
		return Snap{}, false
	}

	pre, post := ClassifySnap(h)
	pose := NoSnap
	switch {
	case pre && post:
		switch g.config.Ambiguous {
		case AmbiguousNoSnap:
		case AmbiguousHold:
			return g.last, g.hasLast
		default:
			return Snap{}, false
		}
	case pre:
		pose = PreSnap
	case post:
		pose = PostSnap
	}

	switch pose {
	case PreSnap:
		g.preSnapAt = frame.Timestamp
		g.pending = true
	case PostSnap:
		if !g.pending || frame.Timestamp.Sub(g.preSnapAt) > g.config.MaximumDuration {
			pose = NoSnap
		}
		g.pending = false
	}

	g.last = Snap{Pose: pose, Chirality: g.chirality}
	g.hasLast = true
	return g.last, true
}

// ClassifySnap reports whether h looks like a pre-snap (fingers pressed together) and whether
// it looks like a post-snap (middle finger released onto the palm). Both may be true.
// A hand without the flex joints is neither.
func ClassifySnap(h *hand.Hand) (pre, post bool) {
	thumbFlex, ok := h.DistanceBetween(hand.ThumbTip, hand.ThumbIntermediateTip)
	if !ok {
		return false, false
	}
	middleFlex, ok := h.DistanceBetween(hand.MiddleFingerTip, hand.MiddleFingerIntermediateTip)
	if !ok {
		return false, false
	}

	if d, ok := h.DistanceBetween(hand.ThumbTip, hand.MiddleFingerTip); ok && d < thumbFlex {
		pre = true
	}
	if d, ok := h.DistanceBetween(hand.ThumbIntermediateTip, hand.MiddleFingerIntermediateTip); ok && d < thumbFlex {
		pre = true
	}
	if d, ok := h.DistanceBetween(hand.MiddleFingerTip, hand.IndexFingerMetacarpal); ok && d < thumbFlex+middleFlex {
		post = true
	}
	if d, ok := h.DistanceBetween(hand.MiddleFingerTip, hand.ThumbKnuckle); ok && d/2 < math.Max(thumbFlex, middleFlex) {
		post = true
	}
	return pre, post
}
