package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

const (
	// DefaultPathLength is how many fingertip positions a PathGesture keeps.
	DefaultPathLength = 60
	// DefaultMinPathLength is the shortest buffer that is matched.
	DefaultMinPathLength = 10
)

// PathMatch is one recognised fingertip trajectory. Sequence increases with every
// recognition so that repeating the same path is a new value.
type PathMatch struct {
	TemplateID string         `json:"templateId"`
	Name       string         `json:"name"`
	Chirality  hand.Chirality `json:"chirality"`
	Sequence   uint64         `json:"sequence"`
}

// PathGesture buffers one hand's index fingertip and matches the buffer against path
// templates. A match clears the buffer; losing the hand clears it too.
type PathGesture struct {
	Chirality hand.Chirality
	MaxPoints int
	MinPoints int

	matcher  *Matcher
	buffer   []mgl64.Vec3
	sequence uint64
}

// NewPath creates a path classifier over the templates held by m.
func NewPath(c hand.Chirality, m *Matcher) *PathGesture {
	return &PathGesture{
		Chirality: c,
		MaxPoints: DefaultPathLength,
		MinPoints: DefaultMinPathLength,
		matcher:   m,
	}
}

// Update implements Gesture.
func (g *PathGesture) Update(frame hand.HandsFrame) (PathMatch, bool) {
	h := frame.Hand(g.Chirality)
	if h == nil || g.matcher == nil {
		g.buffer = g.buffer[:0]
		return PathMatch{}, false
	}
	tip, ok := h.Position(hand.IndexFingerTip)
	if !ok {
		g.buffer = g.buffer[:0]
		return PathMatch{}, false
	}

	g.buffer = append(g.buffer, tip)
	if limit := g.MaxPoints; limit > 0 && len(g.buffer) > limit {
		g.buffer = append(g.buffer[:0], g.buffer[len(g.buffer)-limit:]...)
	}
	if len(g.buffer) < g.MinPoints {
		return PathMatch{}, false
	}

	matches := g.matcher.Match(g.buffer, g.Chirality)
	if len(matches) == 0 {
		return PathMatch{}, false
	}
	g.buffer = g.buffer[:0]
	g.sequence++
	best := matches[0].Template
	return PathMatch{
		TemplateID: best.ID,
		Name:       best.Name,
		Chirality:  g.Chirality,
		Sequence:   g.sequence,
	}, true
}

// Buffered returns how many fingertip positions are waiting to be matched.
func (g *PathGesture) Buffered() int {
	return len(g.buffer)
}
