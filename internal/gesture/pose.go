package gesture

import "github.com/ayusman/mudra/internal/hand"

// PoseMatch names the pose template a hand currently matches.
type PoseMatch struct {
	TemplateID string         `json:"templateId"`
	Name       string         `json:"name"`
	Chirality  hand.Chirality `json:"chirality"`
}

// PoseGesture matches one hand's shape against pose templates each frame.
type PoseGesture struct {
	Chirality hand.Chirality
	matcher   *Matcher
}

// NewPose creates a pose classifier over the templates held by m.
func NewPose(c hand.Chirality, m *Matcher) *PoseGesture {
	return &PoseGesture{Chirality: c, matcher: m}
}

// Update implements Gesture.
func (g *PoseGesture) Update(frame hand.HandsFrame) (PoseMatch, bool) {
	h := frame.Hand(g.Chirality)
	if h == nil || g.matcher == nil {
		return PoseMatch{}, false
	}
	points, ok := h.Normalize()
	if !ok {
		return PoseMatch{}, false
	}
	matches := g.matcher.Match(points, g.Chirality)
	if len(matches) == 0 {
		return PoseMatch{}, false
	}
	best := matches[0].Template
	return PoseMatch{TemplateID: best.ID, Name: best.Name, Chirality: g.Chirality}, true
}
