package gesture

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/hand"
)

// TemplateType says how a template is matched.
type TemplateType string

const (
	// TemplatePose is a single normalized hand shape.
	TemplatePose TemplateType = "pose"
	// TemplatePath is an index fingertip trajectory.
	TemplatePath TemplateType = "path"
)

// Template is a user-defined gesture learned from samples.
type Template struct {
	ID   string
	Name string
	Type TemplateType
	// Chirality restricts the template to one hand. Empty matches either.
	Chirality hand.Chirality
	// Points holds normalized joints for a pose, or the fingertip path for a path.
	Points    []mgl64.Vec3
	Tolerance float64
}

func (t *Template) accepts(c hand.Chirality) bool {
	return t.Chirality == "" || t.Chirality == c
}

// Match is a template within tolerance of the input.
type Match struct {
	Template *Template
	Score    float64 // 1/(1+distance)
	Distance float64
}

// Matcher holds templates of one type. It is safe to replace templates while another
// goroutine is matching.
type Matcher struct {
	kind     TemplateType
	distance func(input, template []mgl64.Vec3) float64

	mu        sync.RWMutex
	templates []*Template
}

// NewPoseMatcher matches normalized hand shapes by summed joint distance.
func NewPoseMatcher() *Matcher {
	return &Matcher{kind: TemplatePose, distance: poseDistance}
}

// NewPathMatcher matches fingertip paths with dynamic time warping.
func NewPathMatcher() *Matcher {
	return &Matcher{kind: TemplatePath, distance: pathDistance}
}

// Type returns the template type this matcher accepts.
func (m *Matcher) Type() TemplateType {
	return m.kind
}

// AddTemplate adds t, replacing any template with the same ID. Templates of the wrong type are ignored.
func (m *Matcher) AddTemplate(t *Template) {
	if t == nil || t.Type != m.kind {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.templates {
		if existing.ID == t.ID {
			m.templates[i] = t
			return
		}
	}
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *Matcher) RemoveTemplate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// SetTemplates replaces every template.
func (m *Matcher) SetTemplates(templates []*Template) {
	kept := make([]*Template, 0, len(templates))
	for _, t := range templates {
		if t != nil && t.Type == m.kind {
			kept = append(kept, t)
		}
	}
	m.mu.Lock()
	m.templates = kept
	m.mu.Unlock()
}

// Len returns the number of templates.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// Match returns the templates for chirality c within tolerance of input, best first.
func (m *Matcher) Match(input []mgl64.Vec3, c hand.Chirality) []Match {
	if len(input) == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, t := range m.templates {
		if !t.accepts(c) || len(t.Points) == 0 {
			continue
		}
		d := m.distance(input, t.Points)
		if math.IsInf(d, 1) || math.IsNaN(d) || d > t.Tolerance {
			continue
		}
		matches = append(matches, Match{Template: t, Score: 1 / (1 + d), Distance: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// poseDistance sums the distances between corresponding points. Shapes of different length never match.
func poseDistance(a, b []mgl64.Vec3) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var total float64
	for i := range a {
		total += a[i].Sub(b[i]).Len()
	}
	return total
}

func pathDistance(input, template []mgl64.Vec3) float64 {
	return DTWDistance(NormalizePath(input), NormalizePath(template))
}
