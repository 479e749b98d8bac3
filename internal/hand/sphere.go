package hand

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphereInset shrinks a fitted sphere from joint centres to the skin surface.
const SphereInset = 0.01

// minSphereVolumeRatio rejects near-coplanar fits: |b·(c×d)| relative to |b||c||d|.
const minSphereVolumeRatio = 1e-6

// Sphere is a ball in world coordinates.
type Sphere struct {
	Center mgl64.Vec3 `json:"center"`
	Radius float64    `json:"radius"`
}

// Transform returns the matrix that scales a unit sphere to s.
func (s Sphere) Transform() mgl64.Mat4 {
	return mgl64.Translate3D(s.Center[0], s.Center[1], s.Center[2]).Mul4(mgl64.Scale3D(s.Radius, s.Radius, s.Radius))
}

// InsideSphere fits the sphere through the middle knuckle, thumb tip, index tip and little tip,
// shrunk by SphereInset. It fails when the four points are (nearly) coplanar.
func (h *Hand) InsideSphere() (Sphere, bool) {
	p1, ok1 := h.Position(MiddleFingerKnuckle)
	p2, ok2 := h.Position(ThumbTip)
	p3, ok3 := h.Position(IndexFingerTip)
	p4, ok4 := h.Position(LittleFingerTip)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Sphere{}, false
	}
	return circumsphere(p1, p2, p3, p4, SphereInset)
}

// circumsphere returns the sphere through four points with its radius reduced by inset.
func circumsphere(p1, p2, p3, p4 mgl64.Vec3, inset float64) (Sphere, bool) {
	b := p2.Sub(p1)
	c := p3.Sub(p1)
	d := p4.Sub(p1)

	cd := c.Cross(d)
	triple := b.Dot(cd)
	scale := b.Len() * c.Len() * d.Len()
	if scale == 0 || math.Abs(triple) < minSphereVolumeRatio*scale {
		return Sphere{}, false
	}

	numerator := cd.Mul(b.LenSqr()).
		Add(d.Cross(b).Mul(c.LenSqr())).
		Add(b.Cross(c).Mul(d.LenSqr()))
	shifted := numerator.Mul(1 / (2 * triple))
	if !finite(shifted) {
		return Sphere{}, false
	}

	radius := shifted.Len() - inset
	if radius <= 0 {
		return Sphere{}, false
	}
	return Sphere{Center: p1.Add(shifted), Radius: radius}, true
}
