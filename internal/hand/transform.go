package hand

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// degenerateLength is the shortest vector that is still given a direction.
const degenerateLength = 1e-9

// Forward is the local axis that LookRotation turns toward the requested direction.
var Forward = mgl64.Vec3{0, 0, 1}

// Transform is a rigid pose: a rotation followed by a translation.
// It is comparable, so gesture values embedding it keep value semantics.
type Transform struct {
	Rotation    mgl64.Quat `json:"rotation"`
	Translation mgl64.Vec3 `json:"translation"`
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// Mat4 returns the homogeneous matrix of t.
func (t Transform) Mat4() mgl64.Mat4 {
	return mgl64.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).Mul4(t.Rotation.Mat4())
}

// TransformFromMat4 extracts the rotation and translation of a rigid matrix.
func TransformFromMat4(m mgl64.Mat4) Transform {
	return Transform{
		Rotation:    mgl64.Mat4ToQuat(m).Normalize(),
		Translation: m.Col(3).Vec3(),
	}
}

// LookRotation returns the rotation taking Forward onto direction.
// It fails when direction has no usable length.
func LookRotation(direction mgl64.Vec3) (mgl64.Quat, bool) {
	dir, ok := normalize(direction)
	if !ok {
		return mgl64.Quat{}, false
	}
	return mgl64.QuatBetweenVectors(Forward, dir), true
}

// normalize returns v scaled to unit length, or false for a zero or non-finite vector.
func normalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < degenerateLength || math.IsInf(l, 0) || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
