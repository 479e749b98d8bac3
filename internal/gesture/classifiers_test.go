package gesture

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/hand"
)

func frameOf(hands ...*hand.Hand) hand.HandsFrame {
	var f hand.HandsFrame
	for _, h := range hands {
		f.Set(h)
	}
	return f
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.InDelta(t, want[0], got[0], 1e-6, "x")
	assert.InDelta(t, want[1], got[1], 1e-6, "y")
	assert.InDelta(t, want[2], got[2], 1e-6, "z")
}

func TestClap(t *testing.T) {
	right := hand.OpenHand(hand.Right, mgl64.Ident4())

	t.Run("palms together", func(t *testing.T) {
		left := hand.OpenHand(hand.Left, hand.FacingAway(mgl64.Vec3{0, 0, 0.07}))

		clap, ok := NewClap().Update(frameOf(left, right))
		require.True(t, ok)

		assert.Equal(t, 1.0, clap.Intensity)
		assertVec(t, mgl64.Vec3{0.005, 0.095, 0.035}, clap.Transform.Translation)
		assertVec(t, mgl64.Vec3{0.004, 0.13, 0}.Normalize(), clap.Transform.Rotation.Rotate(hand.Forward))
	})

	t.Run("palms apart", func(t *testing.T) {
		left := hand.OpenHand(hand.Left, hand.FacingAway(mgl64.Vec3{0, 0, 0.1}))

		_, ok := NewClap().Update(frameOf(left, right))
		assert.False(t, ok)
	})

	t.Run("one hand", func(t *testing.T) {
		_, ok := NewClap().Update(frameOf(right))
		assert.False(t, ok)
	})
}

func TestFingerGun(t *testing.T) {
	t.Run("trigger pulled", func(t *testing.T) {
		g := NewFingerGun(hand.Right)

		gun, ok := g.Update(frameOf(hand.FingerGunHand(hand.Right, mgl64.Ident4(), true)))
		require.True(t, ok)

		assert.True(t, gun.ThumbDown)
		assertVec(t, mgl64.Vec3{0.03, 0.18, 0}, gun.Aim.Translation)
		assertVec(t, mgl64.Vec3{0, 1, 0}, gun.Aim.Rotation.Rotate(hand.Forward))
	})

	t.Run("thumb up", func(t *testing.T) {
		g := NewFingerGun(hand.Left)

		gun, ok := g.Update(frameOf(hand.FingerGunHand(hand.Left, mgl64.Ident4(), false)))
		require.True(t, ok)
		assert.False(t, gun.ThumbDown)
	})

	t.Run("other hand only", func(t *testing.T) {
		g := NewFingerGun(hand.Left)

		_, ok := g.Update(frameOf(hand.FingerGunHand(hand.Right, mgl64.Ident4(), true)))
		assert.False(t, ok)
	})
}

func TestHoldingSphere(t *testing.T) {
	cupped := frameOf(hand.SphereHand(hand.Right, mgl64.Ident4(), 0.06))

	t.Run("default bounds", func(t *testing.T) {
		value, ok := NewHoldingSphere(hand.Right).Update(cupped)
		require.True(t, ok)

		assert.Equal(t, hand.Right, value.Chirality)
		assert.InDelta(t, 0.05, value.Sphere.Radius, 1e-6)
		assertVec(t, mgl64.Vec3{0.005, 0.095, 0.06}, value.Sphere.Center)
	})

	t.Run("above maximum", func(t *testing.T) {
		g := NewHoldingSphere(hand.Right)
		g.MaximumRadius = 0.04

		_, ok := g.Update(cupped)
		assert.False(t, ok)
	})

	t.Run("below minimum", func(t *testing.T) {
		g := NewHoldingSphere(hand.Right)
		g.MinimumRadius = 0.06

		_, ok := g.Update(cupped)
		assert.False(t, ok)
	})

	t.Run("flat hand", func(t *testing.T) {
		_, ok := NewHoldingSphere(hand.Right).Update(frameOf(hand.OpenHand(hand.Right, mgl64.Ident4())))
		assert.False(t, ok)
	})

	t.Run("bound hand missing", func(t *testing.T) {
		g := NewHoldingSphere(hand.Right)

		_, ok := g.Update(hand.HandsFrame{})
		assert.False(t, ok)

		_, ok = g.Update(frameOf(hand.SphereHand(hand.Left, mgl64.Ident4(), 0.06)))
		assert.False(t, ok, "only the left hand is tracked")
	})
}

func TestPunch(t *testing.T) {
	fistAt := func(x float64) hand.HandsFrame {
		return frameOf(hand.FistHand(hand.Right, mgl64.Translate3D(x, 0, 0)))
	}

	t.Run("velocity from consecutive fists", func(t *testing.T) {
		g := NewPunch(hand.Right)

		first, ok := g.Update(fistAt(0))
		require.True(t, ok)
		assert.Equal(t, mgl64.Vec3{}, first.Velocity)

		second, ok := g.Update(fistAt(0.01))
		require.True(t, ok)
		assertVec(t, mgl64.Vec3{0.6, 0, 0}, second.Velocity)
		assertVec(t, mgl64.Vec3{0.015, 0.095, 0}, second.Fist.Transform.Translation)
	})

	t.Run("identical fists are still", func(t *testing.T) {
		g := NewPunch(hand.Right)
		g.Update(fistAt(0.3))

		value, ok := g.Update(fistAt(0.3))
		require.True(t, ok)
		assert.Equal(t, mgl64.Vec3{}, value.Velocity)
	})

	t.Run("open hand clears history", func(t *testing.T) {
		g := NewPunch(hand.Right)
		g.Update(fistAt(0))

		_, ok := g.Update(frameOf(hand.OpenHand(hand.Right, mgl64.Ident4())))
		assert.False(t, ok)

		value, ok := g.Update(fistAt(0.5))
		require.True(t, ok)
		assert.Equal(t, mgl64.Vec3{}, value.Velocity)
	})

	t.Run("untracked hand clears history", func(t *testing.T) {
		g := NewPunch(hand.Right)
		g.Update(fistAt(0))

		_, ok := g.Update(hand.HandsFrame{})
		assert.False(t, ok)

		value, _ := g.Update(fistAt(0.2))
		assert.Equal(t, mgl64.Vec3{}, value.Velocity)
	})

	t.Run("low fidelity holds the last value", func(t *testing.T) {
		g := NewPunch(hand.Right)
		g.RequireHighFidelity = true
		first, _ := g.Update(fistAt(0))

		noisy := hand.FistHand(hand.Right, mgl64.Translate3D(1, 0, 0))
		noisy.Fidelity = hand.FidelityLow
		held, ok := g.Update(frameOf(noisy))
		require.True(t, ok)
		assert.Equal(t, first, held)

		next, _ := g.Update(fistAt(0.01))
		assertVec(t, mgl64.Vec3{0.6, 0, 0}, next.Velocity)
	})

	t.Run("custom frame rate", func(t *testing.T) {
		g := NewPunch(hand.Right)
		g.FrameRate = 90
		g.Update(fistAt(0))

		value, _ := g.Update(fistAt(0.01))
		assertVec(t, mgl64.Vec3{0.9, 0, 0}, value.Velocity)
	})
}

func TestHandPoses(t *testing.T) {
	g := NewHandPoses()

	_, ok := g.Update(hand.HandsFrame{})
	assert.False(t, ok)

	poses, ok := g.Update(frameOf(hand.OpenHand(hand.Left, mgl64.Translate3D(1, 2, 3))))
	require.True(t, ok)
	assert.True(t, poses.HasLeft)
	assert.False(t, poses.HasRight)
	assertVec(t, mgl64.Vec3{1, 2, 3}, poses.Left.Translation)
	assert.InDelta(t, 1, poses.Left.Rotation.W, 1e-9)
}

func TestPoseGesture(t *testing.T) {
	matcher := NewPoseMatcher()
	matcher.AddTemplate(poseTemplate(t, "fist", hand.FistHand(hand.Right, mgl64.Ident4()), 0.5))
	g := NewPose(hand.Right, matcher)

	value, ok := g.Update(frameOf(hand.FistHand(hand.Right, mgl64.Translate3D(0, 1, 0))))
	require.True(t, ok)
	assert.Equal(t, PoseMatch{TemplateID: "fist", Name: "fist", Chirality: hand.Right}, value)

	_, ok = g.Update(frameOf(hand.OpenHand(hand.Right, mgl64.Ident4())))
	assert.False(t, ok)
}

func TestPathGesture(t *testing.T) {
	matcher := NewPathMatcher()
	matcher.AddTemplate(&Template{
		ID:        "swipe",
		Name:      "Swipe",
		Type:      TemplatePath,
		Points:    ResamplePath([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, DefaultMinPathLength),
		Tolerance: 0.1,
	})
	g := NewPath(hand.Right, matcher)

	swipe := func() (PathMatch, bool) {
		var (
			value PathMatch
			ok    bool
		)
		for i := 0; i < DefaultMinPathLength; i++ {
			value, ok = g.Update(frameOf(hand.OpenHand(hand.Right, mgl64.Translate3D(float64(i)*0.02, 0, 0))))
			if i < DefaultMinPathLength-1 {
				require.False(t, ok, "frame %d", i)
			}
		}
		return value, ok
	}

	value, ok := swipe()
	require.True(t, ok)
	assert.Equal(t, "swipe", value.TemplateID)
	assert.Equal(t, uint64(1), value.Sequence)
	assert.Equal(t, 0, g.Buffered())

	again, ok := swipe()
	require.True(t, ok)
	assert.NotEqual(t, value, again)

	g.Update(frameOf(hand.OpenHand(hand.Right, mgl64.Ident4())))
	assert.Equal(t, 1, g.Buffered())
	g.Update(hand.HandsFrame{})
	assert.Equal(t, 0, g.Buffered())
}
