package app

import (
	"time"

	"github.com/ayusman/mudra/internal/events"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/tracking"
)

// observe registers g so that its changes and ends become events. name derives
// the event's gesture name from a value.
func observe[V comparable](a *App, em emitter, c hand.Chirality, name func(V) string, g gesture.Gesture[V]) {
	var ts time.Time
	stamped := gesture.Func[V](func(frame hand.HandsFrame) (V, bool) {
		ts = frame.Timestamp
		return g.Update(frame)
	})
	callback := func(kind events.Kind) func(V) {
		return func(v V) {
			em.emit(name(v), kind, c, ts, v)
		}
	}

	changed := gesture.OnChanged[V](stamped, callback(events.KindChanged))
	ended := gesture.OnEnded[V](changed, callback(events.KindEnded))
	a.subs = append(a.subs, tracking.Add[V](a.dispatcher, ended))
}

func named[V any](k gesture.Kind) func(V) string {
	return func(V) string { return string(k) }
}

// registerGestures builds every enabled classifier from the settings.
func (a *App) registerGestures() error {
	g := a.settings.Gestures
	em := emitter{app: a, queue: a.queue}

	hands, err := g.Chiralities()
	if err != nil {
		return err
	}

	if g.Clap.Enabled {
		observe(a, em, "", named[gesture.Clap](gesture.KindClap), gesture.Gesture[gesture.Clap](gesture.NewClap()))
	}
	if g.HandPoses.Enabled {
		observe(a, em, "", named[gesture.HandPoses](gesture.KindHandPoses), gesture.Gesture[gesture.HandPoses](gesture.NewHandPoses()))
	}

	minRadius, maxRadius := g.SphereBounds()
	for _, c := range hands {
		if g.Snap.Enabled {
			observe(a, em, c, named[gesture.Snap](gesture.KindSnap), gesture.Gesture[gesture.Snap](gesture.NewSnap(c, g.SnapSettings())))
		}
		if g.Punch.Enabled {
			punch := gesture.NewPunch(c)
			if g.Punch.FrameRate > 0 {
				punch.FrameRate = g.Punch.FrameRate
			}
			punch.RequireHighFidelity = g.Punch.RequireHighFidelity
			observe(a, em, c, named[gesture.Punch](gesture.KindPunch), gesture.Gesture[gesture.Punch](punch))
		}
		if g.FingerGun.Enabled {
			observe(a, em, c, named[gesture.FingerGun](gesture.KindFingerGun), gesture.Gesture[gesture.FingerGun](gesture.NewFingerGun(c)))
		}
		if g.HoldingSphere.Enabled {
			sphere := gesture.NewHoldingSphere(c)
			sphere.MinimumRadius = minRadius
			sphere.MaximumRadius = maxRadius
			observe(a, em, c, named[gesture.HoldingSphere](gesture.KindHoldingSphere), gesture.Gesture[gesture.HoldingSphere](sphere))
		}
		if g.Templates.Enabled {
			observe(a, em, c, func(m gesture.PoseMatch) string { return m.Name },
				gesture.Gesture[gesture.PoseMatch](gesture.NewPose(c, a.poseMatcher)))

			path := gesture.NewPath(c, a.pathMatcher)
			if g.Templates.PathLength > 0 {
				path.MaxPoints = g.Templates.PathLength
			}
			if g.Templates.MinPathLength > 0 {
				path.MinPoints = g.Templates.MinPathLength
			}
			observe(a, em, c, func(m gesture.PathMatch) string { return m.Name },
				gesture.Gesture[gesture.PathMatch](path))
		}
	}
	return nil
}
