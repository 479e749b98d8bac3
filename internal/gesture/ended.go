package gesture

import "github.com/ayusman/mudra/internal/hand"

// Ended wraps a gesture and calls back with the last seen value when the gesture goes
// from present to absent.
type Ended[V comparable] struct {
	gesture  Gesture[V]
	callback func(V)

	last    V
	hasLast bool
}

// OnEnded returns g wrapped with an end callback.
func OnEnded[V comparable](g Gesture[V], callback func(V)) *Ended[V] {
	return &Ended[V]{gesture: g, callback: callback}
}

// Update implements Gesture.
func (e *Ended[V]) Update(frame hand.HandsFrame) (V, bool) {
	v, ok := e.gesture.Update(frame)
	if !ok && e.hasLast && e.callback != nil {
		e.callback(e.last)
	}
	e.last, e.hasLast = v, ok
	return v, ok
}
