package gesture

import "github.com/ayusman/mudra/internal/hand"

// Changed wraps a gesture and calls back whenever it produces a value different from the
// last one forwarded. Absent frames neither fire nor reset the last forwarded value.
type Changed[V comparable] struct {
	gesture  Gesture[V]
	callback func(V)

	last    V
	hasLast bool
}

// OnChanged returns g wrapped with an edge-triggered change callback.
func OnChanged[V comparable](g Gesture[V], callback func(V)) *Changed[V] {
	return &Changed[V]{gesture: g, callback: callback}
}

// Update implements Gesture.
func (c *Changed[V]) Update(frame hand.HandsFrame) (V, bool) {
	v, ok := c.gesture.Update(frame)
	if ok && (!c.hasLast || v != c.last) {
		c.last = v
		c.hasLast = true
		if c.callback != nil {
			c.callback(v)
		}
	}
	return v, ok
}
