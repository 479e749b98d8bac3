package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/mudra/internal/hand"
)

type step struct {
	v  int
	ok bool
}

// script returns a gesture that replays steps, one per Update.
func script(steps ...step) Gesture[int] {
	i := 0
	return Func[int](func(hand.HandsFrame) (int, bool) {
		s := steps[i]
		i++
		return s.v, s.ok
	})
}

func present(v int) step { return step{v: v, ok: true} }

var absent = step{}

func run(g Gesture[int], n int) {
	for i := 0; i < n; i++ {
		g.Update(hand.HandsFrame{})
	}
}

func TestOnChanged_FiresOnEdgesOnly(t *testing.T) {
	var got []int
	g := OnChanged(script(present(1), present(1), absent, present(1), present(2), present(2), present(1)), func(v int) {
		got = append(got, v)
	})

	run(g, 7)

	assert.Equal(t, []int{1, 2, 1}, got)
}

func TestOnChanged_PassesResultThrough(t *testing.T) {
	g := OnChanged(script(present(5), absent), nil)

	v, ok := g.Update(hand.HandsFrame{})
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = g.Update(hand.HandsFrame{})
	assert.False(t, ok)
}

func TestOnEnded_FiresWithLastValue(t *testing.T) {
	var got []int
	g := OnEnded(script(present(1), present(2), absent, absent, present(3), absent), func(v int) {
		got = append(got, v)
	})

	run(g, 6)

	assert.Equal(t, []int{2, 3}, got)
}

func TestOnEnded_NeverFiresWithoutValue(t *testing.T) {
	fired := false
	g := OnEnded(script(absent, absent), func(int) { fired = true })

	run(g, 2)

	assert.False(t, fired)
}

func TestCombinators_Compose(t *testing.T) {
	var changed, ended []int
	g := OnEnded(OnChanged(script(present(1), present(1), present(2), absent), func(v int) {
		changed = append(changed, v)
	}), func(v int) {
		ended = append(ended, v)
	})

	run(g, 4)

	assert.Equal(t, []int{1, 2}, changed)
	assert.Equal(t, []int{2}, ended)
}
