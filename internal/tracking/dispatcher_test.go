package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
)

var epoch = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time {
	return epoch.Add(time.Duration(n) * time.Millisecond)
}

type recorder struct {
	ch chan hand.HandsFrame
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan hand.HandsFrame, 32)}
}

func (r *recorder) Handle(f hand.HandsFrame) {
	r.ch <- f
}

func (r *recorder) next(t *testing.T) hand.HandsFrame {
	t.Helper()
	select {
	case f := <-r.ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return hand.HandsFrame{}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case f := <-r.ch:
		t.Fatalf("unexpected frame at %v", f.Timestamp)
	default:
	}
}

func right() *hand.Hand {
	return hand.OpenHand(hand.Right, mgl64.Ident4())
}

func left() *hand.Hand {
	return hand.OpenHand(hand.Left, mgl64.Ident4())
}

func TestDispatcher_StreamLifecycle(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)

	assert.False(t, d.Active())
	assert.Equal(t, 0, src.Starts())

	a := d.Register(newRecorder())
	b := d.Register(newRecorder())

	assert.True(t, d.Active())
	assert.Equal(t, 1, src.Starts(), "second register must not restart the stream")
	assert.Equal(t, 2, d.Subscribers())

	d.Unregister(a)
	assert.True(t, d.Active())
	assert.Equal(t, 0, src.Stops())

	d.Unregister(b)
	assert.False(t, d.Active())
	assert.Equal(t, 1, src.Stops())
	assert.False(t, src.Running())

	d.Unregister(b)
	assert.Equal(t, 1, src.Stops(), "double unregister must be a no-op")
}

func TestDispatcher_LastUnregisterClearsHands(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)

	rec := newRecorder()
	sub := d.Register(rec)
	require.True(t, src.Send(AnchorsMessage(ms(0), left(), right())))
	rec.next(t)

	require.NotNil(t, d.Hands().Hand(hand.Left))
	require.NotNil(t, d.Hands().Hand(hand.Right))

	d.Unregister(sub)

	assert.False(t, d.Active())
	assert.Nil(t, d.Hands().Hand(hand.Left))
	assert.Nil(t, d.Hands().Hand(hand.Right))
	assert.True(t, d.Hands().Empty())
}

func TestDispatcher_DeliversInRegistrationOrder(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	defer d.Close()

	var (
		mu    sync.Mutex
		calls []string
	)
	done := make(chan struct{}, 1)
	record := func(name string) Handler {
		return HandlerFunc(func(hand.HandsFrame) {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
			if name == "c" {
				done <- struct{}{}
			}
		})
	}
	d.Register(record("a"))
	d.Register(record("b"))
	d.Register(record("c"))

	require.True(t, src.Send(AnchorsMessage(ms(0), right())))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestDispatcher_CachesHandsAcrossMessages(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	defer d.Close()
	rec := newRecorder()
	d.Register(rec)

	src.Send(AnchorsMessage(ms(0), left()))
	f := rec.next(t)
	assert.NotNil(t, f.Left)
	assert.Nil(t, f.Right)

	src.Send(AnchorsMessage(ms(16), right()))
	f = rec.next(t)
	assert.NotNil(t, f.Left, "left hand is kept until removed")
	assert.NotNil(t, f.Right)
	assert.Equal(t, ms(16), f.Timestamp)

	src.Send(RemovedMessage(ms(32), hand.Left))
	f = rec.next(t)
	assert.Nil(t, f.Left)
	assert.NotNil(t, f.Right)

	assert.Equal(t, f, d.Hands())
}

func TestDispatcher_DropsOutOfOrderFrames(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	defer d.Close()
	rec := newRecorder()
	d.Register(rec)

	src.Send(AnchorsMessage(ms(100), right()))
	src.Send(AnchorsMessage(ms(50), right()))
	src.Send(AnchorsMessage(ms(100), right()))
	src.Send(AnchorsMessage(ms(150), right()))

	assert.Equal(t, ms(100), rec.next(t).Timestamp)
	assert.Equal(t, ms(100), rec.next(t).Timestamp)
	assert.Equal(t, ms(150), rec.next(t).Timestamp)
	rec.none(t)
}

func TestDispatcher_MissingTimestampUsesClock(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src, WithClock(func() time.Time { return ms(7) }))
	defer d.Close()
	rec := newRecorder()
	d.Register(rec)

	src.Send(AnchorsMessage(time.Time{}, right()))

	assert.Equal(t, ms(7), rec.next(t).Timestamp)
}

func TestDispatcher_UnregisteredHandlerGetsNoFrames(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	defer d.Close()

	removed := newRecorder()
	kept := newRecorder()
	sub := d.Register(removed)
	d.Register(kept)

	src.Send(AnchorsMessage(ms(0), right()))
	removed.next(t)
	kept.next(t)

	d.Unregister(sub)
	src.Send(AnchorsMessage(ms(16), right()))
	kept.next(t)
	removed.none(t)
	assert.Equal(t, 1, src.Starts())
}

func TestDispatcher_UpstreamTermination(t *testing.T) {
	tests := []struct {
		name string
		end  func(src *MockSource)
	}{
		{"authorization denied", func(src *MockSource) {
			src.Send(Message{Kind: MessageAuthorizationDenied, Reason: "denied"})
		}},
		{"tracking error", func(src *MockSource) {
			src.Send(Message{Kind: MessageTrackingError, Reason: "sensor lost"})
		}},
		{"channel closed", func(src *MockSource) {
			src.End()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewMockSource()
			d := NewDispatcher(src)
			defer d.Close()
			rec := newRecorder()
			d.Register(rec)

			src.Send(AnchorsMessage(ms(0), right()))
			rec.next(t)

			tt.end(src)
			require.Eventually(t, func() bool { return !d.Active() }, 2*time.Second, 5*time.Millisecond)
			assert.True(t, d.Hands().Empty(), "cached hands are cleared")
			assert.Equal(t, 1, d.Subscribers())

			d.Register(newRecorder())
			assert.True(t, d.Active())
			assert.Equal(t, 2, src.Starts())

			src.Send(AnchorsMessage(ms(5), left()))
			f := rec.next(t)
			assert.Nil(t, f.Right, "restarted stream begins clean")
			assert.NotNil(t, f.Left)
		})
	}
}

func TestDispatcher_StartError(t *testing.T) {
	src := NewMockSource()
	src.SetError(errors.New("no tracker"))
	d := NewDispatcher(src)
	defer d.Close()

	d.Register(newRecorder())
	assert.False(t, d.Active())

	src.SetError(nil)
	d.Register(newRecorder())
	assert.True(t, d.Active())
	assert.Equal(t, 1, src.Starts())
}

func TestDispatcher_NilHandlerAndUnknownSubscription(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)

	sub := d.Register(nil)
	assert.Equal(t, Subscription{}, sub)
	assert.False(t, d.Active())

	d.Unregister(Subscription{})
	assert.Equal(t, 0, src.Stops())
}

func TestDispatcher_CloseStopsStream(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	d.Register(newRecorder())
	d.Register(newRecorder())

	d.Close()

	assert.False(t, d.Active())
	assert.Equal(t, 0, d.Subscribers())
	assert.Equal(t, 1, src.Stops())
}

func TestAdd_GestureWithCombinator(t *testing.T) {
	src := NewMockSource()
	d := NewDispatcher(src)
	defer d.Close()

	snaps := make(chan gesture.Snap, 8)
	snap := gesture.OnChanged[gesture.Snap](gesture.NewSnap(hand.Right, gesture.DefaultSnapConfig()), func(s gesture.Snap) {
		snaps <- s
	})
	Add[gesture.Snap](d, snap)

	src.Send(AnchorsMessage(ms(0), hand.PreSnapHand(hand.Right, mgl64.Ident4())))
	src.Send(AnchorsMessage(ms(100), hand.PostSnapHand(hand.Right, mgl64.Ident4())))

	for _, want := range []gesture.SnapPose{gesture.PreSnap, gesture.PostSnap} {
		select {
		case s := <-snaps:
			assert.Equal(t, want, s.Pose)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
