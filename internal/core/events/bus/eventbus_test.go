package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Lap
	_, err := b.Subscribe(EventLap, func(e Event) error {
		got = e.Data().(Lap)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent(EventLap, "laps", Lap{Car: "red", Lap: 2}, nil)))
	assert.Equal(t, "red", got.Car)
	assert.Equal(t, uint32(2), got.Lap)

	assert.NoError(t, b.Publish(NewEvent("nobody.listens", "test", nil, nil)))
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i // per-iteration copy; go directive predates Go 1.22 loopvar semantics
		_, err := b.Subscribe("tick", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("tick", "test", nil, nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWildcardReceivesEverything(t *testing.T) {
	b := New()
	var seen []string
	_, err := b.Subscribe(Wildcard, func(e Event) error {
		seen = append(seen, e.Type())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.PublishBatch(
		NewEvent(EventTrackLoaded, "session", TrackLoaded{}, nil),
		NewEvent(EventRaceFinished, "laps", RaceFinished{}, nil),
	))
	assert.Equal(t, []string{EventTrackLoaded, EventRaceFinished}, seen)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	first, second := errors.New("first"), errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return first })
	_, _ = b.Subscribe("x", func(Event) error { return second })

	err := b.Publish(NewEvent("x", "src", nil, nil))
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	_, err = b.Subscribe("x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("e", func(Event) error { count++; return nil })
	require.NoError(t, err)

	_ = b.Publish(NewEvent("e", "s", nil, nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	_ = b.Publish(NewEvent("e", "s", nil, nil))

	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
	assert.NotEmpty(t, sub.ID())
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Zero(t, b.GetMetrics().Published, "no observer, no metrics")

	obs := &testObserver{}
	b.AddObserver(obs)
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))

	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(1), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.SubscribersActive)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Equal(t, 1, obs.publishCount)
}
