package predictor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeClock lets tests move past the open timeout without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	cb := NewCircuitBreaker("test", BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute}, quietLogger())
	cb.now = clock.now
	cb.lastStateChange = clock.now()
	return cb
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.Equal(t, BreakerClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
	assert.Equal(t, BreakerOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := cb.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.FailedRequests)
	assert.Equal(t, int64(1), stats.RejectedRequests)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)
	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	}
	require.Equal(t, BreakerOpen, cb.State())

	clock.advance(2 * time.Minute)
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)
	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	}

	clock.advance(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(context.Background(), func(context.Context) error { return boom }), boom)
	assert.Equal(t, BreakerOpen, cb.State())

	cb.Reset()
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newTestBreaker(clock)
	boom := errors.New("boom")

	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	require.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
	_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestGuardedModel(t *testing.T) {
	m := new(MockModel)
	m.On("Predict", mock.Anything, []float64{1}).Return(42.0, nil).Once()
	m.On("Predict", mock.Anything, []float64{2}).Return(0.0, errors.New("down")).Times(2)

	clock := &fakeClock{t: time.Unix(0, 0)}
	g := NewGuardedModel(m, newTestBreaker(clock))

	y, err := g.Predict(context.Background(), []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 42.0, y)

	for i := 0; i < 2; i++ {
		_, err = g.Predict(context.Background(), []float64{2})
		assert.Error(t, err)
	}
	_, err = g.Predict(context.Background(), []float64{2})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, BreakerOpen, g.Breaker().State())
	m.AssertExpectations(t)
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
