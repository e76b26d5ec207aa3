package breaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingreat/internal/store"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, New("llm", store.BreakerSettings{Enabled: false}))
}

func TestDoPassThroughWithoutBreaker(t *testing.T) {
	v, err := Do(nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestBreakerTripsOnFailureRatio(t *testing.T) {
	cb := New("test-trip", store.BreakerSettings{
		Enabled:             true,
		MinRequests:         2,
		FailureRatio:        0.5,
		OpenTimeoutSeconds:  60,
		HalfOpenMaxRequests: 1,
	})
	require.NotNil(t, cb)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := Do(cb, func() (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := Do(cb, func() (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}
