package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, coolDown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(BreakerConfig{FailureThreshold: threshold, CoolDown: coolDown})
	now := time.Now()
	b.nowFunc = func() time.Time { return now }
	return b, &now
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		require.True(t, b.Allow())
		b.Record(boom)
		assert.Equal(t, BreakerClosed, b.State())
	}

	require.True(t, b.Allow())
	b.Record(boom)
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResets(t *testing.T) {
	b, _ := testBreaker(3, time.Minute)
	boom := errors.New("boom")

	b.Record(boom)
	b.Record(boom)
	b.Record(nil)
	b.Record(boom)
	b.Record(boom)

	// The success cleared the streak, so five mixed outcomes never open it.
	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerSingleProbeAfterCoolDown(t *testing.T) {
	b, now := testBreaker(1, time.Minute)
	b.Record(errors.New("boom"))
	require.False(t, b.Allow())

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())

	// Exactly one probe is admitted until it settles.
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())

	b.Record(nil)
	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b, now := testBreaker(1, time.Minute)
	b.Record(errors.New("boom"))

	*now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())
	b.Record(errors.New("still down"))

	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestProviderBreakersPerProvider(t *testing.T) {
	pb := NewProviderBreakers(BreakerConfig{FailureThreshold: 1, CoolDown: time.Hour})

	pb.Get("flaky").Record(errors.New("boom"))

	assert.False(t, pb.Get("flaky").Allow())
	assert.True(t, pb.Get("steady").Allow())

	states := pb.States()
	assert.Equal(t, BreakerOpen, states["flaky"])
	assert.Equal(t, BreakerClosed, states["steady"])
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
}
