package reconnect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestNextDelayGeometricBeforeCap(t *testing.T) {
	p := New(Config{BaseDelay: time.Second, MaxDelay: time.Minute, JitterFactor: 0})
	p.rand = fixedRand(0.5) // midpoint: zero jitter contribution

	d0 := p.NextDelay()
	d1 := p.NextDelay()
	d2 := p.NextDelay()

	assert.Equal(t, time.Second, d0)
	assert.Equal(t, 2*time.Second, d1)
	assert.Equal(t, 4*time.Second, d2)
}

func TestNextDelayRespectsCap(t *testing.T) {
	p := New(Config{BaseDelay: time.Second, MaxDelay: 5 * time.Second, JitterFactor: 0})
	p.rand = fixedRand(0.5)

	for i := 0; i < 10; i++ {
		p.NextDelay()
	}
	d := p.NextDelay()
	assert.Equal(t, 5*time.Second, d)
}

func TestNextDelayStaysWithinJitterBounds(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: time.Minute, JitterFactor: 0.25}
	for _, r := range []float64{0, 0.25, 0.5, 0.75, 1} {
		p := New(cfg)
		p.rand = fixedRand(r)
		d := p.NextDelay()
		lo := time.Duration(float64(time.Second) * 0.75)
		hi := time.Duration(float64(time.Second) * 1.25)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}

func TestResetZeroesAttempt(t *testing.T) {
	p := New(DefaultConfig())
	p.NextDelay()
	p.NextDelay()
	require.Equal(t, uint(2), p.Attempt())

	p.Reset()
	assert.Equal(t, uint(0), p.Attempt())
}

func TestDefaultConfigMatchesSpec(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.MaxDelay)
	assert.Equal(t, 0.25, cfg.JitterFactor)
}
