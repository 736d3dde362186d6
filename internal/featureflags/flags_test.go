package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	s := Parse("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, s.Enabled(name, 1), name)
		assert.True(t, s.On(name), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, s.Enabled(name, 1), name)
		assert.False(t, s.On(name), name)
	}
}

func TestEnabled_PercentageRollout(t *testing.T) {
	s := Parse("always=100%,never=0%,canary=25%,over=150%")

	assert.True(t, s.Enabled("always", 1))
	assert.False(t, s.Enabled("never", 1))
	assert.True(t, s.Enabled("over", 7), "values above 100% clamp")
	assert.False(t, s.Enabled("canary", 0), "anonymous callers are outside partial rollouts")
	assert.False(t, s.On("canary"))

	first := s.Enabled("canary", 42)
	for range 5 {
		assert.Equal(t, first, s.Enabled("canary", 42))
	}

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if s.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 100)
}

func TestParse_SkipsMalformed(t *testing.T) {
	s := Parse(" bad ,Realtime_Activity=ON, feed_cache = 20% ,z=maybe,=on")

	assert.Equal(t, map[string]string{
		RealtimeActivity: "on",
		FeedCache:        "20%",
	}, s.Raw())
	assert.Len(t, s.Snapshot(123), 2)
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.Enabled(FeedCache, 1))
	assert.False(t, s.On(FeedCache))
	assert.Empty(t, s.Raw())
	assert.Empty(t, s.Snapshot(1))
}
