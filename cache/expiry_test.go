package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineFor(t *testing.T) {
	now := time.Unix(1700000000, 0)

	// No TTL means the 30-day default.
	assert.Equal(t, now.Add(DefaultTTL).Unix(), deadlineFor(now, 0, false))

	// Explicit TTLs are relative to now; zero is "already due".
	assert.Equal(t, now.Add(time.Hour).Unix(), deadlineFor(now, time.Hour, true))
	assert.Equal(t, now.Unix(), deadlineFor(now, 0, true))
}

func TestFresh(t *testing.T) {
	now := time.Unix(1700000000, 0)

	assert.True(t, fresh(now.Unix()+1, now))
	assert.False(t, fresh(now.Unix()-1, now))

	// A deadline equal to now is already expired; the comparison is strict.
	assert.False(t, fresh(now.Unix(), now))

	// The sentinel is fresh forever.
	assert.True(t, fresh(NeverExpires, now))
	assert.True(t, fresh(NeverExpires, now.Add(100*365*24*time.Hour)))
}
