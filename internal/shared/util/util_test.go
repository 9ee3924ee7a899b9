package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)
	now := time.Now()

	assert.True(t, l.AllowAt(now))
	assert.True(t, l.AllowAt(now))
	assert.False(t, l.AllowAt(now), "burst exhausted")
	assert.True(t, l.AllowAt(now.Add(150*time.Millisecond)), "token refilled")
}

func TestLimiter_UnlimitedAndNil(t *testing.T) {
	l := NewLimiter(0, 0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		require.True(t, l.AllowAt(now))
	}

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.AllowAt(now))
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"java", " .JAVA ", "", ".kt"})
	assert.Equal(t, []string{".java", ".kt"}, got)
	assert.True(t, HasExtension("/src/Foo.Java", got))
	assert.False(t, HasExtension("/src/Foo.py", got))
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "Autoserializable", SimpleName("com.yourcompany.Autoserializable"))
	assert.Equal(t, "Autoserializable", SimpleName("Autoserializable"))
	assert.Equal(t, "", SimpleName("trailing."))
}
