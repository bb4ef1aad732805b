package auth

import (
	"testing"
	"time"

	"lecture_companion_backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestCodeReplayGuard_ConsumeOnce(t *testing.T) {
	g := NewCodeReplayGuard(&config.Config{CodeReplayTTL: time.Minute})

	assert.True(t, g.Consume("code-1"))
	assert.False(t, g.Consume("code-1"))
	assert.True(t, g.Consume("code-2"))
}

func TestCodeReplayGuard_Expires(t *testing.T) {
	g := NewCodeReplayGuard(&config.Config{CodeReplayTTL: 20 * time.Millisecond})

	assert.True(t, g.Consume("code"))
	assert.Eventually(t, func() bool { return g.Consume("code") }, time.Second, 10*time.Millisecond)
}
