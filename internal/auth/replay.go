package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"lecture_companion_backend/internal/config"

	"github.com/patrickmn/go-cache"
)

const defaultCodeReplayTTL = 10 * time.Minute

// CodeReplayGuard remembers recently submitted authorization codes so a code is
// sent to the provider at most once.
type CodeReplayGuard struct {
	cache *cache.Cache
}

// NewCodeReplayGuard keeps codes for CODE_REPLAY_TTL_MINUTES.
func NewCodeReplayGuard(cfg *config.Config) *CodeReplayGuard {
	ttl := cfg.CodeReplayTTL
	if ttl <= 0 {
		ttl = defaultCodeReplayTTL
	}
	return &CodeReplayGuard{cache: cache.New(ttl, 2*ttl)}
}

// Consume records code and reports whether this is its first use.
func (g *CodeReplayGuard) Consume(code string) bool {
	sum := sha256.Sum256([]byte(code))
	return g.cache.Add(hex.EncodeToString(sum[:]), struct{}{}, cache.DefaultExpiration) == nil
}
