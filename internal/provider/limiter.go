package provider

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/orderdesk/message-gateway/internal/core"
)

// Limiters hands out one rate limiter per provider type, created lazily
// with shared settings. Isolation per platform: exhausting one provider's
// burst never delays sends on another.
type Limiters struct {
	qps   rate.Limit
	burst int

	mu sync.Mutex
	m  map[core.ProviderType]*rate.Limiter
}

func NewLimiters(qps rate.Limit, burst int) *Limiters {
	return &Limiters{
		qps:   qps,
		burst: burst,
		m:     make(map[core.ProviderType]*rate.Limiter),
	}
}

// For returns the limiter for one provider type, always the same instance
// for the same type.
func (l *Limiters) For(typ core.ProviderType) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.m[typ]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.qps, l.burst)
	l.m[typ] = lim
	return lim
}
