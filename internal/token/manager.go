// Package token caches provider bearer credentials with TTL semantics.
// Purely in-memory; no network I/O happens here.
package token

import (
	"fmt"
	"sync"
	"time"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
)

// Buffer is the safety margin subtracted from a cached token's expiry so a
// token is never handed out right before it lapses mid-flight.
const Buffer = 5 * time.Minute

// WhatsApp system user tokens are valid for 60 days.
const whatsappTokenTTL = 60 * 24 * time.Hour

type entry struct {
	token     string
	expiresAt time.Time
}

// Manager is a keyed token cache shared by concurrent sends. Construct one
// per process and inject it; there is no package-level instance.
type Manager struct {
	mu    sync.Mutex
	cache map[string]entry
	now   func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		cache: make(map[string]entry),
		now:   time.Now,
	}
}

// GetToken returns a token for the named provider, serving from cache while
// the entry is more than Buffer away from expiry.
func (m *Manager) GetToken(provider core.ProviderType, cfg *config.Config) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.cache[string(provider)]; ok && e.expiresAt.After(now.Add(Buffer)) {
		return e.token, nil
	}

	switch provider {
	case core.ProviderWhatsApp:
		if cfg.WhatsApp.SystemUserToken == "" {
			return "", fmt.Errorf("no WhatsApp system user token available")
		}
		m.cache[string(provider)] = entry{
			token:     cfg.WhatsApp.SystemUserToken,
			expiresAt: now.Add(whatsappTokenTTL),
		}
		return cfg.WhatsApp.SystemUserToken, nil

	case core.ProviderLine:
		// Pre-issued channel token with no refresh flow; pass through
		// without inventing an expiry.
		return cfg.Line.ChannelAccessToken, nil

	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedProvider, provider)
	}
}

// ClearToken evicts the cached entry unconditionally. Called after an
// upstream 401 so the next GetToken re-derives.
func (m *Manager) ClearToken(provider core.ProviderType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, string(provider))
}
