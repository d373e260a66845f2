package provider

import (
	"fmt"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
)

// New constructs a fresh provider for the given type. The constructible set
// is closed: whatsapp, line, telegram. Kakao is a declared type without a
// factory entry, so it fails here like any unknown name. No instance
// caching and no global lookups; the caller supplies all configuration.
func New(typ core.ProviderType, cfg *config.Config, deps Deps) (Provider, error) {
	switch typ {
	case core.ProviderWhatsApp:
		return NewWhatsApp(cfg, deps), nil
	case core.ProviderLine:
		return NewLine(cfg, deps), nil
	case core.ProviderTelegram:
		return NewTelegram(cfg, deps), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedProviderType, typ)
	}
}
