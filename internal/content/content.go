// Package content holds the pure factories that turn domain events into
// platform-shaped message payloads. Construction does no I/O and is
// deterministic for identical params.
package content

import (
	"github.com/orderdesk/message-gateway/internal/core"
)

// Factory builds platform content for one messaging platform.
type Factory interface {
	OrderNotification(params core.OrderNotificationParams) (core.MessageContent, error)
	DeliveryUpdate(params core.DeliveryUpdateParams) (core.MessageContent, error)
}

// ForProvider returns the factory for a provider type. Kakao deliberately
// has no factory yet; aliasing it to the WhatsApp one would silently send
// WhatsApp-templated payloads to an unintegrated platform.
func ForProvider(typ core.ProviderType) (Factory, error) {
	switch typ {
	case core.ProviderWhatsApp:
		return WhatsAppFactory{}, nil
	case core.ProviderLine:
		return LineFactory{}, nil
	case core.ProviderTelegram:
		return TelegramFactory{}, nil
	default:
		return nil, core.ErrNotImplemented
	}
}

func formatDeliveryDate(params core.OrderNotificationParams) string {
	if params.DeliveryDate == nil {
		return "To be confirmed"
	}
	return params.DeliveryDate.Format("1/2/2006")
}
