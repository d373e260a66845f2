package content

import (
	"fmt"
	"strings"

	"github.com/orderdesk/message-gateway/internal/core"
)

// TelegramFactory skips template negotiation entirely and formats the whole
// notification as one HTML body, which Telegram renders directly.
type TelegramFactory struct{}

func (TelegramFactory) OrderNotification(params core.OrderNotificationParams) (core.MessageContent, error) {
	lines := []string{
		fmt.Sprintf("<b>🛍️ New Order #%s</b>", params.OrderNumber),
		"",
		fmt.Sprintf("<b>👤 Customer:</b> %s", params.CustomerName),
		"",
		"<b>📦 Items:</b>",
	}
	for _, item := range params.Items {
		lines = append(lines, fmt.Sprintf("• %s", item))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("<b>💰 Total:</b> $%.2f", params.Total),
		fmt.Sprintf("<b>📅 Delivery:</b> %s", formatDeliveryDate(params)),
	)
	if params.Notes != "" {
		lines = append(lines, "", "<b>📝 Notes:</b>", params.Notes)
	}

	return core.MessageContent{
		// Text, not template: the formatting already happened here.
		Type: core.TypeText,
		Body: strings.Join(lines, "\n"),
		Metadata: &core.ContentMetadata{
			TemplateName: "order_notification",
		},
	}, nil
}

func (TelegramFactory) DeliveryUpdate(core.DeliveryUpdateParams) (core.MessageContent, error) {
	return core.MessageContent{}, fmt.Errorf("telegram delivery update: %w", core.ErrNotImplemented)
}
