package content

import (
	"fmt"
	"strings"

	"github.com/orderdesk/message-gateway/internal/core"
)

// LineFactory renders notifications as LINE buttons templates: a text body
// plus an action list carried through content metadata.
type LineFactory struct{}

func (LineFactory) OrderNotification(params core.OrderNotificationParams) (core.MessageContent, error) {
	lines := []string{
		fmt.Sprintf("Order #%s", params.OrderNumber),
		fmt.Sprintf("Customer: %s", params.CustomerName),
		fmt.Sprintf("Items: %s", strings.Join(params.Items, ", ")),
		fmt.Sprintf("Total: $%.2f", params.Total),
	}
	if params.Notes != "" {
		lines = append(lines, fmt.Sprintf("Notes: %s", params.Notes))
	}
	lines = append(lines, fmt.Sprintf("Delivery: %s", formatDeliveryDate(params)))

	return core.MessageContent{
		Type: core.TypeTemplate,
		Body: strings.Join(lines, "\n"),
		Metadata: &core.ContentMetadata{
			TemplateName: "order_notification",
			Parameters: []string{
				"View Order Details",
				"Contact Customer",
				"Modify Order",
			},
		},
	}, nil
}

func (LineFactory) DeliveryUpdate(core.DeliveryUpdateParams) (core.MessageContent, error) {
	return core.MessageContent{}, fmt.Errorf("line delivery update: %w", core.ErrNotImplemented)
}
