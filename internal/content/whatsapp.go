package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orderdesk/message-gateway/internal/core"
)

// WhatsAppFactory renders notifications against pre-registered WhatsApp
// Business templates. The parameter order must match the server-side
// template definition exactly.
type WhatsAppFactory struct{}

const whatsappOrderTemplate = "order_success"

func (WhatsAppFactory) OrderNotification(params core.OrderNotificationParams) (core.MessageContent, error) {
	customer := params.CustomerName
	if customer == "" {
		customer = "Valued Customer"
	}

	return core.MessageContent{
		Type: core.TypeTemplate,
		Body: "",
		Metadata: &core.ContentMetadata{
			TemplateName: whatsappOrderTemplate,
			Parameters: []string{
				customer,
				params.OrderNumber,
				strconv.Itoa(len(params.Items)),
				strings.Join(params.Items, " | "),
				fmt.Sprintf("%.2f", params.Total),
				formatDeliveryDate(params),
			},
		},
	}, nil
}

func (WhatsAppFactory) DeliveryUpdate(core.DeliveryUpdateParams) (core.MessageContent, error) {
	return core.MessageContent{}, fmt.Errorf("whatsapp delivery update: %w", core.ErrNotImplemented)
}
