package content_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/message-gateway/internal/content"
	"github.com/orderdesk/message-gateway/internal/core"
)

func orderParams() core.OrderNotificationParams {
	return core.OrderNotificationParams{
		OrderNumber:  "1001",
		CustomerName: "Acme",
		Items:        []string{"Widget x2", "Gadget x1"},
		Total:        49.98,
	}
}

func TestWhatsAppOrderNotification_TemplateParameters(t *testing.T) {
	c, err := content.WhatsAppFactory{}.OrderNotification(orderParams())
	require.NoError(t, err)

	require.Equal(t, core.TypeTemplate, c.Type)
	require.Empty(t, c.Body)
	require.Equal(t, "order_success", c.Metadata.TemplateName)
	require.Equal(t, []string{
		"Acme", "1001", "2", "Widget x2 | Gadget x1", "49.98", "To be confirmed",
	}, c.Metadata.Parameters)
}

func TestWhatsAppOrderNotification_Deterministic(t *testing.T) {
	a, err := content.WhatsAppFactory{}.OrderNotification(orderParams())
	require.NoError(t, err)
	b, err := content.WhatsAppFactory{}.OrderNotification(orderParams())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestWhatsAppOrderNotification_DefaultCustomerName(t *testing.T) {
	p := orderParams()
	p.CustomerName = ""
	c, err := content.WhatsAppFactory{}.OrderNotification(p)
	require.NoError(t, err)
	require.Equal(t, "Valued Customer", c.Metadata.Parameters[0])
}

func TestLineOrderNotification_ButtonsTemplate(t *testing.T) {
	p := orderParams()
	p.Notes = "leave at door"
	c, err := content.LineFactory{}.OrderNotification(p)
	require.NoError(t, err)

	require.Equal(t, core.TypeTemplate, c.Type)
	require.Contains(t, c.Body, "Order #1001")
	require.Contains(t, c.Body, "Notes: leave at door")
	require.Equal(t, []string{"View Order Details", "Contact Customer", "Modify Order"}, c.Metadata.Parameters)
}

func TestTelegramOrderNotification_HTMLBody(t *testing.T) {
	when := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	p := orderParams()
	p.DeliveryDate = &when
	c, err := content.TelegramFactory{}.OrderNotification(p)
	require.NoError(t, err)

	require.Equal(t, core.TypeText, c.Type)
	require.Contains(t, c.Body, "New Order #1001")
	require.Contains(t, c.Body, "Acme")
	require.Contains(t, c.Body, "• Widget x2")
	require.Contains(t, c.Body, "$49.98")
	require.Contains(t, c.Body, "3/4/2026")
}

func TestDeliveryUpdate_NotImplementedEverywhere(t *testing.T) {
	factories := []content.Factory{
		content.WhatsAppFactory{},
		content.LineFactory{},
		content.TelegramFactory{},
	}
	for _, f := range factories {
		_, err := f.DeliveryUpdate(core.DeliveryUpdateParams{OrderNumber: "1001"})
		require.ErrorIs(t, err, core.ErrNotImplemented)
	}
}

func TestForProvider_ClosedSet(t *testing.T) {
	for _, typ := range []core.ProviderType{core.ProviderWhatsApp, core.ProviderLine, core.ProviderTelegram} {
		f, err := content.ForProvider(typ)
		require.NoError(t, err)
		require.NotNil(t, f)
	}

	_, err := content.ForProvider(core.ProviderKakao)
	require.ErrorIs(t, err, core.ErrNotImplemented)
}
