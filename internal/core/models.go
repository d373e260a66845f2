package core

import (
	"time"
)

type ProviderType string

const (
	ProviderWhatsApp ProviderType = "whatsapp"
	ProviderLine     ProviderType = "line"
	ProviderKakao    ProviderType = "kakao"
	ProviderTelegram ProviderType = "telegram"
)

type MessageType string

const (
	TypeText        MessageType = "text"
	TypeTemplate    MessageType = "template"
	TypeMedia       MessageType = "media"
	TypeInteractive MessageType = "interactive"
	TypeLocation    MessageType = "location"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// MessageContent is the platform-shaped payload produced by a content
// factory. Treated as immutable once built.
type MessageContent struct {
	Body     string
	Type     MessageType
	Metadata *ContentMetadata
}

type ContentMetadata struct {
	TemplateName string
	Parameters   []string
}

// MessageOptions carries transport hints. Every field is optional; each
// provider supplies its own defaults when a field is absent.
type MessageOptions struct {
	Language   string
	PreviewURL bool
	Template   *TemplateData
}

// TemplateData names a pre-registered template plus its language and
// component parameters for platforms that require template-initiated sends.
type TemplateData struct {
	Name       string
	Language   string
	Components []TemplateComponent
}

type TemplateComponent struct {
	Type       string              `json:"type"`
	Parameters []TemplateParameter `json:"parameters"`
}

type TemplateParameter struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessageResponse is the single result envelope every dispatch path yields,
// success or failure. Providers never leak raw errors past it.
type MessageResponse struct {
	Success    bool   `json:"success"`
	MessageID  string `json:"messageId,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode"`
}

// Message is a persisted inbound or outbound message record.
type Message struct {
	ID                string         `json:"id"`
	Platform          ProviderType   `json:"platform"`
	Direction         Direction      `json:"direction"`
	Status            Status         `json:"status"`
	PlatformMessageID *string        `json:"platform_message_id,omitempty"`
	PlatformChatID    string         `json:"platform_chat_id"`
	PlatformUserID    *string        `json:"platform_user_id,omitempty"`
	Content           string         `json:"content"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// OrderNotificationParams is the domain event behind an order notification.
type OrderNotificationParams struct {
	OrderNumber  string
	CustomerName string
	Items        []string
	Total        float64
	DeliveryDate *time.Time
	Notes        string
}

// DeliveryUpdateParams is declared for the factory capability; no variant
// implements it yet.
type DeliveryUpdateParams struct {
	OrderNumber string
	ETA         *time.Time
}
