// Package service coordinates content rendering and dispatch for domain
// notifications.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orderdesk/message-gateway/internal/content"
	"github.com/orderdesk/message-gateway/internal/core"
)

// Dispatcher is the network boundary the service sends through. In a
// browser-adjacent deployment this is the API proxy client, so provider
// credentials never reach the calling context.
type Dispatcher interface {
	SendMessage(ctx context.Context, provider core.ProviderType, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse
}

type Service struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func New(dispatcher Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dispatcher: dispatcher, logger: logger}
}

// SendOrderNotification renders the order content for the chosen platform
// and dispatches it. Unlike the providers, this layer is allowed to return
// an error: it runs trusted server-side and its caller handles failures.
func (s *Service) SendOrderNotification(ctx context.Context, recipient string, params core.OrderNotificationParams, providerType core.ProviderType) (core.MessageResponse, error) {
	if providerType == "" {
		providerType = core.ProviderWhatsApp
	}

	factory, err := content.ForProvider(providerType)
	if err != nil {
		s.logger.Error("no content factory for provider", "provider", providerType, "err", err)
		return core.MessageResponse{}, fmt.Errorf("order notification via %s: %w", providerType, err)
	}

	msg, err := factory.OrderNotification(params)
	if err != nil {
		s.logger.Error("order notification render failed", "provider", providerType, "err", err)
		return core.MessageResponse{}, fmt.Errorf("order notification via %s: %w", providerType, err)
	}

	// Telegram ships pre-formatted text and needs no template negotiation.
	var opts *core.MessageOptions
	if providerType != core.ProviderTelegram {
		name := ""
		if msg.Metadata != nil {
			name = msg.Metadata.TemplateName
		}
		opts = &core.MessageOptions{
			Template: &core.TemplateData{Name: name, Language: "en_US"},
		}
	}

	resp := s.dispatcher.SendMessage(ctx, providerType, recipient, msg, opts)
	if !resp.Success {
		s.logger.Error("order notification dispatch failed",
			"provider", providerType, "status", resp.StatusCode, "err", resp.Error)
	}
	return resp, nil
}
