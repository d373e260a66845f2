package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
)

// Line shapes LINE Messaging API payloads. Networking is stubbed: the
// payload is logged and a synthetic success returned, pending a real
// channel integration. Auth is the static channel token from config, so
// the token manager is not involved.
type Line struct {
	cfg  *config.Config
	deps Deps
	now  func() time.Time
}

func NewLine(cfg *config.Config, deps Deps) *Line {
	deps.fill()
	return &Line{cfg: cfg, deps: deps, now: time.Now}
}

func (l *Line) SendMessage(ctx context.Context, to string, content core.MessageContent, opts *core.MessageOptions) core.MessageResponse {
	payload, err := l.buildPayload(to, content, opts)
	if err != nil {
		return failure(err)
	}

	l.deps.Logger.Info("line payload built (network stub)", "to", to, "payload", payload)

	return core.MessageResponse{
		Success:    true,
		MessageID:  fmt.Sprintf("line_%d", l.now().UnixMilli()),
		StatusCode: 200,
	}
}

func (l *Line) buildPayload(to string, content core.MessageContent, opts *core.MessageOptions) (map[string]any, error) {
	switch content.Type {
	case core.TypeText:
		return map[string]any{
			"to": to,
			"messages": []map[string]any{{
				"type": "text",
				"text": content.Body,
			}},
		}, nil

	case core.TypeTemplate:
		altText := content.Body
		if altText == "" {
			altText = "Template Message"
		}
		var title string
		if opts != nil && opts.Template != nil {
			title = opts.Template.Name
		}
		var actions []map[string]any
		if content.Metadata != nil {
			for _, p := range content.Metadata.Parameters {
				actions = append(actions, map[string]any{
					"type":  "message",
					"label": p,
					"text":  p,
				})
			}
		}
		return map[string]any{
			"to": to,
			"messages": []map[string]any{{
				"type":    "template",
				"altText": altText,
				"template": map[string]any{
					"type":    "buttons",
					"title":   title,
					"text":    content.Body,
					"actions": actions,
				},
			}},
		}, nil

	default:
		return nil, &core.UnsupportedMessageTypeError{Provider: core.ProviderLine, Type: content.Type}
	}
}
